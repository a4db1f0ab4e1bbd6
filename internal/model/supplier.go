package model

import (
	"time"

	"gorm.io/gorm"
)

// Supplier represents the supplier model stored in the database.
// Name is the identity key: invoices, payments and purchase orders all
// reference a supplier by name, so renames must cascade over those tables.
type Supplier struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	ContactPerson string         `json:"contact_person" gorm:"type:varchar(100)"`
	Email         string         `json:"email" gorm:"type:varchar(100)"`
	Phone         string         `json:"phone" gorm:"type:varchar(20)"`
	Notes         string         `json:"notes" gorm:"type:text"`
	Pinned        bool           `json:"pinned" gorm:"default:false;comment:'Pinned suppliers are listed first'"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
