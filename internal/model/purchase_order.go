package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder represents a purchase order. Number is generated
// server-side ("PO-001", "PO-002", ...) from the highest existing numeric
// suffix plus one, so numbers stay monotonic even after deletions.
type PurchaseOrder struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Number       string          `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	SupplierName string          `json:"supplier_name" gorm:"type:varchar(100);index;not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(14,2)"`
	Status       string          `json:"status" gorm:"type:varchar(20);default:'open'"`

	// Optional PDF document, stored inline
	FileName string `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	FileSize int64  `json:"file_size,omitempty"`
	FileData string `json:"file_data,omitempty" gorm:"type:text"` // base64

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
