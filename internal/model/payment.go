package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents a payment made to a supplier. Payments are not tied to
// a specific invoice; they are applied against the supplier's aggregate
// outstanding balance.
type Payment struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	SupplierName string          `json:"supplier_name" gorm:"type:varchar(100);index;not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:numeric(14,2)"`
	Date         time.Time       `json:"date"`
	Notes        string          `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
