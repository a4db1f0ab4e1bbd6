package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents a supplier invoice. The pair (invoice_number,
// supplier_name) is the logical identity of an invoice.
//
// TotalAmount is always recomputed as AmountBeforeTax + TaxAmount when the
// record is saved; a client-submitted total is never trusted.
type Invoice struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	InvoiceNumber   string          `json:"invoice_number" gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_number_supplier"`
	SupplierName    string          `json:"supplier_name" gorm:"type:varchar(100);index;not null;uniqueIndex:idx_invoice_number_supplier"`
	Date            time.Time       `json:"date"`
	AmountBeforeTax decimal.Decimal `json:"amount_before_tax" gorm:"type:numeric(14,2)"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:numeric(14,2)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(14,2)"`
	Status          string          `json:"status" gorm:"type:varchar(20);default:'open'"`

	// A purchase order may have many invoices; an invoice references at
	// most one purchase order, by its generated number.
	PurchaseOrderNumber *string `json:"purchase_order_number,omitempty" gorm:"type:varchar(20);index"`

	// Optional scanned document, stored inline
	FileName string `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	FileType string `json:"file_type,omitempty" gorm:"type:varchar(100)"`
	FileSize int64  `json:"file_size,omitempty"`
	FileData string `json:"file_data,omitempty" gorm:"type:text"` // base64

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
