package ledger

import (
	"testing"

	"procurement-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inv(supplier string, total float64) model.Invoice {
	return model.Invoice{SupplierName: supplier, TotalAmount: decimal.NewFromFloat(total)}
}

func pay(supplier string, amount float64) model.Payment {
	return model.Payment{SupplierName: supplier, Amount: decimal.NewFromFloat(amount)}
}

func TestSupplierStats(t *testing.T) {
	t.Run("sums invoices and payments for the named supplier only", func(t *testing.T) {
		invoices := []model.Invoice{inv("X", 100), inv("Y", 999), inv("X", 50)}
		payments := []model.Payment{pay("X", 30), pay("Y", 999)}

		stats := SupplierStats("X", invoices, payments)

		assert.Equal(t, 2, stats.InvoiceCount)
		assert.True(t, stats.TotalInvoiced.Equal(decimal.NewFromInt(150)))
		assert.True(t, stats.TotalPaid.Equal(decimal.NewFromInt(30)))
		assert.True(t, stats.Outstanding.Equal(decimal.NewFromInt(120)))
	})

	t.Run("outstanding is clamped at zero on overpayment", func(t *testing.T) {
		invoices := []model.Invoice{inv("X", 1000)}
		payments := []model.Payment{pay("X", 1200)}

		stats := SupplierStats("X", invoices, payments)

		assert.True(t, stats.Outstanding.IsZero(), "overpayment must be absorbed, not reported as -200")
	})

	t.Run("order independent", func(t *testing.T) {
		invoices := []model.Invoice{inv("X", 10), inv("X", 20), inv("X", 30)}
		payments := []model.Payment{pay("X", 5), pay("X", 15)}
		shuffledInvoices := []model.Invoice{invoices[2], invoices[0], invoices[1]}
		shuffledPayments := []model.Payment{payments[1], payments[0]}

		a := SupplierStats("X", invoices, payments)
		b := SupplierStats("X", shuffledInvoices, shuffledPayments)

		assert.Equal(t, a.InvoiceCount, b.InvoiceCount)
		assert.True(t, a.TotalInvoiced.Equal(b.TotalInvoiced))
		assert.True(t, a.TotalPaid.Equal(b.TotalPaid))
		assert.True(t, a.Outstanding.Equal(b.Outstanding))
	})

	t.Run("missing records yield zeroed stats, never an error", func(t *testing.T) {
		stats := SupplierStats("X", nil, nil)
		assert.Equal(t, 0, stats.InvoiceCount)
		assert.True(t, stats.TotalInvoiced.IsZero())
		assert.True(t, stats.TotalPaid.IsZero())
		assert.True(t, stats.Outstanding.IsZero())

		stats = SupplierStats("", []model.Invoice{inv("X", 10)}, nil)
		assert.True(t, stats.TotalInvoiced.IsZero())
	})

	t.Run("unset invoice totals count as zero", func(t *testing.T) {
		invoices := []model.Invoice{{SupplierName: "X"}, inv("X", 40)}
		stats := SupplierStats("X", invoices, nil)

		assert.Equal(t, 2, stats.InvoiceCount)
		assert.True(t, stats.TotalInvoiced.Equal(decimal.NewFromInt(40)))
	})

	t.Run("name comparison is exact", func(t *testing.T) {
		invoices := []model.Invoice{inv("Acme", 100), inv("acme", 50)}
		stats := SupplierStats("Acme", invoices, nil)

		assert.Equal(t, 1, stats.InvoiceCount)
		assert.True(t, stats.TotalInvoiced.Equal(decimal.NewFromInt(100)))
	})
}

func TestPurchaseOrderSummary(t *testing.T) {
	po := model.PurchaseOrder{Number: "PO-002", SupplierName: "X"}
	other := "PO-001"
	mine := "PO-002"

	invoices := []model.Invoice{
		{SupplierName: "X", TotalAmount: decimal.NewFromInt(100), PurchaseOrderNumber: &mine},
		{SupplierName: "X", TotalAmount: decimal.NewFromInt(40), PurchaseOrderNumber: &other},
		{SupplierName: "X", TotalAmount: decimal.NewFromInt(25), PurchaseOrderNumber: &mine},
		{SupplierName: "X", TotalAmount: decimal.NewFromInt(999)},
	}

	summary := PurchaseOrderSummary(po, invoices)

	require.Len(t, summary.LinkedInvoices, 2)
	assert.True(t, summary.TotalInvoiceAmount.Equal(decimal.NewFromInt(125)))
}

func TestInvoiceTotal(t *testing.T) {
	total := InvoiceTotal(decimal.NewFromInt(100), decimal.NewFromInt(15))
	assert.True(t, total.Equal(decimal.NewFromInt(115)))
}

func TestNextPurchaseOrderNumber(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty set starts at one", nil, "PO-001"},
		{"max suffix plus one, not count plus one", []string{"PO-001", "PO-003"}, "PO-004"},
		{"unordered input", []string{"PO-010", "PO-002", "PO-007"}, "PO-011"},
		{"malformed numbers are ignored", []string{"PO-xyz", "PO-", "garbage", "PO-005"}, "PO-006"},
		{"grows past three digits", []string{"PO-999"}, "PO-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPurchaseOrderNumber(tt.existing))
		})
	}
}

func TestSortPurchaseOrders(t *testing.T) {
	orders := []model.PurchaseOrder{
		{Number: "PO-002"},
		{Number: "PO-010"},
		{Number: "PO-001"},
	}

	SortPurchaseOrders(orders)

	require.Len(t, orders, 3)
	assert.Equal(t, "PO-010", orders[0].Number)
	assert.Equal(t, "PO-002", orders[1].Number)
	assert.Equal(t, "PO-001", orders[2].Number)
}

func TestPartitionSuppliers(t *testing.T) {
	suppliers := []model.Supplier{
		{Name: "A"},
		{Name: "B", Pinned: true},
		{Name: "C"},
		{Name: "D", Pinned: true},
	}

	ordered := PartitionSuppliers(suppliers)

	require.Len(t, ordered, 4)
	// Pinned first, original order preserved within each group
	assert.Equal(t, "B", ordered[0].Name)
	assert.Equal(t, "D", ordered[1].Name)
	assert.Equal(t, "A", ordered[2].Name)
	assert.Equal(t, "C", ordered[3].Name)
}
