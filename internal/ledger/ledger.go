// Package ledger computes financial rollups for suppliers and purchase
// orders. All functions are pure projections over the record slices they
// are given: no I/O, no stored aggregates, safe to call repeatedly.
package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"procurement-service/internal/model"

	"github.com/shopspring/decimal"
)

// Stats holds the financial rollup for a single supplier
type Stats struct {
	InvoiceCount  int             `json:"invoice_count"`
	TotalInvoiced decimal.Decimal `json:"total_invoiced"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// SupplierStats computes the rollup for one supplier from the full invoice
// and payment sets. Supplier names are compared exactly. Nil slices and an
// empty name yield zeroed stats. Outstanding is clamped at zero: an
// overpayment is absorbed, never reported as a negative balance.
func SupplierStats(supplierName string, invoices []model.Invoice, payments []model.Payment) Stats {
	stats := Stats{
		TotalInvoiced: decimal.Zero,
		TotalPaid:     decimal.Zero,
		Outstanding:   decimal.Zero,
	}
	if supplierName == "" {
		return stats
	}

	for _, inv := range invoices {
		if inv.SupplierName == supplierName {
			stats.InvoiceCount++
			stats.TotalInvoiced = stats.TotalInvoiced.Add(inv.TotalAmount)
		}
	}
	for _, p := range payments {
		if p.SupplierName == supplierName {
			stats.TotalPaid = stats.TotalPaid.Add(p.Amount)
		}
	}

	outstanding := stats.TotalInvoiced.Sub(stats.TotalPaid)
	if outstanding.IsPositive() {
		stats.Outstanding = outstanding
	}
	return stats
}

// Summary holds the invoice linkage rollup for a purchase order
type Summary struct {
	LinkedInvoices     []model.Invoice `json:"linked_invoices"`
	TotalInvoiceAmount decimal.Decimal `json:"total_invoice_amount"`
}

// PurchaseOrderSummary collects the invoices linked to the given purchase
// order and their total amount
func PurchaseOrderSummary(po model.PurchaseOrder, invoices []model.Invoice) Summary {
	summary := Summary{
		LinkedInvoices:     []model.Invoice{},
		TotalInvoiceAmount: decimal.Zero,
	}
	for _, inv := range invoices {
		if inv.PurchaseOrderNumber != nil && *inv.PurchaseOrderNumber == po.Number {
			summary.LinkedInvoices = append(summary.LinkedInvoices, inv)
			summary.TotalInvoiceAmount = summary.TotalInvoiceAmount.Add(inv.TotalAmount)
		}
	}
	return summary
}

// InvoiceTotal recomputes an invoice total from its components. The stored
// total is always derived from this, never taken from client input.
func InvoiceTotal(amountBeforeTax, taxAmount decimal.Decimal) decimal.Decimal {
	return amountBeforeTax.Add(taxAmount)
}

// NextPurchaseOrderNumber derives the next order number from the existing
// ones: highest numeric suffix plus one, not count plus one, so deleted
// orders never cause a number to be reissued. An empty set yields "PO-001".
func NextPurchaseOrderNumber(existing []string) string {
	max := 0
	for _, number := range existing {
		if n, ok := numericSuffix(number); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("PO-%03d", max+1)
}

// SortPurchaseOrders orders purchase orders by numeric suffix, descending,
// so the most recently generated order comes first
func SortPurchaseOrders(orders []model.PurchaseOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		ni, _ := numericSuffix(orders[i].Number)
		nj, _ := numericSuffix(orders[j].Number)
		return ni > nj
	})
}

// PartitionSuppliers returns suppliers with pinned ones first. The relative
// order within each group is the order the caller supplied.
func PartitionSuppliers(suppliers []model.Supplier) []model.Supplier {
	result := make([]model.Supplier, 0, len(suppliers))
	for _, s := range suppliers {
		if s.Pinned {
			result = append(result, s)
		}
	}
	for _, s := range suppliers {
		if !s.Pinned {
			result = append(result, s)
		}
	}
	return result
}

// numericSuffix extracts the number after the last dash of an order number
// such as "PO-003". Malformed numbers report ok=false and are ignored by
// the callers.
func numericSuffix(number string) (int, bool) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(number[idx+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
