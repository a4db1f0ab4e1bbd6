package handler

import (
	"net/http"
	"time"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
	"procurement-service/pkg/database"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DashboardResponse aggregates the headline numbers shown on the overview
// screen. Everything is re-derived from current record state on each call.
type DashboardResponse struct {
	Suppliers        int             `json:"suppliers"`
	Invoices         int             `json:"invoices"`
	Payments         int             `json:"payments"`
	PurchaseOrders   int             `json:"purchase_orders"`
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// GetDashboard computes the overview statistics
func GetDashboard(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("dashboard", "get")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var suppliers []model.Supplier
	if err := database.GetDB().Find(&suppliers).Error; err != nil {
		log.Error("Failed to load suppliers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute dashboard",
		})
	}

	invoices, payments, err := loadLedgerRecords()
	if err != nil {
		log.Error("Failed to load ledger records", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute dashboard",
		})
	}

	var orderCount int64
	database.GetDB().Model(&model.PurchaseOrder{}).Count(&orderCount)

	resp := DashboardResponse{
		Suppliers:        len(suppliers),
		Invoices:         len(invoices),
		Payments:         len(payments),
		PurchaseOrders:   int(orderCount),
		TotalInvoiced:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}

	for _, inv := range invoices {
		resp.TotalInvoiced = resp.TotalInvoiced.Add(inv.TotalAmount)
	}
	for _, p := range payments {
		resp.TotalPaid = resp.TotalPaid.Add(p.Amount)
	}

	// Outstanding is summed per supplier so one supplier's overpayment
	// cannot offset another's debt
	for _, s := range suppliers {
		stats := ledger.SupplierStats(s.Name, invoices, payments)
		resp.TotalOutstanding = resp.TotalOutstanding.Add(stats.Outstanding)
	}

	log.Info("Dashboard computed",
		zap.Int("suppliers", resp.Suppliers),
		zap.Int("invoices", resp.Invoices),
		zap.String("total_outstanding", resp.TotalOutstanding.String()))
	return c.JSON(http.StatusOK, resp)
}
