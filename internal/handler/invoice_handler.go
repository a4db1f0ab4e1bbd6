package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
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

// InvoiceRequest defines the structure for invoice creation/update requests.
// TotalAmount is accepted for wire compatibility but never trusted: the
// stored total is always recomputed from the components.
// A nil PurchaseOrderNumber leaves any existing link untouched; clearing a
// link goes through the dedicated unlink endpoint.
type InvoiceRequest struct {
	InvoiceNumber       string          `json:"invoice_number" validate:"required"`
	SupplierName        string          `json:"supplier_name" validate:"required"`
	Date                time.Time       `json:"date"`
	AmountBeforeTax     decimal.Decimal `json:"amount_before_tax"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	Status              string          `json:"status"`
	PurchaseOrderNumber *string         `json:"purchase_order_number"`
	FileName            string          `json:"file_name"`
	FileType            string          `json:"file_type"`
	FileData            string          `json:"file_data"` // base64
}

func (req *InvoiceRequest) validate() (string, bool) {
	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	req.SupplierName = strings.TrimSpace(req.SupplierName)
	if req.InvoiceNumber == "" {
		return "invoice_number is required", false
	}
	if req.SupplierName == "" {
		return "supplier_name is required", false
	}
	if req.AmountBeforeTax.IsNegative() {
		return "amount_before_tax must not be negative", false
	}
	if req.TaxAmount.IsNegative() {
		return "tax_amount must not be negative", false
	}
	return "", true
}

// applyTo copies the request onto an invoice record, recomputing the total
// and decoding the optional file payload
func (req *InvoiceRequest) applyTo(invoice *model.Invoice) error {
	invoice.InvoiceNumber = req.InvoiceNumber
	invoice.SupplierName = req.SupplierName
	invoice.Date = req.Date
	invoice.AmountBeforeTax = req.AmountBeforeTax
	invoice.TaxAmount = req.TaxAmount
	invoice.TotalAmount = ledger.InvoiceTotal(req.AmountBeforeTax, req.TaxAmount)
	if req.Status != "" {
		invoice.Status = req.Status
	}

	if req.FileData != "" {
		raw, err := base64.StdEncoding.DecodeString(req.FileData)
		if err != nil {
			return err
		}
		invoice.FileName = req.FileName
		invoice.FileType = req.FileType
		invoice.FileSize = int64(len(raw))
		invoice.FileData = req.FileData
	}
	return nil
}

// CreateInvoice creates a new invoice
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new invoice")
	prometheus.RecordOperation("invoice", "create")

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Invoice validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": msg,
		})
	}

	// The invoice number is unique per supplier
	var count int64
	database.GetDB().Model(&model.Invoice{}).
		Where("invoice_number = ? AND supplier_name = ?", req.InvoiceNumber, req.SupplierName).
		Count(&count)
	if count > 0 {
		log.Warn("Invoice already exists for this supplier",
			zap.String("invoice_number", req.InvoiceNumber),
			zap.String("supplier_name", req.SupplierName))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Invoice with this number already exists for this supplier",
		})
	}

	var invoice model.Invoice
	if err := req.applyTo(&invoice); err != nil {
		log.Warn("Invalid file payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file_data must be base64 encoded",
		})
	}

	if req.PurchaseOrderNumber != nil {
		if err := ensurePurchaseOrderExists(*req.PurchaseOrderNumber); err != nil {
			log.Warn("Linked purchase order not found",
				zap.String("purchase_order_number", *req.PurchaseOrderNumber))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Linked purchase order not found",
			})
		}
		invoice.PurchaseOrderNumber = req.PurchaseOrderNumber
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&invoice); result.Error != nil {
		log.Error("Failed to create invoice",
			zap.String("invoice_number", req.InvoiceNumber),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create invoice",
		})
	}

	scheduleStatsRefresh()

	log.Info("Invoice created successfully",
		zap.Uint("id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("supplier_name", invoice.SupplierName),
		zap.String("total_amount", invoice.TotalAmount.String()))
	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice retrieves an invoice by ID
func GetInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("invoice", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid invoice ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	if result := database.GetDB().First(&invoice, id); result.Error != nil {
		log.Warn("Invoice not found", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Invoice not found",
		})
	}

	return c.JSON(http.StatusOK, invoice)
}

// ListInvoices retrieves invoices, optionally filtered by supplier name
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("invoice", "list")

	query := database.GetDB().Order("date desc")
	if supplier := c.QueryParam("supplier"); supplier != "" {
		query = query.Where("supplier_name = ?", supplier)
		log.Info("Filtering invoices by supplier", zap.String("supplier_name", supplier))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if result := query.Find(&invoices); result.Error != nil {
		log.Error("Failed to retrieve invoices", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve invoices",
		})
	}

	log.Info("Invoices retrieved successfully", zap.Int("count", len(invoices)))
	return c.JSON(http.StatusOK, echo.Map{
		"invoices": invoices,
	})
}

// UpdateInvoice updates an existing invoice. The total is recomputed from
// the submitted components regardless of any client-sent total.
func UpdateInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("invoice", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid invoice ID",
		})
	}

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("invoice_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Invoice validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": msg,
		})
	}

	var invoice model.Invoice
	if result := database.GetDB().First(&invoice, id); result.Error != nil {
		log.Warn("Invoice not found for update", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Invoice not found",
		})
	}

	// Re-check identity uniqueness when the number or supplier changed
	if req.InvoiceNumber != invoice.InvoiceNumber || req.SupplierName != invoice.SupplierName {
		var count int64
		database.GetDB().Model(&model.Invoice{}).
			Where("invoice_number = ? AND supplier_name = ? AND id != ?",
				req.InvoiceNumber, req.SupplierName, id).
			Count(&count)
		if count > 0 {
			log.Warn("Invoice already exists for this supplier",
				zap.String("invoice_number", req.InvoiceNumber),
				zap.String("supplier_name", req.SupplierName))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Invoice with this number already exists for this supplier",
			})
		}
	}

	if err := req.applyTo(&invoice); err != nil {
		log.Warn("Invalid file payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file_data must be base64 encoded",
		})
	}

	if req.PurchaseOrderNumber != nil {
		if err := ensurePurchaseOrderExists(*req.PurchaseOrderNumber); err != nil {
			log.Warn("Linked purchase order not found",
				zap.String("purchase_order_number", *req.PurchaseOrderNumber))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Linked purchase order not found",
			})
		}
		invoice.PurchaseOrderNumber = req.PurchaseOrderNumber
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Save(&invoice); result.Error != nil {
		log.Error("Failed to update invoice", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update invoice",
		})
	}

	scheduleStatsRefresh()

	log.Info("Invoice updated successfully",
		zap.Uint64("invoice_id", id),
		zap.String("total_amount", invoice.TotalAmount.String()))
	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice deletes an invoice
func DeleteInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("invoice", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid invoice ID",
		})
	}

	var invoice model.Invoice
	if result := database.GetDB().First(&invoice, id); result.Error != nil {
		log.Warn("Invoice not found", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Invoice not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&invoice); result.Error != nil {
		log.Error("Failed to delete invoice", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete invoice",
		})
	}

	scheduleStatsRefresh()

	log.Info("Invoice deleted successfully",
		zap.Uint64("invoice_id", id),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Invoice deleted successfully",
	})
}

// LinkRequest carries the purchase order number to link an invoice to
type LinkRequest struct {
	Number string `json:"number" validate:"required"`
}

// LinkInvoicePurchaseOrder links an invoice to a purchase order. An invoice
// references at most one purchase order; relinking replaces the reference.
func LinkInvoicePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("invoice", "link")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid invoice ID",
		})
	}

	var req LinkRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Number) == "" {
		log.Warn("Missing purchase order number")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "number is required",
		})
	}

	var invoice model.Invoice
	if result := database.GetDB().First(&invoice, id); result.Error != nil {
		log.Warn("Invoice not found", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Invoice not found",
		})
	}

	if err := ensurePurchaseOrderExists(req.Number); err != nil {
		log.Warn("Purchase order not found", zap.String("number", req.Number))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	invoice.PurchaseOrderNumber = &req.Number
	if result := database.GetDB().Save(&invoice); result.Error != nil {
		log.Error("Failed to link invoice", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to link invoice",
		})
	}

	log.Info("Invoice linked to purchase order",
		zap.Uint64("invoice_id", id),
		zap.String("purchase_order_number", req.Number))
	return c.JSON(http.StatusOK, invoice)
}

// UnlinkInvoicePurchaseOrder clears the purchase order reference on an invoice
func UnlinkInvoicePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("invoice", "unlink")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid invoice ID",
		})
	}

	var invoice model.Invoice
	if result := database.GetDB().First(&invoice, id); result.Error != nil {
		log.Warn("Invoice not found", zap.Uint64("invoice_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Invoice not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := database.GetDB().Model(&invoice).
		Update("purchase_order_number", nil).Error; err != nil {
		log.Error("Failed to unlink invoice", zap.Uint64("invoice_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to unlink invoice",
		})
	}

	invoice.PurchaseOrderNumber = nil

	log.Info("Invoice unlinked from purchase order", zap.Uint64("invoice_id", id))
	return c.JSON(http.StatusOK, invoice)
}

// ensurePurchaseOrderExists verifies that a purchase order with the given
// number exists
func ensurePurchaseOrderExists(number string) error {
	var po model.PurchaseOrder
	return database.GetDB().Where("number = ?", number).First(&po).Error
}
