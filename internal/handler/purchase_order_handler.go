package handler

import (
	"encoding/base64"
	"errors"
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
	"gorm.io/gorm"
)

// maxNumberRetries bounds how often a create re-derives the order number
// after losing a concurrent race for it
const maxNumberRetries = 3

// PurchaseOrderRequest defines the structure for purchase order
// creation/update requests. The order number is generated server-side and
// cannot be submitted.
type PurchaseOrderRequest struct {
	SupplierName string          `json:"supplier_name" validate:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"`
	FileName     string          `json:"file_name"`
	FileData     string          `json:"file_data"` // base64 PDF
}

func (req *PurchaseOrderRequest) validate() (string, bool) {
	req.SupplierName = strings.TrimSpace(req.SupplierName)
	if req.SupplierName == "" {
		return "supplier_name is required", false
	}
	if req.Price.IsNegative() {
		return "price must not be negative", false
	}
	return "", true
}

func (req *PurchaseOrderRequest) applyTo(po *model.PurchaseOrder) error {
	po.SupplierName = req.SupplierName
	po.Description = req.Description
	po.Price = req.Price
	if req.Status != "" {
		po.Status = req.Status
	}

	if req.FileData != "" {
		raw, err := base64.StdEncoding.DecodeString(req.FileData)
		if err != nil {
			return err
		}
		po.FileName = req.FileName
		po.FileSize = int64(len(raw))
		po.FileData = req.FileData
	}
	return nil
}

// CreatePurchaseOrder creates a new purchase order with a generated number
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new purchase order")
	prometheus.RecordOperation("purchase_order", "create")

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Purchase order validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": msg,
		})
	}

	var po model.PurchaseOrder
	if err := req.applyTo(&po); err != nil {
		log.Warn("Invalid file payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file_data must be base64 encoded",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	// The unique index on number is what actually enforces number
	// uniqueness: two concurrent creates can derive the same number from
	// the same snapshot, so the loser re-derives from current state and
	// retries instead of failing.
	var createErr error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		var numbers []string
		if err := database.GetDB().Model(&model.PurchaseOrder{}).Pluck("number", &numbers).Error; err != nil {
			log.Error("Failed to load purchase order numbers", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to create purchase order",
			})
		}
		po.Number = ledger.NextPurchaseOrderNumber(numbers)

		createErr = database.GetDB().Create(&po).Error
		if createErr == nil {
			break
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			break
		}
		log.Warn("Purchase order number taken by a concurrent create, retrying",
			zap.String("number", po.Number),
			zap.Int("attempt", attempt+1))
		po.ID = 0
	}
	if createErr != nil {
		log.Error("Failed to create purchase order",
			zap.String("number", po.Number),
			zap.Error(createErr))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create purchase order",
		})
	}

	log.Info("Purchase order created successfully",
		zap.Uint("id", po.ID),
		zap.String("number", po.Number),
		zap.String("supplier_name", po.SupplierName))
	return c.JSON(http.StatusCreated, po)
}

// GetPurchaseOrder retrieves a purchase order by ID
func GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, id); result.Error != nil {
		log.Warn("Purchase order not found", zap.Uint64("purchase_order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	return c.JSON(http.StatusOK, po)
}

// GetPurchaseOrderSummary retrieves a purchase order with its linked
// invoices and their total amount
func GetPurchaseOrderSummary(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order", "summary")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, id); result.Error != nil {
		log.Warn("Purchase order not found", zap.Uint64("purchase_order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := database.GetDB().Find(&invoices).Error; err != nil {
		log.Error("Failed to load invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute purchase order summary",
		})
	}

	summary := ledger.PurchaseOrderSummary(po, invoices)

	log.Info("Purchase order summary computed",
		zap.String("number", po.Number),
		zap.Int("linked_invoices", len(summary.LinkedInvoices)),
		zap.String("total_invoice_amount", summary.TotalInvoiceAmount.String()))
	return c.JSON(http.StatusOK, echo.Map{
		"purchase_order": po,
		"summary":        summary,
	})
}

// ListPurchaseOrders retrieves all purchase orders, most recently generated
// first (by the numeric suffix of the order number)
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order", "list")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.PurchaseOrder
	query := database.GetDB()
	if supplier := c.QueryParam("supplier"); supplier != "" {
		query = query.Where("supplier_name = ?", supplier)
		log.Info("Filtering purchase orders by supplier", zap.String("supplier_name", supplier))
	}
	if result := query.Find(&orders); result.Error != nil {
		log.Error("Failed to retrieve purchase orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}

	ledger.SortPurchaseOrders(orders)

	log.Info("Purchase orders retrieved successfully", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, echo.Map{
		"purchase_orders": orders,
	})
}

// UpdatePurchaseOrder updates an existing purchase order. The generated
// number is immutable.
func UpdatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("purchase_order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Purchase order validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": msg,
		})
	}

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, id); result.Error != nil {
		log.Warn("Purchase order not found for update",
			zap.Uint64("purchase_order_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	if err := req.applyTo(&po); err != nil {
		log.Warn("Invalid file payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file_data must be base64 encoded",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Save(&po); result.Error != nil {
		log.Error("Failed to update purchase order",
			zap.Uint64("purchase_order_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update purchase order",
		})
	}

	log.Info("Purchase order updated successfully",
		zap.Uint64("purchase_order_id", id),
		zap.String("number", po.Number))
	return c.JSON(http.StatusOK, po)
}

// DeletePurchaseOrder deletes a purchase order and clears the reference on
// every invoice linked to it, in one transaction, so no invoice is left
// pointing at a missing order
func DeletePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("purchase_order", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var po model.PurchaseOrder
	if result := database.GetDB().First(&po, id); result.Error != nil {
		log.Warn("Purchase order not found", zap.Uint64("purchase_order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to start transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	if err := tx.Model(&model.Invoice{}).
		Where("purchase_order_number = ?", po.Number).
		Update("purchase_order_number", nil).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to clear invoice links", zap.String("number", po.Number), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	if err := tx.Delete(&po).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to delete purchase order",
			zap.Uint64("purchase_order_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit purchase order delete", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	log.Info("Purchase order deleted successfully",
		zap.Uint64("purchase_order_id", id),
		zap.String("number", po.Number))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Purchase order deleted successfully",
	})
}
