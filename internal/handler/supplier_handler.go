package handler

import (
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
	"go.uber.org/zap"
)

// SupplierRequest defines the structure for supplier creation/update requests
type SupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Notes         string `json:"notes"`
	Pinned        bool   `json:"pinned"`
}

// SupplierWithStats is a supplier together with its financial rollup
type SupplierWithStats struct {
	model.Supplier
	Stats ledger.Stats `json:"stats"`
}

// CreateSupplier creates a new supplier
func CreateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new supplier")
	prometheus.RecordOperation("supplier", "create")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		log.Warn("Missing supplier name")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
		})
	}

	// Check if a supplier with this name already exists
	var count int64
	database.GetDB().Model(&model.Supplier{}).
		Where("name = ?", req.Name).
		Count(&count)
	if count > 0 {
		log.Warn("Supplier with this name already exists", zap.String("name", req.Name))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Supplier with this name already exists",
		})
	}

	supplier := model.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Notes:         req.Notes,
		Pinned:        req.Pinned,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&supplier)
	if result.Error != nil {
		log.Error("Failed to create supplier",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create supplier",
		})
	}

	scheduleStatsRefresh()

	log.Info("Supplier created successfully",
		zap.Uint("id", supplier.ID),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusCreated, supplier)
}

// GetSupplier retrieves a supplier by ID
func GetSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var supplier model.Supplier
	result := database.GetDB().First(&supplier, id)
	if result.Error != nil {
		log.Warn("Supplier not found", zap.Uint64("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	return c.JSON(http.StatusOK, supplier)
}

// GetSupplierStats retrieves the financial rollup for a supplier. The
// rollup is recomputed from the current invoice and payment records on
// every call; nothing is stored.
func GetSupplierStats(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "stats")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	var supplier model.Supplier
	if result := database.GetDB().First(&supplier, id); result.Error != nil {
		log.Warn("Supplier not found", zap.Uint64("supplier_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	invoices, payments, err := loadLedgerRecords()
	if err != nil {
		log.Error("Failed to load ledger records", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute supplier stats",
		})
	}

	stats := ledger.SupplierStats(supplier.Name, invoices, payments)

	log.Info("Supplier stats computed",
		zap.String("supplier_name", supplier.Name),
		zap.Int("invoice_count", stats.InvoiceCount),
		zap.String("outstanding", stats.Outstanding.String()))
	return c.JSON(http.StatusOK, SupplierWithStats{Supplier: supplier, Stats: stats})
}

// ListSuppliers retrieves all suppliers, pinned ones first, each with its
// financial rollup
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing suppliers")
	prometheus.RecordOperation("supplier", "list")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var suppliers []model.Supplier
	result := database.GetDB().
		Order("created_at asc").
		Find(&suppliers)
	if result.Error != nil {
		log.Error("Failed to retrieve suppliers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	invoices, payments, err := loadLedgerRecords()
	if err != nil {
		log.Error("Failed to load ledger records", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	ordered := ledger.PartitionSuppliers(suppliers)
	resp := make([]SupplierWithStats, 0, len(ordered))
	for _, s := range ordered {
		resp = append(resp, SupplierWithStats{
			Supplier: s,
			Stats:    ledger.SupplierStats(s.Name, invoices, payments),
		})
	}

	log.Info("Suppliers retrieved successfully", zap.Int("count", len(resp)))
	return c.JSON(http.StatusOK, echo.Map{
		"suppliers": resp,
	})
}

// UpdateSupplier updates an existing supplier. A name change cascades over
// invoices, payments and purchase orders in a single transaction, since
// the supplier name is the join key across all three.
func UpdateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		log.Warn("Missing supplier name", zap.Uint64("supplier_id", id))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
		})
	}

	var supplier model.Supplier
	result := database.GetDB().First(&supplier, id)
	if result.Error != nil {
		log.Warn("Supplier not found for update",
			zap.Uint64("supplier_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	oldName := supplier.Name

	// Check if the new name collides with another supplier
	if req.Name != oldName {
		var count int64
		database.GetDB().Model(&model.Supplier{}).
			Where("name = ? AND id != ?", req.Name, id).
			Count(&count)
		if count > 0 {
			log.Warn("Supplier with this name already exists", zap.String("name", req.Name))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Supplier with this name already exists",
			})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	supplier.Name = req.Name
	supplier.ContactPerson = req.ContactPerson
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Notes = req.Notes
	supplier.Pinned = req.Pinned

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to start transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	if req.Name != oldName {
		log.Info("Supplier rename requested",
			zap.Uint64("supplier_id", id),
			zap.String("old_name", oldName),
			zap.String("new_name", req.Name))

		// Cascade the rename over every table keyed by supplier name
		if err := tx.Model(&model.Invoice{}).
			Where("supplier_name = ?", oldName).
			Update("supplier_name", req.Name).Error; err != nil {
			tx.Rollback()
			log.Error("Failed to cascade rename to invoices", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update supplier",
			})
		}
		if err := tx.Model(&model.Payment{}).
			Where("supplier_name = ?", oldName).
			Update("supplier_name", req.Name).Error; err != nil {
			tx.Rollback()
			log.Error("Failed to cascade rename to payments", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update supplier",
			})
		}
		if err := tx.Model(&model.PurchaseOrder{}).
			Where("supplier_name = ?", oldName).
			Update("supplier_name", req.Name).Error; err != nil {
			tx.Rollback()
			log.Error("Failed to cascade rename to purchase orders", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update supplier",
			})
		}
	}

	if err := tx.Save(&supplier).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to update supplier", zap.Uint64("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit supplier update", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	scheduleStatsRefresh()

	log.Info("Supplier updated successfully",
		zap.Uint64("supplier_id", id),
		zap.String("old_name", oldName),
		zap.String("new_name", supplier.Name))
	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier handles deleting a supplier (soft delete). Invoices,
// payments and purchase orders keep their records; the rollups derived
// from them remain reachable by name.
func DeleteSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("supplier", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	var supplier model.Supplier
	preResult := database.GetDB().First(&supplier, id)
	if preResult.Error != nil {
		log.Warn("Supplier not found",
			zap.Uint64("supplier_id", id),
			zap.Error(preResult.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := database.GetDB().Delete(&supplier)
	if result.Error != nil {
		log.Error("Failed to delete supplier",
			zap.Uint64("supplier_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete supplier",
		})
	}

	scheduleStatsRefresh()

	log.Info("Supplier deleted successfully",
		zap.Uint64("supplier_id", id),
		zap.String("name", supplier.Name))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Supplier deleted successfully",
	})
}

// loadLedgerRecords fetches the full invoice and payment sets the ledger
// rollups are computed from
func loadLedgerRecords() ([]model.Invoice, []model.Payment, error) {
	var invoices []model.Invoice
	if err := database.GetDB().Find(&invoices).Error; err != nil {
		return nil, nil, err
	}
	var payments []model.Payment
	if err := database.GetDB().Find(&payments).Error; err != nil {
		return nil, nil, err
	}
	return invoices, payments, nil
}
