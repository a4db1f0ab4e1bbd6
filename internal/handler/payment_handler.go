package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"procurement-service/internal/model"
	"procurement-service/pkg/database"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRequest defines the structure for payment creation/update requests
type PaymentRequest struct {
	SupplierName string          `json:"supplier_name" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Date         time.Time       `json:"date"`
	Notes        string          `json:"notes"`
}

// validate rejects the request before anything is applied: payments must
// name a supplier, carry a positive amount and must not be future-dated.
func (req *PaymentRequest) validate() (string, bool) {
	req.SupplierName = strings.TrimSpace(req.SupplierName)
	if req.SupplierName == "" {
		return "supplier_name is required", false
	}
	if !req.Amount.IsPositive() {
		return "amount must be greater than zero", false
	}
	if req.Date.After(time.Now()) {
		return "date must not be in the future", false
	}
	return "", true
}

// CreatePayment records a payment against a supplier's aggregate balance
func CreatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new payment")
	prometheus.RecordOperation("payment", "create")

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Payment validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": msg,
		})
	}

	payment := model.Payment{
		SupplierName: req.SupplierName,
		Amount:       req.Amount,
		Date:         req.Date,
		Notes:        req.Notes,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&payment); result.Error != nil {
		log.Error("Failed to create payment",
			zap.String("supplier_name", req.SupplierName),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create payment",
		})
	}

	scheduleStatsRefresh()

	log.Info("Payment created successfully",
		zap.Uint("id", payment.ID),
		zap.String("supplier_name", payment.SupplierName),
		zap.String("amount", payment.Amount.String()))
	return c.JSON(http.StatusCreated, payment)
}

// ListPayments retrieves payments, optionally filtered by supplier name
func ListPayments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("payment", "list")

	query := database.GetDB().Order("date desc")
	if supplier := c.QueryParam("supplier"); supplier != "" {
		query = query.Where("supplier_name = ?", supplier)
		log.Info("Filtering payments by supplier", zap.String("supplier_name", supplier))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var payments []model.Payment
	if result := query.Find(&payments); result.Error != nil {
		log.Error("Failed to retrieve payments", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve payments",
		})
	}

	log.Info("Payments retrieved successfully", zap.Int("count", len(payments)))
	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
	})
}

// UpdatePayment updates an existing payment
func UpdatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("payment", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid payment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid payment ID",
		})
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("payment_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if msg, ok := req.validate(); !ok {
		log.Warn("Payment validation failed", zap.String("reason", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": msg,
		})
	}

	var payment model.Payment
	if result := database.GetDB().First(&payment, id); result.Error != nil {
		log.Warn("Payment not found for update", zap.Uint64("payment_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Payment not found",
		})
	}

	payment.SupplierName = req.SupplierName
	payment.Amount = req.Amount
	payment.Date = req.Date
	payment.Notes = req.Notes

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Save(&payment); result.Error != nil {
		log.Error("Failed to update payment", zap.Uint64("payment_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update payment",
		})
	}

	scheduleStatsRefresh()

	log.Info("Payment updated successfully",
		zap.Uint64("payment_id", id),
		zap.String("amount", payment.Amount.String()))
	return c.JSON(http.StatusOK, payment)
}

// DeletePayment deletes a payment
func DeletePayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("payment", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid payment ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid payment ID",
		})
	}

	var payment model.Payment
	if result := database.GetDB().First(&payment, id); result.Error != nil {
		log.Warn("Payment not found", zap.Uint64("payment_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Payment not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&payment); result.Error != nil {
		log.Error("Failed to delete payment", zap.Uint64("payment_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete payment",
		})
	}

	scheduleStatsRefresh()

	log.Info("Payment deleted successfully", zap.Uint64("payment_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Payment deleted successfully",
	})
}
