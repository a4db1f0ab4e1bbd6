package handler

import (
	"net/http"
	"time"

	"procurement-service/internal/match"
	"procurement-service/internal/model"
	"procurement-service/pkg/database"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Suggestion is one ranked candidate with its display highlighting
type Suggestion struct {
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Highlighted string `json:"highlighted"`
}

// SuggestSuppliers runs the fuzzy matcher over the supplier names found in
// transactional data (invoices and purchase orders, not the supplier table)
// and returns ranked candidates for the given query. Used by supplier-entry
// forms to avoid near-duplicate supplier names.
func SuggestSuppliers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SuggestQueriesCounter.Inc()

	query := c.QueryParam("q")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := database.GetDB().Find(&invoices).Error; err != nil {
		log.Error("Failed to load invoices for suggestions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute suggestions",
		})
	}
	var orders []model.PurchaseOrder
	if err := database.GetDB().Find(&orders).Error; err != nil {
		log.Error("Failed to load purchase orders for suggestions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute suggestions",
		})
	}

	pool := match.BuildPool(invoices, orders)
	results := match.Search(query, pool)

	warning := match.DuplicateWarning(query, results)
	if warning {
		prometheus.DuplicateWarningsCounter.Inc()
	}

	suggestions := make([]Suggestion, 0, len(results))
	for _, r := range results {
		suggestions = append(suggestions, Suggestion{
			Name:        r.Name,
			Score:       r.Score,
			Highlighted: match.Highlight(r.Name, query),
		})
	}

	log.Info("Supplier suggestions computed",
		zap.String("query", query),
		zap.Int("pool_size", len(pool)),
		zap.Int("results", len(suggestions)),
		zap.Bool("duplicate_warning", warning))
	return c.JSON(http.StatusOK, echo.Map{
		"query":             query,
		"results":           suggestions,
		"duplicate_warning": warning,
	})
}
