package handler

import (
	"time"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
	"procurement-service/pkg/database"
	"procurement-service/pkg/debounce"
	"procurement-service/prometheus"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// statsRefresher coalesces bursts of record mutations into a single
// recomputation of the ledger gauges. Only the latest scheduled run
// executes; a fresh trigger discards the pending one.
var statsRefresher = debounce.New(300 * time.Millisecond)

func scheduleStatsRefresh() {
	statsRefresher.Trigger(refreshLedgerGauges)
}

// refreshLedgerGauges recomputes the supplier count and the aggregate
// outstanding balance from current record state. Aggregates are always
// re-derived, never incrementally maintained.
func refreshLedgerGauges() {
	log := zap.L()

	var suppliers []model.Supplier
	if err := database.GetDB().Find(&suppliers).Error; err != nil {
		log.Error("Failed to load suppliers for gauge refresh", zap.Error(err))
		return
	}

	invoices, payments, err := loadLedgerRecords()
	if err != nil {
		log.Error("Failed to load ledger records for gauge refresh", zap.Error(err))
		return
	}

	total := decimal.Zero
	for _, s := range suppliers {
		total = total.Add(ledger.SupplierStats(s.Name, invoices, payments).Outstanding)
	}

	prometheus.UpdateSupplierCount(len(suppliers))
	outstanding, _ := total.Float64()
	prometheus.UpdateOutstandingBalance(outstanding)
}
