package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"procurement-service/internal/model"
	"procurement-service/pkg/config"
	"procurement-service/pkg/database"
	"procurement-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Metric collectors register globally, so they are initialized once for the
// whole package.
func TestMain(m *testing.M) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	prometheus.InitMetrics(cfg)
	os.Exit(m.Run())
}

// setupTestDB points the package-level connection at a fresh in-memory
// database with the full schema migrated. TranslateError matches the
// production connection so unique violations surface as
// gorm.ErrDuplicatedKey here too.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		// Each statement commits on its own so state seeded from inside a
		// callback survives the statement that triggered it
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	// Every in-memory sqlite connection is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Supplier{},
		&model.Invoice{},
		&model.Payment{},
		&model.PurchaseOrder{},
	))

	database.DB = db
	return db
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func seedInvoice(t *testing.T, db *gorm.DB, supplier, number string, before, tax decimal.Decimal, poNumber *string) model.Invoice {
	t.Helper()

	inv := model.Invoice{
		InvoiceNumber:       number,
		SupplierName:        supplier,
		Date:                time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		AmountBeforeTax:     before,
		TaxAmount:           tax,
		TotalAmount:         before.Add(tax),
		Status:              "open",
		PurchaseOrderNumber: poNumber,
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func TestUpdateSupplierRenameCascade(t *testing.T) {
	db := setupTestDB(t)

	supplier := model.Supplier{Name: "Al Noor Trading"}
	require.NoError(t, db.Create(&supplier).Error)

	seedInvoice(t, db, "Al Noor Trading", "INV-100", decimal.NewFromInt(100), decimal.NewFromInt(15), nil)
	seedInvoice(t, db, "Al Noor Trading", "INV-101", decimal.NewFromInt(200), decimal.NewFromInt(30), nil)
	require.NoError(t, db.Create(&model.Payment{
		SupplierName: "Al Noor Trading",
		Amount:       decimal.NewFromInt(145),
		Date:         time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}).Error)
	require.NoError(t, db.Create(&model.PurchaseOrder{
		Number:       "PO-001",
		SupplierName: "Al Noor Trading",
		Status:       "open",
	}).Error)

	c, rec := newJSONContext(http.MethodPut, "/api/suppliers/1", `{"name":"Bright Future LLC"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(supplier.ID))

	require.NoError(t, UpdateSupplier(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Every table keyed by supplier name must have followed the rename
	for _, tc := range []struct {
		mdl  interface{}
		want int64
	}{
		{&model.Invoice{}, 2},
		{&model.Payment{}, 1},
		{&model.PurchaseOrder{}, 1},
	} {
		var count int64
		require.NoError(t, db.Model(tc.mdl).
			Where("supplier_name = ?", "Bright Future LLC").Count(&count).Error)
		assert.Equal(t, tc.want, count)

		require.NoError(t, db.Model(tc.mdl).
			Where("supplier_name = ?", "Al Noor Trading").Count(&count).Error)
		assert.Zero(t, count)
	}

	// The rollup under the new name carries the same totals as before
	c, rec = newJSONContext(http.MethodGet, "/api/suppliers/1/stats", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(supplier.ID))

	require.NoError(t, GetSupplierStats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SupplierWithStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bright Future LLC", resp.Name)
	assert.Equal(t, 2, resp.Stats.InvoiceCount)
	assert.True(t, resp.Stats.TotalInvoiced.Equal(decimal.NewFromInt(345)),
		"total invoiced was %s", resp.Stats.TotalInvoiced)
	assert.True(t, resp.Stats.TotalPaid.Equal(decimal.NewFromInt(145)),
		"total paid was %s", resp.Stats.TotalPaid)
	assert.True(t, resp.Stats.Outstanding.Equal(decimal.NewFromInt(200)),
		"outstanding was %s", resp.Stats.Outstanding)
}

func TestDeletePurchaseOrderClearsInvoiceLinks(t *testing.T) {
	db := setupTestDB(t)

	doomed := model.PurchaseOrder{Number: "PO-001", SupplierName: "Al Noor Trading", Status: "open"}
	require.NoError(t, db.Create(&doomed).Error)
	kept := model.PurchaseOrder{Number: "PO-002", SupplierName: "Al Noor Trading", Status: "open"}
	require.NoError(t, db.Create(&kept).Error)

	linkDoomed := "PO-001"
	linkKept := "PO-002"
	seedInvoice(t, db, "Al Noor Trading", "INV-100", decimal.NewFromInt(100), decimal.Zero, &linkDoomed)
	seedInvoice(t, db, "Al Noor Trading", "INV-101", decimal.NewFromInt(200), decimal.Zero, &linkDoomed)
	seedInvoice(t, db, "Al Noor Trading", "INV-102", decimal.NewFromInt(300), decimal.Zero, &linkKept)

	c, rec := newJSONContext(http.MethodDelete, "/api/purchase-orders/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(doomed.ID))

	require.NoError(t, DeletePurchaseOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.PurchaseOrder{}).
		Where("number = ?", "PO-001").Count(&count).Error)
	assert.Zero(t, count)

	// No invoice may be left pointing at the deleted order
	var invoices []model.Invoice
	require.NoError(t, db.Order("invoice_number asc").Find(&invoices).Error)
	require.Len(t, invoices, 3)
	assert.Nil(t, invoices[0].PurchaseOrderNumber)
	assert.Nil(t, invoices[1].PurchaseOrderNumber)
	require.NotNil(t, invoices[2].PurchaseOrderNumber)
	assert.Equal(t, "PO-002", *invoices[2].PurchaseOrderNumber)
}

func TestCreatePurchaseOrderRetriesOnNumberCollision(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&model.PurchaseOrder{
		Number:       "PO-003",
		SupplierName: "Al Noor Trading",
		Status:       "open",
	}).Error)

	// Simulate a concurrent create winning the race for the next number:
	// just before the handler's insert, slip in a rival row with the same
	// derived number. The guard keeps the rival's own insert out of the
	// callback.
	stolen := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("test_steal_number", func(tx *gorm.DB) {
			if stolen {
				return
			}
			po, ok := tx.Statement.Dest.(*model.PurchaseOrder)
			if !ok {
				return
			}
			stolen = true
			rival := model.PurchaseOrder{
				Number:       po.Number,
				SupplierName: "Rival Importer",
				Status:       "open",
			}
			if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
				t.Fatalf("failed to seed rival order: %v", err)
			}
		}))

	c, rec := newJSONContext(http.MethodPost, "/api/purchase-orders",
		`{"supplier_name":"Al Noor Trading","description":"steel beams"}`)

	require.NoError(t, CreatePurchaseOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.PurchaseOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "PO-005", created.Number, "create should re-derive past the stolen PO-004")

	var numbers []string
	require.NoError(t, db.Model(&model.PurchaseOrder{}).
		Order("number asc").Pluck("number", &numbers).Error)
	assert.Equal(t, []string{"PO-003", "PO-004", "PO-005"}, numbers)
}

func TestUpdateInvoicePurchaseOrderLink(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&model.PurchaseOrder{
		Number:       "PO-001",
		SupplierName: "Al Noor Trading",
		Status:       "open",
	}).Error)
	inv := seedInvoice(t, db, "Al Noor Trading", "INV-100",
		decimal.NewFromInt(100), decimal.NewFromInt(15), nil)

	reload := func() model.Invoice {
		var got model.Invoice
		require.NoError(t, db.First(&got, inv.ID).Error)
		return got
	}

	t.Run("submitting a known order number sets the link", func(t *testing.T) {
		c, rec := newJSONContext(http.MethodPut, "/api/invoices/1",
			`{"invoice_number":"INV-100","supplier_name":"Al Noor Trading","amount_before_tax":100,"tax_amount":15,"purchase_order_number":"PO-001"}`)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(inv.ID))

		require.NoError(t, UpdateInvoice(c))
		require.Equal(t, http.StatusOK, rec.Code)

		got := reload()
		require.NotNil(t, got.PurchaseOrderNumber)
		assert.Equal(t, "PO-001", *got.PurchaseOrderNumber)
	})

	t.Run("an unknown order number is rejected and the link kept", func(t *testing.T) {
		c, rec := newJSONContext(http.MethodPut, "/api/invoices/1",
			`{"invoice_number":"INV-100","supplier_name":"Al Noor Trading","amount_before_tax":100,"tax_amount":15,"purchase_order_number":"PO-999"}`)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(inv.ID))

		require.NoError(t, UpdateInvoice(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		got := reload()
		require.NotNil(t, got.PurchaseOrderNumber)
		assert.Equal(t, "PO-001", *got.PurchaseOrderNumber)
	})

	t.Run("omitting the field leaves the link untouched", func(t *testing.T) {
		c, rec := newJSONContext(http.MethodPut, "/api/invoices/1",
			`{"invoice_number":"INV-100","supplier_name":"Al Noor Trading","amount_before_tax":120,"tax_amount":18}`)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(inv.ID))

		require.NoError(t, UpdateInvoice(c))
		require.Equal(t, http.StatusOK, rec.Code)

		got := reload()
		require.NotNil(t, got.PurchaseOrderNumber)
		assert.Equal(t, "PO-001", *got.PurchaseOrderNumber)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(138)),
			"total was %s", got.TotalAmount)
	})
}
