package match

import (
	"fmt"
	"testing"

	"procurement-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPool(t *testing.T) {
	invoices := []model.Invoice{
		{SupplierName: "Zeta Traders"},
		{SupplierName: "alpha co"},
		{SupplierName: ""},
	}
	orders := []model.PurchaseOrder{
		{SupplierName: "ALPHA CO"}, // duplicate of the invoice supplier, different casing
		{SupplierName: "Beta Ltd"},
	}

	pool := BuildPool(invoices, orders)

	// Case-insensitive dedup keeps the first casing seen; pool is sorted
	// alphabetically ignoring case
	assert.Equal(t, []string{"alpha co", "Beta Ltd", "Zeta Traders"}, pool)
}

func TestScore(t *testing.T) {
	t.Run("substring containment wins outright", func(t *testing.T) {
		score, ok := Score("noor", "Al Noor Trading")
		assert.True(t, ok)
		assert.Equal(t, 100, score)
	})

	t.Run("substring is case-insensitive", func(t *testing.T) {
		score, ok := Score("AL NOOR", "Al Noor Trading")
		assert.True(t, ok)
		assert.Equal(t, 100, score)
	})

	t.Run("in-order subsequence scores two points per character", func(t *testing.T) {
		score, ok := Score("abc", "Al Baraka Company")
		assert.True(t, ok)
		assert.Equal(t, 6, score)
	})

	t.Run("unconsumed query is not a match", func(t *testing.T) {
		_, ok := Score("xyz", "Al Baraka Company")
		assert.False(t, ok)
	})

	t.Run("empty inputs never match", func(t *testing.T) {
		_, ok := Score("", "Al Baraka Company")
		assert.False(t, ok)
		_, ok = Score("abc", "")
		assert.False(t, ok)
	})
}

func TestSearch(t *testing.T) {
	pool := []string{"Al Noor Trading", "Al Rajhi Supplies", "Bright Star LLC"}

	t.Run("queries shorter than two characters return nothing", func(t *testing.T) {
		assert.Empty(t, Search("a", pool))
		assert.Empty(t, Search("", pool))
		assert.Empty(t, Search("   ", pool))
	})

	t.Run("empty pool returns nothing", func(t *testing.T) {
		assert.Empty(t, Search("al", nil))
	})

	t.Run("exact substring outranks subsequence-only matches", func(t *testing.T) {
		results := Search("al r", pool)

		require.NotEmpty(t, results)
		assert.Equal(t, "Al Rajhi Supplies", results[0].Name)
		assert.Equal(t, 100, results[0].Score)

		// "Al Noor Trading" consumes the query as a sparse subsequence and
		// ranks below; "Bright Star LLC" cannot consume it at all
		for _, r := range results {
			assert.NotEqual(t, "Bright Star LLC", r.Name)
			if r.Name == "Al Noor Trading" {
				assert.Less(t, r.Score, 100)
			}
		}
	})

	t.Run("subsequence match ranks above no match", func(t *testing.T) {
		results := Search("abc", []string{"Al Baraka Company", "Zenith Metals"})

		require.Len(t, results, 1)
		assert.Equal(t, "Al Baraka Company", results[0].Name)
	})

	t.Run("results are truncated to the top eight", func(t *testing.T) {
		var wide []string
		for i := 0; i < 12; i++ {
			wide = append(wide, fmt.Sprintf("Acme Branch %02d", i))
		}

		results := Search("acme", wide)
		assert.Len(t, results, MaxResults)
	})
}

func TestDuplicateWarning(t *testing.T) {
	t.Run("short queries never warn", func(t *testing.T) {
		assert.False(t, DuplicateWarning("abc", nil))
	})

	t.Run("no matches for a deliberate name warns", func(t *testing.T) {
		assert.True(t, DuplicateWarning("Completely New Supplier", []Result{}))
	})

	t.Run("near matches without an exact equal warn", func(t *testing.T) {
		results := []Result{{Name: "Al Noor Trading", Score: 100}}
		assert.True(t, DuplicateWarning("Al Noor", results))
	})

	t.Run("an exact case-insensitive equal suppresses the warning", func(t *testing.T) {
		results := []Result{{Name: "Al Noor Trading", Score: 100}}
		assert.False(t, DuplicateWarning("al noor trading", results))
	})

	t.Run("surrounding whitespace does not defeat the exact-equal check", func(t *testing.T) {
		results := []Result{{Name: "Al Noor Trading", Score: 100}}
		assert.False(t, DuplicateWarning("  al noor trading  ", results))
	})
}

func TestHighlight(t *testing.T) {
	t.Run("wraps every case-insensitive occurrence", func(t *testing.T) {
		assert.Equal(t, "<mark>Al</mark> Rajhi Supplies", Highlight("Al Rajhi Supplies", "al"))
		assert.Equal(t, "<mark>a</mark>b<mark>a</mark>b", Highlight("abab", "a"))
	})

	t.Run("query is treated literally, not as a pattern", func(t *testing.T) {
		assert.Equal(t, "x<mark>a+b</mark>y", Highlight("xa+by", "a+b"))
	})

	t.Run("empty query leaves text untouched", func(t *testing.T) {
		assert.Equal(t, "Al Rajhi", Highlight("Al Rajhi", ""))
	})
}

func TestSelection(t *testing.T) {
	s := NewSelection(3)

	// Starts with nothing highlighted
	assert.Equal(t, -1, s.Index())
	_, ok := s.Commit()
	assert.False(t, ok)

	// Down clamps at the last entry
	assert.Equal(t, 0, s.Next())
	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.Next())
	assert.Equal(t, 2, s.Next())

	idx, ok := s.Commit()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	// Up clamps at -1
	s.Prev()
	s.Prev()
	assert.Equal(t, 0, s.Index())
	s.Prev()
	assert.Equal(t, -1, s.Index())
	s.Prev()
	assert.Equal(t, -1, s.Index())

	// Dismiss clears the highlight
	s.Next()
	s.Dismiss()
	assert.Equal(t, -1, s.Index())
}
