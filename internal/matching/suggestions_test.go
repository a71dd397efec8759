package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

func TestBuildSuggestions_RanksDescending(t *testing.T) {
	engine := NewEngine(nil)
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	payment := testPayment("1000.00", due)

	candidates := []*entity.Invoice{
		testInvoice("inv-far", "400.00", due.AddDate(0, 0, 45)),
		testInvoice("inv-exact", "1000.00", due),
		testInvoice("inv-close", "990.00", due.AddDate(0, 0, 3)),
	}

	suggestions := engine.BuildSuggestions(payment, candidates)
	require.Len(t, suggestions, 3)
	assert.Equal(t, "inv-exact", suggestions[0].InvoiceID)
	assert.Equal(t, "inv-close", suggestions[1].InvoiceID)
	assert.Equal(t, "inv-far", suggestions[2].InvoiceID)
}

func TestBuildSuggestions_TopThreeOnly(t *testing.T) {
	engine := NewEngine(nil)
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	payment := testPayment("1000.00", due)

	candidates := []*entity.Invoice{
		testInvoice("inv-1", "1000.00", due),
		testInvoice("inv-2", "995.00", due),
		testInvoice("inv-3", "990.00", due),
		testInvoice("inv-4", "985.00", due),
		testInvoice("inv-5", "980.00", due),
	}

	suggestions := engine.BuildSuggestions(payment, candidates)
	require.Len(t, suggestions, 3)
	assert.Equal(t, "inv-1", suggestions[0].InvoiceID)
}

func TestBuildSuggestions_StableTieBreak(t *testing.T) {
	engine := NewEngine(nil)
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	payment := testPayment("1000.00", due)

	// identical scores keep creation order
	candidates := []*entity.Invoice{
		testInvoice("inv-a", "1000.00", due),
		testInvoice("inv-b", "1000.00", due),
		testInvoice("inv-c", "1000.00", due),
	}

	for i := 0; i < 5; i++ {
		suggestions := engine.BuildSuggestions(payment, candidates)
		require.Len(t, suggestions, 3)
		assert.Equal(t, "inv-a", suggestions[0].InvoiceID)
		assert.Equal(t, "inv-b", suggestions[1].InvoiceID)
		assert.Equal(t, "inv-c", suggestions[2].InvoiceID)
	}
}

func TestBuildSuggestions_ConfidenceRounding(t *testing.T) {
	engine := NewEngine(nil)
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	// exact amount, 5 days late: score 0.975 rounds to 97
	payment := testPayment("1000.00", due.AddDate(0, 0, 5))
	suggestions := engine.BuildSuggestions(payment, []*entity.Invoice{
		testInvoice("inv-1", "1000.00", due),
	})

	require.Len(t, suggestions, 1)
	assert.Equal(t, 97, suggestions[0].Confidence)
}

func TestBuildSuggestions_ReasonFormat(t *testing.T) {
	engine := NewEngine(nil)
	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	payment := testPayment("990.00", due)

	suggestions := engine.BuildSuggestions(payment, []*entity.Invoice{
		testInvoice("inv-1", "1000.00", due),
	})

	require.Len(t, suggestions, 1)
	assert.Equal(t, "Amount diff $10.00; Due Mar 15, 2025", suggestions[0].Reason)
}

func TestBuildSuggestions_EmptyCandidates(t *testing.T) {
	engine := NewEngine(nil)
	payment := testPayment("1000.00", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	suggestions := engine.BuildSuggestions(payment, nil)
	assert.Empty(t, suggestions)
}
