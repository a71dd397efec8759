package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// BuildSuggestions scores every candidate invoice against the payment, ranks
// them descending by score and returns the top candidates. Candidates must be
// client-scoped by the caller; cross-client matches are never suggested.
//
// The sort is stable: candidates with equal scores keep their incoming
// (creation) order so repeated passes produce identical rankings.
func (e *Engine) BuildSuggestions(payment *entity.Payment, candidates []*entity.Invoice) []entity.SuggestedMatch {
	type scored struct {
		invoice *entity.Invoice
		score   float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, inv := range candidates {
		ranked = append(ranked, scored{invoice: inv, score: e.Score(payment, inv)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > e.cfg.MaxSuggestions {
		ranked = ranked[:e.cfg.MaxSuggestions]
	}

	suggestions := make([]entity.SuggestedMatch, 0, len(ranked))
	for _, s := range ranked {
		suggestions = append(suggestions, entity.SuggestedMatch{
			InvoiceID:  s.invoice.ID,
			Confidence: int(math.Round(s.score * 100)),
			Reason:     matchReason(payment, s.invoice),
		})
	}

	return suggestions
}

// matchReason builds the operator-facing explanation for a ranked candidate
func matchReason(payment *entity.Payment, invoice *entity.Invoice) string {
	diff := payment.Amount.Sub(invoice.Amount).Abs()
	return fmt.Sprintf("Amount diff $%s; Due %s", diff.StringFixed(2), invoice.DueDate.Format("Jan 2, 2006"))
}
