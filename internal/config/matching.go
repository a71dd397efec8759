package config

import (
	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/matching"
)

// EngineConfig converts the file-level matching section into the engine's
// configuration type.
func (m MatchingConfig) EngineConfig() *matching.Config {
	return &matching.Config{
		AmountWeight:    m.AmountWeight,
		DateWeight:      m.DateWeight,
		DateWindowDays:  m.DateWindowDays,
		AmountTolerance: decimal.NewFromFloat(m.AmountTolerance),
		MinConfidence:   m.MinConfidence,
		MaxConfidence:   m.MaxConfidence,
		MaxSuggestions:  m.MaxSuggestions,
	}
}
