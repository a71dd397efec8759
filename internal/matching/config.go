package matching

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the product-tuned matching constants. The defaults mirror the
// values the operations team calibrated against production data; treat them
// as configuration, not as values to "improve".
type Config struct {
	// AmountWeight and DateWeight blend the two component scores. They must
	// sum to 1.0.
	AmountWeight float64
	DateWeight   float64

	// DateWindowDays is the gap at which the date score decays to zero.
	DateWindowDays float64

	// AmountTolerance is the absolute over/underpayment tolerance in dollars
	// before an anomaly is flagged.
	AmountTolerance decimal.Decimal

	// MinConfidence and MaxConfidence clamp the record confidence after a
	// matching pass so no unmatched record reads as zero confidence.
	MinConfidence float64
	MaxConfidence float64

	// MaxSuggestions is the number of ranked candidates retained per payment.
	MaxSuggestions int
}

// DefaultConfig returns the production matching configuration
func DefaultConfig() *Config {
	return &Config{
		AmountWeight:    0.7,
		DateWeight:      0.3,
		DateWindowDays:  60,
		AmountTolerance: decimal.NewFromInt(1),
		MinConfidence:   0.30,
		MaxConfidence:   0.99,
		MaxSuggestions:  3,
	}
}

// Validate ensures the configuration is internally consistent
func (c *Config) Validate() error {
	if c.AmountWeight < 0 || c.AmountWeight > 1 {
		return fmt.Errorf("amount weight must be between 0.0 and 1.0, got %.2f", c.AmountWeight)
	}
	if c.DateWeight < 0 || c.DateWeight > 1 {
		return fmt.Errorf("date weight must be between 0.0 and 1.0, got %.2f", c.DateWeight)
	}
	if sum := c.AmountWeight + c.DateWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("amount and date weights must sum to 1.0, got %.3f", sum)
	}
	if c.DateWindowDays <= 0 {
		return fmt.Errorf("date window must be positive, got %.1f days", c.DateWindowDays)
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance must not be negative, got %s", c.AmountTolerance)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0.0 and 1.0, got %.2f", c.MinConfidence)
	}
	if c.MaxConfidence < 0 || c.MaxConfidence > 1 {
		return fmt.Errorf("max confidence must be between 0.0 and 1.0, got %.2f", c.MaxConfidence)
	}
	if c.MinConfidence >= c.MaxConfidence {
		return fmt.Errorf("min confidence must be less than max confidence (min: %.2f, max: %.2f)", c.MinConfidence, c.MaxConfidence)
	}
	if c.MaxSuggestions <= 0 {
		return fmt.Errorf("max suggestions must be positive, got %d", c.MaxSuggestions)
	}
	return nil
}
