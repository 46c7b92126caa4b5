package repository

import "time"

// Lookback is the historical window a derived metric reaches back over.
type Lookback string

const (
	Lookback7d  Lookback = "7d"
	Lookback30d Lookback = "30d"
)

// IsValidLookback returns true if lb is a supported window.
func IsValidLookback(lb Lookback) bool {
	switch lb {
	case Lookback7d, Lookback30d:
		return true
	default:
		return false
	}
}

// Duration converts the window to a time.Duration.
func (lb Lookback) Duration() time.Duration {
	switch lb {
	case Lookback7d:
		return 7 * 24 * time.Hour
	case Lookback30d:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// NormalizeLookback converts a raw string to a valid window (or the 30d
// default).
func NormalizeLookback(s string) Lookback {
	if s == "" {
		return Lookback30d
	}
	lb := Lookback(s)
	if IsValidLookback(lb) {
		return lb
	}
	return Lookback30d
}
