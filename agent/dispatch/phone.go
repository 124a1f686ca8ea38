package dispatch

import (
	"fmt"
	"strings"

	contractx "github.com/voxline/voxline/agent/contract"
)

// NumberPlan configures phone normalization for one dialing region.
type NumberPlan struct {
	CountryCode    string
	NationalLength int
}

// DefaultNumberPlan matches the observed deployment (India, 10-digit
// national numbers).
var DefaultNumberPlan = NumberPlan{
	CountryCode:    "91",
	NationalLength: 10,
}

// Normalize produces an E.164-style number ("+" plus digits) or fails with
// ErrInvalidPhoneNumber. Deterministic and idempotent over its own output's
// digits.
func (p NumberPlan) Normalize(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	cleaned := strings.TrimLeft(digits.String(), "0")
	if cleaned == "" {
		return "", fmt.Errorf("%w: number is empty", contractx.ErrInvalidPhoneNumber)
	}

	switch {
	case strings.HasPrefix(cleaned, p.CountryCode) && len(cleaned) > p.NationalLength:
		// Already carries the country code.
	case len(cleaned) == p.NationalLength:
		cleaned = p.CountryCode + cleaned
	default:
		return "", fmt.Errorf("%w: %q must be %d digits or include the %s prefix",
			contractx.ErrInvalidPhoneNumber, raw, p.NationalLength, p.CountryCode)
	}

	return "+" + cleaned, nil
}

// NormalizePhoneNumber normalizes with the default plan.
func NormalizePhoneNumber(raw string) (string, error) {
	return DefaultNumberPlan.Normalize(raw)
}
