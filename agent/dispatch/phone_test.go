package dispatch

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/voxline/voxline/agent/contract"
)

func TestNormalizeTenDigits(t *testing.T) {
	t.Parallel()

	got, err := NormalizePhoneNumber("9876543210")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "+919876543210" {
		t.Fatalf("unexpected number: %s", got)
	}
}

func TestNormalizeStripsFormatting(t *testing.T) {
	t.Parallel()

	got, err := NormalizePhoneNumber(" 98765-43210 ")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "+919876543210" {
		t.Fatalf("unexpected number: %s", got)
	}
}

func TestNormalizeKeepsExistingCountryCode(t *testing.T) {
	t.Parallel()

	got, err := NormalizePhoneNumber("919876543210")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "+919876543210" {
		t.Fatalf("unexpected number: %s", got)
	}
}

func TestNormalizeStripsLeadingZeros(t *testing.T) {
	t.Parallel()

	got, err := NormalizePhoneNumber("09876543210")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "+919876543210" {
		t.Fatalf("unexpected number: %s", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	first, err := NormalizePhoneNumber("9876543210")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	second, err := NormalizePhoneNumber(strings.TrimPrefix(first, "+"))
	if err != nil {
		t.Fatalf("Normalize() second pass error = %v", err)
	}
	if second != first {
		t.Fatalf("not idempotent: first=%s second=%s", first, second)
	}
}

func TestNormalizeRejectsEmptyAndUnrecognized(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "abc", "000", "12345", "12345678901234567"} {
		_, err := NormalizePhoneNumber(raw)
		if !errors.Is(err, contractx.ErrInvalidPhoneNumber) {
			t.Fatalf("Normalize(%q) error = %v, want ErrInvalidPhoneNumber", raw, err)
		}
	}
}

func TestNormalizeCustomPlan(t *testing.T) {
	t.Parallel()

	plan := NumberPlan{CountryCode: "1", NationalLength: 10}
	got, err := plan.Normalize("(415) 555-0100")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "+14155550100" {
		t.Fatalf("unexpected number: %s", got)
	}
}
