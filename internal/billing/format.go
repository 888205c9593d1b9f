package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidNumber is returned for form text that is not a number.
	ErrInvalidNumber = errors.New("not a number")
	// ErrNegativeNumber is returned for readings, quantities or rates below zero.
	ErrNegativeNumber = errors.New("must not be negative")
)

// ParseAmount parses a numeric form field. Blank input means "unused" and
// yields 0; anything else must be a finite, non-negative number.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	if v < 0 {
		return 0, ErrNegativeNumber
	}
	return v, nil
}

// Amount is a numeric form field. It decodes from a JSON number or from
// form text, with the same rules as ParseAmount.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, err)
	}
	*a = Amount(v)
	return nil
}

// CurrencyPrefix is prepended to every displayed amount.
const CurrencyPrefix = "Rs. "

// FormatCurrency renders an amount for display with two decimals. Stored
// amounts are never rounded.
func FormatCurrency(v float64) string {
	return CurrencyPrefix + decimal.NewFromFloat(v).StringFixed(2)
}
