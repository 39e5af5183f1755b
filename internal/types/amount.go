package types

import (
	"fmt"
	"math"
	"strconv"
)

// Amount is a currency value held in hundredths, so every value carries
// exactly two decimal places.
type Amount int64

// AmountFromCents builds an Amount from a count of hundredths.
func AmountFromCents(cents int64) Amount {
	return Amount(cents)
}

// Cents returns the value in hundredths.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Float64 returns the value as a float, for display and metrics only.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

// String formats the amount with two decimals, e.g. "2.50".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON reads a JSON number, rounding to two decimals.
func (a *Amount) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	cents := math.Round(f * 100)
	// float64(math.MaxInt64) rounds up to 2^63, which itself overflows.
	if cents >= float64(math.MaxInt64) || cents < float64(math.MinInt64) {
		return fmt.Errorf("amount %s out of range", data)
	}
	*a = Amount(cents)
	return nil
}
