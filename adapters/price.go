package adapters

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"discount-extractor/internal/types"
)

// numericToken matches one number: digit runs joined by '.' or ',', plus
// space-separated groups of exactly three digits. A leading separator is
// allowed for bare fractions such as ",50".
var numericToken = regexp.MustCompile(`[.,]?\d+(?:[.,]\d+|[ \x{00A0}\x{202F}]\d{3}\b)*`)

// danglingGroup matches digits that follow a number across a space without
// forming a three-digit group, e.g. the "2345" in "1 2345".
var danglingGroup = regexp.MustCompile(`^[ \x{00A0}\x{202F}]+\d`)

var groupSpaces = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ErrNoNumber is wrapped by ParseError when price text carries no digits.
var ErrNoNumber = errors.New("no numeric token")

// ErrAmbiguousGrouping is wrapped by ParseError when digit groups cannot be
// read as a single number.
var ErrAmbiguousGrouping = errors.New("ambiguous digit grouping")

// ErrOutOfRange is wrapped by ParseError when the value does not fit an Amount.
var ErrOutOfRange = errors.New("price out of range")

// maxUnits keeps units*100 plus two fractional digits inside int64.
const maxUnits = (math.MaxInt64 - 100) / 100

// ParsePrice turns locale formatted price text ("1.234,56 TL", "12,5",
// "1 234,56 TL", "₺ 99.90") into an Amount rounded half-up to two decimals.
//
// A single comma is the decimal point. A single dot is a thousands separator
// only when a non-zero whole part precedes it and exactly three digits follow
// it. When both appear the last one is the decimal point, and repeated
// separators of one kind group thousands.
func ParsePrice(raw string) (types.Amount, error) {
	loc := numericToken.FindStringIndex(raw)
	if loc == nil {
		return 0, &types.ParseError{Field: "price", Input: raw, Err: ErrNoNumber}
	}
	if danglingGroup.MatchString(raw[loc[1]:]) {
		return 0, &types.ParseError{Field: "price", Input: raw, Err: ErrAmbiguousGrouping}
	}
	token := groupSpaces.Replace(raw[loc[0]:loc[1]])

	intPart, fracPart := splitDecimal(token)
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)

	var units int64
	if intPart != "" {
		var err error
		units, err = strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, &types.ParseError{Field: "price", Input: raw, Err: ErrOutOfRange}
		}
	}
	if units > maxUnits {
		return 0, &types.ParseError{Field: "price", Input: raw, Err: ErrOutOfRange}
	}

	fracPart += "000"
	cents, _ := strconv.ParseInt(fracPart[:2], 10, 64)
	if fracPart[2] >= '5' {
		cents++
	}

	return types.AmountFromCents(units*100 + cents), nil
}

// ComputeDiff returns base minus discount. A discount above base yields a
// negative delta and is passed through.
func ComputeDiff(base, discount types.Amount) types.Amount {
	return base - discount
}

// splitDecimal decides which separator, if any, is the decimal point and
// returns the integer and fractional digits around it.
func splitDecimal(token string) (string, string) {
	lastDot := strings.LastIndex(token, ".")
	lastComma := strings.LastIndex(token, ",")

	sep := -1
	switch {
	case lastDot >= 0 && lastComma >= 0:
		sep = max(lastDot, lastComma)
	case lastComma >= 0:
		if strings.Count(token, ",") == 1 {
			sep = lastComma
		}
	case lastDot >= 0:
		sep = lastDot
		whole := token[:lastDot]
		digitsAfter := len(token) - lastDot - 1
		if strings.Count(token, ".") > 1 || (digitsAfter == 3 && strings.Trim(whole, "0") != "") {
			sep = -1
		}
	}

	if sep < 0 {
		return token, ""
	}
	return token[:sep], token[sep+1:]
}
