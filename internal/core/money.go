// Package core provides money parsing and handling utilities.
//
// This file contains the parsing of user supplied amounts. Amounts are kept
// as decimals so sums are exact and the digits written to storage are the
// digits that were entered.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts must stay representable as finite JSON numbers. maxIntDigits is the
// integer digit count of the largest float64, minExponent the exponent of the
// smallest subnormal.
const (
	maxIntDigits = 309
	minExponent  = -324
)

func init() {
	// ledger files store amounts as bare JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts user input into an amount.
//
// It accepts plain decimals with an optional sign and exponent. Negative
// values are accepted; the ledger does not restrict the sign of an amount.
//
// Examples:
//
//	ParseAmount("500")    -> 500, nil
//	ParseAmount(" 120.5") -> 120.5, nil
//	ParseAmount("1e3")    -> 1000, nil
//	ParseAmount("abc")    -> 0, ErrInvalidInput
//	ParseAmount("1e400")  -> 0, ErrInvalidInput
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is empty", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	// bound the size first so Float64 never expands a huge coefficient
	if int64(d.NumDigits())+int64(d.Exponent()) > maxIntDigits || d.Exponent() < minExponent {
		return decimal.Zero, fmt.Errorf("%w: amount %q is out of range", ErrInvalidInput, s)
	}
	if f, _ := d.Float64(); math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: amount %q is out of range", ErrInvalidInput, s)
	}
	return d, nil
}
