// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package unit converts between token amounts and their smallest indivisible units.
package unit

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// Decimals is the number of decimal places of the token
	Decimals = 6
	// Token is the number of units in one whole token
	Token uint64 = 1_000_000
)

// ErrNotFinite is returned when a rendered amount is NaN or infinite
var ErrNotFinite = errors.New("amount is not finite")

// FromTokens converts whole tokens to units, failing on overflow
func FromTokens(tokens uint64) (uint64, error) {
	if tokens > math.MaxUint64/Token {
		return 0, errors.Errorf("%d tokens overflow u64 units", tokens)
	}
	return tokens * Token, nil
}

// ToTokens renders units as a float token amount for display only
func ToTokens(units uint64) (float64, error) {
	v := float64(units) / float64(Token)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// Format renders units as a decimal token string without going through floats
func Format(units uint64) string {
	whole := strconv.FormatUint(units/Token, 10)
	frac := units % Token
	if frac == 0 {
		return whole
	}
	s := strconv.FormatUint(frac+Token, 10)[1:]
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return whole + "." + s
}
