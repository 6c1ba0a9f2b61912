// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromTokens(t *testing.T) {
	require := require.New(t)
	v, err := FromTokens(420)
	require.NoError(err)
	require.Equal(uint64(420_000_000), v)
	_, err = FromTokens(math.MaxUint64)
	require.Error(err)
}

func TestToTokens(t *testing.T) {
	require := require.New(t)
	v, err := ToTokens(1_500_000)
	require.NoError(err)
	require.Equal(1.5, v)
	v, err = ToTokens(math.MaxUint64)
	require.NoError(err)
	require.False(math.IsInf(v, 0))
}

func TestFormat(t *testing.T) {
	require := require.New(t)
	for _, c := range []struct {
		units    uint64
		expected string
	}{
		{0, "0"},
		{1, "0.000001"},
		{1_000_000, "1"},
		{1_250_000, "1.25"},
		{100_000_000_000_000, "100000000"},
	} {
		require.Equal(c.expected, Format(c.units))
	}
}
