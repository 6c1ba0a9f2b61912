// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mint

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestScheduleValidate(t *testing.T) {
	require.NoError(t, DefaultSchedule.Validate())
	for _, s := range []Schedule{
		{},
		{Tiers: []Tier{{Bound: 10, Reward: 0}}, Maximum: 10},
		{Tiers: []Tier{{Bound: 10, Reward: 5}, {Bound: 10, Reward: 1}}, Maximum: 10},
		{Tiers: []Tier{{Bound: 10, Reward: 5}, {Bound: 20, Reward: 6}}, Maximum: 20},
		{Tiers: []Tier{{Bound: 10, Reward: 5}, {Bound: 20, Reward: 1}}, Maximum: 15},
	} {
		require.Equal(t, ErrInvalidSchedule, errors.Cause(s.Validate()))
	}
}

func TestComputeRewardBoundaries(t *testing.T) {
	require := require.New(t)
	s := DefaultSchedule
	prev := uint64(math.MaxUint64)
	for i, tier := range s.Tiers {
		// exactly at the bound earns the current tier
		r, err := s.ComputeReward(tier.Bound - 1)
		require.NoError(err)
		require.Equal(tier.Reward, r)
		if tier.Bound < s.Maximum {
			r, err = s.ComputeReward(tier.Bound)
			require.NoError(err)
			require.Equal(tier.Reward, r, "tier %d", i)
		}
		if i+1 < len(s.Tiers) {
			r, err = s.ComputeReward(tier.Bound + 1)
			require.NoError(err)
			require.Equal(s.Tiers[i+1].Reward, r)
		}
		require.LessOrEqual(tier.Reward, prev)
		prev = tier.Reward
	}
}

func TestComputeRewardMonotonic(t *testing.T) {
	require := require.New(t)
	s := DefaultSchedule
	prev := uint64(math.MaxUint64)
	for issuance := uint64(0); issuance < s.Maximum/3; issuance = issuance*3 + 1 {
		r, err := s.ComputeReward(issuance)
		require.NoError(err)
		require.LessOrEqual(r, prev)
		prev = r
	}
	_, err := s.ComputeReward(s.Maximum)
	require.Equal(ErrSupplyExhausted, errors.Cause(err))
	_, err = s.ComputeReward(math.MaxUint64)
	require.Equal(ErrSupplyExhausted, errors.Cause(err))
	r, err := s.ComputeReward(s.Maximum - 1)
	require.NoError(err)
	require.Equal(uint64(1), r)
}

func TestComputeRewardOverflow(t *testing.T) {
	require := require.New(t)
	s := Schedule{Tiers: []Tier{{Bound: 100, Reward: 10}}, Maximum: 100}
	require.NoError(s.Validate())
	_, err := s.ComputeReward(95)
	require.Equal(ErrArithmeticOverflow, errors.Cause(err))
	r, err := s.ComputeReward(90)
	require.NoError(err)
	require.Equal(uint64(10), r)

	wide := Schedule{Tiers: []Tier{{Bound: math.MaxUint64, Reward: 10}}, Maximum: math.MaxUint64}
	require.NoError(wide.Validate())
	_, err = wide.ComputeReward(math.MaxUint64 - 5)
	require.Equal(ErrArithmeticOverflow, errors.Cause(err))
}
