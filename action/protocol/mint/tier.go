// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mint

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/pkg/unit"
)

var (
	// ErrInvalidSchedule is the error that the tier schedule is malformed
	ErrInvalidSchedule = errors.New("invalid tier schedule")
	// ErrSupplyExhausted is the error that the issuance reached the maximum supply
	ErrSupplyExhausted = errors.New("supply exhausted")
	// ErrArithmeticOverflow is the error that the issuance after a reward would overflow or pass the maximum
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

type (
	// Tier rewards Reward units while the cumulative issuance is at most Bound
	Tier struct {
		Bound  uint64 `yaml:"bound"`
		Reward uint64 `yaml:"reward"`
	}

	// Schedule is an ordered list of tiers ending in a terminal tier, capped by Maximum
	Schedule struct {
		Tiers   []Tier `yaml:"tiers"`
		Maximum uint64 `yaml:"maximum"`
	}
)

// DefaultSchedule divides the reward by ten at every decade of issuance
var DefaultSchedule = Schedule{
	Tiers: []Tier{
		{Bound: 100_000_000 * unit.Token, Reward: 1 * unit.Token},
		{Bound: 1_000_000_000 * unit.Token, Reward: 100_000},
		{Bound: 10_000_000_000 * unit.Token, Reward: 10_000},
		{Bound: 100_000_000_000 * unit.Token, Reward: 1_000},
		{Bound: 1_000_000_000_000 * unit.Token, Reward: 100},
		{Bound: 10_000_000_000_000 * unit.Token, Reward: 1},
	},
	Maximum: 10_000_000_000_000 * unit.Token,
}

// Validate checks the bounds are strictly increasing, the rewards positive and non-increasing, and the last
// bound within the maximum
func (s *Schedule) Validate() error {
	if len(s.Tiers) == 0 {
		return errors.Wrap(ErrInvalidSchedule, "no tiers")
	}
	for i, t := range s.Tiers {
		if t.Reward == 0 {
			return errors.Wrapf(ErrInvalidSchedule, "tier %d has zero reward", i)
		}
		if i == 0 {
			continue
		}
		prev := s.Tiers[i-1]
		if t.Bound <= prev.Bound {
			return errors.Wrapf(ErrInvalidSchedule, "tier %d bound %d is not above %d", i, t.Bound, prev.Bound)
		}
		if t.Reward > prev.Reward {
			return errors.Wrapf(ErrInvalidSchedule, "tier %d reward %d is above %d", i, t.Reward, prev.Reward)
		}
	}
	if last := s.Tiers[len(s.Tiers)-1]; last.Bound > s.Maximum {
		return errors.Wrapf(ErrInvalidSchedule, "terminal bound %d is above maximum %d", last.Bound, s.Maximum)
	}
	return nil
}

// ComputeReward returns the reward of the first tier whose bound is at least issuance.
// An issuance exactly at a bound earns that tier's reward.
func (s *Schedule) ComputeReward(issuance uint64) (uint64, error) {
	if issuance >= s.Maximum {
		return 0, errors.Wrapf(ErrSupplyExhausted, "issuance %d, maximum %d", issuance, s.Maximum)
	}
	// headroom for the smallest reward
	if err := s.checkTotal(issuance, s.Tiers[len(s.Tiers)-1].Reward); err != nil {
		return 0, err
	}
	reward := s.Tiers[len(s.Tiers)-1].Reward
	for _, t := range s.Tiers {
		if issuance <= t.Bound {
			reward = t.Reward
			break
		}
	}
	if err := s.checkTotal(issuance, reward); err != nil {
		return 0, err
	}
	return reward, nil
}

func (s *Schedule) checkTotal(issuance, reward uint64) error {
	total, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(issuance), uint256.NewInt(reward))
	if overflow || !total.IsUint64() {
		return errors.Wrapf(ErrArithmeticOverflow, "%d + %d", issuance, reward)
	}
	if total.Uint64() > s.Maximum {
		return errors.Wrapf(ErrArithmeticOverflow, "%d + %d is above maximum %d", issuance, reward, s.Maximum)
	}
	return nil
}
