// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/state"
)

// Leaderboard reads the leaderboard
func (p *Protocol) Leaderboard(sr protocol.StateReader) (*state.Leaderboard, error) {
	var lb state.Leaderboard
	if err := p.singleton(sr, p.leaderboardKey, &lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

// Offer offers subject with score to the leaderboard and persists it if it changed
func (p *Protocol) Offer(sm protocol.StateManager, subject solana.PublicKey, score uint64) (bool, error) {
	lb, err := p.Leaderboard(sm)
	if err != nil {
		return false, err
	}
	changed, err := lb.Offer(subject, score)
	if err != nil || !changed {
		return false, err
	}
	return true, sm.PutState(lb, protocol.KeyOption(p.leaderboardKey))
}

// UserStats reads the stats of actor
func (p *Protocol) UserStats(sr protocol.StateReader, actor solana.PublicKey) (*state.UserStats, error) {
	key, err := p.UserStatsKey(actor)
	if err != nil {
		return nil, err
	}
	var us state.UserStats
	if err := sr.State(&us, protocol.KeyOption(key)); err != nil {
		return nil, err
	}
	return &us, nil
}

// LoadOrCreateUserStats reads the stats of actor, or returns fresh ones if the actor has none yet
func (p *Protocol) LoadOrCreateUserStats(sr protocol.StateReader, actor solana.PublicKey) (*state.UserStats, error) {
	us, err := p.UserStats(sr, actor)
	switch errors.Cause(err) {
	case nil:
		return us, nil
	case state.ErrStateNotExist:
		return &state.UserStats{Actor: actor}, nil
	default:
		return nil, err
	}
}

// PutUserStats persists us
func (p *Protocol) PutUserStats(sm protocol.StateManager, us *state.UserStats) error {
	key, err := p.UserStatsKey(us.Actor)
	if err != nil {
		return err
	}
	return sm.PutState(us, protocol.KeyOption(key))
}
