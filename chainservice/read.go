// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/state"
)

// ShardIndex returns the committed shard index
func (cs *ChainService) ShardIndex() (*state.ShardIndex, error) {
	return cs.ledger.ShardIndex(cs.sf)
}

// Shard returns committed shard n
func (cs *ChainService) Shard(n uint64) (*state.Shard, error) {
	return cs.ledger.Shard(cs.sf, n)
}

// ReadRecent returns up to n of the latest records, newest first
func (cs *ChainService) ReadRecent(n int) ([]state.Record, error) {
	return cs.ledger.ReadRecent(cs.sf, n)
}

// Leaderboard returns the leaderboard entries ordered by descending score
func (cs *ChainService) Leaderboard() ([]state.LeaderboardEntry, error) {
	lb, err := cs.ledger.Leaderboard(cs.sf)
	if err != nil {
		return nil, err
	}
	return lb.Sorted(), nil
}

// Supply returns the committed supply
func (cs *ChainService) Supply() (*state.Supply, error) {
	return cs.mint.Supply(cs.sf)
}

// UserStats returns the stats of actor
func (cs *ChainService) UserStats(actor solana.PublicKey) (*state.UserStats, error) {
	return cs.ledger.UserStats(cs.sf, actor)
}

// ListUserStats returns the stats of every actor
func (cs *ChainService) ListUserStats() ([]*state.UserStats, error) {
	var list []*state.UserStats
	err := cs.sf.ForEach(protocol.AccountNameSpace, func(_, v []byte) error {
		if !state.IsUserStats(v) {
			return nil
		}
		us := &state.UserStats{}
		if err := us.Deserialize(v); err != nil {
			return errors.Wrap(err, "failed to deserialize user stats")
		}
		list = append(list, us)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
