// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/pkg/log"
	"github.com/memo-labs/memo-core/state"
)

// Initialize creates the shard index, the latest records ring and the leaderboard. Only the admin may bootstrap.
// Shards left by an earlier teardown are adopted, so numbering resumes after the last one.
func (p *Protocol) Initialize(ctx context.Context, sm protocol.StateManager) error {
	if err := p.AssertAdmin(ctx); err != nil {
		return err
	}
	var si state.ShardIndex
	switch err := sm.State(&si, protocol.KeyOption(p.shardIndexKey)); errors.Cause(err) {
	case nil:
		return ErrAlreadyInitialized
	case state.ErrStateNotExist:
	default:
		return err
	}
	resumed, err := p.resumeShardIndex(sm)
	if err != nil {
		return err
	}
	si = *resumed
	ring, err := state.NewRingBuffer(p.cfg.RingCapacity)
	if err != nil {
		return err
	}
	lb, err := state.NewLeaderboard(p.cfg.LeaderboardCapacity)
	if err != nil {
		return err
	}
	for _, s := range []struct {
		key   []byte
		value interface{}
	}{
		{p.shardIndexKey, &si},
		{p.latestKey, ring},
		{p.leaderboardKey, lb},
	} {
		if err := sm.CreateState(s.value, protocol.KeyOption(s.key)); err != nil {
			if errors.Cause(err) == state.ErrStateAlreadyExists {
				return ErrAlreadyInitialized
			}
			return errors.Wrapf(err, "failed to create %T", s.value)
		}
	}
	log.L().Info("Ledger initialized",
		zap.Uint32("shardCapacity", p.cfg.ShardCapacity),
		zap.Uint32("ringCapacity", p.cfg.RingCapacity),
		zap.Uint32("leaderboardCapacity", p.cfg.LeaderboardCapacity),
		zap.Uint64("existingShards", si.TotalShards))
	return nil
}

// ClearLeaderboard empties the leaderboard
func (p *Protocol) ClearLeaderboard(ctx context.Context, sm protocol.StateManager) error {
	if err := p.AssertAdmin(ctx); err != nil {
		return err
	}
	lb, err := p.Leaderboard(sm)
	if err != nil {
		return err
	}
	lb.Clear()
	return sm.PutState(lb, protocol.KeyOption(p.leaderboardKey))
}

// Teardown deletes the ledger singletons. Shards and user stats are left in place and a later Initialize adopts
// the shards.
func (p *Protocol) Teardown(ctx context.Context, sm protocol.StateManager) error {
	if err := p.AssertAdmin(ctx); err != nil {
		return err
	}
	if _, err := p.ShardIndex(sm); err != nil {
		return err
	}
	for _, key := range [][]byte{p.shardIndexKey, p.latestKey, p.leaderboardKey} {
		if err := sm.DelState(protocol.KeyOption(key)); err != nil {
			return err
		}
	}
	log.L().Warn("Ledger singletons deleted")
	return nil
}

// AssertAdmin returns ErrUnauthorized unless the caller is the admin
func (p *Protocol) AssertAdmin(ctx context.Context) error {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if !actionCtx.Caller.Equals(p.admin) {
		return errors.Wrapf(ErrUnauthorized, "%s is not the admin", actionCtx.Caller)
	}
	return nil
}
