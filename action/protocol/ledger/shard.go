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

// ShardIndex reads the shard index
func (p *Protocol) ShardIndex(sr protocol.StateReader) (*state.ShardIndex, error) {
	var si state.ShardIndex
	if err := p.singleton(sr, p.shardIndexKey, &si); err != nil {
		return nil, err
	}
	return &si, nil
}

// Shard reads shard n
func (p *Protocol) Shard(sr protocol.StateReader, n uint64) (*state.Shard, error) {
	key, err := p.ShardKey(n)
	if err != nil {
		return nil, err
	}
	var s state.Shard
	if err := sr.State(&s, protocol.KeyOption(key)); err != nil {
		return nil, errors.Wrapf(err, "failed to read shard %d", n)
	}
	return &s, nil
}

// resumeShardIndex rebuilds an index over the shards that already exist, pointing at the last one if it has room
func (p *Protocol) resumeShardIndex(sr protocol.StateReader) (*state.ShardIndex, error) {
	si := &state.ShardIndex{}
	var last *state.Shard
	for {
		s, err := p.Shard(sr, si.TotalShards)
		if errors.Cause(err) == state.ErrStateNotExist {
			break
		}
		if err != nil {
			return nil, err
		}
		si.TotalShards++
		si.AddRecords(uint64(s.Len()))
		last = s
	}
	if last != nil && !last.IsFull() {
		si.SetActive(last.Number)
	}
	return si, nil
}

// EnsureCapacity makes sure an active, non-full shard exists and returns its number.
// A new shard is created at number TotalShards; creation is create-if-absent, so a racing creator of the same
// number fails at commit and converges on the winner after re-reading.
func (p *Protocol) EnsureCapacity(ctx context.Context, sm protocol.StateManager) (uint64, error) {
	si, err := p.ShardIndex(sm)
	if err != nil {
		return 0, err
	}
	if n, ok := si.ActiveShard(); ok {
		s, err := p.Shard(sm, n)
		if err != nil {
			return 0, err
		}
		if !s.IsFull() {
			return n, nil
		}
	}
	n := si.TotalShards
	key, err := p.ShardKey(n)
	if err != nil {
		return 0, err
	}
	creator := protocol.MustGetActionCtx(ctx).Caller
	if err := sm.CreateState(state.NewShard(n, creator, p.cfg.ShardCapacity), protocol.KeyOption(key)); err != nil {
		return 0, errors.Wrapf(err, "failed to create shard %d", n)
	}
	si.TotalShards++
	si.SetActive(n)
	if err := sm.PutState(si, protocol.KeyOption(p.shardIndexKey)); err != nil {
		return 0, err
	}
	log.L().Debug("Created shard", zap.Uint64("shard", n), zap.String("creator", creator.String()))
	return n, nil
}

// Append writes r into the active shard, clearing the active pointer once the shard is full
func (p *Protocol) Append(sm protocol.StateManager, r state.Record) (uint64, error) {
	si, err := p.ShardIndex(sm)
	if err != nil {
		return 0, err
	}
	n, ok := si.ActiveShard()
	if !ok {
		return 0, errors.Wrap(ErrShardFull, "no active shard")
	}
	s, err := p.Shard(sm, n)
	if err != nil {
		return 0, err
	}
	if err := s.Append(r); err != nil {
		return 0, errors.Wrapf(err, "shard %d", n)
	}
	key, err := p.ShardKey(n)
	if err != nil {
		return 0, err
	}
	if err := sm.PutState(s, protocol.KeyOption(key)); err != nil {
		return 0, err
	}
	if s.IsFull() {
		si.ClearActive()
	}
	si.AddRecords(1)
	if err := sm.PutState(si, protocol.KeyOption(p.shardIndexKey)); err != nil {
		return 0, err
	}
	return n, nil
}

// AppendWithRotation ensures capacity and appends r
func (p *Protocol) AppendWithRotation(ctx context.Context, sm protocol.StateManager, r state.Record) (uint64, error) {
	if _, err := p.EnsureCapacity(ctx, sm); err != nil {
		return 0, err
	}
	return p.Append(sm, r)
}
