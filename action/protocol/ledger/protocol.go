// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/pkg/util/byteutil"
	"github.com/memo-labs/memo-core/state"
)

var (
	shardIndexSeed    = []byte("shard_index")
	latestRecordsSeed = []byte("latest_records")
	leaderboardSeed   = []byte("leaderboard")
	shardSeed         = []byte("shard")
	userStatsSeed     = []byte("user_stats")
)

var (
	// ErrShardFull is the error that no active shard can take the record
	ErrShardFull = state.ErrShardFull
	// ErrInvalidRange is the error that more records are requested than the ring holds
	ErrInvalidRange = state.ErrInvalidRange
	// ErrUnauthorized is the error that a non-admin invoked an admin operation
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadyInitialized is the error that the ledger singletons exist already
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	// ErrNotInitialized is the error that the ledger singletons do not exist
	ErrNotInitialized = errors.New("ledger not initialized")
)

// Config is the capacity configuration of the ledger accounts
type Config struct {
	// ShardCapacity is the number of records per shard
	ShardCapacity uint32 `yaml:"shardCapacity"`
	// RingCapacity is the number of latest records kept
	RingCapacity uint32 `yaml:"ringCapacity"`
	// LeaderboardCapacity is the number of ranked subjects
	LeaderboardCapacity uint32 `yaml:"leaderboardCapacity"`
	// MinRecordAmount is the smallest burn that is appended to a shard and ranked
	MinRecordAmount uint64 `yaml:"minRecordAmount"`
}

// DefaultConfig is the default ledger config
var DefaultConfig = Config{
	ShardCapacity:       100,
	RingCapacity:        69,
	LeaderboardCapacity: 100,
	MinRecordAmount:     420_000_000,
}

// Protocol owns the sharded log, the latest records ring, the leaderboard and per-user stats. Every account is
// addressed by a program derived address over a fixed seed.
type Protocol struct {
	programID      solana.PublicKey
	admin          solana.PublicKey
	cfg            Config
	shardIndexKey  []byte
	latestKey      []byte
	leaderboardKey []byte
}

// NewProtocol instantiates a ledger protocol
func NewProtocol(programID, admin solana.PublicKey, cfg Config) (*Protocol, error) {
	if cfg.ShardCapacity == 0 || cfg.RingCapacity == 0 || cfg.LeaderboardCapacity == 0 {
		return nil, errors.Wrapf(state.ErrInvalidCapacity, "%+v", cfg)
	}
	p := &Protocol{
		programID: programID,
		admin:     admin,
		cfg:       cfg,
	}
	for _, k := range []struct {
		seed [][]byte
		dst  *[]byte
	}{
		{[][]byte{shardIndexSeed}, &p.shardIndexKey},
		{[][]byte{latestRecordsSeed}, &p.latestKey},
		{[][]byte{leaderboardSeed}, &p.leaderboardKey},
	} {
		key, err := p.derive(k.seed...)
		if err != nil {
			return nil, err
		}
		*k.dst = key
	}
	return p, nil
}

// ID returns the registry ID
func (p *Protocol) ID() string { return protocol.LedgerProtocolID }

// Config returns the ledger config
func (p *Protocol) Config() Config { return p.cfg }

// Handle handles the administrative and shard actions
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	switch act.(type) {
	case *action.Initialize:
		if err := p.Initialize(ctx, sm); err != nil {
			return nil, err
		}
		return p.receipt(ctx, act), nil
	case *action.EnsureShard:
		n, err := p.EnsureCapacity(ctx, sm)
		if err != nil {
			return nil, err
		}
		return p.receipt(ctx, act).SetShard(n), nil
	case *action.ClearLeaderboard:
		if err := p.ClearLeaderboard(ctx, sm); err != nil {
			return nil, err
		}
		return p.receipt(ctx, act), nil
	case *action.Teardown:
		if err := p.Teardown(ctx, sm); err != nil {
			return nil, err
		}
		return p.receipt(ctx, act), nil
	}
	return nil, nil
}

// ShardKey returns the address of shard n
func (p *Protocol) ShardKey(n uint64) ([]byte, error) {
	return p.derive(shardSeed, byteutil.Uint64ToBytesLE(n))
}

// UserStatsKey returns the address of the stats of actor
func (p *Protocol) UserStatsKey(actor solana.PublicKey) ([]byte, error) {
	return p.derive(userStatsSeed, actor[:])
}

func (p *Protocol) derive(seeds ...[]byte) ([]byte, error) {
	addr, _, err := solana.FindProgramAddress(seeds, p.programID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive address of seed %q", seeds[0])
	}
	return addr.Bytes(), nil
}

// singleton reads a ledger singleton, mapping absence to ErrNotInitialized
func (p *Protocol) singleton(sr protocol.StateReader, key []byte, value interface{}) error {
	err := sr.State(value, protocol.KeyOption(key))
	if errors.Cause(err) == state.ErrStateNotExist {
		return errors.Wrapf(ErrNotInitialized, "%T", value)
	}
	return err
}

func (p *Protocol) receipt(ctx context.Context, act action.Action) *action.Receipt {
	actionCtx := protocol.MustGetActionCtx(ctx)
	return &action.Receipt{
		Status:    action.ReceiptStatusSuccess,
		Op:        act.Op(),
		Actor:     actionCtx.Caller,
		Signature: actionCtx.Signature,
		Timestamp: actionCtx.Timestamp,
	}
}
