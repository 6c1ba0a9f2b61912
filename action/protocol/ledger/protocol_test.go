// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/state"
	"github.com/memo-labs/memo-core/state/factory"
)

type fixture struct {
	p     *Protocol
	sf    factory.Factory
	admin solana.PublicKey
}

func newFixture(t *testing.T, cfg Config) *fixture {
	require := require.New(t)
	admin := solana.NewWallet().PublicKey()
	p, err := NewProtocol(solana.NewWallet().PublicKey(), admin, cfg)
	require.NoError(err)
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(err)
	require.NoError(sf.Start(context.Background()))
	f := &fixture{p: p, sf: sf, admin: admin}

	ws := sf.NewWorkingSet()
	require.NoError(p.Initialize(f.ctx(admin), ws))
	require.NoError(sf.Commit(ws))
	return f
}

func (f *fixture) ctx(caller solana.PublicKey) context.Context {
	return protocol.WithActionCtx(context.Background(), protocol.ActionCtx{
		Caller:    caller,
		Slot:      7,
		Timestamp: 1700000000,
	})
}

func testConfig() Config {
	return Config{ShardCapacity: 3, RingCapacity: 4, LeaderboardCapacity: 2, MinRecordAmount: 1}
}

func record(seq uint64) state.Record {
	return state.Record{Actor: solana.NewWallet().PublicKey(), Sequence: seq, Amount: seq, Kind: state.KindBurn}
}

func TestNewProtocol(t *testing.T) {
	_, err := NewProtocol(solana.NewWallet().PublicKey(), solana.PublicKey{}, Config{ShardCapacity: 1})
	require.Equal(t, state.ErrInvalidCapacity, errors.Cause(err))

	p, err := NewProtocol(solana.NewWallet().PublicKey(), solana.PublicKey{}, DefaultConfig)
	require.NoError(t, err)
	require.Equal(t, protocol.LedgerProtocolID, p.ID())
	k0, err := p.ShardKey(0)
	require.NoError(t, err)
	k1, err := p.ShardKey(1)
	require.NoError(t, err)
	require.NotEqual(t, k0, k1)
}

func TestInitialize(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, testConfig())

	si, err := f.p.ShardIndex(f.sf)
	require.NoError(err)
	require.Zero(si.TotalShards)
	_, ok := si.ActiveShard()
	require.False(ok)
	rb, err := f.p.RingBuffer(f.sf)
	require.NoError(err)
	require.Equal(4, rb.Capacity())
	lb, err := f.p.Leaderboard(f.sf)
	require.NoError(err)
	require.Equal(2, lb.Capacity())

	ws := f.sf.NewWorkingSet()
	require.Equal(ErrAlreadyInitialized, errors.Cause(f.p.Initialize(f.ctx(f.admin), ws)))
	require.Equal(ErrUnauthorized, errors.Cause(f.p.Initialize(f.ctx(solana.NewWallet().PublicKey()), ws)))
}

func TestNotInitialized(t *testing.T) {
	require := require.New(t)
	p, err := NewProtocol(solana.NewWallet().PublicKey(), solana.PublicKey{}, testConfig())
	require.NoError(err)
	sf, err := factory.NewFactory(db.NewMemKVStore())
	require.NoError(err)
	_, err = p.ShardIndex(sf)
	require.Equal(ErrNotInitialized, errors.Cause(err))
	_, err = p.ReadRecent(sf, 1)
	require.Equal(ErrNotInitialized, errors.Cause(err))
}

func TestShardRotation(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	f := newFixture(t, cfg)
	ctx := f.ctx(solana.NewWallet().PublicKey())

	for i := uint32(0); i <= cfg.ShardCapacity; i++ {
		ws := f.sf.NewWorkingSet()
		n, err := f.p.AppendWithRotation(ctx, ws, record(uint64(i)))
		require.NoError(err)
		require.Equal(uint64(i/cfg.ShardCapacity), n)
		require.NoError(f.sf.Commit(ws))
	}

	si, err := f.p.ShardIndex(f.sf)
	require.NoError(err)
	require.Equal(uint64(2), si.TotalShards)
	require.Equal(uint64(cfg.ShardCapacity+1), si.TotalRecords)
	active, ok := si.ActiveShard()
	require.True(ok)
	require.Equal(uint64(1), active)

	s0, err := f.p.Shard(f.sf, 0)
	require.NoError(err)
	require.True(s0.IsFull())
	require.Equal(int(cfg.ShardCapacity), s0.Len())
	for i, r := range s0.Records {
		require.Equal(uint64(i), r.Sequence)
	}
	s1, err := f.p.Shard(f.sf, 1)
	require.NoError(err)
	require.Equal(1, s1.Len())
	require.Equal(uint64(cfg.ShardCapacity), s1.Records[0].Sequence)
}

func TestReinitializeAdoptsShards(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	f := newFixture(t, cfg)
	ctx := f.ctx(solana.NewWallet().PublicKey())
	admin := f.ctx(f.admin)

	appendN := func(count uint32) {
		for i := uint32(0); i < count; i++ {
			ws := f.sf.NewWorkingSet()
			_, err := f.p.AppendWithRotation(ctx, ws, record(uint64(i)))
			require.NoError(err)
			require.NoError(f.sf.Commit(ws))
		}
	}
	reinit := func() *state.ShardIndex {
		ws := f.sf.NewWorkingSet()
		require.NoError(f.p.Teardown(admin, ws))
		require.NoError(f.sf.Commit(ws))
		_, err := f.p.ShardIndex(f.sf)
		require.Equal(ErrNotInitialized, errors.Cause(err))
		ws = f.sf.NewWorkingSet()
		require.NoError(f.p.Initialize(admin, ws))
		require.NoError(f.sf.Commit(ws))
		si, err := f.p.ShardIndex(f.sf)
		require.NoError(err)
		return si
	}

	// shard 0 full, shard 1 holds one record
	appendN(cfg.ShardCapacity + 1)
	si := reinit()
	require.Equal(uint64(2), si.TotalShards)
	require.Equal(uint64(cfg.ShardCapacity+1), si.TotalRecords)
	active, ok := si.ActiveShard()
	require.True(ok)
	require.Equal(uint64(1), active)

	ws := f.sf.NewWorkingSet()
	n, err := f.p.AppendWithRotation(ctx, ws, record(9))
	require.NoError(err)
	require.Equal(uint64(1), n)
	require.NoError(f.sf.Commit(ws))

	// fill shard 1, then the next shard after re-init is 2
	appendN(cfg.ShardCapacity - 2)
	si = reinit()
	require.Equal(uint64(2), si.TotalShards)
	_, ok = si.ActiveShard()
	require.False(ok)
	ws = f.sf.NewWorkingSet()
	n, err = f.p.EnsureCapacity(ctx, ws)
	require.NoError(err)
	require.Equal(uint64(2), n)
	require.NoError(f.sf.Commit(ws))
}

func TestAppendWithoutActiveShard(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, Config{ShardCapacity: 1, RingCapacity: 1, LeaderboardCapacity: 1})
	ws := f.sf.NewWorkingSet()
	_, err := f.p.Append(ws, record(1))
	require.Equal(ErrShardFull, errors.Cause(err))

	_, err = f.p.AppendWithRotation(f.ctx(f.admin), ws, record(1))
	require.NoError(err)
	// the single slot filled, so the pointer is cleared
	_, err = f.p.Append(ws, record(2))
	require.Equal(ErrShardFull, errors.Cause(err))
}

func TestEnsureCapacityConverges(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, testConfig())
	alice, bob := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	ws1, ws2 := f.sf.NewWorkingSet(), f.sf.NewWorkingSet()
	n1, err := f.p.EnsureCapacity(f.ctx(alice), ws1)
	require.NoError(err)
	n2, err := f.p.EnsureCapacity(f.ctx(bob), ws2)
	require.NoError(err)
	require.Equal(n1, n2)

	require.NoError(f.sf.Commit(ws1))
	require.Equal(state.ErrStateAlreadyExists, errors.Cause(f.sf.Commit(ws2)))

	// the loser re-reads and converges on the winner
	ws2 = f.sf.NewWorkingSet()
	n2, err = f.p.EnsureCapacity(f.ctx(bob), ws2)
	require.NoError(err)
	require.Equal(n1, n2)
	require.Zero(ws2.Size())

	s, err := f.p.Shard(f.sf, n1)
	require.NoError(err)
	require.Equal(alice, s.Creator)
	si, err := f.p.ShardIndex(f.sf)
	require.NoError(err)
	require.Equal(uint64(1), si.TotalShards)
}

func TestPushAndReadRecent(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, testConfig())
	for i := uint64(1); i <= 5; i++ {
		ws := f.sf.NewWorkingSet()
		require.NoError(f.p.Push(ws, record(i)))
		require.NoError(f.sf.Commit(ws))
	}
	recent, err := f.p.ReadRecent(f.sf, 4)
	require.NoError(err)
	require.Len(recent, 4)
	for i, r := range recent {
		require.Equal(uint64(5-i), r.Sequence)
	}
	_, err = f.p.ReadRecent(f.sf, 5)
	require.Equal(ErrInvalidRange, errors.Cause(err))
}

func TestOfferAndClear(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, testConfig())
	a, b, c := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	ws := f.sf.NewWorkingSet()
	for _, o := range []struct {
		subject solana.PublicKey
		score   uint64
		changed bool
	}{
		{a, 10, true},
		{b, 20, true},
		{a, 10, false},
		{c, 5, false},
		{c, 15, true},
	} {
		changed, err := f.p.Offer(ws, o.subject, o.score)
		require.NoError(err)
		require.Equal(o.changed, changed)
	}
	require.NoError(f.sf.Commit(ws))

	lb, err := f.p.Leaderboard(f.sf)
	require.NoError(err)
	sorted := lb.Sorted()
	require.Len(sorted, 2)
	require.Equal(b, sorted[0].Subject)
	require.Equal(c, sorted[1].Subject)

	ws = f.sf.NewWorkingSet()
	require.Equal(ErrUnauthorized, errors.Cause(f.p.ClearLeaderboard(f.ctx(a), ws)))
	require.NoError(f.p.ClearLeaderboard(f.ctx(f.admin), ws))
	require.NoError(f.sf.Commit(ws))
	lb, err = f.p.Leaderboard(f.sf)
	require.NoError(err)
	require.Zero(lb.Len())
}

func TestUserStats(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, testConfig())
	actor := solana.NewWallet().PublicKey()

	ws := f.sf.NewWorkingSet()
	us, err := f.p.LoadOrCreateUserStats(ws, actor)
	require.NoError(err)
	require.Equal(actor, us.Actor)
	us.AddBurn(100, 42)
	require.NoError(f.p.PutUserStats(ws, us))
	require.NoError(f.sf.Commit(ws))

	us, err = f.p.UserStats(f.sf, actor)
	require.NoError(err)
	require.Equal(uint64(100), us.TotalBurned)
	require.Equal(int64(42), us.LastActivity)
	_, err = f.p.UserStats(f.sf, solana.NewWallet().PublicKey())
	require.Equal(state.ErrStateNotExist, errors.Cause(err))
}

func TestHandle(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, testConfig())
	ctx := f.ctx(f.admin)

	ws := f.sf.NewWorkingSet()
	r, err := f.p.Handle(ctx, &action.EnsureShard{}, ws)
	require.NoError(err)
	require.Equal(action.OpEnsureShard, r.Op)
	require.NotNil(r.ShardNumber)
	require.Zero(*r.ShardNumber)

	r, err = f.p.Handle(ctx, action.NewBurn(1), ws)
	require.NoError(err)
	require.Nil(r)

	r, err = f.p.Handle(ctx, &action.Teardown{}, ws)
	require.NoError(err)
	require.Equal(action.ReceiptStatusSuccess, r.Status)
	require.NoError(f.sf.Commit(ws))
	_, err = f.p.ShardIndex(f.sf)
	require.Equal(ErrNotInitialized, errors.Cause(err))

	// bootstrap again after teardown
	ws = f.sf.NewWorkingSet()
	_, err = f.p.Handle(ctx, &action.Initialize{}, ws)
	require.NoError(err)
}
