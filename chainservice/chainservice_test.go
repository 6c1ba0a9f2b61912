// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/action/protocol/ledger"
	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/memo"
	"github.com/memo-labs/memo-core/pkg/lifecycle"
	"github.com/memo-labs/memo-core/pkg/unit"
	"github.com/memo-labs/memo-core/state"
	"github.com/memo-labs/memo-core/test/mock/mock_events"
	"github.com/memo-labs/memo-core/testutil"
)

var _payload = []byte(`{"title":"gm","image":""}`)

func testConfig() config.Config {
	cfg := config.Default
	cfg.Chain.StatsInterval = 0
	cfg.Ledger = ledger.Config{
		ShardCapacity:       2,
		RingCapacity:        4,
		LeaderboardCapacity: 3,
		MinRecordAmount:     10 * unit.Token,
	}
	return cfg
}

type fixture struct {
	cs      *ChainService
	cfg     config.Config
	admin   solana.PublicKey
	emitter *mock_events.MockEmitter
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	cfg := testConfig()
	emitter := mock_events.NewMockEmitter(ctrl)
	cs, err := New(cfg, append([]Option{WithTesting(), WithEmitter(emitter)}, opts...)...)
	require.NoError(err)
	ctx := context.Background()
	require.NoError(cs.Start(ctx))
	t.Cleanup(func() { require.NoError(cs.Stop(ctx)) })

	admin := solana.MustPublicKeyFromBase58(cfg.Chain.Admin)
	emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	r, err := cs.Initialize(ctx, protocol.ActionCtx{Caller: admin})
	require.NoError(err)
	require.Equal(action.OpInitialize, r.Op)
	return &fixture{cs: cs, cfg: cfg, admin: admin, emitter: emitter}
}

func rawMemo(t *testing.T, actor solana.PublicKey, amount uint64) []byte {
	raw, err := memo.Encode(&memo.Memo{Version: memo.CurrentVersion, Amount: amount, Actor: actor, Payload: _payload})
	require.NoError(t, err)
	require.NoError(t, memo.CheckTransport(raw))
	return raw
}

func (f *fixture) burnTx(t *testing.T, actor solana.PublicKey, amount uint64, slot uint64) *action.Transaction {
	data, err := action.Encode(action.NewBurn(amount))
	require.NoError(t, err)
	memoProgram, err := f.cfg.Chain.MemoProgramKey()
	require.NoError(t, err)
	programID, err := f.cfg.Chain.ProgramKey()
	require.NoError(t, err)
	return &action.Transaction{
		Signer:    actor,
		Slot:      slot,
		Timestamp: int64(slot),
		Instructions: []action.Instruction{
			{ProgramID: solana.SystemProgramID, Data: []byte{2}},
			{ProgramID: memoProgram, Data: rawMemo(t, actor, amount)},
			{ProgramID: programID, Data: data},
		},
	}
}

func TestNotStarted(t *testing.T) {
	cs, err := New(testConfig(), WithTesting())
	require.NoError(t, err)
	_, err = cs.Initialize(context.Background(), protocol.ActionCtx{})
	require.Equal(t, lifecycle.ErrNotReady, errors.Cause(err))

	_, err = New(testConfig(), WithKVStore(nil))
	require.Error(t, err)
	cfg := testConfig()
	cfg.Chain.ProgramID = "bad"
	_, err = New(cfg, WithTesting())
	require.Equal(t, config.ErrInvalidCfg, errors.Cause(err))
}

func TestProcessBurn(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	actor := solana.NewWallet().PublicKey()

	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	receipts, err := f.cs.Process(ctx, f.burnTx(t, actor, 10*unit.Token, 100))
	require.NoError(err)
	require.Len(receipts, 1)
	require.Equal(action.OpBurn, receipts[0].Op)
	require.Equal(uint64(0), *receipts[0].ShardNumber)
	require.True(receipts[0].RankChanged)

	recent, err := f.cs.ReadRecent(4)
	require.NoError(err)
	require.Len(recent, 1)
	require.Equal(uint64(100), recent[0].Sequence)
	require.Equal(state.KindBurn, recent[0].Kind)
	leaders, err := f.cs.Leaderboard()
	require.NoError(err)
	require.Equal(actor, leaders[0].Subject)
	us, err := f.cs.UserStats(actor)
	require.NoError(err)
	require.Equal(10*unit.Token, us.TotalBurned)
	list, err := f.cs.ListUserStats()
	require.NoError(err)
	require.Len(list, 1)
}

func TestProcessRejects(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	actor := solana.NewWallet().PublicKey()

	// memo not immediately before the burn
	tx := f.burnTx(t, actor, 10*unit.Token, 1)
	tx.Instructions[0], tx.Instructions[1] = tx.Instructions[1], tx.Instructions[0]
	_, err := f.cs.Process(ctx, tx)
	require.Equal(action.ErrMemoRequired, errors.Cause(err))

	// memo for another amount
	tx = f.burnTx(t, actor, 10*unit.Token, 1)
	tx.Instructions[1].Data = rawMemo(t, actor, 11*unit.Token)
	_, err = f.cs.Process(ctx, tx)
	require.Equal(memo.ErrAmountMismatch, errors.Cause(err))

	// short transport
	_, err = f.cs.Burn(ctx, protocol.ActionCtx{Caller: actor, Memo: []byte("short")}, unit.Token)
	require.Equal(memo.ErrMemoTooShort, errors.Cause(err))

	_, err = f.cs.Process(ctx, &action.Transaction{})
	require.Equal(action.ErrInvalidInstruction, errors.Cause(err))

	// nothing was written
	recent, err := f.cs.ReadRecent(4)
	require.NoError(err)
	require.Empty(recent)
	_, err = f.cs.UserStats(actor)
	require.Equal(state.ErrStateNotExist, errors.Cause(err))
}

func TestMintAndAdmin(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	actor := solana.NewWallet().PublicKey()

	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(1)
	r, err := f.cs.Mint(ctx, protocol.ActionCtx{Caller: actor, Slot: 5, Memo: rawMemo(t, actor, 0)})
	// emission failures do not fail the operation
	require.NoError(err)
	require.Equal(f.cs.Schedule().Tiers[0].Reward, r.Amount)
	supply, err := f.cs.Supply()
	require.NoError(err)
	require.Equal(r.Amount, supply.Issuance)

	_, err = f.cs.ClearLeaderboard(ctx, protocol.ActionCtx{Caller: actor})
	require.Equal(ledger.ErrUnauthorized, errors.Cause(err))
	_, err = f.cs.Initialize(ctx, protocol.ActionCtx{Caller: f.admin})
	require.Equal(ledger.ErrAlreadyInitialized, errors.Cause(err))

	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	n, err := f.cs.EnsureCapacity(ctx, protocol.ActionCtx{Caller: actor})
	require.NoError(err)
	require.Zero(n)
	_, err = f.cs.Teardown(ctx, protocol.ActionCtx{Caller: f.admin})
	require.NoError(err)
	_, err = f.cs.ShardIndex()
	require.Equal(ledger.ErrNotInitialized, errors.Cause(err))
	// shards and supply outlive teardown
	_, err = f.cs.Shard(0)
	require.NoError(err)
	kept, err := f.cs.Supply()
	require.NoError(err)
	require.Equal(supply, kept)
}

func TestTeardownAndReinitialize(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	actor := solana.NewWallet().PublicKey()
	burn := func(slot uint64) (*action.Receipt, error) {
		return f.cs.Burn(ctx, protocol.ActionCtx{Caller: actor, Slot: slot, Memo: rawMemo(t, actor, 10*unit.Token)}, 10*unit.Token)
	}

	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	r, err := f.cs.Mint(ctx, protocol.ActionCtx{Caller: actor, Slot: 1, Memo: rawMemo(t, actor, 0)})
	require.NoError(err)
	r, err = burn(2)
	require.NoError(err)
	require.Zero(*r.ShardNumber)
	before, err := f.cs.Supply()
	require.NoError(err)

	_, err = f.cs.Teardown(ctx, protocol.ActionCtx{Caller: f.admin})
	require.NoError(err)
	_, err = burn(3)
	require.Equal(ledger.ErrNotInitialized, errors.Cause(err))
	_, err = f.cs.Initialize(ctx, protocol.ActionCtx{Caller: f.admin})
	require.NoError(err)

	// shard 0 has room and is adopted
	r, err = burn(4)
	require.NoError(err)
	require.Zero(*r.ShardNumber)
	// shard 0 is full now, so a new shard follows it
	n, err := f.cs.EnsureCapacity(ctx, protocol.ActionCtx{Caller: actor})
	require.NoError(err)
	require.Equal(uint64(1), n)
	si, err := f.cs.ShardIndex()
	require.NoError(err)
	require.Equal(uint64(2), si.TotalShards)
	require.Equal(uint64(2), si.TotalRecords)

	after, err := f.cs.Supply()
	require.NoError(err)
	require.Equal(before, after)
	r, err = f.cs.Mint(ctx, protocol.ActionCtx{Caller: actor, Slot: 5, Memo: rawMemo(t, actor, 0)})
	require.NoError(err)
	require.Equal(before.Issuance+r.Amount, r.Issuance)
	require.Equal(uint64(2), r.Issuance/r.Amount)

	// a second round trip keeps converging
	_, err = f.cs.Teardown(ctx, protocol.ActionCtx{Caller: f.admin})
	require.NoError(err)
	_, err = f.cs.Initialize(ctx, protocol.ActionCtx{Caller: f.admin})
	require.NoError(err)
	r, err = burn(6)
	require.NoError(err)
	require.Equal(uint64(1), *r.ShardNumber)
}

func TestConcurrentBurns(t *testing.T) {
	require := require.New(t)
	path, err := testutil.PathOfTempFile("chainservice.db")
	require.NoError(err)
	t.Cleanup(func() { testutil.CleanupPath(t, path) })
	kv, err := db.CreateKVStore(db.Config{DBType: db.DBBolt, NumRetries: 3}, path)
	require.NoError(err)
	f := newFixture(t, WithKVStore(kv))
	ctx := context.Background()

	const workers, burns = 4, 5
	f.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(workers * burns)
	actors := make([]solana.PublicKey, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		actors[w] = solana.NewWallet().PublicKey()
		actor, raw := actors[w], rawMemo(t, actors[w], 10*unit.Token)
		g.Go(func() error {
			for i := 0; i < burns; i++ {
				if _, err := f.cs.Burn(ctx, protocol.ActionCtx{Caller: actor, Memo: raw}, 10*unit.Token); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(g.Wait())

	si, err := f.cs.ShardIndex()
	require.NoError(err)
	require.Equal(uint64(workers*burns), si.TotalRecords)
	require.Equal(uint64(workers*burns/int(f.cfg.Ledger.ShardCapacity)), si.TotalShards)
	for n := uint64(0); n < si.TotalShards; n++ {
		s, err := f.cs.Shard(n)
		require.NoError(err)
		require.True(s.IsFull())
	}
	for _, actor := range actors {
		us, err := f.cs.UserStats(actor)
		require.NoError(err)
		require.Equal(uint64(burns), us.BurnCount)
	}
	leaders, err := f.cs.Leaderboard()
	require.NoError(err)
	require.Len(leaders, int(f.cfg.Ledger.LeaderboardCapacity))
}
