// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/action/protocol/burn"
	"github.com/memo-labs/memo-core/action/protocol/ledger"
	"github.com/memo-labs/memo-core/action/protocol/mint"
	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/events"
	"github.com/memo-labs/memo-core/memo"
	"github.com/memo-labs/memo-core/pkg/lifecycle"
	"github.com/memo-labs/memo-core/pkg/log"
	"github.com/memo-labs/memo-core/pkg/routine"
	"github.com/memo-labs/memo-core/state"
	"github.com/memo-labs/memo-core/state/factory"
)

// ChainService hosts the memo program: the account store, the protocols and event emission. Mutations are
// serialized; each runs in one working set that is committed atomically or not at all.
type ChainService struct {
	lifecycle.Readiness
	mu          sync.Mutex
	lc          lifecycle.Lifecycle
	kv          db.KVStore
	sf          factory.Factory
	registry    *protocol.Registry
	ledger      *ledger.Protocol
	mint        *mint.Protocol
	burn        *burn.Protocol
	emitter     events.Emitter
	programID   solana.PublicKey
	memoProgram solana.PublicKey
	refresher   *routine.TriggerTask
	committed   atomic.Uint64
	failed      atomic.Uint64
}

type optionParams struct {
	isTesting bool
	kv        db.KVStore
	emitter   events.Emitter
}

// Option sets ChainService construction parameter.
type Option func(ops *optionParams) error

// WithTesting is an option to create a ChainService on an in-memory store.
func WithTesting() Option {
	return func(ops *optionParams) error {
		ops.isTesting = true
		return nil
	}
}

// WithKVStore is an option to use the given store instead of the configured one.
func WithKVStore(kv db.KVStore) Option {
	return func(ops *optionParams) error {
		if kv == nil {
			return errors.New("kv store is nil")
		}
		ops.kv = kv
		return nil
	}
}

// WithEmitter is an option to use the given emitter instead of the configured ones.
func WithEmitter(e events.Emitter) Option {
	return func(ops *optionParams) error {
		if e == nil {
			return errors.New("emitter is nil")
		}
		ops.emitter = e
		return nil
	}
}

// New creates a ChainService from config
func New(cfg config.Config, opts ...Option) (*ChainService, error) {
	var ops optionParams
	for _, opt := range opts {
		if err := opt(&ops); err != nil {
			return nil, err
		}
	}
	programID, err := cfg.Chain.ProgramKey()
	if err != nil {
		return nil, err
	}
	admin, err := cfg.Chain.AdminKey()
	if err != nil {
		return nil, err
	}
	memoProgram, err := cfg.Chain.MemoProgramKey()
	if err != nil {
		return nil, err
	}

	kv := ops.kv
	switch {
	case kv != nil:
	case ops.isTesting:
		kv = db.NewMemKVStore()
	default:
		if kv, err = db.CreateKVStore(cfg.DB, cfg.DB.DbPath); err != nil {
			return nil, errors.Wrap(err, "failed to create kv store")
		}
	}
	sf, err := factory.NewFactory(kv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create state factory")
	}

	validator := memo.NewValidator()
	lp, err := ledger.NewProtocol(programID, admin, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	mp, err := mint.NewProtocol(programID, lp, cfg.Mint, validator)
	if err != nil {
		return nil, err
	}
	bp, err := burn.NewProtocol(lp, validator)
	if err != nil {
		return nil, err
	}
	registry := protocol.NewRegistry()
	for _, p := range []protocol.Protocol{lp, mp, bp} {
		if err := registry.Register(p.ID(), p); err != nil {
			return nil, err
		}
	}

	cs := &ChainService{
		kv:          kv,
		sf:          sf,
		registry:    registry,
		ledger:      lp,
		mint:        mp,
		burn:        bp,
		programID:   programID,
		memoProgram: memoProgram,
	}
	cs.lc.Add(sf)
	cs.emitter = ops.emitter
	if cs.emitter == nil {
		cs.emitter = cs.buildEmitter(cfg.Events)
	}
	cs.refresher = routine.NewTriggerTask(cs.refreshStateMetrics, routine.TriggerBufferSize(1))
	cs.lc.Add(cs.refresher)
	if cfg.Chain.StatsInterval > 0 {
		cs.lc.Add(routine.NewRecurringTask(cs.reportStats, cfg.Chain.StatsInterval))
	}
	return cs, nil
}

func (cs *ChainService) buildEmitter(cfg events.Config) events.Emitter {
	var emitters []events.Emitter
	if cfg.Log {
		emitters = append(emitters, events.NewLogEmitter())
	}
	if cfg.Redis.Addr != "" {
		re := events.NewRedisEmitter(cfg.Redis)
		cs.lc.Add(re)
		emitters = append(emitters, re)
	}
	return events.Multi(emitters...)
}

// Start starts the store and the background tasks
func (cs *ChainService) Start(ctx context.Context) error {
	if err := cs.lc.OnStart(ctx); err != nil {
		return err
	}
	cs.refresher.Trigger()
	return cs.TurnOn()
}

// Stop stops the background tasks and closes the store
func (cs *ChainService) Stop(ctx context.Context) error {
	if err := cs.TurnOff(); err != nil {
		return err
	}
	return cs.lc.OnStop(ctx)
}

// Registry returns the protocol registry
func (cs *ChainService) Registry() *protocol.Registry { return cs.registry }

// Factory returns the state factory
func (cs *ChainService) Factory() factory.Factory { return cs.sf }

// Schedule returns the mint tier schedule
func (cs *ChainService) Schedule() mint.Schedule { return cs.mint.Schedule() }

// Initialize creates the program singletons
func (cs *ChainService) Initialize(ctx context.Context, ac protocol.ActionCtx) (*action.Receipt, error) {
	return cs.executeOne(ctx, ac, &action.Initialize{})
}

// EnsureCapacity makes sure a writable shard exists and returns its number
func (cs *ChainService) EnsureCapacity(ctx context.Context, ac protocol.ActionCtx) (uint64, error) {
	r, err := cs.executeOne(ctx, ac, &action.EnsureShard{})
	if err != nil {
		return 0, err
	}
	return *r.ShardNumber, nil
}

// Mint mints the reward of the current tier to the caller. ac.Memo is the raw companion memo.
func (cs *ChainService) Mint(ctx context.Context, ac protocol.ActionCtx) (*action.Receipt, error) {
	if err := memo.CheckTransport(ac.Memo); err != nil {
		return nil, err
	}
	return cs.executeOne(ctx, ac, &action.Mint{})
}

// Burn records a burn of amount by the caller. ac.Memo is the raw companion memo.
func (cs *ChainService) Burn(ctx context.Context, ac protocol.ActionCtx, amount uint64) (*action.Receipt, error) {
	if err := memo.CheckTransport(ac.Memo); err != nil {
		return nil, err
	}
	return cs.executeOne(ctx, ac, action.NewBurn(amount))
}

// ClearLeaderboard empties the leaderboard
func (cs *ChainService) ClearLeaderboard(ctx context.Context, ac protocol.ActionCtx) (*action.Receipt, error) {
	return cs.executeOne(ctx, ac, &action.ClearLeaderboard{})
}

// Teardown deletes the program singletons
func (cs *ChainService) Teardown(ctx context.Context, ac protocol.ActionCtx) (*action.Receipt, error) {
	return cs.executeOne(ctx, ac, &action.Teardown{})
}

func (cs *ChainService) executeOne(ctx context.Context, ac protocol.ActionCtx, act action.Action) (*action.Receipt, error) {
	receipts, err := cs.execute(ctx, []step{{ac: ac, act: act}})
	if err != nil {
		return nil, err
	}
	return receipts[0], nil
}

type step struct {
	ac  protocol.ActionCtx
	act action.Action
}

// execute runs steps in one working set. A commit that loses a create-if-absent race is retried once on fresh
// state, which converges racing shard creators.
func (cs *ChainService) execute(ctx context.Context, steps []step) ([]*action.Receipt, error) {
	if err := cs.CheckReady("chain service"); err != nil {
		return nil, err
	}
	for _, s := range steps {
		if err := s.act.SanityCheck(); err != nil {
			return nil, err
		}
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	receipts, err := cs.runAndCommit(ctx, steps)
	if errors.Cause(err) == state.ErrStateAlreadyExists {
		log.L().Debug("Lost a create race, retrying", zap.Error(err))
		receipts, err = cs.runAndCommit(ctx, steps)
	}
	for _, s := range steps {
		_opMtc.WithLabelValues(s.act.Op().String(), status(err)).Inc()
	}
	if err != nil {
		cs.failed.Inc()
		return nil, err
	}
	cs.committed.Inc()
	cs.refresher.Trigger()
	for i, r := range receipts {
		if err := cs.emitter.Emit(ctx, events.NewEvent(r, steps[i].ac.Slot)); err != nil {
			log.L().Warn("Failed to emit event", zap.String("op", r.Op.String()), zap.Error(err))
		}
	}
	return receipts, nil
}

func (cs *ChainService) runAndCommit(ctx context.Context, steps []step) ([]*action.Receipt, error) {
	ws := cs.sf.NewWorkingSet()
	receipts := make([]*action.Receipt, 0, len(steps))
	for _, s := range steps {
		r, err := cs.handle(protocol.WithActionCtx(ctx, s.ac), s.act, ws)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := cs.sf.Commit(ws); err != nil {
		return nil, err
	}
	return receipts, nil
}

// handle offers act to every protocol; the first receipt is the result
func (cs *ChainService) handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	var receipt *action.Receipt
	for _, p := range cs.registry.All() {
		r, err := p.Handle(ctx, act, sm)
		if err != nil {
			return nil, errors.Wrapf(err, "protocol %s failed to handle %s", p.ID(), act.Op())
		}
		if receipt == nil {
			receipt = r
		}
	}
	if receipt == nil {
		return nil, errors.Wrapf(action.ErrUnknownOp, "no protocol handles %s", act.Op())
	}
	return receipt, nil
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
