// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mint

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/action/protocol/ledger"
	"github.com/memo-labs/memo-core/memo"
	"github.com/memo-labs/memo-core/pkg/log"
	"github.com/memo-labs/memo-core/pkg/unit"
	"github.com/memo-labs/memo-core/state"
)

var _supplySeed = []byte("supply")

// Protocol issues rewards on the supply schedule
type Protocol struct {
	ledger    *ledger.Protocol
	schedule  Schedule
	validator *memo.Validator
	supplyKey []byte
}

// NewProtocol instantiates a mint protocol. The schedule is validated once here and a malformed one is fatal to
// the caller.
func NewProtocol(programID solana.PublicKey, lp *ledger.Protocol, schedule Schedule, validator *memo.Validator) (*Protocol, error) {
	if lp == nil {
		return nil, errors.New("ledger protocol is nil")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	addr, _, err := solana.FindProgramAddress([][]byte{_supplySeed}, programID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive supply address")
	}
	if validator == nil {
		validator = memo.NewValidator()
	}
	return &Protocol{
		ledger:    lp,
		schedule:  schedule,
		validator: validator,
		supplyKey: addr.Bytes(),
	}, nil
}

// ID returns the registry ID
func (p *Protocol) ID() string { return protocol.MintProtocolID }

// Schedule returns the tier schedule
func (p *Protocol) Schedule() Schedule { return p.schedule }

// Handle handles mint, and the supply part of bootstrap and teardown. Teardown never deletes the supply.
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	switch act.(type) {
	case *action.Mint:
		return p.Mint(ctx, sm)
	case *action.Initialize:
		if err := p.ledger.AssertAdmin(ctx); err != nil {
			return nil, err
		}
		// supply outlives teardown, so a re-initialized ledger keeps its issuance
		_, err := p.Supply(sm)
		switch errors.Cause(err) {
		case nil:
			return p.receipt(ctx, act.Op()), nil
		case ledger.ErrNotInitialized:
		default:
			return nil, err
		}
		if err := sm.CreateState(&state.Supply{}, protocol.KeyOption(p.supplyKey)); err != nil {
			return nil, err
		}
		return p.receipt(ctx, act.Op()), nil
	case *action.Teardown:
		if err := p.ledger.AssertAdmin(ctx); err != nil {
			return nil, err
		}
		if _, err := p.Supply(sm); err != nil {
			return nil, err
		}
		return p.receipt(ctx, act.Op()), nil
	}
	return nil, nil
}

// Supply reads the supply
func (p *Protocol) Supply(sr protocol.StateReader) (*state.Supply, error) {
	var s state.Supply
	if err := sr.State(&s, protocol.KeyOption(p.supplyKey)); err != nil {
		if errors.Cause(err) == state.ErrStateNotExist {
			return nil, errors.Wrap(ledger.ErrNotInitialized, "supply")
		}
		return nil, err
	}
	return &s, nil
}

// Mint validates the caller's memo, applies the reward of the current tier to the supply and records the event
func (p *Protocol) Mint(ctx context.Context, sm protocol.StateManager) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if len(actionCtx.Memo) == 0 {
		return nil, action.ErrMemoRequired
	}
	if _, err := p.validator.ValidateAndExtract(actionCtx.Memo, actionCtx.Caller, 0); err != nil {
		return nil, err
	}
	supply, err := p.Supply(sm)
	if err != nil {
		return nil, err
	}
	reward, err := p.schedule.ComputeReward(supply.Issuance)
	if err != nil {
		return nil, err
	}
	supply.Issuance += reward
	supply.MintCount++
	if err := sm.PutState(supply, protocol.KeyOption(p.supplyKey)); err != nil {
		return nil, err
	}

	us, err := p.ledger.LoadOrCreateUserStats(sm, actionCtx.Caller)
	if err != nil {
		return nil, err
	}
	us.AddMint(reward, actionCtx.Timestamp)
	if err := p.ledger.PutUserStats(sm, us); err != nil {
		return nil, err
	}
	if err := p.ledger.Push(sm, state.Record{
		Actor:     actionCtx.Caller,
		Signature: actionCtx.Signature,
		Sequence:  actionCtx.Slot,
		Timestamp: actionCtx.Timestamp,
		Amount:    reward,
		Kind:      state.KindMint,
	}); err != nil {
		return nil, err
	}

	if tokens, err := unit.ToTokens(reward); err == nil {
		log.L().Debug("Minted",
			zap.String("actor", actionCtx.Caller.String()),
			zap.Float64("tokens", tokens),
			zap.Uint64("issuance", supply.Issuance))
	}
	r := p.receipt(ctx, action.OpMint)
	r.Amount = reward
	r.Issuance = supply.Issuance
	return r, nil
}

func (p *Protocol) receipt(ctx context.Context, op action.Op) *action.Receipt {
	actionCtx := protocol.MustGetActionCtx(ctx)
	return &action.Receipt{
		Status:    action.ReceiptStatusSuccess,
		Op:        op,
		Actor:     actionCtx.Caller,
		Signature: actionCtx.Signature,
		Timestamp: actionCtx.Timestamp,
	}
}
