// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package burn

import (
	"context"

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

const (
	// MinBurnAmount is the smallest burn
	MinBurnAmount = unit.Token
	// MaxBurnAmount is the largest burn
	MaxBurnAmount = 1_000_000_000_000 * unit.Token
)

// ErrInvalidBurnAmount is the error that a burn is out of bounds or not a whole number of tokens
var ErrInvalidBurnAmount = errors.New("invalid burn amount")

// Protocol records burns. Every burn lands in the latest records ring; burns of at least the ledger's minimum
// record amount are also appended to the sharded log and rank the burner by total burned.
type Protocol struct {
	ledger    *ledger.Protocol
	validator *memo.Validator
}

// NewProtocol instantiates a burn protocol
func NewProtocol(lp *ledger.Protocol, validator *memo.Validator) (*Protocol, error) {
	if lp == nil {
		return nil, errors.New("ledger protocol is nil")
	}
	if validator == nil {
		validator = memo.NewValidator()
	}
	return &Protocol{ledger: lp, validator: validator}, nil
}

// ID returns the registry ID
func (p *Protocol) ID() string { return protocol.BurnProtocolID }

// Handle handles burn
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	burn, ok := act.(*action.Burn)
	if !ok {
		return nil, nil
	}
	return p.Burn(ctx, sm, burn.Amount())
}

// ValidateAmount checks amount is within bounds and a whole number of tokens
func ValidateAmount(amount uint64) error {
	switch {
	case amount < MinBurnAmount:
		return errors.Wrapf(ErrInvalidBurnAmount, "%d is below the minimum %d", amount, MinBurnAmount)
	case amount > MaxBurnAmount:
		return errors.Wrapf(ErrInvalidBurnAmount, "%d is above the maximum %d", amount, MaxBurnAmount)
	case amount%unit.Token != 0:
		return errors.Wrapf(ErrInvalidBurnAmount, "%d is not a whole number of tokens", amount)
	}
	return nil
}

// Burn validates and records a burn of amount by the caller
func (p *Protocol) Burn(ctx context.Context, sm protocol.StateManager, amount uint64) (*action.Receipt, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	actionCtx := protocol.MustGetActionCtx(ctx)
	if len(actionCtx.Memo) == 0 {
		return nil, action.ErrMemoRequired
	}
	if _, err := p.validator.ValidateAndExtract(actionCtx.Memo, actionCtx.Caller, amount); err != nil {
		return nil, err
	}

	us, err := p.ledger.LoadOrCreateUserStats(sm, actionCtx.Caller)
	if err != nil {
		return nil, err
	}
	us.AddBurn(amount, actionCtx.Timestamp)
	if err := p.ledger.PutUserStats(sm, us); err != nil {
		return nil, err
	}
	rec := state.Record{
		Actor:     actionCtx.Caller,
		Signature: actionCtx.Signature,
		Sequence:  actionCtx.Slot,
		Timestamp: actionCtx.Timestamp,
		Amount:    amount,
		Kind:      state.KindBurn,
	}
	if err := p.ledger.Push(sm, rec); err != nil {
		return nil, err
	}

	r := &action.Receipt{
		Status:    action.ReceiptStatusSuccess,
		Op:        action.OpBurn,
		Actor:     actionCtx.Caller,
		Signature: actionCtx.Signature,
		Timestamp: actionCtx.Timestamp,
		Amount:    amount,
	}
	if amount < p.ledger.Config().MinRecordAmount {
		return r, nil
	}
	n, err := p.ledger.AppendWithRotation(ctx, sm, rec)
	if err != nil {
		return nil, err
	}
	r.SetShard(n)
	if r.RankChanged, err = p.ledger.Offer(sm, actionCtx.Caller, us.TotalBurned); err != nil {
		return nil, err
	}
	log.L().Debug("Recorded burn",
		zap.String("actor", actionCtx.Caller.String()),
		zap.Uint64("amount", amount),
		zap.Uint64("shard", n),
		zap.Bool("rankChanged", r.RankChanged))
	return r, nil
}
