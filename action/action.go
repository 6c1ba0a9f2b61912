// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// Op is the instruction opcode of an action
type Op uint8

// opcodes
const (
	OpInitialize Op = iota
	OpEnsureShard
	OpMint
	OpBurn
	OpClearLeaderboard
	OpTeardown
)

var (
	// ErrInvalidAmount indicates an action carrying an amount it cannot carry
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrUnknownOp indicates instruction data with an unknown opcode
	ErrUnknownOp = errors.New("unknown opcode")
	// ErrInvalidInstruction indicates malformed instruction data
	ErrInvalidInstruction = errors.New("invalid instruction data")
)

type (
	// Action is the action can be Executed in protocols. The method is added to avoid mistakenly used empty interface as action.
	Action interface {
		SanityCheck() error
		Op() Op
	}

	// Initialize creates the program singletons
	Initialize struct{}

	// EnsureShard makes sure a writable shard exists
	EnsureShard struct{}

	// Mint mints the reward of the current supply tier to the caller
	Mint struct{}

	// Burn burns amount units of the caller
	Burn struct {
		amount uint64
	}

	// ClearLeaderboard empties the leaderboard
	ClearLeaderboard struct{}

	// Teardown deletes the program singletons
	Teardown struct{}
)

// NewBurn returns a burn action
func NewBurn(amount uint64) *Burn { return &Burn{amount: amount} }

// Amount returns the amount to burn
func (b *Burn) Amount() uint64 { return b.amount }

// SanityCheck validates the variables in the action
func (b *Burn) SanityCheck() error {
	if b.amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "burn amount is zero")
	}
	return nil
}

// Op returns the opcode
func (*Burn) Op() Op { return OpBurn }

// SanityCheck validates the variables in the action
func (*Initialize) SanityCheck() error { return nil }

// Op returns the opcode
func (*Initialize) Op() Op { return OpInitialize }

// SanityCheck validates the variables in the action
func (*EnsureShard) SanityCheck() error { return nil }

// Op returns the opcode
func (*EnsureShard) Op() Op { return OpEnsureShard }

// SanityCheck validates the variables in the action
func (*Mint) SanityCheck() error { return nil }

// Op returns the opcode
func (*Mint) Op() Op { return OpMint }

// SanityCheck validates the variables in the action
func (*ClearLeaderboard) SanityCheck() error { return nil }

// Op returns the opcode
func (*ClearLeaderboard) Op() Op { return OpClearLeaderboard }

// SanityCheck validates the variables in the action
func (*Teardown) SanityCheck() error { return nil }

// Op returns the opcode
func (*Teardown) Op() Op { return OpTeardown }

// String returns the opcode name
func (op Op) String() string {
	switch op {
	case OpInitialize:
		return "initialize"
	case OpEnsureShard:
		return "ensureShard"
	case OpMint:
		return "mint"
	case OpBurn:
		return "burn"
	case OpClearLeaderboard:
		return "clearLeaderboard"
	case OpTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Encode encodes an action as instruction data: opcode u8, then the action's fields in borsh
func Encode(act Action) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(uint8(act.Op())); err != nil {
		return nil, err
	}
	if b, ok := act.(*Burn); ok {
		if err := enc.WriteUint64(b.amount, bin.LE); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Decode decodes instruction data into an action
func Decode(data []byte) (Action, error) {
	dec := bin.NewBorshDecoder(data)
	op, err := dec.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInstruction, err.Error())
	}
	var act Action
	switch Op(op) {
	case OpInitialize:
		act = &Initialize{}
	case OpEnsureShard:
		act = &EnsureShard{}
	case OpMint:
		act = &Mint{}
	case OpBurn:
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidInstruction, err.Error())
		}
		act = &Burn{amount: amount}
	case OpClearLeaderboard:
		act = &ClearLeaderboard{}
	case OpTeardown:
		act = &Teardown{}
	default:
		return nil, errors.Wrapf(ErrUnknownOp, "opcode %d", op)
	}
	if dec.Remaining() != 0 {
		return nil, errors.Wrapf(ErrInvalidInstruction, "%d trailing bytes", dec.Remaining())
	}
	return act, nil
}
