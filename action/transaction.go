// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// ErrMemoRequired indicates the invoking instruction has no memo right before it
var ErrMemoRequired = errors.New("memo instruction required")

type (
	// Instruction is a single program invocation inside a transaction
	Instruction struct {
		ProgramID solana.PublicKey
		Data      []byte
	}

	// Transaction is an ordered list of instructions signed by one signer
	Transaction struct {
		Signature    solana.Signature
		Signer       solana.PublicKey
		Slot         uint64
		Timestamp    int64
		Instructions []Instruction
	}
)

// CompanionMemo returns the data of the memo instruction placed immediately before instruction index
func (tx *Transaction) CompanionMemo(index int, memoProgram solana.PublicKey) ([]byte, error) {
	if index < 0 || index >= len(tx.Instructions) {
		return nil, errors.Errorf("instruction index %d out of range [0, %d)", index, len(tx.Instructions))
	}
	if index == 0 {
		return nil, errors.Wrap(ErrMemoRequired, "no instruction before the first one")
	}
	prev := tx.Instructions[index-1]
	if !prev.ProgramID.Equals(memoProgram) {
		return nil, errors.Wrapf(ErrMemoRequired, "instruction %d belongs to %s", index-1, prev.ProgramID)
	}
	return prev.Data, nil
}
