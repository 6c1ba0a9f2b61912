// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"

	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/memo"
)

// Process executes the instructions of tx that belong to the program, all in one working set.
// Mint and burn take their memo from the instruction immediately before them.
func (cs *ChainService) Process(ctx context.Context, tx *action.Transaction) ([]*action.Receipt, error) {
	if tx == nil {
		return nil, errors.Wrap(action.ErrInvalidInstruction, "nil transaction")
	}
	var steps []step
	for i, ins := range tx.Instructions {
		if !ins.ProgramID.Equals(cs.programID) {
			continue
		}
		act, err := action.Decode(ins.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		ac := protocol.ActionCtx{
			Caller:    tx.Signer,
			Signature: tx.Signature,
			Slot:      tx.Slot,
			Timestamp: tx.Timestamp,
		}
		switch act.(type) {
		case *action.Mint, *action.Burn:
			if ac.Memo, err = tx.CompanionMemo(i, cs.memoProgram); err != nil {
				return nil, err
			}
			if err := memo.CheckTransport(ac.Memo); err != nil {
				return nil, errors.Wrapf(err, "memo of instruction %d", i)
			}
		}
		steps = append(steps, step{ac: ac, act: act})
	}
	if len(steps) == 0 {
		return nil, errors.Wrap(action.ErrInvalidInstruction, "no instruction for the program")
	}
	return cs.execute(ctx, steps)
}
