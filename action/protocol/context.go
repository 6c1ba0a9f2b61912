// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

type actionCtxKey struct{}

// ActionCtx provides action handlers with the invoking transaction's auxiliary information.
type ActionCtx struct {
	// signer of the transaction
	Caller solana.PublicKey
	// transaction signature, the external reference of produced records
	Signature solana.Signature
	// slot of the transaction, the sequence position of produced records
	Slot uint64
	// unix seconds
	Timestamp int64
	// companion memo of the invoking instruction, nil if absent
	Memo []byte
}

// WithActionCtx add ActionCtx into context.
func WithActionCtx(ctx context.Context, ac ActionCtx) context.Context {
	return context.WithValue(ctx, actionCtxKey{}, ac)
}

// GetActionCtx gets ActionCtx
func GetActionCtx(ctx context.Context) (ActionCtx, bool) {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	return ac, ok
}

// MustGetActionCtx must get ActionCtx.
// If context doesn't exist, this function panic.
func MustGetActionCtx(ctx context.Context) ActionCtx {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	if !ok {
		panic("Miss action context")
	}
	return ac
}
