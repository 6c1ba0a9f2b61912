// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/gagliardetto/solana-go"
)

// ReceiptStatusSuccess is the status of an action that landed
const ReceiptStatusSuccess = uint64(1)

// Receipt is the outcome of an action
type Receipt struct {
	Status    uint64
	Op        Op
	Actor     solana.PublicKey
	Signature solana.Signature
	Timestamp int64
	// units burned or minted
	Amount uint64
	// cumulative issuance after a mint
	Issuance uint64
	// shard a record was appended to or created
	ShardNumber *uint64
	// whether the leaderboard changed
	RankChanged bool
}

// SetShard records the shard number in the receipt
func (r *Receipt) SetShard(n uint64) *Receipt {
	r.ShardNumber = &n
	return r
}
