// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"io"
	"strconv"
	"time"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/pkg/unit"
	"github.com/memo-labs/memo-core/state"
)

var now = func() int64 { return time.Now().Unix() }

type (
	receiptView struct {
		Op          string  `yaml:"op"`
		Actor       string  `yaml:"actor"`
		Amount      string  `yaml:"amount"`
		Issuance    string  `yaml:"issuance,omitempty"`
		Shard       *uint64 `yaml:"shard,omitempty"`
		RankChanged bool    `yaml:"rankChanged"`
	}

	recordView struct {
		Kind      string `yaml:"kind"`
		Actor     string `yaml:"actor"`
		Amount    string `yaml:"amount"`
		Sequence  uint64 `yaml:"sequence"`
		Timestamp int64  `yaml:"timestamp"`
		Signature string `yaml:"signature"`
	}

	entryView struct {
		Rank    int    `yaml:"rank"`
		Subject string `yaml:"subject"`
		Score   string `yaml:"score"`
	}

	statsView struct {
		Actor        string `yaml:"actor"`
		TotalBurned  string `yaml:"totalBurned"`
		BurnCount    uint64 `yaml:"burnCount"`
		TotalMinted  string `yaml:"totalMinted"`
		MintCount    uint64 `yaml:"mintCount"`
		LastActivity int64  `yaml:"lastActivity"`
	}
)

func newReceiptView(r *action.Receipt) receiptView {
	v := receiptView{
		Op:          r.Op.String(),
		Actor:       r.Actor.String(),
		Amount:      unit.Format(r.Amount),
		Shard:       r.ShardNumber,
		RankChanged: r.RankChanged,
	}
	if r.Op == action.OpMint {
		v.Issuance = unit.Format(r.Issuance)
	}
	return v
}

func newRecordView(r state.Record) recordView {
	return recordView{
		Kind:      r.Kind.String(),
		Actor:     r.Actor.String(),
		Amount:    unit.Format(r.Amount),
		Sequence:  r.Sequence,
		Timestamp: r.Timestamp,
		Signature: r.Signature.String(),
	}
}

func newStatsView(us *state.UserStats) statsView {
	return statsView{
		Actor:        us.Actor.String(),
		TotalBurned:  unit.Format(us.TotalBurned),
		BurnCount:    us.BurnCount,
		TotalMinted:  unit.Format(us.TotalMinted),
		MintCount:    us.MintCount,
		LastActivity: us.LastActivity,
	}
}

func (f *globalFlags) renderReceipts(w io.Writer, receipts ...*action.Receipt) error {
	views := make([]receiptView, 0, len(receipts))
	rows := make([][]interface{}, 0, len(receipts))
	for _, r := range receipts {
		v := newReceiptView(r)
		views = append(views, v)
		shard := "-"
		if v.Shard != nil {
			shard = strconv.FormatUint(*v.Shard, 10)
		}
		rows = append(rows, []interface{}{v.Op, v.Actor, v.Amount, shard, v.RankChanged})
	}
	return f.render(w, views, []interface{}{"Op", "Actor", "Amount", "Shard", "Rank Changed"}, rows)
}

func (f *globalFlags) renderRecords(w io.Writer, records []state.Record) error {
	views := make([]recordView, 0, len(records))
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		v := newRecordView(r)
		views = append(views, v)
		rows = append(rows, []interface{}{v.Kind, v.Actor, v.Amount, v.Sequence, v.Timestamp})
	}
	return f.render(w, views, []interface{}{"Kind", "Actor", "Amount", "Sequence", "Timestamp"}, rows)
}
