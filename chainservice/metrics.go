// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/pkg/log"
)

var (
	_opMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memo_ledger_operations",
			Help: "Ledger operations by outcome.",
		},
		[]string{"op", "status"},
	)
	_stateMtc = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memo_ledger_state",
			Help: "Committed ledger counters.",
		},
		[]string{"field"},
	)
)

func init() {
	prometheus.MustRegister(_opMtc)
	prometheus.MustRegister(_stateMtc)
}

type metricsReporter interface {
	ReportMetrics()
}

// snapshot is a point-in-time view of the committed counters
type snapshot struct {
	TotalShards        uint64
	TotalRecords       uint64
	Issuance           uint64
	MintCount          uint64
	LeaderboardEntries int
	LeaderboardUpdates uint64
	RingLen            uint32
}

func (cs *ChainService) snapshot() (snapshot, error) {
	var s snapshot
	si, err := cs.ledger.ShardIndex(cs.sf)
	if err != nil {
		return s, err
	}
	s.TotalShards, s.TotalRecords = si.TotalShards, si.TotalRecords
	supply, err := cs.mint.Supply(cs.sf)
	if err != nil {
		return s, err
	}
	s.Issuance, s.MintCount = supply.Issuance, supply.MintCount
	lb, err := cs.ledger.Leaderboard(cs.sf)
	if err != nil {
		return s, err
	}
	s.LeaderboardEntries, s.LeaderboardUpdates = lb.Len(), lb.Updates
	rb, err := cs.ledger.RingBuffer(cs.sf)
	if err != nil {
		return s, err
	}
	s.RingLen = rb.Len
	return s, nil
}

func (cs *ChainService) refreshStateMetrics() {
	s, err := cs.snapshot()
	if err != nil {
		log.L().Debug("Ledger state unavailable", zap.Error(err))
		return
	}
	_stateMtc.WithLabelValues("total_shards").Set(float64(s.TotalShards))
	_stateMtc.WithLabelValues("total_records").Set(float64(s.TotalRecords))
	_stateMtc.WithLabelValues("issuance").Set(float64(s.Issuance))
	_stateMtc.WithLabelValues("mint_count").Set(float64(s.MintCount))
	_stateMtc.WithLabelValues("leaderboard_entries").Set(float64(s.LeaderboardEntries))
	_stateMtc.WithLabelValues("leaderboard_updates").Set(float64(s.LeaderboardUpdates))
	_stateMtc.WithLabelValues("ring_len").Set(float64(s.RingLen))
}

func (cs *ChainService) reportStats() {
	if r, ok := cs.kv.(metricsReporter); ok {
		r.ReportMetrics()
	}
	s, err := cs.snapshot()
	if err != nil {
		log.L().Info("Ledger not initialized", zap.Error(err))
		return
	}
	log.L().Info("Ledger stats",
		zap.Uint64("committed", cs.committed.Load()),
		zap.Uint64("failed", cs.failed.Load()),
		zap.Uint64("shards", s.TotalShards),
		zap.Uint64("records", s.TotalRecords),
		zap.Uint64("issuance", s.Issuance),
		zap.Int("leaders", s.LeaderboardEntries))
}
