// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package events

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/pkg/log"
)

type (
	// Event is the externally published form of a receipt
	Event struct {
		Op          string  `json:"op"`
		Actor       string  `json:"actor"`
		Signature   string  `json:"signature"`
		Slot        uint64  `json:"slot"`
		Timestamp   int64   `json:"timestamp"`
		Amount      uint64  `json:"amount,omitempty"`
		Issuance    uint64  `json:"issuance,omitempty"`
		Shard       *uint64 `json:"shard,omitempty"`
		RankChanged bool    `json:"rankChanged,omitempty"`
	}

	// Emitter publishes events
	Emitter interface {
		Emit(context.Context, *Event) error
	}

	logEmitter struct {
		logger *zap.Logger
	}

	multiEmitter []Emitter
)

// NewEvent creates the event of receipt r produced at slot
func NewEvent(r *action.Receipt, slot uint64) *Event {
	return &Event{
		Op:          r.Op.String(),
		Actor:       r.Actor.String(),
		Signature:   r.Signature.String(),
		Slot:        slot,
		Timestamp:   r.Timestamp,
		Amount:      r.Amount,
		Issuance:    r.Issuance,
		Shard:       r.ShardNumber,
		RankChanged: r.RankChanged,
	}
}

// NewLogEmitter returns an emitter writing events to the "events" sub logger
func NewLogEmitter() Emitter {
	return &logEmitter{logger: log.Logger("events")}
}

func (e *logEmitter) Emit(_ context.Context, evt *Event) error {
	fields := []zap.Field{
		zap.String("op", evt.Op),
		zap.String("actor", evt.Actor),
		zap.String("signature", evt.Signature),
		zap.Uint64("slot", evt.Slot),
		zap.Uint64("amount", evt.Amount),
	}
	if evt.Shard != nil {
		fields = append(fields, zap.Uint64("shard", *evt.Shard))
	}
	e.logger.Info("event", fields...)
	return nil
}

// Multi fans an event out to every emitter. All emitters are tried; the first failure is returned.
func Multi(emitters ...Emitter) Emitter {
	return multiEmitter(emitters)
}

func (m multiEmitter) Emit(ctx context.Context, evt *Event) error {
	var first error
	for _, e := range m {
		if err := e.Emit(ctx, evt); err != nil {
			log.L().Warn("Failed to emit event", zap.String("op", evt.Op), zap.Error(err))
			if first == nil {
				first = errors.Wrapf(err, "failed to emit %s", evt.Op)
			}
		}
	}
	return first
}
