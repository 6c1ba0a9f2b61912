// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package ledger

import (
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/state"
)

// RingBuffer reads the latest records ring
func (p *Protocol) RingBuffer(sr protocol.StateReader) (*state.RingBuffer, error) {
	var rb state.RingBuffer
	if err := p.singleton(sr, p.latestKey, &rb); err != nil {
		return nil, err
	}
	return &rb, nil
}

// Push writes r into the latest records ring
func (p *Protocol) Push(sm protocol.StateManager, r state.Record) error {
	rb, err := p.RingBuffer(sm)
	if err != nil {
		return err
	}
	rb.Push(r)
	return sm.PutState(rb, protocol.KeyOption(p.latestKey))
}

// ReadRecent returns up to n of the latest records, newest first
func (p *Protocol) ReadRecent(sr protocol.StateReader, n int) ([]state.Record, error) {
	rb, err := p.RingBuffer(sr)
	if err != nil {
		return nil, err
	}
	return rb.ReadRecent(n)
}
