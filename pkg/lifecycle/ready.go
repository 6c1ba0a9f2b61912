// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package lifecycle

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// vars
var (
	ErrWrongState = errors.New("service is in wrong state")
	ErrNotReady   = errors.New("service is not ready")
)

// Readiness is a thread-safe struct to indicate a service's status
type Readiness struct {
	ready atomic.Bool
}

// TurnOn sets the service to ready (can accept service request)
func (r *Readiness) TurnOn() error {
	if r.ready.CompareAndSwap(false, true) {
		return nil
	}
	return ErrWrongState
}

// TurnOff sets the service to not ready (initial state)
func (r *Readiness) TurnOff() error {
	if r.ready.CompareAndSwap(true, false) {
		return nil
	}
	return ErrWrongState
}

// IsReady returns whether the service is ready (can accept service request)
func (r *Readiness) IsReady() bool {
	return r.ready.Load()
}

// CheckReady returns ErrNotReady wrapped with the service name if the service cannot accept requests
func (r *Readiness) CheckReady(name string) error {
	if !r.IsReady() {
		return errors.Wrap(ErrNotReady, name)
	}
	return nil
}
