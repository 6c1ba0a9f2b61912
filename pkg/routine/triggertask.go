// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package routine

import (
	"context"
	"sync"
	"time"

	"github.com/memo-labs/memo-core/pkg/lifecycle"
	"github.com/memo-labs/memo-core/pkg/log"
)

var _ lifecycle.StartStopper = (*TriggerTask)(nil)

// TriggerTaskOption is option to TriggerTask.
type TriggerTaskOption interface {
	SetTriggerTaskOption(*TriggerTask)
}

type triggerTaskOption struct {
	setTriggerTaskOption func(*TriggerTask)
}

func (o triggerTaskOption) SetTriggerTaskOption(t *TriggerTask) {
	o.setTriggerTaskOption(t)
}

// DelayTimeBeforeTrigger sets the delay time before trigger
func DelayTimeBeforeTrigger(d time.Duration) TriggerTaskOption {
	return triggerTaskOption{
		setTriggerTaskOption: func(t *TriggerTask) {
			t.delay = d
		},
	}
}

// TriggerBufferSize sets the buffer size of trigger channel
func TriggerBufferSize(sz int) TriggerTaskOption {
	return triggerTaskOption{
		setTriggerTaskOption: func(t *TriggerTask) {
			t.sz = sz
		},
	}
}

// TriggerTask runs a callback on demand in its own goroutine. Triggers arriving while the buffer is full are
// dropped, so bursts of triggers coalesce into fewer runs.
type TriggerTask struct {
	lifecycle.Readiness
	delay  time.Duration
	cb     Task
	sz     int
	ch     chan struct{}
	mu     sync.Mutex
	exited chan struct{}
}

// NewTriggerTask creates an instance of TriggerTask
func NewTriggerTask(cb Task, ops ...TriggerTaskOption) *TriggerTask {
	tt := &TriggerTask{
		cb:     cb,
		exited: make(chan struct{}),
	}
	for _, opt := range ops {
		opt.SetTriggerTaskOption(tt)
	}
	tt.ch = make(chan struct{}, tt.sz)
	return tt
}

// Start starts the worker
func (t *TriggerTask) Start(_ context.Context) error {
	ready := make(chan struct{})
	go func() {
		defer close(t.exited)
		close(ready)
		for range t.ch {
			if t.delay > 0 {
				time.Sleep(t.delay)
			}
			t.cb()
		}
	}()
	<-ready
	return t.TurnOn()
}

// Trigger asks for a run without blocking, returning false if the task is not running or is saturated
func (t *TriggerTask) Trigger() bool {
	if !t.IsReady() {
		log.L().Debug("Trigger task is not ready")
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.IsReady() {
		return false
	}
	select {
	case t.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop stops accepting triggers and waits for buffered runs to finish
func (t *TriggerTask) Stop(_ context.Context) error {
	t.mu.Lock()
	if err := t.TurnOff(); err != nil {
		t.mu.Unlock()
		return err
	}
	close(t.ch)
	t.mu.Unlock()
	<-t.exited
	return nil
}
