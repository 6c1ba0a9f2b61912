// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/pkg/lifecycle"
	"github.com/memo-labs/memo-core/pkg/log"
	"github.com/memo-labs/memo-core/state"
)

type (
	// Factory is the persisted account store. Reads see committed state only; mutations go through a
	// working set that is committed atomically.
	Factory interface {
		lifecycle.StartStopper
		protocol.StateReader
		NewWorkingSet() WorkingSet
		Commit(WorkingSet) error
		// ForEach iterates over the committed states of a namespace in key order
		ForEach(string, func(k, v []byte) error) error
	}

	factory struct {
		mutex sync.RWMutex
		dao   db.KVStore
	}
)

// NewFactory creates a state factory over kv
func NewFactory(kv db.KVStore) (Factory, error) {
	if kv == nil {
		return nil, errors.New("kv store is nil")
	}
	return &factory{dao: kv}, nil
}

func (sf *factory) Start(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	return sf.dao.Start(ctx)
}

func (sf *factory) Stop(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	return sf.dao.Stop(ctx)
}

// State returns a confirmed state
func (sf *factory) State(s interface{}, opts ...protocol.StateOption) error {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	data, err := sf.dao.Get(cfg.Namespace, cfg.Key)
	if err != nil {
		if errors.Cause(err) == db.ErrNotExist {
			return errors.Wrapf(state.ErrStateNotExist, "state of %x doesn't exist", cfg.Key)
		}
		return errors.Wrapf(err, "error when getting the state of %x", cfg.Key)
	}
	if err := state.Deserialize(s, data); err != nil {
		return errors.Wrapf(err, "error when deserializing state data into %T", s)
	}
	return nil
}

func (sf *factory) NewWorkingSet() WorkingSet {
	return newWorkingSet(sf.dao)
}

// Commit writes all changes of ws in one batch. Create-if-absent intents are checked by the store inside the
// same write; a lost race surfaces as state.ErrStateAlreadyExists and nothing is written.
func (sf *factory) Commit(ws WorkingSet) error {
	if ws == nil {
		return errors.New("working set doesn't exist")
	}
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	if err := ws.commit(); err != nil {
		if errors.Cause(err) == db.ErrAlreadyExist {
			return errors.Wrap(state.ErrStateAlreadyExists, err.Error())
		}
		log.L().Error("Failed to commit working set", zap.Error(err))
		return errors.Wrap(err, "failed to commit working set")
	}
	return nil
}

func (sf *factory) ForEach(ns string, fn func(k, v []byte) error) error {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	return sf.dao.ForEach(ns, fn)
}
