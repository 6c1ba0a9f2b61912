// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/db/batch"
	"github.com/memo-labs/memo-core/state"
)

var (
	_stateDBMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memo_state_db",
			Help: "State DB operations.",
		},
		[]string{"type"},
	)
	_dbBatchSizeMtc = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memo_db_batch_size",
			Help: "Number of entries in the last committed batch.",
		},
	)
)

func init() {
	prometheus.MustRegister(_stateDBMtc)
	prometheus.MustRegister(_dbBatchSizeMtc)
}

type (
	// WorkingSet tracks pending state changes in a cached batch. Reads see the working set's own writes.
	WorkingSet interface {
		protocol.StateManager
		// Size returns the number of pending writes
		Size() int
		commit() error
	}

	workingSet struct {
		cb  batch.CachedBatch
		dao db.KVStore
	}
)

func newWorkingSet(kv db.KVStore) *workingSet {
	return &workingSet{
		cb:  batch.NewCachedBatch(),
		dao: kv,
	}
}

func (ws *workingSet) Size() int { return ws.cb.Size() }

// State pulls a state from the pending writes, then from the store
func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) error {
	_stateDBMtc.WithLabelValues("get").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	data, err := ws.get(cfg.Namespace, cfg.Key)
	if err != nil {
		return err
	}
	return state.Deserialize(s, data)
}

// PutState puts a state into the pending writes
func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) error {
	_stateDBMtc.WithLabelValues("put").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	ss, err := state.Serialize(s)
	if err != nil {
		return errors.Wrapf(err, "failed to convert %T to bytes", s)
	}
	ws.cb.Put(cfg.Namespace, cfg.Key, ss, "error when putting k = %x", cfg.Key)
	return nil
}

// CreateState puts a state that must not exist. Existence is checked now and again by the store at commit.
func (ws *workingSet) CreateState(s interface{}, opts ...protocol.StateOption) error {
	_stateDBMtc.WithLabelValues("create").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	switch _, err := ws.get(cfg.Namespace, cfg.Key); errors.Cause(err) {
	case nil:
		return errors.Wrapf(state.ErrStateAlreadyExists, "k = %x", cfg.Key)
	case state.ErrStateNotExist:
	default:
		return err
	}
	ss, err := state.Serialize(s)
	if err != nil {
		return errors.Wrapf(err, "failed to convert %T to bytes", s)
	}
	ws.cb.PutIfNotExists(cfg.Namespace, cfg.Key, ss, "k = %x already exists", cfg.Key)
	return nil
}

// DelState deletes a state
func (ws *workingSet) DelState(opts ...protocol.StateOption) error {
	_stateDBMtc.WithLabelValues("delete").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return err
	}
	ws.cb.Delete(cfg.Namespace, cfg.Key, "error when deleting k = %x", cfg.Key)
	return nil
}

func (ws *workingSet) get(ns string, key []byte) ([]byte, error) {
	data, err := ws.cb.Get(ns, key)
	switch errors.Cause(err) {
	case nil:
		return data, nil
	case batch.ErrAlreadyDeleted:
		return nil, errors.Wrapf(state.ErrStateNotExist, "k = %x doesn't exist", key)
	case batch.ErrNotExist:
	default:
		return nil, errors.Wrapf(err, "failed to get state of %x", key)
	}
	data, err = ws.dao.Get(ns, key)
	if errors.Cause(err) == db.ErrNotExist {
		return nil, errors.Wrapf(state.ErrStateNotExist, "k = %x doesn't exist", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get state of %x", key)
	}
	return data, nil
}

func (ws *workingSet) commit() error {
	_dbBatchSizeMtc.Set(float64(ws.cb.Size()))
	if ws.cb.Size() == 0 {
		return nil
	}
	return ws.dao.WriteBatch(ws.cb)
}
