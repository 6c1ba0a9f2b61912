// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/db/batch"
	"github.com/memo-labs/memo-core/pkg/lifecycle"
)

var (
	// ErrNotExist indicates certain item does not exist in database
	ErrNotExist = errors.New("not exist in DB")
	// ErrAlreadyExist indicates a conditional put found the key already present
	ErrAlreadyExist = errors.New("already exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
	// ErrDBNotStarted indicates the store is used before Start or after Stop
	ErrDBNotStarted = errors.New("db has not started")
)

// KVStore is the interface of KV store.
type KVStore interface {
	lifecycle.StartStopper

	// Put insert or update a record identified by (namespace, key)
	Put(string, []byte, []byte) error
	// Get gets a record by (namespace, key)
	Get(string, []byte) ([]byte, error)
	// Delete deletes a record by (namespace, key)
	Delete(string, []byte) error
	// WriteBatch writes a batch atomically: either every entry lands or none does
	WriteBatch(batch.KVStoreBatch) error
	// ForEach iterates over all <k, v> pairs in a namespace in key order
	ForEach(string, func([]byte, []byte) error) error
}

// memKVStore is the in-memory implementation of KVStore for testing purpose
type memKVStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		data: make(map[string]map[string][]byte),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(namespace, key, value)
	return nil
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.data[namespace]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", namespace)
	}
	value, ok := ns[string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	return copyBytes(value), nil
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[namespace], string(key))
	return nil
}

// WriteBatch commits a batch
func (m *memKVStore) WriteBatch(b batch.KVStoreBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.Lock()
	if err := checkConditionalPuts(b, func(ns string, key []byte) bool {
		_, ok := m.data[ns][string(key)]
		return ok
	}); err != nil {
		b.Unlock()
		return err
	}
	for i := 0; i < b.Size(); i++ {
		write, _ := b.Entry(i)
		if write.IsPut() {
			m.put(write.Namespace(), write.Key(), write.Value())
		} else {
			delete(m.data[write.Namespace()], string(write.Key()))
		}
	}
	// clear the batch if commit succeeds
	b.ClearAndUnlock()
	return nil
}

// ForEach iterates over all <k, v> pairs in a namespace
func (m *memKVStore) ForEach(namespace string, fn func(k, v []byte) error) error {
	m.mu.RLock()
	ns := m.data[namespace]
	keys := make([]string, 0, len(ns))
	for k := range ns {
		keys = append(keys, k)
	}
	values := make(map[string][]byte, len(ns))
	for _, k := range keys {
		values[k] = copyBytes(ns[k])
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memKVStore) put(namespace string, key, value []byte) {
	if _, ok := m.data[namespace]; !ok {
		m.data[namespace] = make(map[string][]byte)
	}
	m.data[namespace][string(key)] = copyBytes(value)
}

// checkConditionalPuts fails if any PutIfNotExists entry targets a key the store already holds.
// Caller must hold the batch lock.
func checkConditionalPuts(b batch.KVStoreBatch, exists func(string, []byte) bool) error {
	for i := 0; i < b.Size(); i++ {
		write, err := b.Entry(i)
		if err != nil {
			return err
		}
		if write.WriteType() != batch.PutIfNotExists {
			continue
		}
		if exists(write.Namespace(), write.Key()) {
			if write.ErrorFormat() != "" {
				return errors.Wrapf(ErrAlreadyExist, write.ErrorFormat(), write.ErrorArgs()...)
			}
			return errors.Wrapf(ErrAlreadyExist, "ns %s key = %x", write.Namespace(), write.Key())
		}
	}
	return nil
}

func copyBytes(v []byte) []byte {
	c := make([]byte, len(v))
	copy(c, v)
	return c
}
