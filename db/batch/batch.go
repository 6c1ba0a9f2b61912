// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrNotExist indicates certain item does not exist in the batch
	ErrNotExist = errors.New("not exist in batch")
	// ErrAlreadyDeleted indicates the key has been deleted in the batch
	ErrAlreadyDeleted = errors.New("already deleted from batch")
	// ErrAlreadyExist indicates certain item already exists in the batch
	ErrAlreadyExist = errors.New("already exist in batch")
	// ErrOutOfBound indicates an out of bound entry index
	ErrOutOfBound = errors.New("out of bound")
)

type (
	// KVStoreBatch defines a batch buffer interface that stages Put/Delete entries in sequential order
	// To use it, first start a new batch
	// b := NewBatch()
	// and keep batching Put/Delete operation into it
	// b.Put(bucket, k, v)
	// b.Delete(bucket, k, v)
	// once it's done, call KVStore interface's WriteBatch() to persist to underlying DB
	// if the write succeeds, the batch is cleared
	// otherwise the batch is kept intact (so batch user can figure out what's wrong and attempt re-commit later)
	KVStoreBatch interface {
		// Lock locks the batch
		Lock()
		// Unlock unlocks the batch
		Unlock()
		// ClearAndUnlock clears the write queue and unlocks the batch
		ClearAndUnlock()
		// Put insert or update a record identified by (namespace, key)
		Put(string, []byte, []byte, string, ...interface{})
		// PutIfNotExists stages a record that the store must not hold yet when the batch is written
		PutIfNotExists(string, []byte, []byte, string, ...interface{})
		// Delete deletes a record by (namespace, key)
		Delete(string, []byte, string, ...interface{})
		// Size returns the size of batch
		Size() int
		// Entry returns the entry at the index
		Entry(int) (*WriteInfo, error)
		// Clear clears entries staged in batch
		Clear()
	}

	// CachedBatch derives from Batch interface
	// A local cache is added to provide fast retrieval of pending Put/Delete entries
	CachedBatch interface {
		KVStoreBatch
		// Get gets a record by (namespace, key)
		Get(string, []byte) ([]byte, error)
	}

	// baseKVStoreBatch is the base implementation of KVStoreBatch
	baseKVStoreBatch struct {
		mutex      sync.RWMutex
		writeQueue []*WriteInfo
	}

	// cachedBatch implements the CachedBatch interface
	cachedBatch struct {
		*baseKVStoreBatch
		cache KVStoreCache
	}
)

// NewBatch returns a batch
func NewBatch() KVStoreBatch {
	return &baseKVStoreBatch{}
}

// Lock locks the batch
func (b *baseKVStoreBatch) Lock() {
	b.mutex.Lock()
}

// Unlock unlocks the batch
func (b *baseKVStoreBatch) Unlock() {
	b.mutex.Unlock()
}

// ClearAndUnlock clears the write queue and unlocks the batch
func (b *baseKVStoreBatch) ClearAndUnlock() {
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// Put inserts a <key, value> record
func (b *baseKVStoreBatch) Put(namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.batch(Put, namespace, key, value, errorFormat, errorArgs...)
}

// PutIfNotExists inserts a <key, value> record that must be new to the store
func (b *baseKVStoreBatch) PutIfNotExists(namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.batch(PutIfNotExists, namespace, key, value, errorFormat, errorArgs...)
}

// Delete deletes a record
func (b *baseKVStoreBatch) Delete(namespace string, key []byte, errorFormat string, errorArgs ...interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.batch(Delete, namespace, key, nil, errorFormat, errorArgs...)
}

// Size returns the size of batch
func (b *baseKVStoreBatch) Size() int {
	return len(b.writeQueue)
}

// Entry returns the entry at the index
func (b *baseKVStoreBatch) Entry(index int) (*WriteInfo, error) {
	if index < 0 || index >= len(b.writeQueue) {
		return nil, errors.Wrapf(ErrOutOfBound, "index %d", index)
	}
	return b.writeQueue[index], nil
}

// Clear clear write queue
func (b *baseKVStoreBatch) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// batch puts an entry into the write queue
func (b *baseKVStoreBatch) batch(op WriteType, namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	b.writeQueue = append(b.writeQueue, NewWriteInfo(op, namespace, key, value, errorFormat, errorArgs...))
}

// NewCachedBatch returns a new cached batch buffer
func NewCachedBatch() CachedBatch {
	return &cachedBatch{
		baseKVStoreBatch: &baseKVStoreBatch{},
		cache:            NewKVCache(),
	}
}

// Put inserts a <key, value> record
func (cb *cachedBatch) Put(namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.cache.Write(&kvCacheKey{namespace, string(key)}, value)
	cb.batch(Put, namespace, key, value, errorFormat, errorArgs...)
}

// PutIfNotExists inserts a <key, value> record that must be new to the store
func (cb *cachedBatch) PutIfNotExists(namespace string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.cache.Write(&kvCacheKey{namespace, string(key)}, value)
	cb.batch(PutIfNotExists, namespace, key, value, errorFormat, errorArgs...)
}

// Delete deletes a record
func (cb *cachedBatch) Delete(namespace string, key []byte, errorFormat string, errorArgs ...interface{}) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.cache.Evict(&kvCacheKey{namespace, string(key)})
	cb.batch(Delete, namespace, key, nil, errorFormat, errorArgs...)
}

// Clear clear the cached batch buffer
func (cb *cachedBatch) Clear() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.cache.Clear()
	cb.writeQueue = nil
}

// ClearAndUnlock clears the write queue and the cache and unlocks the batch
func (cb *cachedBatch) ClearAndUnlock() {
	defer cb.mutex.Unlock()
	cb.cache.Clear()
	cb.writeQueue = nil
}

// Get retrieves a record
func (cb *cachedBatch) Get(namespace string, key []byte) ([]byte, error) {
	cb.mutex.RLock()
	defer cb.mutex.RUnlock()
	return cb.cache.Read(&kvCacheKey{namespace, string(key)})
}
