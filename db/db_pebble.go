// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"sync"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/db/batch"
	"github.com/memo-labs/memo-core/pkg/hash"
	"github.com/memo-labs/memo-core/pkg/lifecycle"
	"github.com/memo-labs/memo-core/pkg/log"
)

const (
	prefixLength = 8
)

var (
	pebbledbMtc = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "memo_pebbledb_metrics",
		Help: "pebbledb metrics.",
	}, []string{"type", "method"})
)

func init() {
	prometheus.MustRegister(pebbledbMtc)
}

// PebbleDB is KVStore implementation based on pebble DB
type PebbleDB struct {
	lifecycle.Readiness
	db     *pebble.DB
	path   string
	config Config
	// serializes batches carrying conditional puts with their existence checks
	writeMu sync.Mutex
}

// NewPebbleDB creates a new PebbleDB instance
func NewPebbleDB(cfg Config) *PebbleDB {
	return &PebbleDB{
		db:     nil,
		path:   cfg.DbPath,
		config: cfg,
	}
}

// Start opens the DB (creates new file if not existing yet)
func (b *PebbleDB) Start(_ context.Context) error {
	comparer := *pebble.DefaultComparer
	comparer.Split = func(a []byte) int {
		return prefixLength
	}
	db, err := pebble.Open(b.path, &pebble.Options{
		Comparer:           &comparer,
		FormatMajorVersion: pebble.FormatPrePebblev1MarkedCompacted,
		ReadOnly:           b.config.ReadOnly,
	})
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.db = db
	return b.TurnOn()
}

// Stop closes the DB
func (b *PebbleDB) Stop(_ context.Context) error {
	if err := b.TurnOff(); err != nil {
		return err
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Get retrieves a record
func (b *PebbleDB) Get(ns string, key []byte) ([]byte, error) {
	if !b.IsReady() {
		return nil, ErrDBNotStarted
	}
	v, closer, err := b.db.Get(nsKey(ns, key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotExist, "ns %s key = %x doesn't exist, %s", ns, key, err.Error())
		}
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	val := copyBytes(v)
	return val, closer.Close()
}

// Put inserts a <key, value> record
func (b *PebbleDB) Put(ns string, key, value []byte) (err error) {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	err = b.db.Set(nsKey(ns, key), value, pebble.Sync)
	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			log.L().Fatal("Failed to put db.", zap.Error(err))
		}
		err = errors.Wrap(ErrIO, err.Error())
	}
	return
}

// Delete deletes a record
func (b *PebbleDB) Delete(ns string, key []byte) (err error) {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	err = b.db.Delete(nsKey(ns, key), pebble.Sync)
	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			log.L().Fatal("Failed to delete db.", zap.Error(err))
		}
		err = errors.Wrap(ErrIO, err.Error())
	}
	return
}

// WriteBatch commits a batch
func (b *PebbleDB) WriteBatch(kvsb batch.KVStoreBatch) error {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	kvsb.Lock()
	if err := checkConditionalPuts(kvsb, b.exists); err != nil {
		kvsb.Unlock()
		return err
	}
	pb, err := b.dedup(kvsb)
	if err != nil {
		kvsb.Unlock()
		return err
	}
	size := kvsb.Size()
	if err = pb.Commit(pebble.Sync); err != nil {
		kvsb.Unlock()
		if errors.Is(err, syscall.ENOSPC) {
			log.L().Fatal("Failed to write batch db.", zap.Error(err))
		}
		return errors.Wrap(ErrIO, err.Error())
	}
	kvsb.ClearAndUnlock()
	pebbledbMtc.WithLabelValues("batchSize", "WriteBatch").Set(float64(size))
	return nil
}

// dedup keeps only the last write for each key. Caller must hold the batch lock.
func (b *PebbleDB) dedup(kvsb batch.KVStoreBatch) (*pebble.Batch, error) {
	type doubleKey struct {
		ns  string
		key string
	}
	var (
		entryKeySet = make(map[doubleKey]struct{})
		ch          = b.db.NewBatch()
	)
	for i := kvsb.Size() - 1; i >= 0; i-- {
		write, e := kvsb.Entry(i)
		if e != nil {
			return nil, e
		}
		key := write.Key()
		k := doubleKey{ns: write.Namespace(), key: string(key)}
		if _, ok := entryKeySet[k]; ok {
			continue
		}
		entryKeySet[k] = struct{}{}
		var err error
		if write.IsPut() {
			err = ch.Set(nsKey(write.Namespace(), key), write.Value(), nil)
		} else {
			err = ch.Delete(nsKey(write.Namespace(), key), nil)
		}
		if err != nil {
			return nil, errors.Wrapf(err, write.ErrorFormat(), write.ErrorArgs()...)
		}
	}
	return ch, nil
}

// ForEach iterates over all <k, v> pairs in a bucket
func (b *PebbleDB) ForEach(ns string, fn func(k, v []byte) error) error {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	iter, err := b.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return errors.Wrap(err, "failed to create iterator")
	}
	defer func() {
		if e := iter.Close(); e != nil {
			log.L().Error("Failed to close iterator", zap.Error(e))
		}
	}()
	prefix := nsToPrefix(ns)
	for iter.SeekPrefixGE(prefix); iter.Valid(); iter.Next() {
		ck, v := iter.Key(), iter.Value()
		if !bytes.HasPrefix(ck, prefix) {
			break
		}
		k, err := decodeKey(ck)
		if err != nil {
			return err
		}
		if err := fn(copyBytes(k), copyBytes(v)); err != nil {
			return err
		}
	}
	return nil
}

// ReportMetrics publishes the store's disk usage
func (b *PebbleDB) ReportMetrics() {
	if !b.IsReady() {
		return
	}
	m := b.db.Metrics()
	pebbledbMtc.WithLabelValues("diskSpaceUsage", "Metrics").Set(float64(m.DiskSpaceUsage()))
	pebbledbMtc.WithLabelValues("flushCount", "Metrics").Set(float64(m.Flush.Count))
}

func (b *PebbleDB) exists(ns string, key []byte) bool {
	_, closer, err := b.db.Get(nsKey(ns, key))
	if err != nil {
		return false
	}
	_ = closer.Close()
	return true
}

func nsKey(ns string, key []byte) []byte {
	nk := nsToPrefix(ns)
	return append(nk, key...)
}

func nsToPrefix(ns string) []byte {
	h := hash.Hash160b([]byte(ns))
	return h[:prefixLength]
}

func decodeKey(k []byte) (key []byte, err error) {
	if len(k) < prefixLength {
		return nil, errors.New("key is too short")
	}
	return k[prefixLength:], nil
}
