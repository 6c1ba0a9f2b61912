// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/memo-labs/memo-core/db/batch"
	"github.com/memo-labs/memo-core/testutil"
)

var (
	_namespace = "test_ns"
	_ns1       = "ns1"
	_k1        = []byte("key_1")
	_k2        = []byte("key_2")
	_k3        = []byte("key_3")
	_v1        = []byte("value_1")
	_v2        = []byte("value_2")
	_v3        = []byte("value_3")
)

type kvTest struct {
	ns   string
	k, v []byte
}

func forEachStore(t *testing.T, f func(*testing.T, KVStore)) {
	t.Run("memory", func(t *testing.T) {
		f(t, NewMemKVStore())
	})
	t.Run("bolt", func(t *testing.T) {
		path, err := testutil.PathOfTempFile("test-bolt")
		require.NoError(t, err)
		defer testutil.CleanupPath(t, path)
		cfg := DefaultConfig
		cfg.DbPath = path
		f(t, NewBoltDB(cfg))
	})
	t.Run("pebble", func(t *testing.T) {
		path, err := os.MkdirTemp("", "test-pebble")
		require.NoError(t, err)
		defer testutil.CleanupPath(t, path)
		cfg := DefaultConfig
		cfg.DbPath = path
		f(t, NewPebbleDB(cfg))
	})
}

func TestKVStorePutGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, kv KVStore) {
		r := require.New(t)
		ctx := context.Background()
		r.NoError(kv.Start(ctx))
		defer func() {
			r.NoError(kv.Stop(ctx))
		}()

		// nonexistent namespace
		_, err := kv.Get(_namespace, _k1)
		r.Equal(ErrNotExist, errors.Cause(err))

		for _, e := range []kvTest{
			{_namespace, _k1, _v1},
			{_namespace, _k2, _v2},
			{_ns1, _k1, _v3},
			// overwrite same key
			{_namespace, _k1, _v3},
		} {
			r.NoError(kv.Put(e.ns, e.k, e.v))
			v, err := kv.Get(e.ns, e.k)
			r.NoError(err)
			r.Equal(e.v, v)
		}
		v, err := kv.Get(_namespace, _k2)
		r.NoError(err)
		r.Equal(_v2, v)

		r.NoError(kv.Delete(_namespace, _k1))
		_, err = kv.Get(_namespace, _k1)
		r.Equal(ErrNotExist, errors.Cause(err))
		// deleting a missing key is not an error
		r.NoError(kv.Delete(_namespace, _k3))
	})
}

func TestKVStoreWriteBatch(t *testing.T) {
	forEachStore(t, func(t *testing.T, kv KVStore) {
		r := require.New(t)
		ctx := context.Background()
		r.NoError(kv.Start(ctx))
		defer func() {
			r.NoError(kv.Stop(ctx))
		}()

		b := batch.NewBatch()
		b.Put(_namespace, _k1, _v1, "")
		b.PutIfNotExists(_namespace, _k2, _v2, "failed to create %s", "k2")
		b.Put(_namespace, _k3, _v3, "")
		b.Delete(_namespace, _k3, "")
		r.NoError(kv.WriteBatch(b))
		r.Zero(b.Size())

		v, err := kv.Get(_namespace, _k1)
		r.NoError(err)
		r.Equal(_v1, v)
		v, err = kv.Get(_namespace, _k2)
		r.NoError(err)
		r.Equal(_v2, v)
		_, err = kv.Get(_namespace, _k3)
		r.Equal(ErrNotExist, errors.Cause(err))

		// a conditional put on an existing key aborts the whole batch
		b.Put(_namespace, _k3, _v3, "")
		b.PutIfNotExists(_namespace, _k2, _v3, "failed to create %s", "k2")
		err = kv.WriteBatch(b)
		r.Equal(ErrAlreadyExist, errors.Cause(err))
		r.Contains(err.Error(), "failed to create k2")
		r.Equal(2, b.Size())
		_, err = kv.Get(_namespace, _k3)
		r.Equal(ErrNotExist, errors.Cause(err))
		v, err = kv.Get(_namespace, _k2)
		r.NoError(err)
		r.Equal(_v2, v)
	})
}

func TestKVStoreForEach(t *testing.T) {
	forEachStore(t, func(t *testing.T, kv KVStore) {
		r := require.New(t)
		ctx := context.Background()
		r.NoError(kv.Start(ctx))
		defer func() {
			r.NoError(kv.Stop(ctx))
		}()

		for i := 9; i >= 0; i-- {
			r.NoError(kv.Put(_namespace, []byte(fmt.Sprintf("key_%d", i)), []byte{byte(i)}))
		}
		r.NoError(kv.Put(_ns1, _k1, _v1))

		var keys []string
		r.NoError(kv.ForEach(_namespace, func(k, v []byte) error {
			keys = append(keys, string(k))
			r.Equal([]byte{k[len(k)-1] - '0'}, v)
			return nil
		}))
		r.Len(keys, 10)
		r.Equal("key_0", keys[0])
		r.Equal("key_9", keys[9])

		stop := errors.New("stop")
		r.Equal(stop, kv.ForEach(_namespace, func(k, v []byte) error { return stop }))
		r.NoError(kv.ForEach("empty", func(k, v []byte) error { return stop }))
	})
}

func TestNotStarted(t *testing.T) {
	r := require.New(t)
	cfg := DefaultConfig
	cfg.DbPath = filepath.Join(t.TempDir(), "memo.db")
	for _, kv := range []KVStore{NewBoltDB(cfg), NewPebbleDB(cfg)} {
		_, err := kv.Get(_namespace, _k1)
		r.Equal(ErrDBNotStarted, err)
		r.Equal(ErrDBNotStarted, kv.Put(_namespace, _k1, _v1))
		r.Equal(ErrDBNotStarted, kv.WriteBatch(batch.NewBatch()))
	}
}

func TestCreateKVStore(t *testing.T) {
	r := require.New(t)
	cfg := DefaultConfig

	cfg.DBType = DBMemory
	kv, err := CreateKVStore(cfg, "")
	r.NoError(err)
	r.IsType(&memKVStore{}, kv)

	cfg.DBType = DBBolt
	_, err = CreateKVStore(cfg, "")
	r.Equal(ErrEmptyDBPath, err)

	kv, err = CreateKVStore(cfg, filepath.Join(t.TempDir(), "sub", "memo.db"))
	r.NoError(err)
	r.IsType(&BoltDB{}, kv)

	cfg.DBType = DBPebble
	kv, err = CreateKVStore(cfg, filepath.Join(t.TempDir(), "pebble"))
	r.NoError(err)
	r.IsType(&PebbleDB{}, kv)

	cfg.DBType = "leveldb"
	_, err = CreateKVStore(cfg, filepath.Join(t.TempDir(), "x"))
	r.Error(err)
}
