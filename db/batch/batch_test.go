// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	bucket1 = "test_ns1"
	testK1  = [3][]byte{[]byte("key_1"), []byte("key_2"), []byte("key_3")}
	testV1  = [3][]byte{[]byte("value_1"), []byte("value_2"), []byte("value_3")}
)

func TestBaseKVStoreBatch(t *testing.T) {
	require := require.New(t)

	b := NewBatch()
	b.Put(bucket1, testK1[0], testV1[0], "failed to put %s", "k1")
	b.PutIfNotExists(bucket1, testK1[1], testV1[1], "failed to create")
	b.Delete(bucket1, testK1[2], "")
	require.Equal(3, b.Size())

	w, err := b.Entry(0)
	require.NoError(err)
	require.Equal(Put, w.WriteType())
	require.Equal(bucket1, w.Namespace())
	require.Equal(testK1[0], w.Key())
	require.Equal(testV1[0], w.Value())
	require.Equal("failed to put %s", w.ErrorFormat())
	require.Equal([]interface{}{"k1"}, w.ErrorArgs())
	require.True(w.IsPut())

	w, err = b.Entry(1)
	require.NoError(err)
	require.Equal(PutIfNotExists, w.WriteType())
	require.True(w.IsPut())

	w, err = b.Entry(2)
	require.NoError(err)
	require.Equal(Delete, w.WriteType())
	require.Nil(w.Value())
	require.False(w.IsPut())

	_, err = b.Entry(3)
	require.Equal(ErrOutOfBound, errors.Cause(err))

	b.Lock()
	b.ClearAndUnlock()
	require.Zero(b.Size())
}

func TestCachedBatch(t *testing.T) {
	require := require.New(t)

	cb := NewCachedBatch()
	cb.Put(bucket1, testK1[0], testV1[0], "")
	v, err := cb.Get(bucket1, testK1[0])
	require.NoError(err)
	require.Equal(testV1[0], v)
	_, err = cb.Get(bucket1, testK1[1])
	require.Equal(ErrNotExist, errors.Cause(err))

	cb.PutIfNotExists(bucket1, testK1[1], testV1[1], "")
	v, err = cb.Get(bucket1, testK1[1])
	require.NoError(err)
	require.Equal(testV1[1], v)

	cb.Delete(bucket1, testK1[0], "")
	_, err = cb.Get(bucket1, testK1[0])
	require.Equal(ErrAlreadyDeleted, errors.Cause(err))
	require.Equal(3, cb.Size())

	cb.Clear()
	require.Zero(cb.Size())
	_, err = cb.Get(bucket1, testK1[1])
	require.Equal(ErrNotExist, errors.Cause(err))
}
