// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestShardAppend(t *testing.T) {
	require := require.New(t)

	creator := solana.NewWallet().PublicKey()
	s := NewShard(7, creator, 2)
	require.False(s.IsFull())
	require.NoError(s.Append(testRecord(1)))
	require.NoError(s.Append(testRecord(2)))
	require.True(s.IsFull())
	err := s.Append(testRecord(3))
	require.Equal(ErrShardFull, errors.Cause(err))
	require.Equal(2, s.Len())

	data, err := s.Serialize()
	require.NoError(err)
	require.Len(data, ShardSpace(2))
	var s2 Shard
	require.NoError(s2.Deserialize(data))
	require.Equal(s, &s2)
}

func TestShardIndex(t *testing.T) {
	require := require.New(t)

	var si ShardIndex
	_, ok := si.ActiveShard()
	require.False(ok)

	data, err := si.Serialize()
	require.NoError(err)
	var si2 ShardIndex
	require.NoError(si2.Deserialize(data))
	_, ok = si2.ActiveShard()
	require.False(ok)

	si.TotalShards = 3
	si.SetActive(2)
	si.AddRecords(5)
	data, err = si.Serialize()
	require.NoError(err)
	require.NoError(si2.Deserialize(data))
	n, ok := si2.ActiveShard()
	require.True(ok)
	require.Equal(uint64(2), n)
	require.Equal(uint64(3), si2.TotalShards)
	require.Equal(uint64(5), si2.TotalRecords)

	si.ClearActive()
	_, ok = si.ActiveShard()
	require.False(ok)
}
