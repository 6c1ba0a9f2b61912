// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/pkg/hash"
	"github.com/memo-labs/memo-core/pkg/util/byteutil"
)

var (
	// ErrShardFull is the error that the shard has no room for another record
	ErrShardFull = errors.New("shard is full")

	_shardIndexDiscriminator = hash.AccountDiscriminator("ShardIndex")
	_shardDiscriminator      = hash.AccountDiscriminator("Shard")
)

type (
	// ShardIndex points at the shard currently accepting appends
	ShardIndex struct {
		TotalShards  uint64
		Active       *uint64
		TotalRecords uint64
	}

	// Shard is an append-only bounded list of records
	Shard struct {
		Number   uint64
		Creator  solana.PublicKey
		Capacity uint32
		Records  []Record
	}
)

// ActiveShard returns the writable shard number, if any
func (si *ShardIndex) ActiveShard() (uint64, bool) {
	if si.Active == nil {
		return 0, false
	}
	return *si.Active, true
}

// SetActive points the index at shard n
func (si *ShardIndex) SetActive(n uint64) {
	si.Active = &n
}

// ClearActive drops the active pointer
func (si *ShardIndex) ClearActive() {
	si.Active = nil
}

// AddRecords bumps the advisory record counter
func (si *ShardIndex) AddRecords(n uint64) {
	si.TotalRecords = byteutil.SaturatingAdd(si.TotalRecords, n)
}

// Serialize serializes shard index into bytes
func (si *ShardIndex) Serialize() ([]byte, error) { return encodeAccount(si) }

// Deserialize deserializes bytes into shard index
func (si *ShardIndex) Deserialize(data []byte) error { return decodeAccount(si, data) }

func (si *ShardIndex) discriminator() hash.Discriminator { return _shardIndexDiscriminator }

// space: discriminator, total shards, option tag, active, total records
func (si *ShardIndex) space() int { return hash.DiscriminatorSize + 8 + 1 + 8 + 8 }

func (si *ShardIndex) encodeBody(enc *bin.Encoder) error {
	if err := enc.WriteUint64(si.TotalShards, bin.LE); err != nil {
		return err
	}
	if si.Active == nil {
		if err := enc.WriteUint8(0); err != nil {
			return err
		}
	} else {
		if err := enc.WriteUint8(1); err != nil {
			return err
		}
		if err := enc.WriteUint64(*si.Active, bin.LE); err != nil {
			return err
		}
	}
	return enc.WriteUint64(si.TotalRecords, bin.LE)
}

func (si *ShardIndex) decodeBody(dec *bin.Decoder) (err error) {
	if si.TotalShards, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	tag, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		si.Active = nil
	case 1:
		active, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return err
		}
		si.Active = &active
	default:
		return errors.Errorf("invalid option tag %d", tag)
	}
	si.TotalRecords, err = dec.ReadUint64(bin.LE)
	return err
}

// NewShard creates an empty shard
func NewShard(number uint64, creator solana.PublicKey, capacity uint32) *Shard {
	return &Shard{
		Number:   number,
		Creator:  creator,
		Capacity: capacity,
	}
}

// ShardSpace returns the fixed account size of a shard holding capacity records
func ShardSpace(capacity uint32) int {
	return hash.DiscriminatorSize + 8 + solana.PublicKeyLength + 4 + 4 + int(capacity)*RecordSize
}

// Len returns the number of records in the shard
func (s *Shard) Len() int { return len(s.Records) }

// IsFull returns true if the shard cannot take another record
func (s *Shard) IsFull() bool { return len(s.Records) >= int(s.Capacity) }

// Append appends a record, failing with ErrShardFull when at capacity
func (s *Shard) Append(r Record) error {
	if s.IsFull() {
		return errors.Wrapf(ErrShardFull, "shard %d holds %d records", s.Number, len(s.Records))
	}
	s.Records = append(s.Records, r)
	return nil
}

// Serialize serializes shard into bytes
func (s *Shard) Serialize() ([]byte, error) { return encodeAccount(s) }

// Deserialize deserializes bytes into shard
func (s *Shard) Deserialize(data []byte) error { return decodeAccount(s, data) }

func (s *Shard) discriminator() hash.Discriminator { return _shardDiscriminator }

func (s *Shard) space() int { return ShardSpace(s.Capacity) }

func (s *Shard) encodeBody(enc *bin.Encoder) error {
	if err := enc.WriteUint64(s.Number, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteBytes(s.Creator[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint32(s.Capacity, bin.LE); err != nil {
		return err
	}
	return encodeRecords(enc, s.Records)
}

func (s *Shard) decodeBody(dec *bin.Decoder) (err error) {
	if s.Number, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	creator, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(s.Creator[:], creator)
	if s.Capacity, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	s.Records, err = decodeRecords(dec, int(s.Capacity))
	return err
}
