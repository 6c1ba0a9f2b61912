// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// RecordKind tells which operation produced a record
type RecordKind uint8

const (
	// KindBurn is a record produced by a burn
	KindBurn RecordKind = iota
	// KindMint is a record produced by a mint
	KindMint
)

// RecordSize is the encoded size of a record
const RecordSize = solana.PublicKeyLength + solana.SignatureLength + 8 + 8 + 8 + 1

// Record is a write-once event entry kept by the shards and the ring buffer
type Record struct {
	Actor     solana.PublicKey
	Signature solana.Signature
	Sequence  uint64
	Timestamp int64
	Amount    uint64
	Kind      RecordKind
}

// String returns the kind name
func (k RecordKind) String() string {
	switch k {
	case KindBurn:
		return "burn"
	case KindMint:
		return "mint"
	default:
		return "unknown"
	}
}

// IsZero returns true for an unwritten slot
func (r *Record) IsZero() bool {
	return *r == Record{}
}

func (r *Record) encode(enc *bin.Encoder) error {
	if err := enc.WriteBytes(r.Actor[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(r.Signature[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(r.Sequence, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteInt64(r.Timestamp, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint64(r.Amount, bin.LE); err != nil {
		return err
	}
	return enc.WriteUint8(uint8(r.Kind))
}

func (r *Record) decode(dec *bin.Decoder) (err error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return errors.Wrap(err, "failed to read actor")
	}
	copy(r.Actor[:], b)
	if b, err = dec.ReadNBytes(solana.SignatureLength); err != nil {
		return errors.Wrap(err, "failed to read signature")
	}
	copy(r.Signature[:], b)
	if r.Sequence, err = dec.ReadUint64(bin.LE); err != nil {
		return errors.Wrap(err, "failed to read sequence")
	}
	if r.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return errors.Wrap(err, "failed to read timestamp")
	}
	if r.Amount, err = dec.ReadUint64(bin.LE); err != nil {
		return errors.Wrap(err, "failed to read amount")
	}
	kind, err := dec.ReadUint8()
	if err != nil {
		return errors.Wrap(err, "failed to read kind")
	}
	r.Kind = RecordKind(kind)
	return nil
}

func encodeRecords(enc *bin.Encoder, records []Record) error {
	if err := enc.WriteUint32(uint32(len(records)), bin.LE); err != nil {
		return err
	}
	for i := range records {
		if err := records[i].encode(enc); err != nil {
			return err
		}
	}
	return nil
}

func decodeRecords(dec *bin.Decoder, max int) ([]Record, error) {
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read record count")
	}
	if int(n) > max {
		return nil, errors.Errorf("record count %d exceeds capacity %d", n, max)
	}
	records := make([]Record, n)
	for i := range records {
		if err := records[i].decode(dec); err != nil {
			return nil, err
		}
	}
	return records, nil
}
