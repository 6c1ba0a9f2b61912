// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/pkg/hash"
)

var (
	// ErrInvalidRange is the error that more records are requested than the buffer can hold
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidCapacity is the error that a bounded structure is created with no room
	ErrInvalidCapacity = errors.New("capacity must be positive")

	_ringBufferDiscriminator = hash.AccountDiscriminator("LatestRecords")
)

// RingBuffer keeps the latest M records, overwriting the oldest once full.
// Cursor is the slot the next Push writes to.
type RingBuffer struct {
	Cursor  uint32
	Len     uint32
	Records []Record
}

// NewRingBuffer creates an empty ring buffer of capacity m
func NewRingBuffer(m uint32) (*RingBuffer, error) {
	if m == 0 {
		return nil, ErrInvalidCapacity
	}
	return &RingBuffer{Records: make([]Record, m)}, nil
}

// RingBufferSpace returns the fixed account size of a ring buffer of capacity m
func RingBufferSpace(m uint32) int {
	return hash.DiscriminatorSize + 4 + 4 + 4 + int(m)*RecordSize
}

// Capacity returns M
func (rb *RingBuffer) Capacity() int { return len(rb.Records) }

// Push writes r at the cursor and advances it modulo M
func (rb *RingBuffer) Push(r Record) {
	rb.Records[rb.Cursor] = r
	rb.Cursor = (rb.Cursor + 1) % uint32(len(rb.Records))
	if int(rb.Len) < len(rb.Records) {
		rb.Len++
	}
}

// ReadRecent returns up to n records, newest first
func (rb *RingBuffer) ReadRecent(n int) ([]Record, error) {
	m := len(rb.Records)
	if n < 0 || n > m {
		return nil, errors.Wrapf(ErrInvalidRange, "requested %d of capacity %d", n, m)
	}
	if n > int(rb.Len) {
		n = int(rb.Len)
	}
	out := make([]Record, 0, n)
	idx := int(rb.Cursor)
	for i := 0; i < n; i++ {
		idx = (idx - 1 + m) % m
		out = append(out, rb.Records[idx])
	}
	return out, nil
}

// Serialize serializes ring buffer into bytes
func (rb *RingBuffer) Serialize() ([]byte, error) { return encodeAccount(rb) }

// Deserialize deserializes bytes into ring buffer
func (rb *RingBuffer) Deserialize(data []byte) error { return decodeAccount(rb, data) }

func (rb *RingBuffer) discriminator() hash.Discriminator { return _ringBufferDiscriminator }

func (rb *RingBuffer) space() int { return RingBufferSpace(uint32(len(rb.Records))) }

func (rb *RingBuffer) encodeBody(enc *bin.Encoder) error {
	if err := enc.WriteUint32(rb.Cursor, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint32(rb.Len, bin.LE); err != nil {
		return err
	}
	return encodeRecords(enc, rb.Records)
}

func (rb *RingBuffer) decodeBody(dec *bin.Decoder) (err error) {
	if rb.Cursor, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	if rb.Len, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	if rb.Records, err = decodeRecords(dec, 1<<16); err != nil {
		return err
	}
	m := uint32(len(rb.Records))
	if m == 0 || rb.Cursor >= m || rb.Len > m {
		return errors.Errorf("corrupted ring buffer: cursor %d len %d capacity %d", rb.Cursor, rb.Len, m)
	}
	return nil
}
