// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package memo decodes and validates the structured memo that accompanies every burn and mint.
//
// Transport text is standard Base64 of the borsh encoding of
//
//	Memo{version u8, amount u64, actor [32]u8, payload Vec<u8>}
package memo

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

const (
	// CurrentVersion is the only accepted schema version
	CurrentVersion uint8 = 1
	// MinTransportLength is the smallest accepted memo instruction data
	MinTransportLength = 69
	// MaxTransportLength is the largest accepted memo instruction data
	MaxTransportLength = 800
	// MaxDecodedSize bounds the Base64-decoded buffer
	MaxDecodedSize = 800
	// FixedOverhead is the borsh size of everything but the payload bytes
	FixedOverhead = 1 + 8 + solana.PublicKeyLength + 4
	// MaxPayloadLength is the largest payload a decoded buffer can carry. The memo embeds the 32-byte actor, so
	// the bound is 755 rather than the 787 of a memo without one.
	MaxPayloadLength = MaxDecodedSize - FixedOverhead
)

var (
	// ErrInvalidFormat indicates the memo is not valid text, Base64 or borsh, or is oversized
	ErrInvalidFormat = errors.New("invalid memo format")
	// ErrUnsupportedVersion indicates an unknown schema version
	ErrUnsupportedVersion = errors.New("unsupported memo version")
	// ErrAmountMismatch indicates the memo amount differs from the operation amount
	ErrAmountMismatch = errors.New("memo amount mismatch")
	// ErrActorMismatch indicates the memo actor differs from the signer
	ErrActorMismatch = errors.New("memo actor mismatch")
	// ErrPayloadTooLong indicates the nested payload exceeds its bound
	ErrPayloadTooLong = errors.New("memo payload too long")
	// ErrMemoTooShort indicates memo instruction data below the transport minimum
	ErrMemoTooShort = errors.New("memo too short")
	// ErrMemoTooLong indicates memo instruction data above the transport maximum
	ErrMemoTooLong = errors.New("memo too long")
)

type (
	// Memo is the versioned structure carried by the memo instruction
	Memo struct {
		Version uint8
		Amount  uint64
		Actor   solana.PublicKey
		Payload []byte
	}

	// Payload is what a validated memo yields to the domain
	Payload struct {
		Actor  solana.PublicKey
		Amount uint64
		Data   []byte
	}
)

// MarshalBorsh encodes the memo
func (m *Memo) MarshalBorsh() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(m.Version); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(m.Amount, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(m.Actor[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(uint32(len(m.Payload)), bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(m.Payload, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBorsh decodes the memo, rejecting truncated input and trailing bytes
func (m *Memo) UnmarshalBorsh(data []byte) (err error) {
	dec := bin.NewBorshDecoder(data)
	if m.Version, err = dec.ReadUint8(); err != nil {
		return errors.Wrap(err, "failed to read version")
	}
	if m.Amount, err = dec.ReadUint64(bin.LE); err != nil {
		return errors.Wrap(err, "failed to read amount")
	}
	actor, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return errors.Wrap(err, "failed to read actor")
	}
	copy(m.Actor[:], actor)
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return errors.Wrap(err, "failed to read payload length")
	}
	if int(n) > dec.Remaining() {
		return errors.Errorf("payload length %d exceeds remaining %d bytes", n, dec.Remaining())
	}
	payload, err := dec.ReadNBytes(int(n))
	if err != nil {
		return errors.Wrap(err, "failed to read payload")
	}
	m.Payload = append([]byte{}, payload...)
	if dec.Remaining() != 0 {
		return errors.Errorf("%d trailing bytes", dec.Remaining())
	}
	return nil
}
