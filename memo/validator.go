// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package memo

import (
	"bytes"
	"encoding/base64"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

type (
	// Validator runs the integrity gates of a memo
	Validator struct {
		maxDecodedSize   int
		maxPayloadLength int
	}

	// Option sets Validator construction parameter
	Option func(*Validator)
)

// WithMaxPayloadLength tightens the payload bound below what the decoded size allows
func WithMaxPayloadLength(n int) Option {
	return func(v *Validator) {
		v.maxPayloadLength = n
	}
}

// NewValidator creates a validator with the default bounds
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		maxDecodedSize:   MaxDecodedSize,
		maxPayloadLength: MaxPayloadLength,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _defaultValidator = NewValidator()

// ValidateAndExtract validates raw with the default bounds
func ValidateAndExtract(raw []byte, expectedActor solana.PublicKey, expectedAmount uint64) (*Payload, error) {
	return _defaultValidator.ValidateAndExtract(raw, expectedActor, expectedAmount)
}

// ValidateAndExtract runs the gates in order, the first failure short-circuits:
// text, Base64, decoded size, borsh, version, amount, actor, payload length.
func (v *Validator) ValidateAndExtract(raw []byte, expectedActor solana.PublicKey, expectedAmount uint64) (*Payload, error) {
	if !utf8.Valid(raw) {
		return nil, errors.Wrap(ErrInvalidFormat, "memo is not valid UTF-8")
	}
	decoded, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if len(decoded) > v.maxDecodedSize {
		return nil, errors.Wrapf(ErrInvalidFormat, "decoded memo is %d bytes, max %d", len(decoded), v.maxDecodedSize)
	}
	var m Memo
	if err := m.UnmarshalBorsh(decoded); err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	if m.Version != CurrentVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", m.Version)
	}
	if m.Amount != expectedAmount {
		return nil, errors.Wrapf(ErrAmountMismatch, "memo %d vs expected %d", m.Amount, expectedAmount)
	}
	if !m.Actor.Equals(expectedActor) {
		return nil, errors.Wrapf(ErrActorMismatch, "memo %s vs signer %s", m.Actor, expectedActor)
	}
	if len(m.Payload) > v.maxPayloadLength {
		return nil, errors.Wrapf(ErrPayloadTooLong, "%d bytes, max %d", len(m.Payload), v.maxPayloadLength)
	}
	return &Payload{
		Actor:  m.Actor,
		Amount: m.Amount,
		Data:   m.Payload,
	}, nil
}

// CheckTransport enforces the bounds of memo instruction data
func CheckTransport(raw []byte) error {
	switch {
	case len(raw) < MinTransportLength:
		return errors.Wrapf(ErrMemoTooShort, "%d bytes, min %d", len(raw), MinTransportLength)
	case len(raw) > MaxTransportLength:
		return errors.Wrapf(ErrMemoTooLong, "%d bytes, max %d", len(raw), MaxTransportLength)
	case bytes.IndexByte(raw, 0) >= 0:
		return errors.Wrap(ErrInvalidFormat, "memo contains NUL bytes")
	}
	return nil
}

// Encode builds the transport text of a memo
func Encode(m *Memo) ([]byte, error) {
	data, err := m.MarshalBorsh()
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out, nil
}
