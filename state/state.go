// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/pkg/hash"
)

var (
	// ErrStateSerialization is the error that the state marshaling is failed
	ErrStateSerialization = errors.New("failed to marshal state")
	// ErrStateDeserialization is the error that the state un-marshaling is failed
	ErrStateDeserialization = errors.New("failed to unmarshal state")
	// ErrStateNotExist is the error that the state does not exist
	ErrStateNotExist = errors.New("state does not exist")
	// ErrStateAlreadyExists is the error that a state created if absent was already present
	ErrStateAlreadyExists = errors.New("state already exists")
	// ErrAccountTooLarge is the error that the encoded body overflows the account's fixed space
	ErrAccountTooLarge = errors.New("account body exceeds allocated space")
	// ErrDiscriminatorMismatch is the error that the stored bytes belong to another account type
	ErrDiscriminatorMismatch = errors.New("account discriminator mismatch")
)

type (
	// Serializer has Serialize method to serialize struct to binary data.
	Serializer interface {
		Serialize() ([]byte, error)
	}

	// Deserializer has Deserialize method to deserialize binary data to struct.
	Deserializer interface {
		Deserialize([]byte) error
	}

	// account is a fixed-size persisted record tagged with a discriminator
	account interface {
		discriminator() hash.Discriminator
		space() int
		encodeBody(*bin.Encoder) error
		decodeBody(*bin.Decoder) error
	}
)

// Serialize check if input is Serializer, if it is, use the input's Serialize method
func Serialize(d interface{}) ([]byte, error) {
	if s, ok := d.(Serializer); ok {
		return s.Serialize()
	}
	return nil, errors.Wrapf(ErrStateSerialization, "type %T is not a Serializer", d)
}

// Deserialize check if input is Deserializer, if it is, use the input's Deserialize method.
func Deserialize(x interface{}, data []byte) error {
	if s, ok := x.(Deserializer); ok {
		return s.Deserialize(data)
	}
	return errors.Wrapf(ErrStateDeserialization, "type %T is not a Deserializer", x)
}

// encodeAccount lays out discriminator ‖ borsh(body) ‖ zero padding up to the account space
func encodeAccount(a account) ([]byte, error) {
	var buf bytes.Buffer
	d := a.discriminator()
	buf.Write(d[:])
	if err := a.encodeBody(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, errors.Wrap(ErrStateSerialization, err.Error())
	}
	space := a.space()
	if buf.Len() > space {
		return nil, errors.Wrapf(ErrAccountTooLarge, "%d > %d", buf.Len(), space)
	}
	out := make([]byte, space)
	copy(out, buf.Bytes())
	return out, nil
}

func decodeAccount(a account, data []byte) error {
	d := a.discriminator()
	if len(data) < len(d) {
		return errors.Wrapf(ErrStateDeserialization, "account of %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(d)], d[:]) {
		return errors.Wrapf(ErrDiscriminatorMismatch, "expected %s, got %x", d.Hex(), data[:len(d)])
	}
	if err := a.decodeBody(bin.NewBorshDecoder(data[len(d):])); err != nil {
		return errors.Wrap(ErrStateDeserialization, err.Error())
	}
	return nil
}
