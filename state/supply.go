// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	bin "github.com/gagliardetto/binary"

	"github.com/memo-labs/memo-core/pkg/hash"
)

var _supplyDiscriminator = hash.AccountDiscriminator("Supply")

// Supply tracks cumulative issuance of the mint path
type Supply struct {
	Issuance  uint64
	MintCount uint64
}

// Serialize serializes supply into bytes
func (s *Supply) Serialize() ([]byte, error) { return encodeAccount(s) }

// Deserialize deserializes bytes into supply
func (s *Supply) Deserialize(data []byte) error { return decodeAccount(s, data) }

func (s *Supply) discriminator() hash.Discriminator { return _supplyDiscriminator }

func (s *Supply) space() int { return hash.DiscriminatorSize + 8 + 8 }

func (s *Supply) encodeBody(enc *bin.Encoder) error {
	if err := enc.WriteUint64(s.Issuance, bin.LE); err != nil {
		return err
	}
	return enc.WriteUint64(s.MintCount, bin.LE)
}

func (s *Supply) decodeBody(dec *bin.Decoder) (err error) {
	if s.Issuance, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	s.MintCount, err = dec.ReadUint64(bin.LE)
	return err
}
