// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/memo-labs/memo-core/pkg/hash"
	"github.com/memo-labs/memo-core/pkg/util/byteutil"
)

var _userStatsDiscriminator = hash.AccountDiscriminator("UserStats")

// UserStats holds per-actor advisory counters. All counters saturate.
type UserStats struct {
	Actor        solana.PublicKey
	TotalBurned  uint64
	BurnCount    uint64
	TotalMinted  uint64
	MintCount    uint64
	LastActivity int64
}

// AddBurn accounts a burn of amount at ts
func (us *UserStats) AddBurn(amount uint64, ts int64) {
	us.TotalBurned = byteutil.SaturatingAdd(us.TotalBurned, amount)
	us.BurnCount = byteutil.SaturatingAdd(us.BurnCount, 1)
	us.LastActivity = ts
}

// AddMint accounts a mint of amount at ts
func (us *UserStats) AddMint(amount uint64, ts int64) {
	us.TotalMinted = byteutil.SaturatingAdd(us.TotalMinted, amount)
	us.MintCount = byteutil.SaturatingAdd(us.MintCount, 1)
	us.LastActivity = ts
}

// Serialize serializes user stats into bytes
func (us *UserStats) Serialize() ([]byte, error) { return encodeAccount(us) }

// Deserialize deserializes bytes into user stats
func (us *UserStats) Deserialize(data []byte) error { return decodeAccount(us, data) }

func (us *UserStats) discriminator() hash.Discriminator { return _userStatsDiscriminator }

func (us *UserStats) space() int { return hash.DiscriminatorSize + solana.PublicKeyLength + 8*5 }

func (us *UserStats) encodeBody(enc *bin.Encoder) error {
	if err := enc.WriteBytes(us.Actor[:], false); err != nil {
		return err
	}
	for _, v := range []uint64{us.TotalBurned, us.BurnCount, us.TotalMinted, us.MintCount} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}
	return enc.WriteInt64(us.LastActivity, bin.LE)
}

func (us *UserStats) decodeBody(dec *bin.Decoder) (err error) {
	actor, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(us.Actor[:], actor)
	for _, v := range []*uint64{&us.TotalBurned, &us.BurnCount, &us.TotalMinted, &us.MintCount} {
		if *v, err = dec.ReadUint64(bin.LE); err != nil {
			return err
		}
	}
	us.LastActivity, err = dec.ReadInt64(bin.LE)
	return err
}

// IsUserStats tells whether raw account bytes hold a UserStats account
func IsUserStats(data []byte) bool {
	return len(data) >= hash.DiscriminatorSize && hash.Discriminator(data[:hash.DiscriminatorSize]) == _userStatsDiscriminator
}
