// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/minio/blake2b-simd"
)

const (
	// HashSize defines the size of hash
	HashSize = 32
	// ShortHashSize defines the size of a truncated hash
	ShortHashSize = 20
	// DiscriminatorSize is the size of an account type tag
	DiscriminatorSize = 8
)

var (
	// ZeroHash256 is 32-bytes of all zero
	ZeroHash256 = Hash256{}
)

type (
	// Hash256 is 32-byte hash
	Hash256 [HashSize]byte
	// Hash160 is 20-byte hash
	Hash160 [ShortHashSize]byte
	// Discriminator is the 8-byte type tag prefixed to every persisted account
	Discriminator [DiscriminatorSize]byte
)

// Hash256b returns the blake2b-256 hash of the input
func Hash256b(input []byte) Hash256 {
	return blake2b.Sum256(input)
}

// Hash160b returns the first 20 bytes of the blake2b-256 hash of the input
func Hash160b(input []byte) Hash160 {
	digest := blake2b.Sum256(input)
	var h Hash160
	copy(h[:], digest[HashSize-ShortHashSize:])
	return h
}

// AccountDiscriminator returns the first 8 bytes of sha256("account:" + name)
func AccountDiscriminator(name string) Discriminator {
	digest := sha256.Sum256([]byte("account:" + name))
	var d Discriminator
	copy(d[:], digest[:DiscriminatorSize])
	return d
}

// Hex returns the hex string of the hash
func (h Hash256) Hex() string { return hex.EncodeToString(h[:]) }

// Hex returns the hex string of the hash
func (h Hash160) Hex() string { return hex.EncodeToString(h[:]) }

// Hex returns the hex string of the discriminator
func (d Discriminator) Hex() string { return hex.EncodeToString(d[:]) }
