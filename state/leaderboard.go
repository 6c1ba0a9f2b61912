// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	"bytes"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/pkg/hash"
	"github.com/memo-labs/memo-core/pkg/util/byteutil"
)

var _leaderboardDiscriminator = hash.AccountDiscriminator("Leaderboard")

const _leaderboardEntrySize = solana.PublicKeyLength + 8

type (
	// Ranking is a bounded top-K table of subjects by score
	Ranking interface {
		// Offer records score for subject, returning whether the table changed
		Offer(solana.PublicKey, uint64) (bool, error)
		// Len returns the number of entries
		Len() int
		// Capacity returns K
		Capacity() int
		// Entries returns the entries in storage order
		Entries() []LeaderboardEntry
		// Sorted returns a copy ordered by descending score
		Sorted() []LeaderboardEntry
		// Clear removes every entry
		Clear()
	}

	// LeaderboardEntry is a subject and its score
	LeaderboardEntry struct {
		Subject solana.PublicKey
		Score   uint64
	}

	// Leaderboard is an unsorted table of at most Cap entries
	Leaderboard struct {
		Cap     uint32
		Updates uint64
		List    []LeaderboardEntry
	}
)

var _ Ranking = (*Leaderboard)(nil)

// NewLeaderboard creates an empty leaderboard of capacity k
func NewLeaderboard(k uint32) (*Leaderboard, error) {
	if k == 0 {
		return nil, ErrInvalidCapacity
	}
	return &Leaderboard{Cap: k, List: make([]LeaderboardEntry, 0, k)}, nil
}

// LeaderboardSpace returns the fixed account size of a leaderboard of capacity k
func LeaderboardSpace(k uint32) int {
	return hash.DiscriminatorSize + 4 + 8 + 4 + int(k)*_leaderboardEntrySize
}

// Offer finds the subject and the minimum in one scan. An existing subject is overwritten, even
// downward. Otherwise the entry is appended if there is room, or replaces the first minimum when
// strictly greater.
func (lb *Leaderboard) Offer(subject solana.PublicKey, score uint64) (bool, error) {
	if len(lb.List) > int(lb.Cap) {
		return false, errors.Errorf("leaderboard holds %d entries over capacity %d", len(lb.List), lb.Cap)
	}
	pos, minIdx := -1, -1
	for i := range lb.List {
		if lb.List[i].Subject == subject {
			pos = i
			break
		}
		if minIdx < 0 || lb.List[i].Score < lb.List[minIdx].Score {
			minIdx = i
		}
	}
	switch {
	case pos >= 0:
		if lb.List[pos].Score == score {
			return false, nil
		}
		lb.List[pos].Score = score
	case len(lb.List) < int(lb.Cap):
		lb.List = append(lb.List, LeaderboardEntry{Subject: subject, Score: score})
	default:
		if score <= lb.List[minIdx].Score {
			return false, nil
		}
		lb.List[minIdx] = LeaderboardEntry{Subject: subject, Score: score}
	}
	lb.Updates = byteutil.SaturatingAdd(lb.Updates, 1)
	return true, nil
}

// Len returns the number of entries
func (lb *Leaderboard) Len() int { return len(lb.List) }

// Capacity returns K
func (lb *Leaderboard) Capacity() int { return int(lb.Cap) }

// Entries returns a copy of the entries in storage order
func (lb *Leaderboard) Entries() []LeaderboardEntry {
	return append([]LeaderboardEntry(nil), lb.List...)
}

// Sorted returns a copy ordered by descending score, ties by subject
func (lb *Leaderboard) Sorted() []LeaderboardEntry {
	out := lb.Entries()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return bytes.Compare(out[i].Subject[:], out[j].Subject[:]) < 0
	})
	return out
}

// Clear removes every entry
func (lb *Leaderboard) Clear() {
	lb.List = lb.List[:0]
}

// Serialize serializes leaderboard into bytes
func (lb *Leaderboard) Serialize() ([]byte, error) { return encodeAccount(lb) }

// Deserialize deserializes bytes into leaderboard
func (lb *Leaderboard) Deserialize(data []byte) error { return decodeAccount(lb, data) }

func (lb *Leaderboard) discriminator() hash.Discriminator { return _leaderboardDiscriminator }

func (lb *Leaderboard) space() int { return LeaderboardSpace(lb.Cap) }

func (lb *Leaderboard) encodeBody(enc *bin.Encoder) error {
	if err := enc.WriteUint32(lb.Cap, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint64(lb.Updates, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(lb.List)), bin.LE); err != nil {
		return err
	}
	for _, e := range lb.List {
		if err := enc.WriteBytes(e.Subject[:], false); err != nil {
			return err
		}
		if err := enc.WriteUint64(e.Score, bin.LE); err != nil {
			return err
		}
	}
	return nil
}

func (lb *Leaderboard) decodeBody(dec *bin.Decoder) (err error) {
	if lb.Cap, err = dec.ReadUint32(bin.LE); err != nil {
		return err
	}
	if lb.Updates, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	if n > lb.Cap {
		return errors.Errorf("entry count %d exceeds capacity %d", n, lb.Cap)
	}
	lb.List = make([]LeaderboardEntry, n, lb.Cap)
	for i := range lb.List {
		subject, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return err
		}
		copy(lb.List[i].Subject[:], subject)
		if lb.List[i].Score, err = dec.ReadUint64(bin.LE); err != nil {
			return err
		}
	}
	return nil
}
