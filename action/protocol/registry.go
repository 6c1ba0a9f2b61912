// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/memo-labs/memo-core/pkg/log"
)

// protocol IDs
const (
	LedgerProtocolID = "ledger"
	MintProtocolID   = "mint"
	BurnProtocolID   = "burn"
)

// Registry is the hub of all protocols deployed in the program
type Registry struct {
	protocols sync.Map
}

// NewRegistry create a new Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register registers the protocol with a unique ID
func (r *Registry) Register(id string, p Protocol) error {
	_, loaded := r.protocols.LoadOrStore(id, p)
	if loaded {
		return errors.Errorf("Protocol with ID %s is already registered", id)
	}
	return nil
}

// Find finds a protocol by ID
func (r *Registry) Find(id string) (Protocol, bool) {
	value, ok := r.protocols.Load(id)
	if !ok {
		return nil, false
	}
	p, ok := value.(Protocol)
	if !ok {
		log.S().Panic("Registry stores the item which is not a protocol")
	}
	return p, true
}

// All returns all protocols ordered by ID
func (r *Registry) All() []Protocol {
	all := make([]Protocol, 0)
	r.protocols.Range(func(_, value interface{}) bool {
		p, ok := value.(Protocol)
		if !ok {
			log.S().Panic("Registry stores the item which is not a protocol")
		}
		all = append(all, p)
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	return all
}
