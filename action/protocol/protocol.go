// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/memo-labs/memo-core/action"
)

// Protocol defines the protocol interfaces of the memo program
type Protocol interface {
	ActionHandler
	// ID returns the registry ID of the protocol
	ID() string
}

// ActionHandler is the interface for the action handlers. For each incoming action, the registered protocols will be
// called one by one to process it. ActionHandler implementation is supposed to parse the sub-type of the action to
// decide if it wants to handle this action or not, returning a nil receipt when it does not.
type ActionHandler interface {
	Handle(context.Context, action.Action, StateManager) (*action.Receipt, error)
}
