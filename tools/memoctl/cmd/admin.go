// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/memo-labs/memo-core/action"
	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/chainservice"
	"github.com/memo-labs/memo-core/config"
)

type adminFunc func(*chainservice.ChainService, context.Context, protocol.ActionCtx) (*action.Receipt, error)

func newAdminCmds(flags *globalFlags) []*cobra.Command {
	return []*cobra.Command{
		newAdminCmd(flags, "init", "Create the shard index, the ring buffer, the leaderboard and the supply",
			(*chainservice.ChainService).Initialize),
		newAdminCmd(flags, "clear-leaderboard", "Remove every leaderboard entry",
			(*chainservice.ChainService).ClearLeaderboard),
		newAdminCmd(flags, "teardown", "Delete the singleton accounts",
			(*chainservice.ChainService).Teardown),
	}
}

func newAdminCmd(flags *globalFlags, use, short string, fn adminFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withService(cmd, func(ctx context.Context, cfg config.Config, cs *chainservice.ChainService) error {
				ac, err := flags.actionCtx(cfg, nil)
				if err != nil {
					return err
				}
				r, err := fn(cs, ctx, ac)
				if err != nil {
					return err
				}
				return flags.renderReceipts(cmd.OutOrStdout(), r)
			})
		},
	}
}

func newEnsureShardCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-shard",
		Short: "Make sure a shard with free space is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withService(cmd, func(ctx context.Context, cfg config.Config, cs *chainservice.ChainService) error {
				ac, err := flags.actionCtx(cfg, nil)
				if err != nil {
					return err
				}
				n, err := cs.EnsureCapacity(ctx, ac)
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "active shard: %d\n", n)
				return nil
			})
		},
	}
}
