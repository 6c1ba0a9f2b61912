// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/memo-labs/memo-core/chainservice"
	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/pkg/unit"
	"github.com/memo-labs/memo-core/state"
)

func newRecentCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "recent [N]",
		Short: "Show the latest records, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 10
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return errors.Errorf("invalid count %q", args[0])
				}
				n = v
			}
			return flags.withService(cmd, func(_ context.Context, _ config.Config, cs *chainservice.ChainService) error {
				records, err := cs.ReadRecent(n)
				if err != nil {
					return err
				}
				return flags.renderRecords(cmd.OutOrStdout(), records)
			})
		},
	}
}

func newLeaderboardCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top burners by cumulative amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withService(cmd, func(_ context.Context, _ config.Config, cs *chainservice.ChainService) error {
				entries, err := cs.Leaderboard()
				if err != nil {
					return err
				}
				views := make([]entryView, 0, len(entries))
				rows := make([][]interface{}, 0, len(entries))
				for i, e := range entries {
					v := entryView{Rank: i + 1, Subject: e.Subject.String(), Score: unit.Format(e.Score)}
					views = append(views, v)
					rows = append(rows, []interface{}{v.Rank, v.Subject, v.Score})
				}
				return flags.render(cmd.OutOrStdout(), views, []interface{}{"Rank", "Subject", "Burned"}, rows)
			})
		},
	}
}

func newShardCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shard [N]",
		Short: "Show the shard index, or the records of shard N",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withService(cmd, func(_ context.Context, _ config.Config, cs *chainservice.ChainService) error {
				if len(args) == 0 {
					return renderShardIndex(cmd, flags, cs)
				}
				n, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return errors.Wrapf(err, "invalid shard number %q", args[0])
				}
				shard, err := cs.Shard(n)
				if err != nil {
					return err
				}
				return flags.renderRecords(cmd.OutOrStdout(), shard.Records)
			})
		},
	}
}

func renderShardIndex(cmd *cobra.Command, flags *globalFlags, cs *chainservice.ChainService) error {
	si, err := cs.ShardIndex()
	if err != nil {
		return err
	}
	active := "none"
	if n, ok := si.ActiveShard(); ok {
		active = strconv.FormatUint(n, 10)
	}
	view := struct {
		TotalShards  uint64 `yaml:"totalShards"`
		Active       string `yaml:"active"`
		TotalRecords uint64 `yaml:"totalRecords"`
	}{si.TotalShards, active, si.TotalRecords}
	return flags.render(cmd.OutOrStdout(), view,
		[]interface{}{"Shards", "Active", "Records"},
		[][]interface{}{{view.TotalShards, view.Active, view.TotalRecords}})
}

func newSupplyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show cumulative issuance and the next mint reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withService(cmd, func(_ context.Context, _ config.Config, cs *chainservice.ChainService) error {
				s, err := cs.Supply()
				if err != nil {
					return err
				}
				next := "exhausted"
				sched := cs.Schedule()
				if reward, err := sched.ComputeReward(s.Issuance); err == nil {
					next = unit.Format(reward)
				}
				view := struct {
					Issuance   string `yaml:"issuance"`
					MintCount  uint64 `yaml:"mintCount"`
					NextReward string `yaml:"nextReward"`
				}{unit.Format(s.Issuance), s.MintCount, next}
				return flags.render(cmd.OutOrStdout(), view,
					[]interface{}{"Issuance", "Mints", "Next Reward"},
					[][]interface{}{{view.Issuance, view.MintCount, view.NextReward}})
			})
		},
	}
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [ACTOR]",
		Short: "Show per-actor counters, all actors when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withService(cmd, func(_ context.Context, _ config.Config, cs *chainservice.ChainService) error {
				var list []*state.UserStats
				if len(args) == 1 {
					actor, err := solana.PublicKeyFromBase58(args[0])
					if err != nil {
						return errors.Wrapf(err, "invalid actor %q", args[0])
					}
					us, err := cs.UserStats(actor)
					if err != nil {
						return err
					}
					list = append(list, us)
				} else {
					var err error
					if list, err = cs.ListUserStats(); err != nil {
						return err
					}
				}
				views := make([]statsView, 0, len(list))
				rows := make([][]interface{}, 0, len(list))
				for _, us := range list {
					v := newStatsView(us)
					views = append(views, v)
					rows = append(rows, []interface{}{v.Actor, v.TotalBurned, v.BurnCount, v.TotalMinted, v.MintCount})
				}
				return flags.render(cmd.OutOrStdout(), views,
					[]interface{}{"Actor", "Burned", "Burns", "Minted", "Mints"}, rows)
			})
		},
	}
}
