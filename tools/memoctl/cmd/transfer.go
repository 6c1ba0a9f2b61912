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
	"github.com/memo-labs/memo-core/memo"
	"github.com/memo-labs/memo-core/pkg/unit"
)

type memoFlags struct {
	payload string
	slot    uint64
}

func (m *memoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.payload, "payload", "", "payload carried by the memo")
	cmd.Flags().Uint64Var(&m.slot, "slot", 0, "slot recorded as the sequence of the record")
}

// encode builds the companion memo text for actor and amount
func (m *memoFlags) encode(actor solana.PublicKey, amount uint64) ([]byte, error) {
	return memo.Encode(&memo.Memo{
		Version: memo.CurrentVersion,
		Amount:  amount,
		Actor:   actor,
		Payload: []byte(m.payload),
	})
}

func newMintCmd(flags *globalFlags) *cobra.Command {
	mf := &memoFlags{}
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint the current tier reward to the caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withService(cmd, func(ctx context.Context, cfg config.Config, cs *chainservice.ChainService) error {
				caller, err := flags.callerKey(cfg)
				if err != nil {
					return err
				}
				raw, err := mf.encode(caller, 0)
				if err != nil {
					return err
				}
				ac, err := flags.actionCtx(cfg, raw)
				if err != nil {
					return err
				}
				ac.Slot = mf.slot
				r, err := cs.Mint(ctx, ac)
				if err != nil {
					return err
				}
				return flags.renderReceipts(cmd.OutOrStdout(), r)
			})
		},
	}
	mf.register(cmd)
	return cmd
}

func newBurnCmd(flags *globalFlags) *cobra.Command {
	mf := &memoFlags{}
	cmd := &cobra.Command{
		Use:   "burn TOKENS",
		Short: "Burn whole tokens from the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid token amount %q", args[0])
			}
			amount, err := unit.FromTokens(tokens)
			if err != nil {
				return err
			}
			return flags.withService(cmd, func(ctx context.Context, cfg config.Config, cs *chainservice.ChainService) error {
				caller, err := flags.callerKey(cfg)
				if err != nil {
					return err
				}
				raw, err := mf.encode(caller, amount)
				if err != nil {
					return err
				}
				ac, err := flags.actionCtx(cfg, raw)
				if err != nil {
					return err
				}
				ac.Slot = mf.slot
				r, err := cs.Burn(ctx, ac, amount)
				if err != nil {
					return err
				}
				return flags.renderReceipts(cmd.OutOrStdout(), r)
			})
		},
	}
	mf.register(cmd)
	return cmd
}

func newEncodeMemoCmd(flags *globalFlags) *cobra.Command {
	var units uint64
	mf := &memoFlags{}
	cmd := &cobra.Command{
		Use:   "encode-memo ACTOR",
		Short: "Print the memo text for an actor and amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return errors.Wrapf(err, "invalid actor %q", args[0])
			}
			raw, err := mf.encode(actor, units)
			if err != nil {
				return err
			}
			if err := memo.CheckTransport(raw); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", raw)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&units, "units", 0, "amount in units, 0 for a mint memo")
	mf.register(cmd)
	return cmd
}
