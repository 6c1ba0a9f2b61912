// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/chainservice"
	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/pkg/log"
)

// output formats
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
)

// ErrInvalidOutput is the error that the output format is unknown
var ErrInvalidOutput = errors.New("invalid output format")

type globalFlags struct {
	configPaths []string
	dbPath      string
	dbType      string
	output      string
	caller      string
}

// NewRootCmd creates the memoctl command tree
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "memoctl",
		Short:         "Command-line interface for a local memo ledger",
		Long:          "memoctl operates a memo ledger database: bootstrap, mint, burn, and inspect shards, latest records and the leaderboard.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch flags.output {
			case OutputTable, OutputYAML:
				return nil
			default:
				return errors.Wrap(ErrInvalidOutput, flags.output)
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringSliceVar(&flags.configPaths, "config-path", nil, "config file path, may be repeated")
	pf.StringVar(&flags.dbPath, "db-path", "", "override the configured db path")
	pf.StringVar(&flags.dbType, "db-type", "", "override the configured db type")
	pf.StringVarP(&flags.output, "output", "o", OutputTable, "output format: table or yaml")
	pf.StringVar(&flags.caller, "caller", "", "base58 key of the caller, the admin if empty")

	root.AddCommand(
		newAdminCmds(flags)...,
	)
	root.AddCommand(
		newMintCmd(flags),
		newBurnCmd(flags),
		newEnsureShardCmd(flags),
		newRecentCmd(flags),
		newLeaderboardCmd(flags),
		newShardCmd(flags),
		newSupplyCmd(flags),
		newStatsCmd(flags),
		newEncodeMemoCmd(flags),
		newReplayCmd(flags),
	)
	return root
}

func (f *globalFlags) config() (config.Config, error) {
	cfg, err := config.New(f.configPaths)
	if err != nil {
		return config.Config{}, err
	}
	if f.dbPath != "" {
		cfg.DB.DbPath = f.dbPath
	}
	if f.dbType != "" {
		cfg.DB.DBType = f.dbType
	}
	if err := config.ValidateDB(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// callerKey returns the --caller key, or the admin when unset
func (f *globalFlags) callerKey(cfg config.Config) (solana.PublicKey, error) {
	if f.caller == "" {
		return cfg.Chain.AdminKey()
	}
	key, err := solana.PublicKeyFromBase58(f.caller)
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(err, "invalid caller %q", f.caller)
	}
	return key, nil
}

// withService runs fn on a started chain service over the configured database
func (f *globalFlags) withService(cmd *cobra.Command, fn func(context.Context, config.Config, *chainservice.ChainService) error) error {
	cfg, err := f.config()
	if err != nil {
		return err
	}
	if err := log.InitLoggers(cfg.Log, nil); err != nil {
		return err
	}
	cfg.Chain.StatsInterval = 0
	cs, err := chainservice.New(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cs.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := cs.Stop(context.Background()); err != nil {
			cmd.PrintErrln(err)
		}
	}()
	return fn(ctx, cfg, cs)
}

// actionCtx builds the context of a command issued by the caller
func (f *globalFlags) actionCtx(cfg config.Config, memo []byte) (protocol.ActionCtx, error) {
	caller, err := f.callerKey(cfg)
	if err != nil {
		return protocol.ActionCtx{}, err
	}
	return protocol.ActionCtx{Caller: caller, Timestamp: now(), Memo: memo}, nil
}

// render writes rows as a table, or v as yaml
func (f *globalFlags) render(w io.Writer, v interface{}, headers []interface{}, rows [][]interface{}) error {
	if f.output == OutputYAML {
		out, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "failed to marshal output")
		}
		_, err = w.Write(out)
		return err
	}
	tb := table.New(headers...).WithWriter(w)
	for _, row := range rows {
		tb.AddRow(row...)
	}
	tb.Print()
	return nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
