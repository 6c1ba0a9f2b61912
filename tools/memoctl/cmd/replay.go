// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"bufio"
	"bytes"
	"context"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/action/protocol"
	"github.com/memo-labs/memo-core/chainservice"
	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/pkg/log"
)

// ErrInvalidEntry is the error that a replay line cannot be applied
var ErrInvalidEntry = errors.New("invalid replay entry")

// replay entry ops
const (
	replayBurn        = "burn"
	replayMint        = "mint"
	replayEnsureShard = "ensure-shard"
)

func newReplayCmd(flags *globalFlags) *cobra.Command {
	var stopOnError bool
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Apply a JSON-lines file of burn, mint and ensure-shard entries",
		Long: `Apply a JSON-lines file in order. Each line is an object such as
{"op":"burn","actor":"<base58>","units":1000000,"payload":"gm","slot":7}
A line may carry a ready "memo" string instead of a payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(args[0])
			if err != nil {
				return err
			}
			return flags.withService(cmd, func(ctx context.Context, _ config.Config, cs *chainservice.ChainService) error {
				bar := progressbar.NewOptions(len(lines),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
				)
				var applied, failed int
				for i, line := range lines {
					if err := applyEntry(ctx, cs, gjson.ParseBytes(line)); err != nil {
						if stopOnError {
							return errors.Wrapf(err, "line %d", i+1)
						}
						log.L().Warn("Failed to apply replay entry.", zap.Int("line", i+1), zap.Error(err))
						failed++
					} else {
						applied++
					}
					if err := bar.Add(1); err != nil {
						return err
					}
				}
				_ = bar.Finish()
				printf(cmd.OutOrStdout(), "\napplied: %d, failed: %d\n", applied, failed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "abort at the first entry that fails")
	return cmd
}

// readLines returns the non-empty lines of path
func readLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	var lines [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte{}, line...))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return lines, nil
}

func applyEntry(ctx context.Context, cs *chainservice.ChainService, entry gjson.Result) error {
	if !entry.IsObject() {
		return errors.Wrap(ErrInvalidEntry, "not an object")
	}
	actor, err := solana.PublicKeyFromBase58(entry.Get("actor").String())
	if err != nil {
		return errors.Wrapf(ErrInvalidEntry, "actor: %v", err)
	}
	ac := protocol.ActionCtx{
		Caller:    actor,
		Slot:      entry.Get("slot").Uint(),
		Timestamp: now(),
	}
	if ts := entry.Get("timestamp"); ts.Exists() {
		ac.Timestamp = ts.Int()
	}
	units := entry.Get("units").Uint()
	switch op := entry.Get("op").String(); op {
	case replayEnsureShard:
		_, err = cs.EnsureCapacity(ctx, ac)
		return err
	case replayBurn, replayMint:
		if op == replayMint {
			units = 0
		}
		if ac.Memo, err = entryMemo(entry, actor, units); err != nil {
			return err
		}
		if op == replayMint {
			_, err = cs.Mint(ctx, ac)
		} else {
			_, err = cs.Burn(ctx, ac, units)
		}
		return err
	default:
		return errors.Wrapf(ErrInvalidEntry, "unknown op %q", op)
	}
}

func entryMemo(entry gjson.Result, actor solana.PublicKey, units uint64) ([]byte, error) {
	if m := entry.Get("memo"); m.Exists() {
		return []byte(m.String()), nil
	}
	mf := memoFlags{payload: entry.Get("payload").String()}
	return mf.encode(actor, units)
}
