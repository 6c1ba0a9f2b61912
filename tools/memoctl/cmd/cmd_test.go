// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/memo"
	"github.com/memo-labs/memo-core/pkg/unit"
	"github.com/memo-labs/memo-core/testutil"
)

const _payload = "memoctl says gm"

func newTestDB(t *testing.T) string {
	path, err := testutil.PathOfTempFile("memoctl")
	require.NoError(t, err)
	t.Cleanup(func() { testutil.CleanupPath(t, path) })
	return path
}

func run(dbPath string, args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--db-type", db.DBBolt, "--db-path", dbPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestInvalidOutput(t *testing.T) {
	_, err := run(newTestDB(t), "-o", "xml", "supply")
	require.Equal(t, ErrInvalidOutput, errors.Cause(err))
}

func TestEncodeMemo(t *testing.T) {
	require := require.New(t)
	actor := solana.NewWallet().PublicKey()

	out, err := run(newTestDB(t), "encode-memo", actor.String(), "--units", "5000000", "--payload", _payload)
	require.NoError(err)
	raw := bytes.TrimSpace([]byte(out))
	p, err := memo.ValidateAndExtract(raw, actor, 5*unit.Token)
	require.NoError(err)
	require.Equal(_payload, string(p.Data))

	// too short for the transport
	_, err = run(newTestDB(t), "encode-memo", actor.String())
	require.Equal(memo.ErrMemoTooShort, errors.Cause(err))

	_, err = run(newTestDB(t), "encode-memo", "not-a-key")
	require.Error(err)
}

func TestLifecycle(t *testing.T) {
	require := require.New(t)
	dbPath := newTestDB(t)
	actor := solana.NewWallet().PublicKey().String()

	_, err := run(dbPath, "supply")
	require.Error(err)

	out, err := run(dbPath, "init")
	require.NoError(err)
	require.Contains(out, "initialize")

	// only the admin may initialize
	_, err = run(dbPath, "init", "--caller", actor)
	require.Error(err)

	out, err = run(dbPath, "burn", "500", "--caller", actor, "--payload", _payload, "--slot", "9")
	require.NoError(err)
	require.Contains(out, actor)
	require.Contains(out, "500")

	out, err = run(dbPath, "mint", "--caller", actor, "--payload", _payload)
	require.NoError(err)
	require.Contains(out, "mint")

	out, err = run(dbPath, "-o", "yaml", "leaderboard")
	require.NoError(err)
	require.Contains(out, fmt.Sprintf("subject: %s", actor))
	require.Contains(out, `score: "500"`)

	out, err = run(dbPath, "-o", "yaml", "recent", "5")
	require.NoError(err)
	require.Contains(out, "kind: mint")
	require.Contains(out, "kind: burn")
	require.Contains(out, "sequence: 9")

	out, err = run(dbPath, "-o", "yaml", "shard")
	require.NoError(err)
	require.Contains(out, "totalShards: 1")
	require.Contains(out, "totalRecords: 1")

	out, err = run(dbPath, "shard", "0")
	require.NoError(err)
	require.Contains(out, actor)

	out, err = run(dbPath, "-o", "yaml", "supply")
	require.NoError(err)
	require.Contains(out, "mintCount: 1")
	require.Contains(out, `issuance: "1"`)

	out, err = run(dbPath, "-o", "yaml", "stats", actor)
	require.NoError(err)
	require.Contains(out, "burnCount: 1")
	require.Contains(out, "mintCount: 1")

	out, err = run(dbPath, "stats")
	require.NoError(err)
	require.Contains(out, actor)

	_, err = run(dbPath, "clear-leaderboard")
	require.NoError(err)
	out, err = run(dbPath, "-o", "yaml", "leaderboard")
	require.NoError(err)
	require.Equal("[]\n", out)

	_, err = run(dbPath, "teardown")
	require.NoError(err)
	_, err = run(dbPath, "leaderboard")
	require.Error(err)
}

func TestReplay(t *testing.T) {
	require := require.New(t)
	dbPath := newTestDB(t)
	actor := solana.NewWallet().PublicKey()

	_, err := run(dbPath, "init")
	require.NoError(err)

	raw, err := (&memoFlags{payload: _payload}).encode(actor, 2*unit.Token)
	require.NoError(err)
	lines := []string{
		fmt.Sprintf(`{"op":"ensure-shard","actor":"%s"}`, actor),
		fmt.Sprintf(`{"op":"burn","actor":"%s","units":%d,"payload":"%s","slot":1}`, actor, 450*unit.Token, _payload),
		fmt.Sprintf(`{"op":"burn","actor":"%s","units":%d,"memo":"%s","slot":2}`, actor, 2*unit.Token, raw),
		fmt.Sprintf(`{"op":"mint","actor":"%s","payload":"%s","slot":3}`, actor, _payload),
		"",
		// memo amount differs from the burned amount
		fmt.Sprintf(`{"op":"burn","actor":"%s","units":%d,"memo":"%s"}`, actor, 3*unit.Token, raw),
		`{"op":"transfer"}`,
		`not json`,
	}
	file := filepath.Join(t.TempDir(), "replay.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(os.WriteFile(file, []byte(content), 0o600))

	out, err := run(dbPath, "replay", file)
	require.NoError(err)
	require.Contains(out, "applied: 4, failed: 3")

	_, err = run(dbPath, "replay", file, "--stop-on-error")
	require.Error(err)

	out, err = run(dbPath, "-o", "yaml", "stats", actor.String())
	require.NoError(err)
	require.Contains(out, "burnCount: 4")
}

func TestConfigOverride(t *testing.T) {
	require := require.New(t)
	flags := &globalFlags{dbType: db.DBMemory}
	cfg, err := flags.config()
	require.NoError(err)
	require.Equal(db.DBMemory, cfg.DB.DBType)

	caller, err := flags.callerKey(cfg)
	require.NoError(err)
	require.Equal(config.Default.Chain.Admin, caller.String())

	flags.caller = "bad"
	_, err = flags.callerKey(cfg)
	require.Error(err)
}
