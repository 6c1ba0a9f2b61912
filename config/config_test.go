// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/memo-labs/memo-core/action/protocol/mint"
	"github.com/memo-labs/memo-core/db"
)

func TestNewDefault(t *testing.T) {
	require := require.New(t)
	cfg, err := New(nil)
	require.NoError(err)
	require.Equal(Default.Ledger, cfg.Ledger)
	require.Equal(Default.Mint, cfg.Mint)
	key, err := cfg.Chain.MemoProgramKey()
	require.NoError(err)
	require.Equal(Default.Chain.MemoProgramID, key.String())
}

func TestNewFromFile(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("MEMO_TEST_DB_PATH", "/tmp/memo-test.db")
	require.NoError(os.WriteFile(path, []byte(`
chain:
  statsInterval: 5s
ledger:
  shardCapacity: 7
db:
  dbType: pebbledb
  dbPath: ${MEMO_TEST_DB_PATH}
events:
  redis:
    addr: localhost:6379
`), 0600))

	cfg, err := New([]string{path})
	require.NoError(err)
	require.Equal(uint32(7), cfg.Ledger.ShardCapacity)
	require.Equal(Default.Ledger.RingCapacity, cfg.Ledger.RingCapacity)
	require.Equal(5*time.Second, cfg.Chain.StatsInterval)
	require.Equal(db.DBPebble, cfg.DB.DBType)
	require.Equal("/tmp/memo-test.db", cfg.DB.DbPath)
	require.Equal("localhost:6379", cfg.Events.Redis.Addr)
	require.Equal(Default.Events.Redis.Channel, cfg.Events.Redis.Channel)
}

func TestValidates(t *testing.T) {
	require := require.New(t)

	cfg := Default
	cfg.Chain.Admin = "not a key"
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateChain(cfg)))

	cfg = Default
	cfg.Ledger.RingCapacity = 0
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateLedger(cfg)))
	cfg.Ledger.RingCapacity = 1 << 20
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateLedger(cfg)))

	cfg = Default
	cfg.Mint = mint.Schedule{}
	require.Equal(mint.ErrInvalidSchedule, errors.Cause(ValidateMint(cfg)))

	cfg = Default
	cfg.DB.DBType = "leveldb"
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateDB(cfg)))
	cfg.DB = db.Config{DBType: db.DBMemory}
	require.NoError(ValidateDB(cfg))
	require.NoError(DoNotValidate(cfg))
}
