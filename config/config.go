// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/memo-labs/memo-core/action/protocol/ledger"
	"github.com/memo-labs/memo-core/action/protocol/mint"
	"github.com/memo-labs/memo-core/db"
	"github.com/memo-labs/memo-core/events"
	"github.com/memo-labs/memo-core/pkg/log"
	"github.com/memo-labs/memo-core/state"
)

// MaxAccountSize is the largest account the program can allocate
const MaxAccountSize = 10 * 1024 * 1024

var (
	// Default is the default config
	Default = Config{
		Chain: Chain{
			ProgramID:     "6Vavot6ybhWBG3rjNXnLfNRPVTz7Garf6E4EZk3byp3a",
			Admin:         "FVvewrVHqg2TPWXkesc3CJ7xxWnPtAkzN9nCpvr6UCtQ",
			MemoProgramID: solana.MemoProgramID.String(),
			StatsInterval: time.Minute,
		},
		System: System{
			HTTPStatsPort: 8080,
		},
		Ledger: ledger.DefaultConfig,
		Mint:   mint.DefaultSchedule,
		DB:     db.DefaultConfig,
		Events: events.DefaultConfig,
		Log: log.GlobalConfig{
			StderrRedirectFile: nil,
			RedirectStdLog:     false,
		},
		SubLogs: make(map[string]log.GlobalConfig),
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateChain,
		ValidateLedger,
		ValidateMint,
		ValidateDB,
	}
)

type (
	// Chain is the config of the program identity
	Chain struct {
		// ProgramID derives every account address
		ProgramID string `yaml:"programID"`
		// Admin may bootstrap, clear the leaderboard and tear down
		Admin string `yaml:"admin"`
		// MemoProgramID owns the companion memo instruction
		MemoProgramID string `yaml:"memoProgramID"`
		// StatsInterval is the period of the ledger stats reporter
		StatsInterval time.Duration `yaml:"statsInterval"`
	}

	// System is the config of the process
	System struct {
		// HTTPStatsPort serves /metrics and /health, disabled if 0
		HTTPStatsPort int `yaml:"httpStatsPort"`
	}

	// Config is the root config struct, each package's config should be put as its sub struct
	Config struct {
		Chain   Chain                       `yaml:"chain"`
		System  System                      `yaml:"system"`
		Ledger  ledger.Config               `yaml:"ledger"`
		Mint    mint.Schedule               `yaml:"mint"`
		DB      db.Config                   `yaml:"db"`
		Events  events.Config               `yaml:"events"`
		Log     log.GlobalConfig            `yaml:"log"`
		SubLogs map[string]log.GlobalConfig `yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config paths are not empty, it will
// read from the files and override the default configs. By default, it will apply all validation functions. To
// bypass validation, use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// ProgramKey returns the parsed program ID
func (c Chain) ProgramKey() (solana.PublicKey, error) {
	return parseKey("programID", c.ProgramID)
}

// AdminKey returns the parsed admin key
func (c Chain) AdminKey() (solana.PublicKey, error) {
	return parseKey("admin", c.Admin)
}

// MemoProgramKey returns the parsed memo program ID
func (c Chain) MemoProgramKey() (solana.PublicKey, error) {
	return parseKey("memoProgramID", c.MemoProgramID)
}

func parseKey(name, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, errors.Wrapf(ErrInvalidCfg, "%s %q: %v", name, value, err)
	}
	return key, nil
}

// ValidateChain validates the program identity keys
func ValidateChain(cfg Config) error {
	for _, parse := range []func() (solana.PublicKey, error){
		cfg.Chain.ProgramKey,
		cfg.Chain.AdminKey,
		cfg.Chain.MemoProgramKey,
	} {
		if _, err := parse(); err != nil {
			return err
		}
	}
	if cfg.Chain.StatsInterval < 0 {
		return errors.Wrap(ErrInvalidCfg, "stats interval cannot be negative")
	}
	return nil
}

// ValidateLedger validates the capacities fit in an account
func ValidateLedger(cfg Config) error {
	l := cfg.Ledger
	if l.ShardCapacity == 0 || l.RingCapacity == 0 || l.LeaderboardCapacity == 0 {
		return errors.Wrapf(ErrInvalidCfg, "ledger capacities must be positive: %+v", l)
	}
	for name, size := range map[string]int{
		"shard":       state.ShardSpace(l.ShardCapacity),
		"ring":        state.RingBufferSpace(l.RingCapacity),
		"leaderboard": state.LeaderboardSpace(l.LeaderboardCapacity),
	} {
		if size > MaxAccountSize {
			return errors.Wrapf(ErrInvalidCfg, "%s account of %d bytes is above %d", name, size, MaxAccountSize)
		}
	}
	return nil
}

// ValidateMint validates the tier schedule
func ValidateMint(cfg Config) error {
	return cfg.Mint.Validate()
}

// ValidateDB validates the db config
func ValidateDB(cfg Config) error {
	switch cfg.DB.DBType {
	case db.DBBolt, db.DBPebble:
		if cfg.DB.DbPath == "" {
			return errors.Wrap(ErrInvalidCfg, "db path is empty")
		}
	case db.DBMemory:
	default:
		return errors.Wrapf(ErrInvalidCfg, "unknown db type %q", cfg.DB.DBType)
	}
	return nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
