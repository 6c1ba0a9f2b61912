// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package log

import (
	"log"
	"sync"

	"github.com/pkg/errors"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalConfig defines the global logger configurations.
type GlobalConfig struct {
	Zap                *zap.Config `json:"zap" yaml:"zap"`
	StderrRedirectFile *string     `json:"stderrRedirectFile" yaml:"stderrRedirectFile"`
	RedirectStdLog     bool        `json:"stdLogRedirect" yaml:"stdLogRedirect"`
	EcsIntegration     bool        `json:"ecsIntegration" yaml:"ecsIntegration"`
}

var (
	_globalCfg        GlobalConfig
	_logMu            sync.RWMutex
	_subLoggers       map[string]*zap.Logger
	_globalLoggerName = "global"
)

func init() {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.Level.SetLevel(zap.InfoLevel)
	l, err := zapCfg.Build()
	if err != nil {
		log.Println("Failed to init zap global logger, no zap log will be shown till zap is properly initialized: ", err)
		return
	}
	_logMu.Lock()
	_globalCfg.Zap = &zapCfg
	_subLoggers = make(map[string]*zap.Logger)
	_logMu.Unlock()
	zap.ReplaceGlobals(l)
}

// L wraps zap.L().
func L() *zap.Logger { return zap.L() }

// S wraps zap.S().
func S() *zap.SugaredLogger { return zap.S() }

// Logger returns logger of the given name
func Logger(name string) *zap.Logger {
	_logMu.RLock()
	logger, ok := _subLoggers[name]
	_logMu.RUnlock()
	if !ok {
		return L()
	}
	return logger
}

// InitLoggers initializes the global logger and other sub loggers.
func InitLoggers(globalCfg GlobalConfig, subCfgs map[string]GlobalConfig, opts ...zap.Option) error {
	if _, exists := subCfgs[_globalLoggerName]; exists {
		return errors.New("'" + _globalLoggerName + "' is a reserved name for global logger")
	}
	cfgs := make(map[string]GlobalConfig, len(subCfgs)+1)
	for name, cfg := range subCfgs {
		cfgs[name] = cfg
	}
	cfgs[_globalLoggerName] = globalCfg

	_logMu.Lock()
	defer _logMu.Unlock()
	for name, cfg := range cfgs {
		if _, exists := _subLoggers[name]; exists {
			return errors.Errorf("duplicate sub logger name: %s", name)
		}
		logger, err := build(cfg, opts...)
		if err != nil {
			return errors.Wrapf(err, "failed to build logger %s", name)
		}
		if name != _globalLoggerName {
			_subLoggers[name] = logger
			continue
		}
		_globalCfg = cfg
		if cfg.RedirectStdLog {
			zap.RedirectStdLog(logger)
		}
		zap.ReplaceGlobals(logger)
	}
	return nil
}

func build(cfg GlobalConfig, opts ...zap.Option) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Zap == nil {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = *cfg.Zap
	}
	if cfg.StderrRedirectFile != nil {
		zapCfg.ErrorOutputPaths = append(zapCfg.ErrorOutputPaths, *cfg.StderrRedirectFile)
	}
	if cfg.EcsIntegration {
		zapCfg.EncoderConfig = ecszap.ECSCompatibleEncoderConfig(zapCfg.EncoderConfig)
		opts = append(opts, ecszap.WrapCoreOption(), zap.AddCaller())
	}
	return zapCfg.Build(opts...)
}
