// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Usage:
//
//	make build
//	./bin/server -config-path=./config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/chainservice"
	"github.com/memo-labs/memo-core/config"
	"github.com/memo-labs/memo-core/pkg/log"
	"github.com/memo-labs/memo-core/pkg/probe"
)

var configPaths stringList

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func init() {
	flag.Var(&configPaths, "config-path", "Config file path, may be repeated; later files override earlier ones")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "usage: server -config-path=[string]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
}

func main() {
	cfg, err := config.New(configPaths)
	if err != nil {
		log.L().Fatal("Failed to load config.", zap.Error(err))
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		log.L().Fatal("Failed to init loggers.", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cs, err := chainservice.New(cfg)
	if err != nil {
		log.L().Fatal("Failed to create chain service.", zap.Error(err))
	}
	if err := cs.Start(ctx); err != nil {
		log.L().Fatal("Failed to start chain service.", zap.Error(err))
	}
	defer func() {
		if err := cs.Stop(context.Background()); err != nil {
			log.L().Error("Failed to stop chain service.", zap.Error(err))
		}
	}()

	if cfg.System.HTTPStatsPort > 0 {
		ps := probe.New(cfg.System.HTTPStatsPort, probe.WithReadinessCheck(func() error {
			return cs.CheckReady("chain service")
		}))
		if err := ps.Start(ctx); err != nil {
			log.L().Fatal("Failed to start probe server.", zap.Error(err))
		}
		ps.Ready()
		defer func() {
			ps.NotReady()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ps.Stop(shutdownCtx); err != nil {
				log.L().Error("Failed to stop probe server.", zap.Error(err))
			}
		}()
	}

	log.L().Info("Memo server started.", zap.String("programID", cfg.Chain.ProgramID))
	<-ctx.Done()
	log.L().Info("Shutting down.")
}
