// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/memo-labs/memo-core/pkg/log"
)

type (
	// RedisConfig is the config of the redis pub/sub emitter
	RedisConfig struct {
		Addr          string        `yaml:"addr"`
		Password      string        `yaml:"password"`
		DB            int           `yaml:"db"`
		Channel       string        `yaml:"channel"`
		Retries       uint64        `yaml:"retries"`
		RetryInterval time.Duration `yaml:"retryInterval"`
	}

	// Config is the event emission config
	Config struct {
		// Log writes events to the "events" sub logger
		Log bool `yaml:"log"`
		// Redis publishes events when Addr is set
		Redis RedisConfig `yaml:"redis"`
	}

	// Publisher is the part of the redis client the emitter uses
	Publisher interface {
		Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	}

	// RedisEmitter publishes JSON events on a redis channel
	RedisEmitter struct {
		client  *redis.Client
		pub     Publisher
		channel string
		policy  func() backoff.BackOff
	}
)

// DefaultConfig is the default event config
var DefaultConfig = Config{
	Log: true,
	Redis: RedisConfig{
		Channel:       "memo:events",
		Retries:       3,
		RetryInterval: 100 * time.Millisecond,
	},
}

// NewRedisEmitter creates an emitter on a new redis client
func NewRedisEmitter(cfg RedisConfig) *RedisEmitter {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	e := NewRedisEmitterWithPublisher(client, cfg)
	e.client = client
	return e
}

// NewRedisEmitterWithPublisher creates an emitter on pub
func NewRedisEmitterWithPublisher(pub Publisher, cfg RedisConfig) *RedisEmitter {
	return &RedisEmitter{
		pub:     pub,
		channel: cfg.Channel,
		policy: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.RetryInterval), cfg.Retries)
		},
	}
}

// Start checks the redis server is reachable
func (e *RedisEmitter) Start(ctx context.Context) error {
	if e.client == nil {
		return nil
	}
	if err := e.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "failed to reach redis")
	}
	log.L().Info("Publishing events to redis", zap.String("channel", e.channel))
	return nil
}

// Stop closes the redis client
func (e *RedisEmitter) Stop(_ context.Context) error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Emit publishes evt, retrying on failure
func (e *RedisEmitter) Emit(ctx context.Context, evt *Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}
	return backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return &backoff.PermanentError{Err: err}
		}
		return e.pub.Publish(ctx, e.channel, body).Err()
	}, e.policy())
}
