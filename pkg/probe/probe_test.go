// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	endpoint string
	code     int
}

func testFunc(t *testing.T, h http.Handler, ts []testCase) {
	for _, tt := range ts {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.endpoint, nil))
		assert.Equal(t, tt.code, rec.Code, tt.endpoint)
	}
}

func TestBasicProbe(t *testing.T) {
	s := New(0)
	h := s.Handler()
	notReady := []testCase{
		{"/liveness", http.StatusOK},
		{"/readiness", http.StatusServiceUnavailable},
		{"/health", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
	}
	ready := []testCase{
		{"/liveness", http.StatusOK},
		{"/readiness", http.StatusOK},
		{"/health", http.StatusOK},
	}
	testFunc(t, h, notReady)
	s.Ready()
	testFunc(t, h, ready)
	s.NotReady()
	testFunc(t, h, notReady)
}

func TestReadinessCheck(t *testing.T) {
	var checkErr error
	s := New(0, WithReadinessCheck(func() error { return checkErr }))
	s.Ready()
	testFunc(t, s.Handler(), []testCase{{"/health", http.StatusOK}})

	checkErr = errors.New("not started")
	testFunc(t, s.Handler(), []testCase{
		{"/liveness", http.StatusOK},
		{"/health", http.StatusServiceUnavailable},
	})
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))
}
