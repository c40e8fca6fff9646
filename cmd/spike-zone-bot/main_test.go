package main

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spike-zone-bot/analyzer"
	"spike-zone-bot/httpapi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartHTTP_DoneAfterShutdown(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var failed atomic.Bool
	srv := &httpapi.Server{Log: discardLogger(), Analyzer: analyzer.New(nil)}

	done := startHTTP(ctx, srv, "127.0.0.1:0", discardLogger(), func() { failed.Store(true) })

	select {
	case <-done:
		t.Fatal("server stopped before cancel")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, failed.Load())
}

func TestStartHTTP_ListenFailure(t *testing.T) {
	t.Parallel()
	var failed atomic.Bool
	srv := &httpapi.Server{Log: discardLogger(), Analyzer: analyzer.New(nil)}

	done := startHTTP(context.Background(), srv, "127.0.0.1:-1", discardLogger(), func() { failed.Store(true) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("failed listen did not finish")
	}
	assert.True(t, failed.Load())
}
