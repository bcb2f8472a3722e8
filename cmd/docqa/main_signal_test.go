package main

import (
	"context"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestWithSignalCancel(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			ch <- syscall.SIGTERM
		}()
	}

	ctx, stop := withSignalCancel(context.Background(), zaptest.NewLogger(t))
	defer stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected context to be cancelled on SIGTERM")
	}
}

func TestWithSignalCancelStop(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})
	signalNotify = func(chan<- os.Signal, ...os.Signal) {}

	ctx, stop := withSignalCancel(context.Background(), zaptest.NewLogger(t))
	if ctx.Err() != nil {
		t.Fatalf("expected live context before stop")
	}
	stop()
	if ctx.Err() == nil {
		t.Fatalf("expected context to be cancelled by stop")
	}
}
