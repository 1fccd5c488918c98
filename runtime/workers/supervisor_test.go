package workers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type funcWorker struct {
	run func(ctx context.Context) error
}

func (w funcWorker) Run(ctx context.Context) error { return w.run(ctx) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)

	var calls atomic.Int32
	worker := funcWorker{run: func(ctx context.Context) error {
		calls.Add(1)
		panic("boom")
	}}

	sup := NewSupervisor(testLogger(), 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(ctx)
		close(done)
	}()

	// Waiting for panics and restarts
	<-done
	req.GreaterOrEqual(calls.Load(), int32(2))
}

func TestSupervisor_RestartOnError(t *testing.T) {
	req := require.New(t)

	var calls atomic.Int32
	worker := funcWorker{run: func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}}

	sup := NewSupervisor(testLogger(), time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then the worker was restarted once and finished cleanly
		req.Equal(int32(2), calls.Load())
	case <-time.After(time.Second):
		req.Fail("Supervisor should have stopped after the worker recovered")
	}
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)

	var calls atomic.Int32
	worker := funcWorker{run: func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}}

	sup := NewSupervisor(testLogger(), time.Millisecond)

	// Given a channel to notify when Run() terminated
	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then the supervisor detected a clean exit and never restarted
		req.Equal(int32(1), calls.Load())
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Stop_Cancels_Workers(t *testing.T) {
	req := require.New(t)

	started := make(chan struct{})
	worker := funcWorker{run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}}

	sup := NewSupervisor(testLogger(), time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	<-started
	sup.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		req.Fail("Stop should drain every worker")
	}
}
