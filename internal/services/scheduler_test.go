package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct{ runs atomic.Int32 }

func (c *countingRunner) AutoRun(context.Context) { c.runs.Add(1) }

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if !config.RunOnStart {
		t.Error("expected RunOnStart")
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, SchedulerConfig{Interval: 10 * time.Millisecond, RunOnStart: true})
	ctx := context.Background()

	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}

	deadline := time.Now().Add(time.Second)
	for runner.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runner.runs.Load() < 3 {
		t.Errorf("expected at least 3 runs, got %d", runner.runs.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler(&countingRunner{}, DefaultSchedulerConfig())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle scheduler: %v", err)
	}
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	if !g.TryAcquire("a") {
		t.Fatal("first acquire failed")
	}
	if g.TryAcquire("a") {
		t.Error("second acquire of the same id succeeded")
	}
	if !g.TryAcquire("b") {
		t.Error("other id blocked")
	}
	if got := g.InFlight(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("InFlight = %v", got)
	}
	g.Release("a")
	if !g.TryAcquire("a") {
		t.Error("acquire after release failed")
	}
}
