package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/ticktock-go/ticktock/pkg/clock"
	timerlog "github.com/ticktock-go/ticktock/pkg/log"
	"github.com/ticktock-go/ticktock/pkg/timer"
)

// withConfig replaces the flag configuration for one test.
func withConfig(t *testing.T, c Config) {
	t.Helper()
	saved := cfg
	cfg = c
	t.Cleanup(func() { cfg = saved })
}

type countingSyncer struct {
	calls atomic.Int64
	err   error
}

func (s *countingSyncer) Sync() error {
	s.calls.Inc()
	return s.err
}

func TestFlushEventsSyncsUntilDone(t *testing.T) {
	s := &countingSyncer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- flushEvents(ctx, s, time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("flushEvents() error = %v, want nil", err)
	}
	if s.calls.Load() < 3 {
		t.Errorf("Sync called %d times, want at least 3", s.calls.Load())
	}
}

func TestFlushEventsStopsOnFailure(t *testing.T) {
	boom := errors.New("disk full")
	s := &countingSyncer{err: boom}

	err := flushEvents(context.Background(), s, time.Millisecond)
	if !errors.Is(err, boom) {
		t.Errorf("flushEvents() error = %v, want %v", err, boom)
	}
}

func TestReplayFilter(t *testing.T) {
	withConfig(t, Config{ReplayTimer: "tea", ReplayCategories: "tick, Error"})

	f, err := replayFilter()
	if err != nil {
		t.Fatalf("replayFilter() error = %v", err)
	}
	if f.TimerID != "tea" {
		t.Errorf("TimerID = %q, want tea", f.TimerID)
	}
	want := []timerlog.Category{timerlog.CategoryTick, timerlog.CategoryError}
	if len(f.Categories) != 2 || f.Categories[0] != want[0] || f.Categories[1] != want[1] {
		t.Errorf("Categories = %v, want %v", f.Categories, want)
	}

	cfg.ReplayCategories = "tick,bogus"
	if _, err := replayFilter(); err == nil {
		t.Error("replayFilter() error = nil for an unknown category")
	}
}

func TestReplaySummarizesCountdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.tlog")

	logger, err := buildLogger("none", "info", path)
	if err != nil {
		t.Fatalf("buildLogger() error = %v", err)
	}

	fake := clock.NewFake(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	c, err := timer.NewCountdown(3,
		timer.WithCountdownScheduler(fake),
		timer.WithCountdownLogger(logger),
		timer.WithCountdownID("tea"),
	)
	if err != nil {
		t.Fatalf("NewCountdown() error = %v", err)
	}
	if _, err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	fake.Advance(3 * time.Second)
	c.Dispose()

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	withConfig(t, Config{Replay: path})
	var out bytes.Buffer
	if err := runReplay(&out); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"tea", "COUNTDOWN", "STOPPED", "ticks=3", "elapsed=3s", "transitions=2"} {
		if !strings.Contains(text, want) {
			t.Errorf("replay output missing %q:\n%s", want, text)
		}
	}

	cfg.ReplayTimer = "other"
	out.Reset()
	if err := runReplay(&out); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}
	if !strings.Contains(out.String(), "No matching events.") {
		t.Errorf("replay output = %q, want no matching events", out.String())
	}
}

func TestValidateConfig(t *testing.T) {
	base := Config{
		Interval:       time.Second,
		LogFormat:      "none",
		SnapshotFormat: "json",
		FlushInterval:  time.Second,
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero interval", func(c *Config) { c.Interval = 0 }, true},
		{"zero flush interval", func(c *Config) { c.FlushInterval = 0 }, true},
		{"bad replay category", func(c *Config) { c.ReplayCategories = "nope" }, true},
		{"countdown without config", func(c *Config) { c.Countdown = "tea" }, true},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.modify(&c)
			withConfig(t, c)

			err := validateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
