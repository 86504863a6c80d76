package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/store"
)

type flakyPinger struct{ fails, calls int32 }

func (p *flakyPinger) Ping(context.Context) error {
	if atomic.AddInt32(&p.calls, 1) <= p.fails {
		return errors.New("connection refused")
	}
	return nil
}

type panickingConfig struct{ calls int32 }

func (c *panickingConfig) People() ([]domain.Person, error) {
	atomic.AddInt32(&c.calls, 1)
	panic("corrupt config")
}

func (c *panickingConfig) Groups() ([]string, error) { return nil, nil }

func TestSchedulerWaitsForPlatformAndRuns(t *testing.T) {
	f := newFixture(t)
	f.person(domain.Person{Name: "Jan"})
	e := f.engine()

	pinger := &flakyPinger{fails: 2}
	s := NewScheduler(e, pinger, 10*time.Millisecond)
	s.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := f.hass.Get("sensor.jan_status"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no cycle ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v", err)
	}
	if n := atomic.LoadInt32(&pinger.calls); n < 3 {
		t.Errorf("ping calls = %d", n)
	}
}

func TestSchedulerSurvivesPanic(t *testing.T) {
	dir := t.TempDir()
	cfg := &panickingConfig{}
	e, err := New(Config{Interval: 10 * time.Second}, hass.NewMockClient(), cfg,
		store.NewCounterFile(filepath.Join(dir, "status.json")),
		store.NewHistoryFile(filepath.Join(dir, "history.json")))
	if err != nil {
		t.Fatal(err)
	}
	s := NewScheduler(e, nil, time.Second)

	s.runOnce(context.Background())
	s.runOnce(context.Background())
	if n := atomic.LoadInt32(&cfg.calls); n != 2 {
		t.Errorf("cycles = %d", n)
	}
}
