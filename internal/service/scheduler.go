package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/metrics"
)

// Pinger checks that Home Assistant answers at all.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scheduler drives the engine on a fixed interval. It implements
// suture.Service.
type Scheduler struct {
	engine     *Engine
	pinger     Pinger
	interval   time.Duration
	retryDelay time.Duration
}

func NewScheduler(engine *Engine, pinger Pinger, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:     engine,
		pinger:     pinger,
		interval:   interval,
		retryDelay: 5 * time.Second,
	}
}

// Serve waits until Home Assistant is reachable, runs one cycle right away
// and then one per interval until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.waitReady(ctx); err != nil {
		return err
	}
	log.Info().Dur("interval", s.interval).Msg("presence engine started")

	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("presence engine stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) String() string { return "presence-scheduler" }

func (s *Scheduler) waitReady(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	for {
		err := s.pinger.Ping(ctx)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Dur("retry_in", s.retryDelay).Msg("home assistant not reachable")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
}

// runOnce runs a single cycle. Errors and panics are logged; the loop
// always continues with the next tick.
func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			log.Error().Str("panic", fmt.Sprint(r)).Msg("cycle panicked")
		}
		metrics.CyclesTotal.WithLabelValues(result).Inc()
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	if err := s.engine.RunCycle(ctx); err != nil {
		result = "error"
		log.Error().Err(err).Msg("cycle finished with errors")
	}
}
