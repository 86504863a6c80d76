package service

import (
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

// Accumulator keeps one minute counter per person for the current date.
// Counters only grow within a date and are cleared on rollover.
type Accumulator struct {
	mu       sync.Mutex
	step     float64
	date     string
	counters map[string]float64
}

// Rollover is what RollIfNewDay hands to the report generator: the date
// that just ended and its counters before the reset.
type Rollover struct {
	Date     string
	Counters map[string]float64
}

// NewAccumulator resumes from wc. interval is the scheduler period; every
// working tick adds interval/60 minutes.
func NewAccumulator(interval time.Duration, wc domain.WorkCounters) *Accumulator {
	counters := make(map[string]float64, len(wc.Counters))
	for k, v := range wc.Counters {
		counters[k] = v
	}
	return &Accumulator{
		step:     interval.Seconds() / 60,
		date:     wc.Date,
		counters: counters,
	}
}

// Tick registers one cycle for name and returns the person's total.
func (a *Accumulator) Tick(name string, working bool) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.counters[name]; !ok {
		a.counters[name] = 0
	}
	if working {
		a.counters[name] += a.step
	}
	return a.counters[name]
}

// RollIfNewDay clears the counters when today differs from the stored
// date. The returned Rollover carries the pre-reset state.
func (a *Accumulator) RollIfNewDay(today string) (Rollover, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.date == today {
		return Rollover{}, false
	}
	prev := Rollover{Date: a.date, Counters: a.counters}
	a.date = today
	a.counters = map[string]float64{}
	return prev, true
}

// Snapshot returns a copy suitable for persisting.
func (a *Accumulator) Snapshot() domain.WorkCounters {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.counters))
	for k, v := range a.counters {
		out[k] = v
	}
	return domain.WorkCounters{Date: a.date, Counters: out}
}
