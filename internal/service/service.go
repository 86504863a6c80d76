// Package service runs the presence engine: one cycle classifies every
// configured person, mirrors their readings as derived entities, removes
// stale entities, accumulates work time and rolls the day over.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/metrics"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/presence"
)

// Config is everything the engine needs besides its collaborators.
type Config struct {
	Interval  time.Duration
	Taxonomy  presence.Taxonomy
	ManagedBy string
	Location  *time.Location
}

// ConfigSource is the read side of the configuration store.
type ConfigSource interface {
	People() ([]domain.Person, error)
	Groups() ([]string, error)
}

// CounterStore persists the accumulator between restarts.
type CounterStore interface {
	Load() (domain.WorkCounters, bool, error)
	Save(domain.WorkCounters) error
}

// Ledger records per-day worked minutes outside the status file.
type Ledger interface {
	AddMinutes(ctx context.Context, date, name string, minutes float64) error
}

// Mirror receives a copy of every derived entity write.
type Mirror interface {
	Publish(entityID, state string, attrs hass.Attributes) error
}

type Option func(*Engine)

func WithLedger(l Ledger) Option { return func(e *Engine) { e.ledger = l } }

func WithMirror(m Mirror) Option { return func(e *Engine) { e.mirror = m } }

func WithArchive(a Archiver) Option { return func(e *Engine) { e.archive = a } }

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	cfg      Config
	client   hass.StateClient
	config   ConfigSource
	counters CounterStore
	acc      *Accumulator
	recon    *Reconciler
	reports  *ReportGenerator
	ledger   Ledger
	mirror   Mirror
	archive  Archiver
	now      func() time.Time

	// last known projection per raw sensor, used while a sensor is offline
	projections map[string]presence.Projection

	mu         sync.RWMutex
	lastStatus map[string]presence.Status
	lastCycle  time.Time
}

// New builds an engine and resumes the counters from store. A stale
// counter date is kept so that the first cycle reports the missed day.
func New(cfg Config, client hass.StateClient, config ConfigSource, counters CounterStore, history HistoryWriter, opts ...Option) (*Engine, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ManagedBy == "" {
		cfg.ManagedBy = "employee_manager"
	}
	e := &Engine{
		cfg:         cfg,
		client:      client,
		config:      config,
		counters:    counters,
		recon:       NewReconciler(client, cfg.ManagedBy),
		now:         time.Now,
		projections: map[string]presence.Projection{},
		lastStatus:  map[string]presence.Status{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reports = NewReportGenerator(history, e.archive)

	wc, ok, err := counters.Load()
	if err != nil {
		log.Warn().Err(err).Msg("counters unreadable, starting from zero")
	}
	if !ok {
		wc = domain.WorkCounters{Date: e.today(), Counters: map[string]float64{}}
	}
	e.acc = NewAccumulator(cfg.Interval, wc)
	return e, nil
}

func (e *Engine) today() string {
	return e.now().In(e.cfg.Location).Format("2006-01-02")
}

// groupStats collects the per-group aggregates of one cycle.
type groupStats struct {
	active int
	power  []aggregator.Point
	temps  []aggregator.Point
}

// RunCycle performs one full pass. Per-item failures are collected and
// returned together after the pass completes; configuration read errors
// abandon the cycle.
func (e *Engine) RunCycle(ctx context.Context) error {
	start := e.now()
	logger := log.With().Str("cycle", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	people, err := e.config.People()
	if err != nil {
		return fmt.Errorf("failed to load people: %w", err)
	}
	groups, err := e.config.Groups()
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	people = effectivePeople(people, groups)

	var errs []error
	if roll, ok := e.acc.RollIfNewDay(e.today()); ok {
		logger.Info().Str("date", roll.Date).Msg("date changed, closing the day")
		if _, err := e.reports.Generate(ctx, roll.Date, roll.Counters, people); err != nil {
			logger.Error().Err(err).Msg("daily report lost")
		}
	}
	today := e.acc.Snapshot().Date

	assignments := make([]Assignment, 0, len(people))
	stats := map[string]*groupStats{}
	statuses := make(map[string]presence.Status, len(people))
	working := 0
	for _, p := range people {
		gs := stats[p.GroupName()]
		if gs == nil {
			gs = &groupStats{}
			stats[p.GroupName()] = gs
		}
		a, status, err := e.processPerson(ctx, p, gs, today)
		if err != nil {
			errs = append(errs, err)
		}
		assignments = append(assignments, a)
		statuses[p.Name] = status
		if status.Counted() {
			working++
		}
	}

	for name, gs := range stats {
		if name == domain.DefaultGroup {
			continue
		}
		if err := e.writeGroup(ctx, name, gs); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := e.recon.Reconcile(ctx, assignments); err != nil {
		logger.Warn().Err(err).Msg("reconcile skipped")
		errs = append(errs, err)
	}

	if err := e.counters.Save(e.acc.Snapshot()); err != nil {
		errs = append(errs, err)
	}

	metrics.PeopleWorking.Set(float64(working))
	e.mu.Lock()
	e.lastStatus = statuses
	e.lastCycle = start
	e.mu.Unlock()
	return errors.Join(errs...)
}

// processPerson fetches, classifies and writes one person. Projection
// writes precede the status and time writes.
func (e *Engine) processPerson(ctx context.Context, p domain.Person, gs *groupStats, today string) (Assignment, presence.Status, error) {
	logger := zerolog.Ctx(ctx)
	safe := p.SafeName()
	group := p.GroupName()
	a := Assignment{SafeName: safe, Group: group, Sensors: p.Sensors}

	var errs []error
	var readings []domain.RawReading
	for _, id := range p.Sensors {
		r, err := e.reading(ctx, id)
		if err != nil {
			if errors.Is(err, hass.ErrNotFound) {
				metrics.ReadingsSkipped.WithLabelValues("not_found").Inc()
			} else {
				metrics.ReadingsSkipped.WithLabelValues("fetch_error").Inc()
				logger.Debug().Err(err).Str("sensor", id).Msg("reading unavailable this cycle")
			}
			if proj, ok := e.projections[id]; ok {
				if proj.Recognized() {
					a.Suffixes = append(a.Suffixes, proj.Suffix)
				}
			} else {
				a.Unresolved = true
			}
			continue
		}

		proj := presence.Project(r.Unit, r.DeviceClass)
		e.projections[id] = proj
		if proj.Recognized() {
			a.Suffixes = append(a.Suffixes, proj.Suffix)
		}
		if !presence.Usable(r) {
			metrics.ReadingsSkipped.WithLabelValues("unavailable").Inc()
			continue
		}
		readings = append(readings, r)
		collect(gs, r)

		if proj.Recognized() {
			attrs := e.attrs(p.Name+" "+proj.Suffix, proj.Icon, group, proj.Unit)
			if err := e.write(ctx, PersonEntityID(safe, proj.Suffix), r.Value, attrs); err != nil {
				errs = append(errs, err)
			}
		}
	}

	status := presence.Classify(readings, p.ThresholdWatts()).Status(e.cfg.Taxonomy)
	minutes := e.acc.Tick(p.Name, status.Counted())
	if status.Counted() {
		gs.active++
		if e.ledger != nil {
			if err := e.ledger.AddMinutes(ctx, today, p.Name, e.cfg.Interval.Seconds()/60); err != nil {
				logger.Warn().Err(err).Str("person", p.Name).Msg("ledger update failed")
			}
		}
	}

	if err := e.write(ctx, PersonEntityID(safe, suffixStatus), string(status),
		e.attrs(p.Name+" - Status", status.Icon(), group, "")); err != nil {
		errs = append(errs, err)
	}
	if err := e.write(ctx, PersonEntityID(safe, suffixWorkMinutes), formatFloat(round1(minutes)),
		e.attrs(p.Name+" - Time", "mdi:clock", group, "min")); err != nil {
		errs = append(errs, err)
	}
	return a, status, errors.Join(errs...)
}

func (e *Engine) reading(ctx context.Context, id string) (domain.RawReading, error) {
	ent, err := e.client.GetState(ctx, id)
	if err != nil {
		return domain.RawReading{}, err
	}
	return domain.RawReading{
		EntityID:    id,
		Value:       ent.State,
		Unit:        ent.Attributes.String("unit_of_measurement"),
		DeviceClass: ent.Attributes.String("device_class"),
	}, nil
}

func collect(gs *groupStats, r domain.RawReading) {
	if w, ok := presence.Watts(r); ok {
		gs.power = append(gs.power, aggregator.Point{Value: w})
		return
	}
	if r.Unit == "°C" {
		if v, err := strconv.ParseFloat(r.Value, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
			gs.temps = append(gs.temps, aggregator.Point{Value: v})
		}
	}
}

func (e *Engine) writeGroup(ctx context.Context, group string, gs *groupStats) error {
	occID, powID, tempID := GroupEntityIDs(group)
	var errs []error

	occupied := "off"
	if gs.active > 0 {
		occupied = "on"
	}
	if err := e.write(ctx, occID, occupied, e.attrs("Room "+group, "mdi:account-group", group, "")); err != nil {
		errs = append(errs, err)
	}
	if len(gs.power) > 0 {
		if total := aggregator.Sum(gs.power); total > 0 {
			if err := e.write(ctx, powID, formatFloat(round1(total)), e.attrs(group+" - Power", "mdi:lightning-bolt", group, "W")); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(gs.temps) > 0 {
		avg := aggregator.Average(gs.temps)
		if err := e.write(ctx, tempID, formatFloat(round1(avg)), e.attrs(group+" - Temperature", "mdi:thermometer", group, "°C")); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) attrs(friendly, icon, group, unit string) hass.Attributes {
	a := hass.Attributes{
		"friendly_name": friendly,
		"icon":          icon,
		"group":         group,
		"managed_by":    e.cfg.ManagedBy,
	}
	if unit != "" {
		a["unit_of_measurement"] = unit
	}
	return a
}

func (e *Engine) write(ctx context.Context, id, state string, attrs hass.Attributes) error {
	if err := e.client.SetState(ctx, id, state, attrs); err != nil {
		metrics.EntityWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write %s: %w", id, err)
	}
	metrics.EntityWrites.WithLabelValues("ok").Inc()
	if e.mirror != nil {
		if err := e.mirror.Publish(id, state, attrs); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("entity", id).Msg("mirror publish failed")
		}
	}
	return nil
}

// Status is a point-in-time view for the HTTP status endpoint.
type Status struct {
	Date      string                     `json:"date"`
	Counters  map[string]float64         `json:"counters"`
	Statuses  map[string]presence.Status `json:"statuses"`
	LastCycle time.Time                  `json:"last_cycle"`
}

func (e *Engine) Status() Status {
	wc := e.acc.Snapshot()
	e.mu.RLock()
	defer e.mu.RUnlock()
	statuses := make(map[string]presence.Status, len(e.lastStatus))
	for k, v := range e.lastStatus {
		statuses[k] = v
	}
	return Status{Date: wc.Date, Counters: wc.Counters, Statuses: statuses, LastCycle: e.lastCycle}
}

// effectivePeople drops unnamed entries and moves people whose group no
// longer exists to the default group.
func effectivePeople(people []domain.Person, groups []string) []domain.Person {
	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g] = true
	}
	out := make([]domain.Person, 0, len(people))
	for _, p := range people {
		if p.Name == "" {
			continue
		}
		if !known[p.GroupName()] {
			p.Group = domain.DefaultGroup
		}
		out = append(out, p)
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
