package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/metrics"
)

// HistoryWriter stores finished reports.
type HistoryWriter interface {
	Prepend(entry domain.HistoryEntry) error
}

// Archiver keeps an off-box copy of each daily report.
type Archiver interface {
	ArchiveReport(ctx context.Context, date string, entry domain.HistoryEntry) error
}

// ReportGenerator snapshots a finished day into the history log.
type ReportGenerator struct {
	history HistoryWriter
	archive Archiver
}

func NewReportGenerator(history HistoryWriter, archive Archiver) *ReportGenerator {
	return &ReportGenerator{history: history, archive: archive}
}

// Build assembles the report for date. people must already carry their
// effective group. Counters of people no longer configured are reported
// under the default group so the report holds every minute of the day.
func Build(date string, counters map[string]float64, people []domain.Person) domain.HistoryEntry {
	entries := make([]domain.ReportEntry, 0, len(people))
	seen := map[string]bool{}
	for _, p := range people {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		entries = append(entries, domain.ReportEntry{
			Name:     p.Name,
			Group:    p.GroupName(),
			WorkTime: round1(counters[p.Name]),
		})
	}
	for name, minutes := range counters {
		if !seen[name] {
			entries = append(entries, domain.ReportEntry{Name: name, Group: domain.DefaultGroup, WorkTime: round1(minutes)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Group != entries[j].Group {
			return entries[i].Group < entries[j].Group
		}
		return entries[i].Name < entries[j].Name
	})

	byGroup := map[string][]aggregator.Point{}
	var order []string
	for _, e := range entries {
		if _, ok := byGroup[e.Group]; !ok {
			order = append(order, e.Group)
		}
		byGroup[e.Group] = append(byGroup[e.Group], aggregator.Point{Value: e.WorkTime})
	}
	summary := make([]domain.GroupSummary, 0, len(order))
	for _, g := range order {
		points := byGroup[g]
		summary = append(summary, domain.GroupSummary{
			Group:        g,
			TotalHours:   round1(aggregator.Sum(points) / 60),
			AvgPerPerson: round1(aggregator.Average(points)),
		})
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Group < summary[j].Group })

	return domain.HistoryEntry{
		ID:           newReportID(),
		Date:         date + " (Daily Report)",
		Entries:      entries,
		GroupSummary: summary,
	}
}

// Generate builds and stores the report for a finished day. The archive
// copy is best effort.
func (g *ReportGenerator) Generate(ctx context.Context, date string, counters map[string]float64, people []domain.Person) (domain.HistoryEntry, error) {
	entry := Build(date, counters, people)
	if err := g.history.Prepend(entry); err != nil {
		metrics.ReportsTotal.WithLabelValues("error").Inc()
		return entry, fmt.Errorf("failed to store report for %s: %w", date, err)
	}
	metrics.ReportsTotal.WithLabelValues("ok").Inc()
	log.Info().Str("date", date).Int("people", len(entry.Entries)).Msg("daily report saved")

	if g.archive != nil {
		if err := g.archive.ArchiveReport(ctx, date, entry); err != nil {
			log.Warn().Err(err).Str("date", date).Msg("report archive failed")
		}
	}
	return entry, nil
}

// newReportID returns a time-ordered UUID so IDs stay unique even when
// several reports are produced within one second.
func newReportID() domain.ReportID {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.ReportID(uuid.NewString())
	}
	return domain.ReportID(id.String())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
