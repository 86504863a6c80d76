package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultGroup always exists and receives the members of deleted groups.
const DefaultGroup = "Default"

// DefaultThresholdWatts applies to people without an explicit threshold.
const DefaultThresholdWatts = 20.0

// Person is one tracked employee as stored in employees.json.
type Person struct {
	Name      string   `json:"name"`
	Group     string   `json:"group,omitempty"`
	Sensors   []string `json:"sensors"`
	Threshold *Watts   `json:"threshold,omitempty"`
}

// SafeName is the identifier fragment used in derived entity IDs.
func (p Person) SafeName() string { return SafeName(p.Name) }

// ThresholdWatts returns the configured power threshold or the default.
func (p Person) ThresholdWatts() float64 {
	if p.Threshold == nil {
		return DefaultThresholdWatts
	}
	return float64(*p.Threshold)
}

// GroupName returns the person's group, or Default when unset.
func (p Person) GroupName() string {
	g := strings.TrimSpace(p.Group)
	if g == "" {
		return DefaultGroup
	}
	return g
}

// Watts is a power threshold. The dashboard posts form values, so both
// JSON numbers and numeric strings are accepted; anything else decodes as
// the default threshold.
type Watts float64

func (w *Watts) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*w = Watts(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*w = Watts(v)
			return nil
		}
	}
	*w = DefaultThresholdWatts
	return nil
}

// SafeName lowercases a display name and replaces spaces with underscores.
func SafeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// RawReading is a sensor value fetched fresh from the platform every cycle.
type RawReading struct {
	EntityID    string
	Value       string
	Unit        string
	DeviceClass string
}

// WorkCounters is the on-disk shape of status.json.
type WorkCounters struct {
	Date     string             `json:"date"`
	Counters map[string]float64 `json:"counters"`
}

// HistoryEntry is one immutable daily report in history.json.
type HistoryEntry struct {
	ID           ReportID       `json:"id"`
	Date         string         `json:"date"`
	Entries      []ReportEntry  `json:"entries"`
	GroupSummary []GroupSummary `json:"group_summary"`
}

// ReportID identifies a HistoryEntry. Reports written by older releases
// carry a unix timestamp number, so numbers are accepted and kept in their
// decimal form.
type ReportID string

func (id *ReportID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ReportID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("report id %s: %w", b, err)
	}
	*id = ReportID(n.String())
	return nil
}

type ReportEntry struct {
	Name     string  `json:"name"`
	Group    string  `json:"group"`
	WorkTime float64 `json:"work_time"`
}

type GroupSummary struct {
	Group        string  `json:"group"`
	TotalHours   float64 `json:"total_hours"`
	AvgPerPerson float64 `json:"avg_per_person"`
}
