// Package presence turns raw sensor readings into a per-person status and
// decides which readings are mirrored as derived entities.
package presence

import (
	"math"
	"strconv"
	"strings"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

// Status is the published value of a person's status entity.
type Status string

const (
	StatusWorking Status = "Working"
	StatusIdle    Status = "Idle"
	StatusAbsent  Status = "Absent"
)

// Icon returns the mdi icon used for the status entity.
func (s Status) Icon() string {
	switch s {
	case StatusWorking:
		return "mdi:laptop"
	case StatusIdle:
		return "mdi:account-clock"
	default:
		return "mdi:account-off"
	}
}

// Taxonomy selects how the power and motion signals fold into a Status.
type Taxonomy string

const (
	// TwoState: Working when either signal fires, Absent otherwise.
	TwoState Taxonomy = "two_state"
	// ThreeState: Working on power, Idle on motion alone, Absent otherwise.
	ThreeState Taxonomy = "three_state"
)

// ParseTaxonomy falls back to TwoState for unknown values.
func ParseTaxonomy(s string) Taxonomy {
	if Taxonomy(strings.ToLower(strings.TrimSpace(s))) == ThreeState {
		return ThreeState
	}
	return TwoState
}

// Verdict holds the two independently observed signals.
type Verdict struct {
	ByPower  bool
	ByMotion bool
}

// Status folds the verdict into the chosen taxonomy.
func (v Verdict) Status(t Taxonomy) Status {
	switch {
	case v.ByPower:
		return StatusWorking
	case v.ByMotion && t == ThreeState:
		return StatusIdle
	case v.ByMotion:
		return StatusWorking
	default:
		return StatusAbsent
	}
}

// Counted reports whether the status accrues work time.
func (s Status) Counted() bool { return s == StatusWorking }

var motionClasses = map[string]bool{
	"":          true,
	"motion":    true,
	"occupancy": true,
	"presence":  true,
	"moving":    true,
}

// Usable reports whether a reading carries a value at all. Unavailable and
// unknown readings are skipped rather than read as zero.
func Usable(r domain.RawReading) bool {
	switch strings.TrimSpace(r.Value) {
	case "", "unavailable", "unknown", "None":
		return false
	}
	return true
}

// Watts returns the reading normalized to watts, or false when the reading
// is not a numeric power value.
func Watts(r domain.RawReading) (float64, bool) {
	if r.Unit != "W" && r.Unit != "kW" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if r.Unit == "kW" {
		v *= 1000
	}
	return v, true
}

// IsMotion reports whether the reading is an active motion-class signal.
func IsMotion(r domain.RawReading) bool {
	return strings.HasPrefix(r.EntityID, "binary_sensor.") &&
		motionClasses[r.DeviceClass] &&
		r.Value == "on"
}

// Classify evaluates one person's readings against their power threshold.
// A person with no usable readings is absent.
func Classify(readings []domain.RawReading, thresholdWatts float64) Verdict {
	var v Verdict
	for _, r := range readings {
		if !Usable(r) {
			continue
		}
		if w, ok := Watts(r); ok && w > thresholdWatts {
			v.ByPower = true
		}
		if IsMotion(r) {
			v.ByMotion = true
		}
	}
	return v
}
