package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/metrics"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/presence"
)

const (
	suffixStatus      = "status"
	suffixWorkMinutes = "work_minutes"

	suffixGroupOccupancy   = "occupancy"
	suffixGroupPower       = "power"
	suffixGroupTemperature = "temperature"
)

// PersonEntityID is the derived entity ID for a person and suffix.
func PersonEntityID(safeName, suffix string) string {
	return "sensor." + safeName + "_" + suffix
}

// GroupEntityIDs returns the aggregate entity IDs of a group.
func GroupEntityIDs(group string) (occupancy, power, temperature string) {
	safe := "group_" + domain.SafeName(group)
	return "binary_sensor." + safe + "_" + suffixGroupOccupancy,
		"sensor." + safe + "_" + suffixGroupPower,
		"sensor." + safe + "_" + suffixGroupTemperature
}

// Assignment is what the reconciler needs to know about one person.
type Assignment struct {
	SafeName string
	Group    string
	// Suffixes of the projections of currently assigned sensors.
	Suffixes []string
	// Unresolved is set when an assigned sensor has no known projection yet;
	// all of the person's unit entities are then kept as stale.
	Unresolved bool
	// Sensors are the raw entity IDs assigned to the person.
	Sensors []string
}

// Reconciler deletes managed entities that the configuration no longer
// produces.
type Reconciler struct {
	client   hass.StateClient
	marker   string
	suffixes []string
}

func NewReconciler(client hass.StateClient, managedBy string) *Reconciler {
	suffixes := []string{suffixStatus, suffixWorkMinutes, suffixGroupOccupancy, suffixGroupPower, suffixGroupTemperature}
	suffixes = append(suffixes, presence.Suffixes()...)
	return &Reconciler{client: client, marker: managedBy, suffixes: suffixes}
}

// Expected computes the entity IDs the current assignments produce.
func (r *Reconciler) Expected(assignments []Assignment) map[string]bool {
	expected := map[string]bool{}
	groups := map[string]bool{}
	for _, a := range assignments {
		expected[PersonEntityID(a.SafeName, suffixStatus)] = true
		expected[PersonEntityID(a.SafeName, suffixWorkMinutes)] = true
		for _, s := range a.Suffixes {
			expected[PersonEntityID(a.SafeName, s)] = true
		}
		if a.Unresolved {
			for _, s := range presence.Suffixes() {
				expected[PersonEntityID(a.SafeName, s)] = true
			}
		}
		if a.Group != domain.DefaultGroup {
			groups[a.Group] = true
		}
	}
	for g := range groups {
		occ, pow, temp := GroupEntityIDs(g)
		expected[occ] = true
		expected[pow] = true
		expected[temp] = true
	}
	return expected
}

// Managed reports whether the engine owns the entity.
func (r *Reconciler) Managed(e hass.Entity) bool {
	if !strings.HasPrefix(e.EntityID, "sensor.") && !strings.HasPrefix(e.EntityID, "binary_sensor.") {
		return false
	}
	if e.Attributes.String("managed_by") != r.marker {
		return false
	}
	for _, s := range r.suffixes {
		if strings.HasSuffix(e.EntityID, "_"+s) {
			return true
		}
	}
	return false
}

// Reconcile deletes every managed entity missing from expected. Assigned raw
// sensors are never touched. A failed delete is logged and left for the
// next cycle.
func (r *Reconciler) Reconcile(ctx context.Context, assignments []Assignment) (int, error) {
	expected := r.Expected(assignments)
	raw := map[string]bool{}
	for _, a := range assignments {
		for _, id := range a.Sensors {
			raw[id] = true
		}
	}

	entities, err := r.client.ListStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list states: %w", err)
	}

	deleted := 0
	for _, e := range entities {
		if expected[e.EntityID] || raw[e.EntityID] || !r.Managed(e) {
			continue
		}
		if err := r.client.DeleteState(ctx, e.EntityID); err != nil {
			metrics.EntityDeletes.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("entity", e.EntityID).Msg("stale entity delete failed, retrying next cycle")
			continue
		}
		metrics.EntityDeletes.WithLabelValues("ok").Inc()
		log.Info().Str("entity", e.EntityID).Msg("removed stale entity")
		deleted++
	}
	return deleted, nil
}
