package mirror

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
)

func TestTopic(t *testing.T) {
	tests := []struct {
		prefix, id, want string
	}{
		{"employee_manager", "sensor.jan_status", "employee_manager/sensor/jan_status/state"},
		{"em/", "binary_sensor.group_sala_occupancy", "em/binary_sensor/group_sala_occupancy/state"},
	}
	for _, tt := range tests {
		if got := Topic(tt.prefix, tt.id); got != tt.want {
			t.Errorf("Topic(%q, %q) = %q, want %q", tt.prefix, tt.id, got, tt.want)
		}
	}
}

func TestPublishBeforeConnect(t *testing.T) {
	m := NewMQTT("tcp://localhost:1883", "test", "em")
	if err := m.Publish("sensor.jan_status", "Working", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	payload, err := Encode("Working", hass.Attributes{
		"friendly_name": "Jan - Status",
		"managed_by":    "employee_manager",
	}, at)
	if err != nil {
		t.Fatal(err)
	}

	var got Message
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("payload %s: %v", payload, err)
	}
	if got.State != "Working" {
		t.Errorf("state = %q", got.State)
	}
	if got.Attributes.String("managed_by") != "employee_manager" || got.Attributes.String("friendly_name") != "Jan - Status" {
		t.Errorf("attributes = %v", got.Attributes)
	}
	if !got.UpdatedAt.Equal(at) || got.UpdatedAt.Location() != time.UTC {
		t.Errorf("updated_at = %v", got.UpdatedAt)
	}

	empty, err := Encode("off", nil, at)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(empty), `"attributes":{}`) {
		t.Errorf("nil attributes encoded as %s", empty)
	}
}

func TestPublishFlags(t *testing.T) {
	if !retained {
		t.Error("entity states must be published retained")
	}
	if qos != 0 {
		t.Errorf("qos = %d", qos)
	}
}
