package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/presence"
)

func reset(t *testing.T) {
	t.Helper()
	viper.Reset()
	if err := Load(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(viper.Reset)
}

func writeOptions(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "options.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveEndpoint(t *testing.T) {
	long := strings.Repeat("x", 60)
	tests := []struct {
		name      string
		options   string
		haURL     string
		wantURL   string
		wantToken string
	}{
		{"supervisor", `{}`, "", supervisorURL, "sup"},
		{"short user token", `{"ha_token":"abc"}`, "", supervisorURL, "sup"},
		{"long user token", `{"ha_token":"` + long + `"}`, "", directURL, long},
		{"explicit url", `{}`, "http://ha.local:8123/api/", "http://ha.local:8123/api", "sup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t)
			viper.Set("OPTIONS_FILE", writeOptions(t, tt.options))
			viper.Set("SUPERVISOR_TOKEN", "sup")
			viper.Set("HA_URL", tt.haURL)

			ep := ResolveEndpoint()
			if ep.URL != tt.wantURL || ep.Token != tt.wantToken {
				t.Errorf("endpoint = %+v, want %s %s", ep, tt.wantURL, tt.wantToken)
			}
		})
	}
}

func TestResolveEndpointMissingOptions(t *testing.T) {
	reset(t)
	viper.Set("OPTIONS_FILE", filepath.Join(t.TempDir(), "nope.json"))
	if ep := ResolveEndpoint(); ep.URL != supervisorURL {
		t.Errorf("url = %s", ep.URL)
	}
}

func TestEngineConfig(t *testing.T) {
	reset(t)
	viper.Set("PRESENCE_TAXONOMY", "three_state")
	viper.Set("TIMEZONE", "Europe/Warsaw")

	cfg := Engine()
	if cfg.Interval != 10*time.Second {
		t.Errorf("interval = %v", cfg.Interval)
	}
	if cfg.Taxonomy != presence.ThreeState {
		t.Errorf("taxonomy = %v", cfg.Taxonomy)
	}
	if cfg.ManagedBy != "employee_manager" {
		t.Errorf("managed_by = %q", cfg.ManagedBy)
	}
	if cfg.Location.String() != "Europe/Warsaw" {
		t.Errorf("location = %v", cfg.Location)
	}

	viper.Set("TIMEZONE", "Mars/Olympus")
	if got := Engine().Location; got != time.Local {
		t.Errorf("bad zone location = %v", got)
	}
}

func TestDataPaths(t *testing.T) {
	reset(t)
	viper.Set("DATA_DIR", "/tmp/em")
	if got := HistoryPath(); got != "/tmp/em/history.json" {
		t.Errorf("history path = %s", got)
	}
}
