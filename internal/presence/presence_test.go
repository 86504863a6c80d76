package presence

import (
	"strconv"
	"testing"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

func power(value, unit string) domain.RawReading {
	return domain.RawReading{EntityID: "sensor.plug_power", Value: value, Unit: unit, DeviceClass: "power"}
}

func TestClassifyPower(t *testing.T) {
	tests := []struct {
		name      string
		readings  []domain.RawReading
		threshold float64
		want      Verdict
	}{
		{"above threshold", []domain.RawReading{power("25", "W")}, 20, Verdict{ByPower: true}},
		{"equal is not above", []domain.RawReading{power("20", "W")}, 20, Verdict{}},
		{"below threshold", []domain.RawReading{power("3.5", "W")}, 20, Verdict{}},
		{"kW normalized", []domain.RawReading{power("0.025", "kW")}, 20, Verdict{ByPower: true}},
		{"unavailable skipped", []domain.RawReading{power("unavailable", "W")}, 20, Verdict{}},
		{"unknown skipped", []domain.RawReading{power("unknown", "W")}, 20, Verdict{}},
		{"malformed ignored", []domain.RawReading{power("n/a", "W"), power("30", "W")}, 20, Verdict{ByPower: true}},
		{"infinite ignored", []domain.RawReading{power("inf", "W")}, 20, Verdict{}},
		{"infinity ignored", []domain.RawReading{power("-Infinity", "kW"), power("+Inf", "W")}, 20, Verdict{}},
		{"NaN ignored", []domain.RawReading{power("NaN", "W"), power("21", "W")}, 20, Verdict{ByPower: true}},
		{"non power unit", []domain.RawReading{{EntityID: "sensor.t", Value: "99", Unit: "°C"}}, 20, Verdict{}},
		{"no readings", nil, 20, Verdict{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.readings, tt.threshold); got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWattsRejectsNonFinite(t *testing.T) {
	for _, v := range []string{"inf", "Infinity", "-inf", "NaN", "nan"} {
		if w, ok := Watts(power(v, "W")); ok {
			t.Errorf("Watts(%q) = %v, ok", v, w)
		}
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func TestClassifyKilowattEquivalence(t *testing.T) {
	values := []float64{0, 0.001, 0.0199, 0.02, 0.0201, 0.5, 3.2}
	thresholds := []float64{0, 19.9, 20, 20.1, 150}
	for _, kw := range values {
		for _, th := range thresholds {
			k := Classify([]domain.RawReading{power(formatFloat(kw), "kW")}, th)
			w := Classify([]domain.RawReading{power(formatFloat(kw*1000), "W")}, th)
			if k != w {
				t.Errorf("%v kW vs %v W at threshold %v: %+v != %+v", kw, kw*1000, th, k, w)
			}
		}
	}
}

func TestClassifyMotion(t *testing.T) {
	tests := []struct {
		name    string
		reading domain.RawReading
		want    bool
	}{
		{"motion on", domain.RawReading{EntityID: "binary_sensor.desk_motion", Value: "on", DeviceClass: "motion"}, true},
		{"occupancy on", domain.RawReading{EntityID: "binary_sensor.room", Value: "on", DeviceClass: "occupancy"}, true},
		{"no class on", domain.RawReading{EntityID: "binary_sensor.pir", Value: "on"}, true},
		{"motion off", domain.RawReading{EntityID: "binary_sensor.desk_motion", Value: "off", DeviceClass: "motion"}, false},
		{"door on", domain.RawReading{EntityID: "binary_sensor.door", Value: "on", DeviceClass: "door"}, false},
		{"switch on", domain.RawReading{EntityID: "switch.lamp", Value: "on"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify([]domain.RawReading{tt.reading}, 20).ByMotion
			if got != tt.want {
				t.Errorf("ByMotion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerdictStatus(t *testing.T) {
	tests := []struct {
		v        Verdict
		taxonomy Taxonomy
		want     Status
	}{
		{Verdict{}, TwoState, StatusAbsent},
		{Verdict{ByPower: true}, TwoState, StatusWorking},
		{Verdict{ByMotion: true}, TwoState, StatusWorking},
		{Verdict{}, ThreeState, StatusAbsent},
		{Verdict{ByPower: true}, ThreeState, StatusWorking},
		{Verdict{ByMotion: true}, ThreeState, StatusIdle},
		{Verdict{ByPower: true, ByMotion: true}, ThreeState, StatusWorking},
	}
	for _, tt := range tests {
		if got := tt.v.Status(tt.taxonomy); got != tt.want {
			t.Errorf("%+v.Status(%s) = %s, want %s", tt.v, tt.taxonomy, got, tt.want)
		}
	}
	if StatusIdle.Counted() || StatusAbsent.Counted() || !StatusWorking.Counted() {
		t.Error("only Working must accrue work time")
	}
}

func TestParseTaxonomy(t *testing.T) {
	if ParseTaxonomy("three_state") != ThreeState {
		t.Error("three_state not parsed")
	}
	if ParseTaxonomy("") != TwoState || ParseTaxonomy("weird") != TwoState {
		t.Error("default must be two_state")
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		unit, class string
		kind        Kind
		suffix      string
	}{
		{"W", "power", KindPower, "moc"},
		{"kW", "", KindPower, "moc"},
		{"V", "voltage", KindVoltage, "napiecie"},
		{"A", "current", KindCurrent, "natezenie"},
		{"°C", "temperature", KindTemperature, "temperatura"},
		{"%", "humidity", KindHumidity, "wilgotnosc"},
		{"%", "", KindHumidity, "wilgotnosc"},
		{"%", "battery", KindBattery, "bateria"},
		{"hPa", "pressure", KindPressure, "cisnienie"},
		{"µg/m³", "pm25", KindPM25, "pm25"},
		{"ug/m³", "", KindPM25, "pm25"},
		{"kWh", "energy", KindUnrecognized, ""},
		{"", "", KindUnrecognized, ""},
	}
	for _, tt := range tests {
		p := Project(tt.unit, tt.class)
		if p.Kind != tt.kind || p.Suffix != tt.suffix {
			t.Errorf("Project(%q, %q) = %+v, want kind %d suffix %q", tt.unit, tt.class, p, tt.kind, tt.suffix)
		}
		if p.Recognized() && p.Unit != tt.unit {
			t.Errorf("Project(%q, %q).Unit = %q", tt.unit, tt.class, p.Unit)
		}
		if again := Project(tt.unit, tt.class); again != p {
			t.Errorf("Project(%q, %q) not deterministic", tt.unit, tt.class)
		}
	}
}

func TestSuffixesCoverTable(t *testing.T) {
	got := Suffixes()
	if len(got) != len(kinds) {
		t.Fatalf("Suffixes() has %d entries, table has %d", len(got), len(kinds))
	}
	seen := map[string]bool{}
	for _, s := range got {
		if s == "" || seen[s] {
			t.Errorf("bad or duplicate suffix %q", s)
		}
		seen[s] = true
	}
}
