package presence

// Kind is the closed set of reading types the engine mirrors as derived
// entities. KindUnrecognized readings are not mirrored.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindPower
	KindVoltage
	KindCurrent
	KindTemperature
	KindHumidity
	KindBattery
	KindPressure
	KindPM25
)

// Projection describes how one raw reading is mirrored.
type Projection struct {
	Kind   Kind
	Suffix string
	Icon   string
	Unit   string
}

// Recognized reports whether the reading should be mirrored at all.
func (p Projection) Recognized() bool { return p.Kind != KindUnrecognized }

type kindInfo struct {
	suffix string
	icon   string
}

var kinds = map[Kind]kindInfo{
	KindPower:       {"moc", "mdi:lightning-bolt"},
	KindVoltage:     {"napiecie", "mdi:sine-wave"},
	KindCurrent:     {"natezenie", "mdi:current-ac"},
	KindTemperature: {"temperatura", "mdi:thermometer"},
	KindHumidity:    {"wilgotnosc", "mdi:water-percent"},
	KindBattery:     {"bateria", "mdi:battery"},
	KindPressure:    {"cisnienie", "mdi:gauge"},
	KindPM25:        {"pm25", "mdi:blur"},
}

// Project maps a unit and device class to a projection. It is pure: the
// reconciler depends on the same inputs always producing the same suffix.
func Project(unit, deviceClass string) Projection {
	k := kindOf(unit, deviceClass)
	if k == KindUnrecognized {
		return Projection{}
	}
	info := kinds[k]
	return Projection{Kind: k, Suffix: info.suffix, Icon: info.icon, Unit: unit}
}

func kindOf(unit, deviceClass string) Kind {
	switch unit {
	case "W", "kW":
		return KindPower
	case "V":
		return KindVoltage
	case "A":
		return KindCurrent
	case "°C":
		return KindTemperature
	case "%":
		if deviceClass == "battery" {
			return KindBattery
		}
		return KindHumidity
	case "hPa":
		return KindPressure
	case "µg/m³", "μg/m³", "ug/m³":
		return KindPM25
	default:
		return KindUnrecognized
	}
}

// Suffixes lists every suffix a projection can yield, in table order.
func Suffixes() []string {
	out := make([]string, 0, len(kinds))
	for k := KindPower; k <= KindPM25; k++ {
		out = append(out, kinds[k].suffix)
	}
	return out
}
