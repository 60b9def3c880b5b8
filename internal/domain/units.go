package domain

import (
	"maps"
	"slices"
	"strings"
)

// TemperatureUnit identifies the scale a raw temperature is expressed in.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
	Kelvin     TemperatureUnit = "kelvin"
)

// WindSpeedUnit identifies the unit a raw wind speed is expressed in.
type WindSpeedUnit string

const (
	MetersPerSecond   WindSpeedUnit = "meters_per_second"
	KilometersPerHour WindSpeedUnit = "kilometers_per_hour"
	MilesPerHour      WindSpeedUnit = "miles_per_hour"
)

const (
	// DefaultTemperatureUnit applies when a raw observation leaves the unit empty.
	DefaultTemperatureUnit = Celsius
	// DefaultWindSpeedUnit applies when a raw observation leaves the unit empty.
	DefaultWindSpeedUnit = MetersPerSecond

	kelvinOffset = 273.15
	kmhPerMS     = 3.6
	msPerMph     = 0.44704
)

// Short forms accepted from upstream producers, including the abbreviations
// used by the first version of the request model ("ms", "kmh").
var (
	temperatureAliases = map[string]TemperatureUnit{
		"celsius":    Celsius,
		"c":          Celsius,
		"fahrenheit": Fahrenheit,
		"f":          Fahrenheit,
		"kelvin":     Kelvin,
		"k":          Kelvin,
	}
	windSpeedAliases = map[string]WindSpeedUnit{
		"meters_per_second":   MetersPerSecond,
		"ms":                  MetersPerSecond,
		"m/s":                 MetersPerSecond,
		"kilometers_per_hour": KilometersPerHour,
		"kmh":                 KilometersPerHour,
		"km/h":                KilometersPerHour,
		"miles_per_hour":      MilesPerHour,
		"mph":                 MilesPerHour,
	}
)

// TemperatureUnitNames lists every spelling ParseTemperatureUnit accepts.
func TemperatureUnitNames() []string {
	return aliasKeys(temperatureAliases)
}

// WindSpeedUnitNames lists every spelling ParseWindSpeedUnit accepts.
func WindSpeedUnitNames() []string {
	return aliasKeys(windSpeedAliases)
}

// ParseTemperatureUnit maps a case-insensitive unit name or alias to its
// canonical TemperatureUnit. An empty string yields the default unit.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultTemperatureUnit, nil
	}
	if u, ok := temperatureAliases[key]; ok {
		return u, nil
	}
	return "", &UnsupportedUnitError{Quantity: "temperature", Unit: s}
}

// ParseWindSpeedUnit maps a case-insensitive unit name or alias to its
// canonical WindSpeedUnit. An empty string yields the default unit.
func ParseWindSpeedUnit(s string) (WindSpeedUnit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultWindSpeedUnit, nil
	}
	if u, ok := windSpeedAliases[key]; ok {
		return u, nil
	}
	return "", &UnsupportedUnitError{Quantity: "wind_speed", Unit: s}
}

// resolveTemperatureUnit only accepts canonical names. Aliases are a transport
// concern; by the time a RawObservation reaches the engine they are resolved.
func resolveTemperatureUnit(u TemperatureUnit) (TemperatureUnit, error) {
	switch u {
	case "":
		return DefaultTemperatureUnit, nil
	case Celsius, Fahrenheit, Kelvin:
		return u, nil
	default:
		return "", &UnsupportedUnitError{Quantity: "temperature", Unit: string(u)}
	}
}

func resolveWindSpeedUnit(u WindSpeedUnit) (WindSpeedUnit, error) {
	switch u {
	case "":
		return DefaultWindSpeedUnit, nil
	case MetersPerSecond, KilometersPerHour, MilesPerHour:
		return u, nil
	default:
		return "", &UnsupportedUnitError{Quantity: "wind_speed", Unit: string(u)}
	}
}

// toCelsius converts v from a resolved unit. The unit must come from
// resolveTemperatureUnit.
func toCelsius(v float64, u TemperatureUnit) float64 {
	switch u {
	case Fahrenheit:
		return (v - 32) * 5 / 9
	case Kelvin:
		return v - kelvinOffset
	default:
		return v
	}
}

// toMetersPerSecond converts v from a resolved unit. The unit must come from
// resolveWindSpeedUnit.
func toMetersPerSecond(v float64, u WindSpeedUnit) float64 {
	switch u {
	case KilometersPerHour:
		return v / kmhPerMS
	case MilesPerHour:
		return v * msPerMph
	default:
		return v
	}
}

func aliasKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

// belowAbsoluteZero reports whether v, expressed in a resolved unit, is colder
// than 0 K. The bound is checked in the input unit to avoid rounding at the edge.
func belowAbsoluteZero(v float64, u TemperatureUnit) bool {
	switch u {
	case Fahrenheit:
		return v < -459.67
	case Kelvin:
		return v < 0
	default:
		return v < -kelvinOffset
	}
}
