package domain

import "time"

// Normalise converts a raw observation into the canonical unit system.
//
// Units are resolved first; an unknown unit fails with *UnsupportedUnitError.
// Every semantic constraint is then checked and all violations are returned
// together as ValidationErrors. Only a fully valid observation is converted,
// so callers never see a partially populated result.
//
// Normalise is pure: it reads nothing but raw and is safe for concurrent use.
func Normalise(raw RawObservation) (CanonicalObservation, error) {
	tempUnit, err := resolveTemperatureUnit(raw.TemperatureUnit)
	if err != nil {
		return CanonicalObservation{}, err
	}
	windUnit, err := resolveWindSpeedUnit(raw.WindSpeedUnit)
	if err != nil {
		return CanonicalObservation{}, err
	}

	if errs := validate(raw, tempUnit); len(errs) > 0 {
		return CanonicalObservation{}, errs
	}

	tempC := toCelsius(raw.Temperature, tempUnit)
	if !isFinite(tempC) {
		// (f - 32) * 5 overflows for fahrenheit values near math.MaxFloat64.
		return CanonicalObservation{}, ValidationErrors{{Field: "temperature", Reason: ReasonNotFinite}}
	}
	windMS := toMetersPerSecond(raw.WindSpeed, windUnit)

	return CanonicalObservation{
		Position:         raw.Position,
		TimestampUTC:     raw.Timestamp.Time.UTC(),
		TemperatureC:     tempC,
		FeelsLikeC:       FeelsLike(tempC, windMS, raw.Humidity),
		HumidityPercent:  raw.Humidity,
		WindSpeedMS:      windMS,
		WindDirectionDeg: raw.WindDirectionDeg,
		PressureHPa:      raw.Pressure,
		WeatherCode:      raw.WeatherCode,
		Source:           raw.Source,
	}, nil
}

// validate checks every semantic constraint on raw, whose temperature is
// expressed in the resolved unit tempUnit. It returns nil when raw is valid.
func validate(raw RawObservation, tempUnit TemperatureUnit) ValidationErrors {
	var errs ValidationErrors
	fail := func(field, reason string) {
		errs = append(errs, &ValidationError{Field: field, Reason: reason})
	}

	switch {
	case !isFinite(raw.Temperature):
		fail("temperature", ReasonNotFinite)
	case belowAbsoluteZero(raw.Temperature, tempUnit):
		fail("temperature", ReasonBelowAbsoluteZero)
	}

	if raw.Humidity < 0 || raw.Humidity > 100 {
		fail("humidity", ReasonOutOfRange)
	}

	switch {
	case !isFinite(raw.WindSpeed):
		fail("wind_speed", ReasonNotFinite)
	case raw.WindSpeed < 0:
		fail("wind_speed", ReasonNegative)
	}

	if !inRange(raw.Position.Latitude, -90, 90) || !inRange(raw.Position.Longitude, -180, 180) {
		fail("position", ReasonOutOfRange)
	}

	switch {
	case raw.Timestamp.IsZero():
		fail("timestamp", ReasonMissing)
	case !raw.Timestamp.HasOffset:
		fail("timestamp", ReasonMissingOffset)
	case !inRFC3339Range(raw.Timestamp.Time.UTC()):
		fail("timestamp", ReasonOutOfRange)
	}

	if p, ok := raw.Pressure.Get(); ok && (!isFinite(p) || p <= 0) {
		fail("pressure", ReasonNonPositive)
	}

	if d, ok := raw.WindDirectionDeg.Get(); ok && !inRange(d, 0, 360) {
		fail("wind_direction_deg", ReasonOutOfRange)
	}

	if raw.Source == "" {
		fail("source", ReasonMissing)
	}

	return errs
}

// inRange is false for NaN, so non-finite coordinates fail the bounds check.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// inRFC3339Range reports whether t can be written as an RFC 3339 date-time.
func inRFC3339Range(t time.Time) bool {
	y := t.Year()
	return y >= 0 && y <= 9999
}
