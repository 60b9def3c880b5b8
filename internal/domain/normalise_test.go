package domain

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = "station-42"

// validRaw returns a raw observation that passes every check.
func validRaw() RawObservation {
	return RawObservation{
		Temperature:     20.0,
		TemperatureUnit: Celsius,
		WindSpeed:       3.0,
		WindSpeedUnit:   MetersPerSecond,
		Humidity:        55,
		Position: Position{
			Latitude:    1.3521,
			Longitude:   103.8198,
			City:        Some("Singapore"),
			CountryCode: Some("SG"),
		},
		Timestamp: At(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)),
		Source:    testSource,
	}
}

func requireValidationErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	require.Error(t, err)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)
	return verrs
}

func TestNormalise_TemperatureConversion(t *testing.T) {
	cases := []struct {
		name  string
		value float64
		unit  TemperatureUnit
		want  float64
	}{
		{name: "celsius identity", value: 20.0, unit: Celsius, want: 20.0},
		{name: "empty unit defaults to celsius", value: 20.0, unit: "", want: 20.0},
		{name: "freezing fahrenheit", value: 32.0, unit: Fahrenheit, want: 0.0},
		{name: "boiling fahrenheit", value: 212.0, unit: Fahrenheit, want: 100.0},
		{name: "freezing kelvin", value: 273.15, unit: Kelvin, want: 0.0},
		{name: "absolute zero kelvin", value: 0, unit: Kelvin, want: -273.15},
		{name: "negative celsius", value: -40, unit: Celsius, want: -40},
		{name: "minus forty fahrenheit", value: -40, unit: Fahrenheit, want: -40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			raw.Temperature = tc.value
			raw.TemperatureUnit = tc.unit

			got, err := Normalise(raw)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got.TemperatureC, 1e-9)
		})
	}

	t.Run("celsius passthrough is bit-identical", func(t *testing.T) {
		raw := validRaw()
		raw.Temperature = 21.337
		got, err := Normalise(raw)
		require.NoError(t, err)
		assert.Equal(t, 21.337, got.TemperatureC)
	})
}

func TestNormalise_WindSpeedConversion(t *testing.T) {
	t.Run("meters per second identity", func(t *testing.T) {
		raw := validRaw()
		raw.WindSpeed = 7.25
		got, err := Normalise(raw)
		require.NoError(t, err)
		assert.Equal(t, 7.25, got.WindSpeedMS)
	})

	t.Run("kilometers per hour is exact", func(t *testing.T) {
		raw := validRaw()
		raw.WindSpeed = 36.0
		raw.WindSpeedUnit = KilometersPerHour
		got, err := Normalise(raw)
		require.NoError(t, err)
		assert.Equal(t, 10.0, got.WindSpeedMS)
	})

	t.Run("miles per hour", func(t *testing.T) {
		raw := validRaw()
		raw.WindSpeed = 10.0
		raw.WindSpeedUnit = MilesPerHour
		got, err := Normalise(raw)
		require.NoError(t, err)
		assert.InDelta(t, 4.4704, got.WindSpeedMS, 1e-12)
	})

	t.Run("zero wind is valid", func(t *testing.T) {
		raw := validRaw()
		raw.WindSpeed = 0
		got, err := Normalise(raw)
		require.NoError(t, err)
		assert.Zero(t, got.WindSpeedMS)
	})
}

func TestNormalise_TimestampToUTC(t *testing.T) {
	plus0530 := time.FixedZone("IST", 5*3600+30*60)
	local := time.Date(2025, 3, 14, 15, 0, 0, 0, plus0530)

	raw := validRaw()
	raw.Timestamp = At(local)

	got, err := Normalise(raw)
	require.NoError(t, err)

	assert.True(t, got.TimestampUTC.Equal(local), "instant must be unchanged")
	assert.Equal(t, time.UTC, got.TimestampUTC.Location())
	_, offset := got.TimestampUTC.Zone()
	assert.Zero(t, offset)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), got.TimestampUTC)
}

func TestNormalise_ZeroInstantWithOffsetIsPresent(t *testing.T) {
	ts, err := ParseTimestamp("0001-01-01T05:00:00+05:00")
	require.NoError(t, err)

	raw := validRaw()
	raw.Timestamp = ts

	got, err := Normalise(raw)
	require.NoError(t, err)
	assert.True(t, got.TimestampUTC.IsZero())

	_, err = json.Marshal(got)
	assert.NoError(t, err)
}

func TestNormalise_Passthrough(t *testing.T) {
	raw := validRaw()
	raw.Pressure = Some(1013.25)
	raw.WindDirectionDeg = Some(270.0)
	raw.WeatherCode = Some("RA-")

	got, err := Normalise(raw)
	require.NoError(t, err)

	assert.Equal(t, Some(1013.25), got.PressureHPa)
	assert.Equal(t, Some(270.0), got.WindDirectionDeg)
	assert.Equal(t, Some("RA-"), got.WeatherCode)
	assert.Equal(t, testSource, got.Source)
	assert.Equal(t, 55, got.HumidityPercent)
	assert.Equal(t, raw.Position, got.Position)
}

func TestNormalise_AbsentOptionalsStayAbsent(t *testing.T) {
	got, err := Normalise(validRaw())
	require.NoError(t, err)

	assert.False(t, got.PressureHPa.IsPresent())
	assert.False(t, got.WindDirectionDeg.IsPresent())
	assert.False(t, got.WeatherCode.IsPresent())
}

func TestNormalise_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RawObservation)
		field  string
		reason string
	}{
		{"humidity above range", func(r *RawObservation) { r.Humidity = 150 }, "humidity", ReasonOutOfRange},
		{"humidity below range", func(r *RawObservation) { r.Humidity = -1 }, "humidity", ReasonOutOfRange},
		{"negative wind", func(r *RawObservation) { r.WindSpeed = -5 }, "wind_speed", ReasonNegative},
		{"NaN wind", func(r *RawObservation) { r.WindSpeed = math.NaN() }, "wind_speed", ReasonNotFinite},
		{"latitude too high", func(r *RawObservation) { r.Position.Latitude = 90.5 }, "position", ReasonOutOfRange},
		{"longitude too low", func(r *RawObservation) { r.Position.Longitude = -180.01 }, "position", ReasonOutOfRange},
		{"NaN latitude", func(r *RawObservation) { r.Position.Latitude = math.NaN() }, "position", ReasonOutOfRange},
		{"missing timestamp", func(r *RawObservation) { r.Timestamp = Timestamp{} }, "timestamp", ReasonMissing},
		{"naive timestamp", func(r *RawObservation) {
			r.Timestamp = Timestamp{Time: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
		}, "timestamp", ReasonMissingOffset},
		{"timestamp past year 9999 in UTC", func(r *RawObservation) {
			r.Timestamp = At(time.Date(9999, 12, 31, 23, 30, 0, 0, time.FixedZone("", -3600)))
		}, "timestamp", ReasonOutOfRange},
		{"timestamp before year 0 in UTC", func(r *RawObservation) {
			r.Timestamp = At(time.Date(0, 1, 1, 0, 30, 0, 0, time.FixedZone("", 3600)))
		}, "timestamp", ReasonOutOfRange},
		{"zero pressure", func(r *RawObservation) { r.Pressure = Some(0.0) }, "pressure", ReasonNonPositive},
		{"negative pressure", func(r *RawObservation) { r.Pressure = Some(-3.0) }, "pressure", ReasonNonPositive},
		{"infinite pressure", func(r *RawObservation) { r.Pressure = Some(math.Inf(1)) }, "pressure", ReasonNonPositive},
		{"wind direction over 360", func(r *RawObservation) { r.WindDirectionDeg = Some(361.0) }, "wind_direction_deg", ReasonOutOfRange},
		{"missing source", func(r *RawObservation) { r.Source = "" }, "source", ReasonMissing},
		{"NaN temperature", func(r *RawObservation) { r.Temperature = math.NaN() }, "temperature", ReasonNotFinite},
		{"below absolute zero kelvin", func(r *RawObservation) {
			r.Temperature = -0.01
			r.TemperatureUnit = Kelvin
		}, "temperature", ReasonBelowAbsoluteZero},
		{"below absolute zero celsius", func(r *RawObservation) { r.Temperature = -300 }, "temperature", ReasonBelowAbsoluteZero},
		{"fahrenheit overflow", func(r *RawObservation) {
			r.Temperature = math.MaxFloat64
			r.TemperatureUnit = Fahrenheit
		}, "temperature", ReasonNotFinite},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			tc.mutate(&raw)

			got, err := Normalise(raw)

			verrs := requireValidationErrors(t, err)
			assert.True(t, verrs.Has(tc.field, tc.reason), "got %v", verrs)
			assert.ErrorIs(t, err, ErrInvalidObservation)
			assert.Equal(t, CanonicalObservation{}, got, "no partial output on failure")

			var single *ValidationError
			require.ErrorAs(t, err, &single)
			assert.Equal(t, tc.field, single.Field)
		})
	}
}

func TestNormalise_HumidityIsNeverClamped(t *testing.T) {
	raw := validRaw()
	raw.Humidity = 150

	got, err := Normalise(raw)

	verrs := requireValidationErrors(t, err)
	assert.Equal(t, []string{"humidity"}, verrs.Fields())
	assert.NotEqual(t, 100, got.HumidityPercent)
}

func TestNormalise_CollectsAllErrors(t *testing.T) {
	raw := validRaw()
	raw.Humidity = 101
	raw.WindSpeed = -1
	raw.Pressure = Some(0.0)
	raw.Timestamp = Timestamp{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	_, err := Normalise(raw)

	verrs := requireValidationErrors(t, err)
	assert.Equal(t, []string{"humidity", "wind_speed", "timestamp", "pressure"}, verrs.Fields())
	assert.Contains(t, err.Error(), "humidity: out_of_range")
	assert.Contains(t, err.Error(), "timestamp: missing_offset")
}

func TestNormalise_BoundaryValuesAccepted(t *testing.T) {
	raw := validRaw()
	raw.Humidity = 100
	raw.Position.Latitude = -90
	raw.Position.Longitude = 180
	raw.WindDirectionDeg = Some(360.0)

	_, err := Normalise(raw)
	require.NoError(t, err)

	raw.Humidity = 0
	raw.WindDirectionDeg = Some(0.0)
	_, err = Normalise(raw)
	require.NoError(t, err)
}

func TestNormalise_UnsupportedUnit(t *testing.T) {
	t.Run("temperature", func(t *testing.T) {
		raw := validRaw()
		raw.TemperatureUnit = "rankine"

		got, err := Normalise(raw)

		var uerr *UnsupportedUnitError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "temperature", uerr.Quantity)
		assert.Equal(t, "rankine", uerr.Unit)
		assert.ErrorIs(t, err, ErrInvalidObservation)
		assert.Equal(t, CanonicalObservation{}, got)
	})

	t.Run("wind speed", func(t *testing.T) {
		raw := validRaw()
		raw.WindSpeedUnit = "knots"

		_, err := Normalise(raw)

		var uerr *UnsupportedUnitError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "wind_speed", uerr.Quantity)
	})

	t.Run("aliases are not resolved by the engine", func(t *testing.T) {
		raw := validRaw()
		raw.WindSpeedUnit = "kmh"

		_, err := Normalise(raw)

		var uerr *UnsupportedUnitError
		assert.ErrorAs(t, err, &uerr)
	})
}

func TestNormalise_OutputIsFinite(t *testing.T) {
	raw := validRaw()
	raw.Temperature = 1e300
	raw.WindSpeed = 1e300
	raw.WindSpeedUnit = MilesPerHour

	got, err := Normalise(raw)
	require.NoError(t, err)

	for name, v := range map[string]float64{
		"temperature_c": got.TemperatureC,
		"wind_speed_ms": got.WindSpeedMS,
	} {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), name)
	}
	if fl, ok := got.FeelsLikeC.Get(); ok {
		assert.False(t, math.IsInf(fl, 0) || math.IsNaN(fl))
	}
}

func TestNormalise_Deterministic(t *testing.T) {
	raw := validRaw()
	raw.Temperature = 71.3
	raw.TemperatureUnit = Fahrenheit
	raw.WindSpeed = 17
	raw.WindSpeedUnit = KilometersPerHour
	raw.Pressure = Some(1008.4)

	first, err := Normalise(raw)
	require.NoError(t, err)
	second, err := Normalise(raw)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(Optional[float64]{}, Optional[string]{})); diff != "" {
		t.Fatalf("normalise is not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, math.Float64bits(first.TemperatureC), math.Float64bits(second.TemperatureC))
}

func TestNormalise_DoesNotMutateInput(t *testing.T) {
	plus2 := time.FixedZone("", 2*3600)
	raw := validRaw()
	raw.Timestamp = At(time.Date(2025, 6, 1, 12, 0, 0, 0, plus2))
	before := raw

	_, err := Normalise(raw)
	require.NoError(t, err)

	assert.Equal(t, before, raw)
	assert.Equal(t, plus2, raw.Timestamp.Time.Location())
}

func TestNormalise_ConcurrentCalls(t *testing.T) {
	want, err := Normalise(validRaw())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]CanonicalObservation, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := Normalise(validRaw())
			if err == nil {
				results[i] = got
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
