package domain

import "time"

// Position is a WGS-84 coordinate with optional descriptive labels.
type Position struct {
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	City        Optional[string] `json:"city"`
	CountryCode Optional[string] `json:"country_code"`
}

// RawObservation is a weather reading as received, in caller-specified units.
// Empty units mean the defaults (celsius, meters per second).
type RawObservation struct {
	Temperature     float64
	TemperatureUnit TemperatureUnit
	WindSpeed       float64
	WindSpeedUnit   WindSpeedUnit
	Humidity        int
	Pressure        Optional[float64] // hPa
	Position        Position
	Timestamp       Timestamp

	WindDirectionDeg Optional[float64]
	WeatherCode      Optional[string]
	Source           string
}

// CanonicalObservation is a reading in the canonical unit system:
// celsius, meters per second, hectopascals, UTC.
type CanonicalObservation struct {
	Position         Position          `json:"position"`
	TimestampUTC     time.Time         `json:"timestamp_utc"`
	TemperatureC     float64           `json:"temperature_c"`
	FeelsLikeC       Optional[float64] `json:"feels_like_c"`
	HumidityPercent  int               `json:"humidity_percent"`
	WindSpeedMS      float64           `json:"wind_speed_ms"`
	WindDirectionDeg Optional[float64] `json:"wind_direction_deg"`
	PressureHPa      Optional[float64] `json:"pressure_hpa"`
	WeatherCode      Optional[string]  `json:"weather_code"`
	Source           string            `json:"source"`
}
