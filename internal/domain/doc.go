// Package domain normalises raw weather observations into a single canonical
// unit system.
//
// # Canonical Units
//
//	temperature    celsius
//	wind speed     meters per second
//	pressure       hectopascals (accepted as-is; raw pressure has no unit field)
//	time           UTC, offset zero
//
// # Conversions
//
// Temperature:
//
//	fahrenheit → celsius   (f - 32) × 5/9
//	kelvin     → celsius   k - 273.15
//
// Wind speed:
//
//	km/h → m/s   v / 3.6
//	mph  → m/s   v × 0.44704
//
// Values are computed in float64 and never rounded here; rounding is a
// presentation concern.
//
// # Validation
//
// Every violation is reported, not just the first, as a [ValidationErrors]
// value whose members carry a field name and a reason code:
//
//	temperature         not_finite | below_absolute_zero
//	humidity            out_of_range (0–100; never clamped)
//	wind_speed          not_finite | negative
//	position            out_of_range (lat ±90, lon ±180)
//	timestamp           missing | missing_offset
//	pressure            non_positive
//	wind_direction_deg  out_of_range (0–360)
//	source              missing
//
// Units outside the conversion tables fail with [UnsupportedUnitError] rather
// than falling back to a default.
//
// # Feels-like
//
// Derived from canonical temperature, wind and humidity. Below 10 °C with wind
// over 4.8 km/h the Environment Canada wind chill index applies; at or above
// 26.7 °C with humidity of at least 40% the NWS heat index applies; otherwise
// the air temperature is reported. The field is absent if the model yields a
// non-finite value.
//
// # Opaque Fields
//
// weather_code and source are passed through untouched. Their vocabularies
// belong to the upstream provider.
package domain
