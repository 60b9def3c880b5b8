package domain

import "math"

// Feels-like model bands:
//   - wind chill (Environment Canada / NWS 2001): T <= 10C and wind > 4.8 km/h
//   - heat index (NWS Rothfusz regression):       T >= 26.7C and RH >= 40%
//   - otherwise the air temperature is what it feels like.
const (
	windChillMaxC      = 10.0
	windChillMinKmh    = 4.8
	heatIndexMinC      = 26.7
	heatIndexMinRH     = 40.0
	rothfuszThresholdF = 80.0
)

// FeelsLike estimates perceived temperature in celsius from canonical inputs.
// The result is absent when the model cannot produce a finite value, e.g. for
// non-finite inputs.
func FeelsLike(tempC, windMS float64, humidityPercent int) Optional[float64] {
	if !isFinite(tempC) || !isFinite(windMS) {
		return None[float64]()
	}

	var v float64
	windKmh := windMS * kmhPerMS
	rh := float64(humidityPercent)
	switch {
	case tempC <= windChillMaxC && windKmh > windChillMinKmh:
		v = windChill(tempC, windKmh)
	case tempC >= heatIndexMinC && rh >= heatIndexMinRH:
		v = heatIndex(tempC, rh)
	default:
		v = tempC
	}

	if !isFinite(v) {
		return None[float64]()
	}
	return Some(v)
}

func windChill(tempC, windKmh float64) float64 {
	v16 := math.Pow(windKmh, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*v16 + 0.3965*tempC*v16
}

// heatIndex follows the NWS procedure: Steadman's simple formula first, the
// Rothfusz regression when that averages to 80F or more, then the low and
// high humidity adjustments.
func heatIndex(tempC, rh float64) float64 {
	t := tempC*1.8 + 32

	simple := 0.5 * (t + 61.0 + (t-68.0)*1.2 + rh*0.094)
	if (simple+t)/2 < rothfuszThresholdF {
		return (simple - 32) / 1.8
	}

	hi := -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		0.00683783*t*t -
		0.05481717*rh*rh +
		0.00122874*t*t*rh +
		0.00085282*t*rh*rh -
		0.00000199*t*t*rh*rh

	switch {
	case rh < 13 && t >= 80 && t <= 112:
		hi -= ((13 - rh) / 4) * math.Sqrt((17-math.Abs(t-95))/17)
	case rh > 85 && t >= 80 && t <= 87:
		hi += ((rh - 85) / 10) * ((87 - t) / 5)
	}
	return (hi - 32) / 1.8
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
