package sensor

import "math"

const sampleTimeMillis = 30000

// Evaluated at run time so every intermediate step rounds to float64.
var (
	voltsPerUnit  = 5.0 / 1023
	mphToMPS      = 1609.34 / 3600
	o2Divider     = 201 * o2Gain
	o2Factor      = voltsPerUnit * 10000 / o2Divider
	soundFactor   = voltsPerUnit * 200
	vocPerUnit    = 1600.0 / 229
	o2Gain        = 7.43
	zeroWindTrim  = 0.5
	coalBaseline  = 1.0
	luxVoutPoints = []float64{0.0011498, 0.0033908, 0.011498, 0.041803, 0.15199, 0.53367, 1.3689, 1.9068, 2.3}
	luxPoints     = []float64{1.0108, 3.1201, 9.8051, 27.43, 69.545, 232.67, 645.11, 73.52, 1000}
)

func passthrough(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	return valid(float64(v.V))
}

func notImplemented(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	return Result{Status: NotImplemented}
}

// Wind speed in m/s, compensated with the sibling temperature_alt reading.
func convertAirFlow(v Value, sibling RawValues) Result {
	t := sibling.Get(TemperatureAlt)
	if !v.Valid || !t.Valid {
		return null
	}

	temp := float64(t.V)
	windVolts := float64(v.V) * voltsPerUnit
	zeroWindUnits := -0.0006*temp*temp + 1.0727*temp + 47.172
	zeroWindVolts := zeroWindUnits*voltsPerUnit - zeroWindTrim

	mph := math.Pow((windVolts-zeroWindVolts)/0.23, 2.7265)
	if math.IsNaN(mph) {
		mph = 0
	}
	return valid(mph * mphToMPS)
}

func convertCoal(v Value, _ RawValues) Result {
	if !v.Valid || v.V == 0 {
		return null
	}
	volts := float64(v.V) * voltsPerUnit
	rs := (5 - volts) / volts
	return valid(rs / coalBaseline)
}

func convertHumidity(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	rh := float64(v.V)*125/65536 - 6
	return valid(math.Min(math.Max(rh, 0), 100))
}

func convertLightAlt(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	return valid(interpolate(float64(v.V)*voltsPerUnit, luxVoutPoints, luxPoints))
}

// interpolate maps x through the piecewise-linear curve (in, out), clamping
// to the end points outside the table.
func interpolate(x float64, in, out []float64) float64 {
	n := len(in)
	if x <= in[0] {
		return out[0]
	}
	if x >= in[n-1] {
		return out[n-1]
	}

	pos := 1
	for x > in[pos] {
		pos++
	}
	if x == in[pos] {
		return out[pos]
	}

	return (x-in[pos-1])*(out[pos]-out[pos-1])/(in[pos]-in[pos-1]) + out[pos-1]
}

func convertO2(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	return valid(float64(v.V) * o2Factor)
}

func convertPMAlt(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	ratio := float64(v.V) / (sampleTimeMillis * 10)
	return valid(1.1*math.Pow(ratio, 3) - 3.8*math.Pow(ratio, 2) + 520*ratio + 0.62)
}

func convertSound(v Value, _ RawValues) Result {
	if !v.Valid || v.V == 0 {
		return null
	}
	return valid(16.801*math.Log(float64(v.V)*soundFactor) + 9.872)
}

func convertTemperature(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	return valid(float64(v.V)*175.72/65536 - 46.85)
}

func convertTemperatureAlt(v Value, _ RawValues) Result {
	if !v.Valid {
		return null
	}
	raw := float64(v.V)
	return valid(0.00005*math.Pow(raw, 2) - 0.16862*raw + 90.754)
}

func convertVOC(v Value, _ RawValues) Result {
	if !v.Valid || v.V < 13 {
		return null
	}
	return valid(float64(v.V-13)*vocPerUnit + 400)
}
