package sensor

// Status describes the outcome of converting one channel.
type Status uint8

const (
	// Null means the raw input was missing or outside the formula's domain.
	Null Status = iota
	// Valid means Value holds a physical value.
	Valid
	// NotImplemented marks channels without a calibration formula.
	NotImplemented
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case NotImplemented:
		return "not_implemented"
	default:
		return "null"
	}
}

// Result is the outcome of a single channel conversion.
type Result struct {
	Value  float64
	Status Status
}

func valid(v float64) Result {
	return Result{Value: v, Status: Valid}
}

var null = Result{Status: Null}

// Conversion turns a raw channel value into physical units. The sibling
// values are only consulted by channels that depend on another reading.
type Conversion func(v Value, sibling RawValues) Result

var conversions = [NumChannels]Conversion{
	AirFlow:        convertAirFlow,
	CO2:            passthrough,
	Coal:           convertCoal,
	Humidity:       convertHumidity,
	Light:          passthrough,
	LightAlt:       convertLightAlt,
	O2:             convertO2,
	PM:             notImplemented,
	PMAlt:          convertPMAlt,
	PMAlt2:         notImplemented,
	Pressure:       passthrough,
	Sound:          convertSound,
	Temperature:    convertTemperature,
	TemperatureAlt: convertTemperatureAlt,
	VOC:            convertVOC,
	VOCAlt:         notImplemented,
}

// Conversions returns the channel table keyed by column name.
func Conversions() map[string]Conversion {
	m := make(map[string]Conversion, NumChannels)
	for _, c := range Channels() {
		m[c.Name()] = conversions[c]
	}
	return m
}

// Convert applies the channel's formula to v.
func (c Channel) Convert(v Value, sibling RawValues) Result {
	if int(c) >= NumChannels {
		return null
	}
	return conversions[c](v, sibling)
}

// Convert derives the calibrated reading for raw. It never fails: missing or
// out-of-domain inputs become nulls, channel by channel.
func Convert(raw RawReading) ConvertedReading {
	out := ConvertedReading{
		DeviceID: raw.DeviceID,
		Created:  raw.Created,
		Values:   make(map[Channel]float64, NumChannels),
	}

	for _, c := range Channels() {
		if r := c.Convert(raw.Values.Get(c), raw.Values); r.Status == Valid {
			out.Values[c] = r.Value
		}
	}

	return out
}

// ConvertChannel converts a single named channel. Unknown names are null.
func ConvertChannel(name string, raw RawValues) Result {
	c, ok := Lookup(name)
	if !ok {
		return null
	}
	return c.Convert(raw.Get(c), raw)
}
