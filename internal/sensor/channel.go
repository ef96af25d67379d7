package sensor

import "math"

// Channel identifies one of the sixteen sensor channels a device reports.
type Channel uint8

const (
	AirFlow Channel = iota
	CO2
	Coal
	Humidity
	Light
	LightAlt
	O2
	PM
	PMAlt
	PMAlt2
	Pressure
	Sound
	Temperature
	TemperatureAlt
	VOC
	VOCAlt

	// NumChannels is the number of known channels.
	NumChannels = int(VOCAlt) + 1
)

var channelNames = [NumChannels]string{
	AirFlow:        "airFlow",
	CO2:            "co2",
	Coal:           "coal",
	Humidity:       "humidity",
	Light:          "light",
	LightAlt:       "light_alt",
	O2:             "o2",
	PM:             "pm",
	PMAlt:          "pm_alt",
	PMAlt2:         "pm_alt_2",
	Pressure:       "pressure",
	Sound:          "sound",
	Temperature:    "temperature",
	TemperatureAlt: "temperature_alt",
	VOC:            "voc",
	VOCAlt:         "voc_alt",
}

var channelsByName = func() map[string]Channel {
	m := make(map[string]Channel, NumChannels)
	for i, name := range channelNames {
		m[name] = Channel(i)
	}
	return m
}()

// Channels returns every channel in column order.
func Channels() []Channel {
	out := make([]Channel, NumChannels)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// Lookup finds a channel by its column name. Names are case-sensitive.
func Lookup(name string) (Channel, bool) {
	c, ok := channelsByName[name]
	return c, ok
}

// Name returns the column name used in storage, forms and JSON.
func (c Channel) Name() string {
	if int(c) >= NumChannels {
		return ""
	}
	return channelNames[c]
}

func (c Channel) String() string {
	return c.Name()
}

// Range returns the inclusive bounds of the raw integer column. Pressure is
// the only signed 32-bit channel, all others are unsigned 16-bit.
func (c Channel) Range() (lo, hi int64) {
	if c == Pressure {
		return math.MinInt32, math.MaxInt32
	}
	return 0, math.MaxUint16
}

// Implemented reports whether the channel has a calibration formula.
func (c Channel) Implemented() bool {
	switch c {
	case PM, PMAlt2, VOCAlt:
		return false
	default:
		return int(c) < NumChannels
	}
}
