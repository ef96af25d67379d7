package sensor

import (
	"encoding/json"
	"strconv"
	"time"
)

// Value is a nullable raw channel value.
type Value struct {
	V     int64
	Valid bool
}

// Int wraps a present raw value.
func Int(v int64) Value {
	return Value{V: v, Valid: true}
}

// RawValues holds the raw channel values a device posted. A missing key is
// a null value.
type RawValues map[Channel]int64

// Get returns the value for c, invalid when absent.
func (r RawValues) Get(c Channel) Value {
	v, ok := r[c]
	return Value{V: v, Valid: ok}
}

// RawReading is one row of device input.
type RawReading struct {
	DeviceID uint64
	Created  time.Time
	Values   RawValues
}

// ConvertedReading is the calibrated counterpart of a RawReading with the
// same key. Values only holds channels that produced a physical value.
type ConvertedReading struct {
	DeviceID uint64
	Created  time.Time
	Values   map[Channel]float64
}

// Get returns the conversion outcome for c.
func (r ConvertedReading) Get(c Channel) Result {
	if !c.Implemented() {
		return Result{Status: NotImplemented}
	}
	if v, ok := r.Values[c]; ok {
		return Result{Value: v, Status: Valid}
	}
	return Result{Status: Null}
}

// MarshalJSON emits every channel, null when absent, with the device ID as a
// string since it does not fit a JSON number safely.
func (r RawReading) MarshalJSON() ([]byte, error) {
	m := readingHeader(r.DeviceID, r.Created)
	for _, c := range Channels() {
		if v, ok := r.Values[c]; ok {
			m[c.Name()] = v
		} else {
			m[c.Name()] = nil
		}
	}
	return json.Marshal(m)
}

func (r ConvertedReading) MarshalJSON() ([]byte, error) {
	m := readingHeader(r.DeviceID, r.Created)
	for _, c := range Channels() {
		if v, ok := r.Values[c]; ok {
			m[c.Name()] = v
		} else {
			m[c.Name()] = nil
		}
	}
	return json.Marshal(m)
}

func readingHeader(deviceID uint64, created time.Time) map[string]any {
	m := make(map[string]any, NumChannels+2)
	m["deviceID"] = strconv.FormatUint(deviceID, 10)
	if created.IsZero() {
		m["created"] = nil
	} else {
		m["created"] = created.UTC().Format(time.RFC3339Nano)
	}
	return m
}
