package query

import (
	"encoding/json"
	"strconv"
	"time"
)

// Row is one selected record keyed by column name. Stores put the device ID
// in as uint64 and created as time.Time; channel values are int64 or
// float64, nil when null.
type Row map[string]any

// DeviceID returns the row's device, zero when absent.
func (r Row) DeviceID() uint64 {
	id, _ := r[ColumnDeviceID].(uint64)
	return id
}

// Created returns the row's timestamp, zero when absent.
func (r Row) Created() time.Time {
	t, _ := r[ColumnCreated].(time.Time)
	return t
}

// Project copies the named columns. Missing columns are null.
func (r Row) Project(cols []string) Row {
	out := make(Row, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}

// MarshalJSON writes the device ID as a string and created as RFC 3339.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r))
	for k, v := range r {
		switch k {
		case ColumnDeviceID:
			if id, ok := v.(uint64); ok {
				v = strconv.FormatUint(id, 10)
			}
		case ColumnCreated:
			if t, ok := v.(time.Time); ok {
				v = t.UTC().Format(time.RFC3339Nano)
			}
		}
		m[k] = v
	}
	return json.Marshal(m)
}
