package ingest

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/query"
	"codeberg.org/mutker/atmena/internal/sensor"
)

// ParseForm turns posted form fields into a raw reading for deviceID.
// Every field must be a channel or created. An empty value is treated as
// absent; anything else must be an integer within the column range.
func ParseForm(deviceID string, form url.Values) (sensor.RawReading, error) {
	errFactory := errors.New()

	id, err := query.ParseDeviceID(deviceID)
	if err != nil {
		return sensor.RawReading{}, err
	}

	reading := sensor.RawReading{
		DeviceID: id,
		Values:   make(sensor.RawValues, len(form)),
	}

	names := make([]string, 0, len(form))
	for name := range form {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := form.Get(name)

		switch name {
		case query.ColumnCreated:
			if value == "" {
				continue
			}
			t, err := query.ParseTime(value)
			if err != nil {
				return sensor.RawReading{}, errFactory.WithMessage(errors.ErrInvalidTimestamp,
					fmt.Sprintf("Incorrect datetime value: '%s' for column 'created'", value))
			}
			reading.Created = t
			continue
		case query.ColumnDeviceID:
			// The path decides the device.
			continue
		}

		c, ok := sensor.Lookup(name)
		if !ok {
			return sensor.RawReading{}, errFactory.WithMessage(errors.ErrInvalidFieldName,
				fmt.Sprintf("Unknown column '%s'", name))
		}
		if value == "" {
			continue
		}

		v, err := strconv.ParseInt(value, 10, 64)
		lo, hi := c.Range()
		if err != nil || v < lo || v > hi {
			return sensor.RawReading{}, errFactory.WithMessage(errors.ErrInvalidFieldValue,
				fmt.Sprintf("Incorrect integer value: '%s' for column '%s'", value, name))
		}
		reading.Values[c] = v
	}

	return reading, nil
}

// EncodeForm is the inverse of ParseForm, used by clients.
func EncodeForm(reading sensor.RawReading) url.Values {
	form := make(url.Values, len(reading.Values)+1)
	if !reading.Created.IsZero() {
		form.Set(query.ColumnCreated, reading.Created.UTC().Format(time.RFC3339Nano))
	}
	for c, v := range reading.Values {
		form.Set(c.Name(), strconv.FormatInt(v, 10))
	}
	return form
}
