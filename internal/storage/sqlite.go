package storage

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/query"
	"github.com/mattn/go-sqlite3"
)

// translate maps engine errors onto storage-agnostic codes.
func translate(err error, deviceID uint64, created time.Time) error {
	errFactory := errors.New()

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return errFactory.Wrap(ErrStorageUnavailable, err)
	}

	switch {
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return errFactory.WithMessage(ErrDuplicateReading, fmt.Sprintf(
			"Duplicate entry for device %d at %s", deviceID, query.FormatTime(created)))
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck:
		return errFactory.WithMessage(ErrInvalidFieldValue, sqliteErr.Error())
	case sqliteErr.Code == sqlite3.ErrError && strings.Contains(sqliteErr.Error(), "no such column"):
		return errFactory.WithMessage(ErrInvalidChannel, sqliteErr.Error())
	}

	return errFactory.Wrap(ErrStorageUnavailable, err)
}

var timeLayouts = []string{
	query.TimeFormat,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07:00",
}

// decodeRow normalises scanned values: the device ID back to uint64 and
// created to UTC time regardless of whether the driver parsed it.
func decodeRow(cols []string, values []any) (query.Row, error) {
	row := make(query.Row, len(cols))

	for i, col := range cols {
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}

		switch col {
		case query.ColumnDeviceID:
			if id, ok := v.(int64); ok {
				v = uint64(id)
			}
		case query.ColumnCreated:
			t, err := parseCreated(v)
			if err != nil {
				return nil, errors.New().Wrap(ErrStorageUnavailable, err)
			}
			v = t
		}

		row[col] = v
	}

	return row, nil
}

func parseCreated(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised created value %q", t)
	case int64:
		return time.Unix(t, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected created type %T", v)
	}
}
