package storage

import (
	"context"

	"codeberg.org/mutker/atmena/internal/query"
	"codeberg.org/mutker/atmena/internal/sensor"
)

// Store persists readings and executes query plans. Both tables share the
// (deviceID, created) key; inserting an existing key fails with
// ErrDuplicateReading and never overwrites.
type Store interface {
	InsertRaw(ctx context.Context, reading sensor.RawReading) error
	InsertConverted(ctx context.Context, reading sensor.ConvertedReading) error
	Select(ctx context.Context, plan query.Plan) ([]query.Row, error)
	Close() error
}
