package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/query"
	"codeberg.org/mutker/atmena/internal/sensor"
)

type readingKey struct {
	deviceID uint64
	created  time.Time
}

// Memory is a Store kept in process memory. Plans are evaluated with
// query.Plan.Apply, so results match the SQLite repository.
type Memory struct {
	mu     sync.RWMutex
	tables map[query.Table][]query.Row
	keys   map[query.Table]map[readingKey]struct{}
	closed bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[query.Table][]query.Row),
		keys: map[query.Table]map[readingKey]struct{}{
			query.RawTable:       {},
			query.ConvertedTable: {},
		},
	}
}

func (m *Memory) InsertRaw(_ context.Context, reading sensor.RawReading) error {
	row := baseRow(reading.DeviceID, reading.Created)
	for _, c := range sensor.Channels() {
		v, ok := reading.Values[c]
		if !ok {
			continue
		}
		if lo, hi := c.Range(); v < lo || v > hi {
			return errors.New().WithMessage(ErrInvalidFieldValue,
				fmt.Sprintf("Out of range value for column '%s'", c.Name()))
		}
		row[c.Name()] = v
	}
	return m.insert(query.RawTable, row)
}

func (m *Memory) InsertConverted(_ context.Context, reading sensor.ConvertedReading) error {
	row := baseRow(reading.DeviceID, reading.Created)
	for c, v := range reading.Values {
		row[c.Name()] = v
	}
	return m.insert(query.ConvertedTable, row)
}

func baseRow(deviceID uint64, created time.Time) query.Row {
	row := make(query.Row, sensor.NumChannels+2)
	row[query.ColumnDeviceID] = deviceID
	row[query.ColumnCreated] = created.UTC()
	for _, c := range sensor.Channels() {
		row[c.Name()] = nil
	}
	return row
}

func (m *Memory) insert(table query.Table, row query.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New().WithMessage(ErrStorageUnavailable, "store is closed")
	}

	key := readingKey{deviceID: row.DeviceID(), created: row.Created()}
	if _, ok := m.keys[table][key]; ok {
		return errors.New().WithMessage(ErrDuplicateReading, fmt.Sprintf(
			"Duplicate entry for device %d at %s", key.deviceID, query.FormatTime(key.created)))
	}

	m.keys[table][key] = struct{}{}
	m.tables[table] = append(m.tables[table], row)
	return nil
}

func (m *Memory) Select(_ context.Context, plan query.Plan) ([]query.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errors.New().WithMessage(ErrStorageUnavailable, "store is closed")
	}

	return plan.Apply(m.tables[plan.Selection.Table]), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
