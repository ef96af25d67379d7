package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/logger"
	"codeberg.org/mutker/atmena/internal/query"
	"codeberg.org/mutker/atmena/internal/sensor"
	_ "github.com/mattn/go-sqlite3"
)

// Repository is the SQLite Store.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
}

var _ Store = (*Repository)(nil)

func NewRepository(cfg Config) (*Repository, error) {
	errFactory := errors.New()
	log := logger.Default()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Storage repository initialized")

	return &Repository{
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

func (r *Repository) InsertRaw(ctx context.Context, reading sensor.RawReading) error {
	args := readingArgs(reading.DeviceID, reading.Created, func(c sensor.Channel) any {
		if v, ok := reading.Values[c]; ok {
			return v
		}
		return nil
	})

	if _, err := r.db.ExecContext(ctx, insertRawSQL, args...); err != nil {
		return translate(err, reading.DeviceID, reading.Created)
	}
	return nil
}

func (r *Repository) InsertConverted(ctx context.Context, reading sensor.ConvertedReading) error {
	args := readingArgs(reading.DeviceID, reading.Created, func(c sensor.Channel) any {
		if v, ok := reading.Values[c]; ok {
			return v
		}
		return nil
	})

	if _, err := r.db.ExecContext(ctx, insertConvertedSQL, args...); err != nil {
		return translate(err, reading.DeviceID, reading.Created)
	}
	return nil
}

func readingArgs(deviceID uint64, created time.Time, value func(sensor.Channel) any) []any {
	args := make([]any, 0, sensor.NumChannels+2)
	args = append(args, int64(deviceID), query.FormatTime(created))
	for _, c := range sensor.Channels() {
		args = append(args, value(c))
	}
	return args
}

func (r *Repository) Select(ctx context.Context, plan query.Plan) ([]query.Row, error) {
	stmt, args := plan.SQL()

	r.logger.Debug().Str("sql", stmt).Msg("Executing select")

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, translate(err, plan.Selection.DeviceID, time.Time{})
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageUnavailable, err)
	}

	out := make([]query.Row, 0)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.New().Wrap(ErrStorageUnavailable, err)
		}
		row, err := decodeRow(cols, values)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, plan.Selection.DeviceID, time.Time{})
	}

	return out, nil
}

func (r *Repository) Close() error {
	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Storage repository closed gracefully")

	return nil
}
