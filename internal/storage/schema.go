package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/logger"
	"codeberg.org/mutker/atmena/internal/query"
	"codeberg.org/mutker/atmena/internal/sensor"
)

const SchemaVersion = 1

var (
	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );` +
		createReadingTableSQL(query.RawTable, rawColumnSQL) +
		createReadingTableSQL(query.ConvertedTable, convertedColumnSQL)

	insertRawSQL       = insertReadingSQL(query.RawTable)
	insertConvertedSQL = insertReadingSQL(query.ConvertedTable)
)

func rawColumnSQL(c sensor.Channel) string {
	lo, hi := c.Range()
	return fmt.Sprintf("%q INTEGER CHECK (%q IS NULL OR (typeof(%q) = 'integer' AND %q BETWEEN %d AND %d))",
		c.Name(), c.Name(), c.Name(), c.Name(), lo, hi)
}

func convertedColumnSQL(c sensor.Channel) string {
	return fmt.Sprintf("%q REAL", c.Name())
}

// createReadingTableSQL derives a reading table from the channel list.
// Device IDs are stored as the int64 bit pattern of the uint64 value.
func createReadingTableSQL(table query.Table, column func(sensor.Channel) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\t   CREATE TABLE IF NOT EXISTS %q (\n", table)
	b.WriteString("\t       \"deviceID\" INTEGER NOT NULL,\n")
	b.WriteString("\t       \"created\"  DATETIME NOT NULL,\n")
	for _, c := range sensor.Channels() {
		b.WriteString("\t       " + column(c) + ",\n")
	}
	b.WriteString("\t       PRIMARY KEY (\"deviceID\", \"created\")\n\t   );")
	return b.String()
}

func insertReadingSQL(table query.Table) string {
	cols := []string{`"deviceID"`, `"created"`}
	for _, c := range sensor.Channels() {
		cols = append(cols, fmt.Sprintf("%q", c.Name()))
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
}

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	log.Debug().Str("sql", createTablesSQL).Msg("Executing SQL statement")
	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for a new database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
