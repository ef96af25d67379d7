package storage

import "codeberg.org/mutker/atmena/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("storage_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("storage_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("storage_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("storage_schema_migration_failed")

	// Storage Errors
	ErrStorageUnavailable = errors.ErrStorageUnavailable
	ErrStorageInit        = errors.ErrInitFailed
	ErrStorageClose       = errors.ErrShutdownFailed

	// Reading Errors
	ErrDuplicateReading  = errors.ErrDuplicateReading
	ErrInvalidFieldValue = errors.ErrInvalidFieldValue
	ErrInvalidChannel    = errors.ErrInvalidChannel
)
