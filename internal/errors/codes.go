package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Query errors
	ErrInvalidChannel       ErrorCode = "invalid_channel"
	ErrInvalidLimitOrOffset ErrorCode = "invalid_limit_or_offset"
	ErrInvalidTimestamp     ErrorCode = "invalid_timestamp"
	ErrInvalidDeviceID      ErrorCode = "invalid_device_id"

	// Ingest errors
	ErrInvalidFieldName  ErrorCode = "invalid_field_name"
	ErrInvalidFieldValue ErrorCode = "invalid_field_value"
	ErrDuplicateReading  ErrorCode = "duplicate_reading"

	// Storage errors
	ErrStorageUnavailable ErrorCode = "storage_unavailable"

	// Notification errors
	ErrPublishFailed ErrorCode = "publish_failed"
	ErrBrokerStart   ErrorCode = "broker_start"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:             "Internal error occurred",
	ErrInvalidArgument:      "Invalid argument provided",
	ErrNotImplemented:       "Operation not implemented",
	ErrAlreadyRunning:       "Another instance is already running",
	ErrInvalidConfig:        "Invalid configuration",
	ErrReadConfig:           "Failed to read config file",
	ErrBindFlags:            "Failed to bind flags",
	ErrInvalidLogLevel:      "Invalid log level",
	ErrInitFailed:           "Initialization failed",
	ErrShutdownFailed:       "Shutdown failed",
	ErrInvalidChannel:       "Invalid data type",
	ErrInvalidLimitOrOffset: "Invalid limit or offset value",
	ErrInvalidTimestamp:     "Invalid timestamp",
	ErrInvalidDeviceID:      "Invalid device ID",
	ErrInvalidFieldName:     "Invalid field name",
	ErrInvalidFieldValue:    "Invalid field value",
	ErrDuplicateReading:     "Reading already exists for this device and time",
	ErrStorageUnavailable:   "Internal Server Error",
	ErrPublishFailed:        "Failed to publish notification",
	ErrBrokerStart:          "Failed to start MQTT broker",
}

// clientCodes are the codes caused by the caller's input.
var clientCodes = map[ErrorCode]bool{
	ErrInvalidChannel:       true,
	ErrInvalidLimitOrOffset: true,
	ErrInvalidTimestamp:     true,
	ErrInvalidDeviceID:      true,
	ErrInvalidFieldName:     true,
	ErrInvalidFieldValue:    true,
	ErrDuplicateReading:     true,
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
