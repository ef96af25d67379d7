package errors

// ErrorCode identifies a failure independently of the storage engine or
// transport that produced it. Codes are stable and safe to log.
type ErrorCode string

// Error is a coded failure. Message is what a caller may see; Error adds
// the data or cause for logs.
type Error interface {
	error
	Code() ErrorCode
	Message() string
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors. Packages call New() once per function and
// reuse the factory for every return path.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
