package errors

// Classify returns the code of the outermost coded error in the chain.
// Uncoded errors are reported as ErrStorageUnavailable, which the HTTP
// boundary turns into a generic 500.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var coded Error
	if As(err, &coded) {
		return coded.Code()
	}

	return ErrStorageUnavailable
}

// IsClientError reports whether err was caused by invalid caller input.
func IsClientError(err error) bool {
	return clientCodes[Classify(err)]
}

// PublicMessage returns a message that is safe to echo to a caller. Client
// errors keep their message, everything else collapses to the generic text.
func PublicMessage(err error) string {
	if !IsClientError(err) {
		return GetErrorMessage(ErrStorageUnavailable)
	}

	var coded Error
	if As(err, &coded) {
		return coded.Message()
	}

	return GetErrorMessage(ErrStorageUnavailable)
}
