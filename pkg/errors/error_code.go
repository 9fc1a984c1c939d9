package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidTimeframe     ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103
	ErrCodeInvalidVersion       ErrorCode = 104

	// Data errors (200-299): fatal to a single line or bar, not to the stream
	ErrCodeMalformedDate     ErrorCode = 200
	ErrCodeZeroAdjustedClose ErrorCode = 201
	ErrCodeMalformedLine     ErrorCode = 202
	ErrCodeNonIncreasingTime ErrorCode = 203
	ErrCodeMalformedField    ErrorCode = 204

	// Upstream errors (300-399): fatal to the whole fetch
	ErrCodeChartAPIError    ErrorCode = 300
	ErrCodeFetchFailed      ErrorCode = 301
	ErrCodeBadStatus        ErrorCode = 302
	ErrCodeMalformedPayload ErrorCode = 303

	// Source errors (400-499)
	ErrCodeSourceUnavailable ErrorCode = 400
	ErrCodeUnsupportedSource ErrorCode = 401
	ErrCodeSourceReadFailed  ErrorCode = 402
)
