package prometheus

import "fmt"

// fallbackErrorText is used when the backend fails without saying why.
const fallbackErrorText = "query failed"

// QueryError is a failed API call. Message carries the backend's error text
// when it sent one.
type QueryError struct {
	// Type is the backend errorType, e.g. bad_data or timeout.
	Type       string
	Message    string
	StatusCode int
}

func (e *QueryError) Error() string {
	return e.Message
}

func newHTTPError(code int, status string) *QueryError {
	return &QueryError{
		Message:    fmt.Sprintf("HTTP %d: %s", code, status),
		StatusCode: code,
	}
}
