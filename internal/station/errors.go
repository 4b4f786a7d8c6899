package station

import "fmt"

// DirectoryError describes a failed directory query. It is logged and
// swallowed by the finder, callers only ever see an empty result.
type DirectoryError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *DirectoryError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("directory error: %s: %v", e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("directory error: %s (status %d)", e.Message, e.StatusCode)
	default:
		return fmt.Sprintf("directory error: %s", e.Message)
	}
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

func NewDirectoryError(message string, statusCode int, err error) *DirectoryError {
	return &DirectoryError{
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}
