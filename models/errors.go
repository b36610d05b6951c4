package models

import "fmt"

// Error codes used in reports and internal error handling.
const (
	ErrCodeTimeout       = "FETCH_TIMEOUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeBrowserLaunch = "BROWSER_LAUNCH_FAILED"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeBookmarks     = "BOOKMARKS_PARSE_FAILED"
	ErrCodeState         = "STATE_IO_FAILED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// WatchError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type WatchError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *WatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// NewWatchError creates a new WatchError.
func NewWatchError(code, message string, err error) *WatchError {
	return &WatchError{Code: code, Message: message, Err: err}
}
