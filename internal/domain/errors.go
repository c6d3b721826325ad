package domain

import "errors"

// Failure classes of a sync run. Adapters wrap these so callers can test
// with errors.Is.
var (
	// ErrAuth means credentials for the device account or the sheet were
	// rejected or have expired.
	ErrAuth = errors.New("authentication failed")

	// ErrEntityNotFound means the named pet is not on the device account.
	ErrEntityNotFound = errors.New("pet not found")

	// ErrFetch means readings could not be retrieved from the device account.
	ErrFetch = errors.New("fetch readings failed")

	// ErrReadLog means the persisted weight log could not be read.
	ErrReadLog = errors.New("read weight log failed")

	// ErrWrite means appending rows to the weight log failed.
	ErrWrite = errors.New("write weight log failed")

	// ErrMalformedRow means a persisted row could not be parsed as a reading.
	ErrMalformedRow = errors.New("malformed row")
)

// IsRetryable reports whether re-running the sync may succeed without
// operator action.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) {
		return false
	}
	return errors.Is(err, ErrFetch) || errors.Is(err, ErrReadLog) || errors.Is(err, ErrWrite)
}

// IsFatal reports whether the error needs operator action, such as new
// credentials or a repaired sheet.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrMalformedRow)
}
