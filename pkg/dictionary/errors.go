package dictionary

import "fmt"

// ErrStorageUnavailable is returned by a Backend when the persisted
// dictionary does not exist yet. Store.Load recovers from it by creating
// empty storage.
var ErrStorageUnavailable = &StoreError{"dictionary storage unavailable"}

// ErrMalformedRecord is the target for errors.Is on any MalformedRecordError.
var ErrMalformedRecord = &StoreError{"malformed dictionary record"}

// StoreError provides a simple typed error for dictionary storage.
type StoreError struct{ msg string }

func (e *StoreError) Error() string { return e.msg }

// MalformedRecordError reports a persisted row that could not be parsed.
type MalformedRecordError struct {
	Path string
	Line int // 1-based, 0 when unknown
	Err  error
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, ErrMalformedRecord.msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, ErrMalformedRecord.msg, e.Err)
}

func (e *MalformedRecordError) Unwrap() []error { return []error{ErrMalformedRecord, e.Err} }
