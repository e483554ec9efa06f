package services

import (
	"errors"
	"fmt"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrNotSaved          = errors.New("report must be saved as a draft before publishing")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownKind       = errors.New("unknown reference kind")
	ErrEmptyName         = errors.New("reference name is empty")
	ErrUnsupportedFile   = errors.New("unsupported import file")
)

// CascadeError reports the dependent table whose delete failed. Nothing was
// removed when it is returned.
type CascadeError struct {
	Table string
	Err   error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Table, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}
