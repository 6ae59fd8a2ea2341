package intake

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingUpload   = errors.New("no file uploaded")
	ErrStorage         = errors.New("upload could not be stored")
	ErrEncoding        = errors.New("image could not be encoded")
	ErrService         = errors.New("extraction service failed")
	ErrMalformedResult = errors.New("extraction result is malformed")
	ErrBusy            = errors.New("extraction capacity exhausted")

	// ErrNonConformingResult is valid JSON that does not match the intake schema.
	ErrNonConformingResult = fmt.Errorf("%w: does not match intake schema", ErrMalformedResult)
)

// ViolationError lists the schema paths a result failed on.
type ViolationError struct {
	Violations []string
}

func (e *ViolationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrNonConformingResult.Error()
	}
	return ErrNonConformingResult.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *ViolationError) Unwrap() error { return ErrNonConformingResult }
