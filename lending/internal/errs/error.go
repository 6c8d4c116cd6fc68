package errs

import (
	"errors"
)

// Error kinds surfaced by the lending engine. All are recoverable at
// the caller boundary.
var (
	ErrAlreadyHoldsLoan  = errors.New("student already holds an open loan")
	ErrBookNotFound      = errors.New("book not found")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrNoOpenLoan        = errors.New("no open loan for this student and book")
	ErrInvalidStock      = errors.New("copies must be non-negative")
	ErrStudentNotFound   = errors.New("student not found")
	ErrPersistence       = errors.New("persistence failure")
)
