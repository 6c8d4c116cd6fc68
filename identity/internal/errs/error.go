package errs

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("credential not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
