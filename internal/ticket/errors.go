package ticket

import "errors"

var (
	ErrNotFound   = errors.New("ticket not found")
	ErrAmbiguous  = errors.New("ticket reference is ambiguous")
	ErrEmptyField = errors.New("required field is empty")
	ErrMalformed  = errors.New("malformed ticket file")
)
