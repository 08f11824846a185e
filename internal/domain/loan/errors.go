package loan

import "errors"

var (
	ErrNotFound  = errors.New("loan not found")
	ErrForbidden = errors.New("loan does not belong to user")
)
