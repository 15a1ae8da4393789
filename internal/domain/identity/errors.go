package identity

import "errors"

// Sentinel kinds for identity errors.
var (
	ErrMemberNotFound = errors.New("member not found")
)
