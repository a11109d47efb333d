package domain

import "errors"

// ErrCallNotFound is returned by call stores and the call repository
// when the call ID is unknown.
var ErrCallNotFound = errors.New("call not found")
