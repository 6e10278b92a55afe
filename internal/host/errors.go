package host

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds sub-message nesting per top-level call.
// This prevents components that message each other in a loop from
// running forever.
const DefaultMaxDepth = 16

// DepthExceededError is returned when sub-messages nest deeper than the
// host allows. It fails the whole call.
type DepthExceededError struct {
	TxID  string
	Depth int
	Limit int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("tx %s exceeded max sub-message depth: %d > %d", e.TxID, e.Depth, e.Limit)
}

// IsDepthExceeded reports whether err is a DepthExceededError.
func IsDepthExceeded(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}

// ErrUnknownCode is returned for a code id with no registered implementation.
var ErrUnknownCode = errors.New("unknown code")
