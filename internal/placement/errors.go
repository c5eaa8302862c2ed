package placement

import "errors"

var (
	// ErrNoDrag indicates a drop or move without an active drag.
	ErrNoDrag = errors.New("no drag in progress")
)
