package board

import "errors"

var (
	// ErrNotFound indicates the targeted token is not on the board.
	ErrNotFound = errors.New("token not found")

	// ErrInvalidEntity indicates a token or event is missing required fields.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrExists indicates a token with the same id is already on the board.
	ErrExists = errors.New("token already exists")
)
