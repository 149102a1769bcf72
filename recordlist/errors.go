package recordlist

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrNoActiveEdit   = errors.New("no active edit")
	ErrUnknownField   = errors.New("unknown field")
	ErrDuplicateID    = errors.New("duplicated id")
	ErrEmptyID        = errors.New("empty id")
	ErrIDExhausted    = errors.New("id generator exhausted")
	ErrInvalidOptions = errors.New("invalid options")
)
