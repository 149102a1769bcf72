// Package storage keeps a serialized record list in one durable key-value
// slot, the way a browser page keeps its list under a single localStorage
// key.
package storage

import "errors"

// Slot holds at most one serialized list.
type Slot interface {
	// Save replaces the slot content.
	Save(data []byte) error

	// Load returns the slot content and whether there was any.
	Load() ([]byte, bool, error)

	Close() error
}

var ErrClosed = errors.New("slot is closed")
