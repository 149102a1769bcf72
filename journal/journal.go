// Package journal keeps an append-only log of record list changes, one JSON
// command per line, and rebuilds a list from it.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/fulldump/recordlist/recordlist"
)

var ErrClosed = errors.New("journal is closed")

type Journal struct {
	Filename string
	file     *os.File
	buffer   *bufio.Writer
	mutex    sync.Mutex
}

// Open opens filename for append, creating it if needed.
func Open(filename string) (*Journal, error) {
	// todo: investigate O_SYNC
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	return &Journal{
		Filename: filename,
		file:     f,
		buffer:   bufio.NewWriter(f),
	}, nil
}

// Append writes the command for change and flushes it.
func (j *Journal) Append(change recordlist.Change) error {
	command, err := NewCommand(change)
	if err != nil {
		return err
	}

	line, err := json.Marshal(command, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.file == nil {
		return ErrClosed
	}

	j.buffer.Write(line)
	j.buffer.WriteByte('\n')

	err = j.buffer.Flush()
	if err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}

	return nil
}

func (j *Journal) Close() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.file == nil {
		return nil
	}

	flushErr := j.buffer.Flush()
	err := j.file.Close()
	j.file = nil
	if flushErr != nil {
		return flushErr
	}
	return err
}

// NewCommand translates a list change into its journal command.
func NewCommand(change recordlist.Change) (*Command, error) {
	var name string
	var payload interface{}

	switch change.Kind {
	case recordlist.Created:
		name = CommandInsert
		payload = change.Record.Document()
	case recordlist.Updated:
		name = CommandPatch
		payload = &PatchPayload{
			ID:     change.Record.ID,
			Fields: change.Record.Fields,
		}
	case recordlist.Deleted:
		name = CommandRemove
		payload = &RemovePayload{
			ID: change.Record.ID,
		}
	default:
		return nil, fmt.Errorf("unexpected change kind '%s'", change.Kind)
	}

	encoded, err := json.Marshal(payload, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	return &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Payload:   encoded,
	}, nil
}
