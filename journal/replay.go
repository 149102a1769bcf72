package journal

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/recordlist/recordlist"
)

// Target is what a journal is replayed into, usually a *recordlist.Store.
type Target interface {
	Insert(record recordlist.Record) error
	BeginEdit(id string) error
	UpdateDraftField(name, value string) error
	CommitEdit() error
	CancelEdit()
	Delete(id string)
}

// Replay applies every command of filename to target and returns how many
// were applied. A missing file replays nothing. Patches go through the edit
// buffer, so target must not be in the middle of an edit.
func Replay(filename string, target Target) (int, error) {
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	return ReplayReader(f, target)
}

func ReplayReader(r io.Reader, target Target) (int, error) {
	n := 0
	err := scan(r, func(command *Command) error {
		err := apply(command, target)
		if err != nil {
			return fmt.Errorf("%s: %w", command.Name, err)
		}
		n++
		return nil
	})
	return n, err
}

// InsertedIDs returns the id of every insert command in filename, in journal
// order, including records removed later. A missing file has none.
func InsertedIDs(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	ids := []string{}
	err = scan(f, func(command *Command) error {
		if command.Name != CommandInsert {
			return nil
		}
		document := map[string]string{}
		err := json.Unmarshal(command.Payload, &document)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		ids = append(ids, document[recordlist.IDField])
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func scan(r io.Reader, f func(command *Command) error) error {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 16 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		command := &Command{}
		err := json.Unmarshal(data, command)
		if err != nil {
			return fmt.Errorf("line %d: decode command: %w", line, err)
		}

		err = f(command)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	return nil
}

func apply(command *Command, target Target) error {
	switch command.Name {
	case CommandInsert:
		document := map[string]string{}
		err := json.Unmarshal(command.Payload, &document)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		id := document[recordlist.IDField]
		delete(document, recordlist.IDField)
		return target.Insert(recordlist.Record{
			ID:     id,
			Fields: document,
		})

	case CommandPatch:
		params := &PatchPayload{}
		err := json.Unmarshal(command.Payload, params)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		err = target.BeginEdit(params.ID)
		if err != nil {
			return err
		}
		for name, value := range params.Fields {
			err = target.UpdateDraftField(name, value)
			if err != nil {
				target.CancelEdit()
				return err
			}
		}
		return target.CommitEdit()

	case CommandRemove:
		params := &RemovePayload{}
		err := json.Unmarshal(command.Payload, params)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		target.Delete(params.ID)
		return nil
	}

	return fmt.Errorf("unknown command '%s'", command.Name)
}
