package recordlist

import (
	"fmt"
	"sync"
)

type State string

const (
	StateIdle    State = "idle"
	StateEditing State = "editing"
)

const maxIDAttempts = 1000

type Options struct {
	// Fields is the ordered set of field names every record carries.
	Fields []string

	// NextID defaults to UUIDGenerator.
	NextID IDGenerator
}

// Store owns an ordered list of records and a single edit buffer. All
// operations are safe to call from several goroutines; each one applies
// completely or not at all.
type Store struct {
	fields   []string
	fieldSet map[string]struct{}
	nextID   IDGenerator

	rows  *container
	byID  map[string]*row
	seen  map[string]struct{} // every id ever held
	seq   int64
	mutex *sync.RWMutex

	listeners []*subscription

	// edit buffer
	target string
	draft  Fields
	orphan string // target deleted while editing, reported by the next CommitEdit
}

func New(options *Options) (*Store, error) {
	if options == nil || len(options.Fields) == 0 {
		return nil, fmt.Errorf("%w: at least one field is required", ErrInvalidOptions)
	}

	fields := make([]string, 0, len(options.Fields))
	fieldSet := make(map[string]struct{}, len(options.Fields))
	for _, name := range options.Fields {
		if name == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidOptions)
		}
		if name == IDField {
			return nil, fmt.Errorf("%w: field name '%s' is reserved", ErrInvalidOptions, IDField)
		}
		if _, exists := fieldSet[name]; exists {
			return nil, fmt.Errorf("%w: field '%s' is duplicated", ErrInvalidOptions, name)
		}
		fieldSet[name] = struct{}{}
		fields = append(fields, name)
	}

	nextID := options.NextID
	if nextID == nil {
		nextID = UUIDGenerator()
	}

	return &Store{
		fields:   fields,
		fieldSet: fieldSet,
		nextID:   nextID,
		rows:     newContainer(),
		byID:     map[string]*row{},
		seen:     map[string]struct{}{},
		mutex:    &sync.RWMutex{},
	}, nil
}

// mutate runs f under the write lock and notifies listeners about the
// returned change once the lock is released.
func (s *Store) mutate(f func() (*Change, error)) error {
	change, listeners, err := s.apply(f)
	if err != nil || change == nil {
		return err
	}

	for _, l := range listeners {
		l.listener(Change{
			Kind:   change.Kind,
			Record: change.Record.clone(),
		})
	}

	return nil
}

func (s *Store) apply(f func() (*Change, error)) (*Change, []*subscription, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	change, err := f()
	return change, s.listeners, err
}

// Create appends a new record and returns its id. Configured fields missing
// from fields are stored empty.
func (s *Store) Create(fields Fields) (string, error) {
	id := ""
	err := s.mutate(func() (*Change, error) {
		err := s.checkFields(fields)
		if err != nil {
			return nil, err
		}

		id, err = s.freshID()
		if err != nil {
			return nil, err
		}

		record := Record{ID: id, Fields: s.complete(fields)}
		s.append(record)

		return &Change{Kind: Created, Record: record}, nil
	})
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}

	return id, nil
}

// Insert appends a record that already has an id, as found in a snapshot or a
// journal. Ids are never reused: an id held at any time by this store is
// rejected.
func (s *Store) Insert(record Record) error {
	err := s.mutate(func() (*Change, error) {
		if record.ID == "" {
			return nil, ErrEmptyID
		}
		if _, used := s.seen[record.ID]; used {
			return nil, fmt.Errorf("%w '%s'", ErrDuplicateID, record.ID)
		}
		err := s.checkFields(record.Fields)
		if err != nil {
			return nil, err
		}

		inserted := Record{ID: record.ID, Fields: s.complete(record.Fields)}
		s.append(inserted)

		return &Change{Kind: Created, Record: inserted}, nil
	})
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return nil
}

// Reserve marks ids as already used, so Create never hands them out and
// Insert rejects them. Ids of records currently in the list are unaffected.
func (s *Store) Reserve(ids ...string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, id := range ids {
		if id == "" {
			continue
		}
		s.seen[id] = struct{}{}
	}
}

// BeginEdit copies the fields of record id into the edit buffer. Any edit in
// progress is discarded.
func (s *Store) BeginEdit(id string) error {
	return s.mutate(func() (*Change, error) {
		r, exists := s.byID[id]
		if !exists {
			return nil, fmt.Errorf("begin edit '%s': %w", id, ErrNotFound)
		}

		s.target = id
		s.draft = r.record.Fields.Clone()
		s.orphan = ""

		return nil, nil
	})
}

func (s *Store) UpdateDraftField(name, value string) error {
	return s.mutate(func() (*Change, error) {
		if s.target == "" {
			return nil, fmt.Errorf("update draft field '%s': %w", name, ErrNoActiveEdit)
		}
		if _, exists := s.fieldSet[name]; !exists {
			return nil, fmt.Errorf("update draft field: %w '%s'", ErrUnknownField, name)
		}

		s.draft[name] = value

		return nil, nil
	})
}

// CommitEdit replaces all the fields of the edited record with the draft and
// leaves the buffer idle.
func (s *Store) CommitEdit() error {
	return s.mutate(func() (*Change, error) {
		if s.target == "" {
			if s.orphan != "" {
				id := s.orphan
				s.orphan = ""
				return nil, fmt.Errorf("commit edit '%s': %w", id, ErrNotFound)
			}
			return nil, fmt.Errorf("commit edit: %w", ErrNoActiveEdit)
		}

		id := s.target
		draft := s.draft
		s.clearBuffer()

		r, exists := s.byID[id]
		if !exists {
			return nil, fmt.Errorf("commit edit '%s': %w", id, ErrNotFound)
		}
		r.record.Fields = draft

		return &Change{Kind: Updated, Record: r.record}, nil
	})
}

// CancelEdit drops the edit buffer. It does nothing when there is no edit.
func (s *Store) CancelEdit() {
	s.mutate(func() (*Change, error) {
		s.clearBuffer()
		s.orphan = ""
		return nil, nil
	})
}

// Delete removes the record with the given id, if any. Deleting the record
// being edited ends the edit.
func (s *Store) Delete(id string) {
	s.mutate(func() (*Change, error) {
		r, exists := s.byID[id]
		if !exists {
			return nil, nil
		}

		s.rows.Delete(r)
		delete(s.byID, id)

		if s.target == id {
			s.clearBuffer()
			s.orphan = id
		}

		return &Change{Kind: Deleted, Record: r.record}, nil
	})
}

// List returns a copy of the records in list order.
func (s *Store) List() []Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]Record, 0, s.rows.Len())
	s.rows.Traverse(func(r *row) bool {
		result = append(result, r.record.clone())
		return true
	})

	return result
}

// Traverse calls f for each record in list order until f returns false. It
// iterates over a snapshot, so f may call back into the store.
func (s *Store) Traverse(f func(record Record) bool) {
	for _, record := range s.List() {
		if !f(record) {
			return
		}
	}
}

func (s *Store) Get(id string) (Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	r, exists := s.byID[id]
	if !exists {
		return Record{}, fmt.Errorf("get '%s': %w", id, ErrNotFound)
	}

	return r.record.clone(), nil
}

func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.rows.Len()
}

func (s *Store) FieldNames() []string {
	return append([]string{}, s.fields...)
}

func (s *Store) State() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.target == "" {
		return StateIdle
	}
	return StateEditing
}

// Editing returns the id of the record being edited.
func (s *Store) Editing() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.target, s.target != ""
}

// Draft returns a copy of the edit buffer.
func (s *Store) Draft() (Fields, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.target == "" {
		return nil, false
	}
	return s.draft.Clone(), true
}

// Subscribe registers a listener for list changes. The returned function
// removes it.
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	sub := &subscription{listener: listener}

	s.mutex.Lock()
	listeners := make([]*subscription, 0, len(s.listeners)+1)
	listeners = append(listeners, s.listeners...)
	s.listeners = append(listeners, sub)
	s.mutex.Unlock()

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		listeners := make([]*subscription, 0, len(s.listeners))
		for _, l := range s.listeners {
			if l != sub {
				listeners = append(listeners, l)
			}
		}
		s.listeners = listeners
	}
}

func (s *Store) checkFields(fields Fields) error {
	for name := range fields {
		if _, exists := s.fieldSet[name]; !exists {
			return fmt.Errorf("%w '%s'", ErrUnknownField, name)
		}
	}
	return nil
}

// complete returns a copy of fields holding every configured field.
func (s *Store) complete(fields Fields) Fields {
	result := make(Fields, len(s.fields))
	for _, name := range s.fields {
		result[name] = fields[name]
	}
	return result
}

func (s *Store) freshID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.nextID()
		if id == "" {
			continue
		}
		if _, used := s.seen[id]; used {
			continue
		}
		return id, nil
	}
	return "", ErrIDExhausted
}

func (s *Store) append(record Record) {
	s.seq++
	r := &row{
		seq:    s.seq,
		record: record,
	}
	s.rows.ReplaceOrInsert(r)
	s.byID[record.ID] = r
	s.seen[record.ID] = struct{}{}
}

func (s *Store) clearBuffer() {
	s.target = ""
	s.draft = nil
}
