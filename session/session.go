// Package session runs one record list for the lifetime of a session: it
// loads the list on open, persists it after every change and releases the
// storage on close.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fulldump/recordlist/dispatch"
	"github.com/fulldump/recordlist/journal"
	"github.com/fulldump/recordlist/recordlist"
	"github.com/fulldump/recordlist/storage"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var (
	ErrUnavailable = errors.New("temporary unavailable")
	ErrPersist     = errors.New("persist")
)

type Config struct {
	Fields []string
	NextID recordlist.IDGenerator

	// Slot keeps the serialized list. Defaults to a memory slot.
	Slot storage.Slot

	// Journal, when set, receives every change.
	Journal *journal.Journal

	// JournalFile is replayed on open when Slot holds no list.
	JournalFile string

	// Seed is created when neither the slot nor the journal hold a list.
	Seed []recordlist.Fields

	Logger *zap.Logger
}

type Session struct {
	config      *Config
	status      string
	store       *recordlist.Store
	dispatcher  *dispatch.Dispatcher
	slot        storage.Slot
	logger      *zap.Logger
	mutex       sync.Mutex
	pending     error // persistence failure of the operation in progress
	unsubscribe func()
	done        chan struct{}
}

func Open(config *Config) (*Session, error) {

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	slot := config.Slot
	if slot == nil {
		slot = storage.NewMemorySlot()
	}

	store, err := recordlist.New(&recordlist.Options{
		Fields: config.Fields,
		NextID: config.NextID,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		config: config,
		status: StatusOpening,
		store:  store,
		slot:   slot,
		logger: logger,
		done:   make(chan struct{}),
	}
	s.dispatcher = dispatch.NewDispatcher(store).Use(
		dispatch.RecoverFromPanic,
		dispatch.AccessLog(logger),
	)

	t0 := time.Now()
	source, err := s.load()
	if err != nil {
		s.status = StatusClosing
		logger.Error("session load failed", zap.Error(err))
		return nil, err
	}

	s.unsubscribe = store.Subscribe(s.persist)

	if source == "journal" {
		err = s.save()
		if err != nil {
			logger.Warn("snapshot after journal replay failed", zap.Error(err))
		}
	}

	if source != "slot" && store.Len() == 0 && len(config.Seed) > 0 {
		for _, fields := range config.Seed {
			_, err := store.Create(fields)
			if err != nil {
				s.close()
				return nil, fmt.Errorf("seed: %w", err)
			}
			if s.pending != nil {
				err := s.pending
				s.close()
				return nil, fmt.Errorf("seed: %w", err)
			}
		}
		source = "seed"
	}

	s.status = StatusOperating
	logger.Info("session open",
		zap.String("source", source),
		zap.Int("records", store.Len()),
		zap.Duration("elapsed", time.Since(t0)),
	)

	return s, nil
}

// load fills the store from the slot, or from the journal when the slot is
// empty, and tells where the records came from. Ids the journal ever inserted
// stay reserved, so the journal remains replayable.
func (s *Session) load() (string, error) {

	data, present, err := s.slot.Load()
	if err != nil {
		return "", fmt.Errorf("load slot: %w", err)
	}

	if present {
		records, err := storage.Decode(data)
		if err != nil {
			return "", fmt.Errorf("decode slot: %w", err)
		}
		for _, record := range records {
			err := s.store.Insert(record)
			if err != nil {
				return "", fmt.Errorf("load record: %w", err)
			}
		}
		if s.config.JournalFile != "" {
			ids, err := journal.InsertedIDs(s.config.JournalFile)
			if err != nil {
				return "", fmt.Errorf("scan journal: %w", err)
			}
			s.store.Reserve(ids...)
		}
		return "slot", nil
	}

	if s.config.JournalFile != "" {
		n, err := journal.Replay(s.config.JournalFile, s.store)
		if err != nil {
			return "", fmt.Errorf("replay journal: %w", err)
		}
		if n > 0 {
			return "journal", nil
		}
	}

	return "empty", nil
}

func (s *Session) save() error {
	data, err := storage.Encode(s.store.List())
	if err != nil {
		return err
	}
	return s.slot.Save(data)
}

// persist is subscribed to the store, it runs inside the session operation
// that caused the change.
func (s *Session) persist(change recordlist.Change) {

	errs := []error{}

	err := s.save()
	if err != nil {
		errs = append(errs, fmt.Errorf("save slot: %w", err))
	}

	if s.config.Journal != nil {
		err := s.config.Journal.Append(change)
		if err != nil {
			errs = append(errs, fmt.Errorf("append journal: %w", err))
		}
	}

	if len(errs) == 0 {
		return
	}

	s.pending = fmt.Errorf("%w: %w", ErrPersist, errors.Join(errs...))
	s.logger.Error("persist change failed",
		zap.String("kind", string(change.Kind)),
		zap.String("id", change.Record.ID),
		zap.Error(s.pending),
	)
}

// do runs f as one session operation. A persistence failure is reported
// after f has been applied; the list in memory keeps the change and the next
// successful save stores it.
func (s *Session) do(f func() error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.status != StatusOperating {
		return fmt.Errorf("%w: %s", ErrUnavailable, s.status)
	}

	s.pending = nil
	err := f()
	if err != nil {
		return err
	}

	return s.pending
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) GetStatus() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.status
}

func (s *Session) Create(fields recordlist.Fields) (string, error) {
	id := ""
	err := s.do(func() (err error) {
		id, err = s.store.Create(fields)
		return
	})
	return id, err
}

func (s *Session) BeginEdit(id string) error {
	return s.do(func() error {
		return s.store.BeginEdit(id)
	})
}

func (s *Session) UpdateDraftField(name, value string) error {
	return s.do(func() error {
		return s.store.UpdateDraftField(name, value)
	})
}

func (s *Session) CommitEdit() error {
	return s.do(func() error {
		return s.store.CommitEdit()
	})
}

func (s *Session) CancelEdit() error {
	return s.do(func() error {
		s.store.CancelEdit()
		return nil
	})
}

func (s *Session) Delete(id string) error {
	return s.do(func() error {
		s.store.Delete(id)
		return nil
	})
}

// Dispatch reduces a create or delete action over the session list.
func (s *Session) Dispatch(ctx context.Context, action *dispatch.Action) (*dispatch.Result, error) {
	var result *dispatch.Result
	err := s.do(func() (err error) {
		result, err = s.dispatcher.Dispatch(ctx, action)
		return
	})
	return result, err
}

// Subscribe registers f on the session dispatcher.
func (s *Session) Subscribe(f func(state []recordlist.Record)) (unsubscribe func()) {
	return s.dispatcher.Subscribe(f)
}

func (s *Session) List() []recordlist.Record {
	return s.store.List()
}

func (s *Session) Get(id string) (recordlist.Record, error) {
	return s.store.Get(id)
}

func (s *Session) Find(filter map[string]interface{}) ([]recordlist.Record, error) {
	return s.store.Find(filter)
}

func (s *Session) Len() int {
	return s.store.Len()
}

func (s *Session) FieldNames() []string {
	return s.store.FieldNames()
}

func (s *Session) State() recordlist.State {
	return s.store.State()
}

func (s *Session) Editing() (string, bool) {
	return s.store.Editing()
}

func (s *Session) Draft() (recordlist.Fields, bool) {
	return s.store.Draft()
}

// Close stops accepting operations and releases the journal and the slot.
// Closing twice is a no-op.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.status == StatusClosing {
		return nil
	}

	return s.close()
}

func (s *Session) close() error {
	s.status = StatusClosing
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	var lastErr error
	if s.config.Journal != nil {
		err := s.config.Journal.Close()
		if err != nil {
			s.logger.Error("close journal", zap.Error(err))
			lastErr = err
		}
	}

	err := s.slot.Close()
	if err != nil {
		s.logger.Error("close slot", zap.Error(err))
		lastErr = err
	}

	s.logger.Info("session closed", zap.Int("records", s.store.Len()))
	close(s.done)

	return lastErr
}
