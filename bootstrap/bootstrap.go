package bootstrap

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/fulldump/recordlist/configuration"
	"github.com/fulldump/recordlist/journal"
	"github.com/fulldump/recordlist/recordlist"
	"github.com/fulldump/recordlist/session"
	"github.com/fulldump/recordlist/storage"
)

var VERSION = "dev"

// Bootstrap opens the session described by c. The returned stop closes it and
// is also called on SIGTERM or SIGINT.
func Bootstrap(c *configuration.Configuration) (s *session.Session, stop func(), err error) {

	err = c.Validate()
	if err != nil {
		return nil, nil, err
	}

	logger, err := NewLogger(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("list", c.Name))

	if c.ShowConfig {
		logger.Info("config", zap.Any("config", c), zap.String("version", VERSION))
	}

	nextID, err := recordlist.GeneratorByName(c.IDStrategy, c.IDPrefix)
	if err != nil {
		return nil, nil, err
	}

	config := &session.Config{
		Fields: c.FieldNames(),
		NextID: nextID,
		Logger: logger,
	}

	if c.SeedFile != "" {
		config.Seed, err = configuration.LoadSeed(c.SeedFile)
		if err != nil {
			return nil, nil, err
		}
	}

	if c.Storage != configuration.StorageMemory || c.Journal {
		err = os.MkdirAll(c.Dir, 0755)
		if err != nil {
			return nil, nil, fmt.Errorf("create dir: %w", err)
		}
	}

	config.Slot, err = openSlot(c)
	if err != nil {
		return nil, nil, err
	}

	if c.Journal {
		config.JournalFile = filepath.Join(c.Dir, c.Name+".journal")
		config.Journal, err = journal.Open(config.JournalFile)
		if err != nil {
			config.Slot.Close()
			return nil, nil, err
		}
	}

	s, err = session.Open(config)
	if err != nil {
		if config.Journal != nil {
			config.Journal.Close()
		}
		config.Slot.Close()
		return nil, nil, err
	}

	signalChan := make(chan os.Signal, 1)
	done := make(chan struct{})

	once := &sync.Once{}
	stop = func() {
		once.Do(func() {
			signal.Stop(signalChan)
			close(done)
			err := s.Close()
			if err != nil {
				logger.Error("close session", zap.Error(err))
			}
			logger.Sync()
		})
	}

	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case sig := <-signalChan:
			logger.Info("signal received", zap.String("signal", sig.String()))
			stop()
		case <-done:
		}
	}()

	return s, stop, nil
}

func openSlot(c *configuration.Configuration) (storage.Slot, error) {
	switch c.Storage {
	case configuration.StorageFile:
		return storage.OpenFileSlot(filepath.Join(c.Dir, c.Name+".json"))
	case configuration.StorageSQLite:
		return storage.OpenSQLiteSlot(filepath.Join(c.Dir, "recordlist.db"), c.Name)
	}
	return storage.NewMemorySlot(), nil
}

// NewLogger builds a production logger writing at level and above.
func NewLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level '%s': %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = atomicLevel

	return config.Build()
}
