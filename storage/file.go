package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSlot keeps the list in a single file. Save writes a sibling temporary
// file and renames it over the target, so readers see either the old or the
// new list.
type FileSlot struct {
	Filename string
	mutex    sync.Mutex
	closed   bool
}

func OpenFileSlot(filename string) (*FileSlot, error) {
	err := os.MkdirAll(filepath.Dir(filename), 0755)
	if err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}

	return &FileSlot{
		Filename: filename,
	}, nil
}

func (f *FileSlot) Save(data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return ErrClosed
	}

	tmp := f.Filename + ".tmp"
	err := os.WriteFile(tmp, data, 0666)
	if err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}

	err = os.Rename(tmp, f.Filename)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temporary file: %w", err)
	}

	return nil
}

func (f *FileSlot) Load() ([]byte, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return nil, false, ErrClosed
	}

	data, err := os.ReadFile(f.Filename)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot file: %w", err)
	}

	return data, true, nil
}

func (f *FileSlot) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.closed = true
	return nil
}
