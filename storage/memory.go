package storage

import "sync"

type MemorySlot struct {
	mutex   sync.Mutex
	data    []byte
	present bool
	closed  bool
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Save(data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.data = append([]byte{}, data...)
	m.present = true
	return nil
}

func (m *MemorySlot) Load() ([]byte, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return nil, false, ErrClosed
	}
	if !m.present {
		return nil, false, nil
	}
	return append([]byte{}, m.data...), true, nil
}

func (m *MemorySlot) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed = true
	return nil
}
