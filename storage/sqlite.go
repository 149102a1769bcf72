package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteSlot keeps the list as one row of a slots table, so several lists can
// share a database file under different keys.
type SQLiteSlot struct {
	Key string
	db  *sql.DB
}

func OpenSQLiteSlot(filename, key string) (*SQLiteSlot, error) {
	if key == "" {
		return nil, fmt.Errorf("empty slot key")
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		_, err := db.Exec(pragma)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	_, err = db.Exec(schemaSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteSlot{
		Key: key,
		db:  db,
	}, nil
}

func (s *SQLiteSlot) Save(data []byte) error {
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.Exec(
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.Key, data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save slot '%s': %w", s.Key, err)
	}

	return nil
}

func (s *SQLiteSlot) Load() ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}

	data := []byte{}
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, s.Key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load slot '%s': %w", s.Key, err)
	}

	return data, true, nil
}

func (s *SQLiteSlot) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
