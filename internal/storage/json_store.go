package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bookinggo/internal/models"
)

const reservationsKey = "reservations"

// JSONStore keeps the collection in a single JSON document on disk. Every
// mutation reloads and rewrites the whole document under one lock, and the
// rewrite goes through a temp file + rename so readers never observe a
// partially written file. Top-level keys other than "reservations" are
// preserved untouched.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

type document struct {
	raw          map[string]json.RawMessage
	reservations []models.Reservation
}

// OpenJSON opens the document at path, creating it (with seed, when non-nil)
// if it does not exist yet.
func OpenJSON(path string, seed []models.Reservation) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("data file path must be provided")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &JSONStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if seed == nil {
			seed = []models.Reservation{}
		}
		doc := &document{raw: map[string]json.RawMessage{}, reservations: seed}
		if err := s.save(doc); err != nil {
			return nil, fmt.Errorf("initialize data file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path reports the location of the backing document.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) List(_ context.Context) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.reservations, nil
}

func (s *JSONStore) Get(_ context.Context, id int64) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	idx := doc.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	r := doc.reservations[idx]
	return &r, nil
}

func (s *JSONStore) Create(_ context.Context, r models.Reservation) (*models.Reservation, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	r.ID = doc.nextID()
	doc.reservations = append(doc.reservations, r)
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *JSONStore) Update(_ context.Context, id int64, mutate func(*models.Reservation) error) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	idx := doc.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	updated := doc.reservations[idx]
	if err := mutate(&updated); err != nil {
		return nil, err
	}
	updated.ID = id
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	doc.reservations[idx] = updated
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *JSONStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	idx := doc.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	doc.reservations = append(doc.reservations[:idx], doc.reservations[idx+1:]...)
	return s.save(doc)
}

func (s *JSONStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	doc := &document{raw: map[string]json.RawMessage{}}
	if err := json.Unmarshal(data, &doc.raw); err != nil {
		return nil, fmt.Errorf("decode data file: %w", err)
	}
	if raw, ok := doc.raw[reservationsKey]; ok {
		if err := json.Unmarshal(raw, &doc.reservations); err != nil {
			return nil, fmt.Errorf("decode reservations: %w", err)
		}
	}
	if doc.reservations == nil {
		doc.reservations = []models.Reservation{}
	}
	return doc, nil
}

func (s *JSONStore) save(doc *document) error {
	encoded, err := json.Marshal(doc.reservations)
	if err != nil {
		return fmt.Errorf("encode reservations: %w", err)
	}
	doc.raw[reservationsKey] = encoded
	data, err := json.MarshalIndent(doc.raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp data file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp data file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (d *document) indexOf(id int64) int {
	for i := range d.reservations {
		if d.reservations[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *document) nextID() int64 {
	var maxID int64
	for _, r := range d.reservations {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}
