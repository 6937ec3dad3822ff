// Package session keeps the tables a user has uploaded so far, so a plan can
// be recomputed as the remaining inputs arrive.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Upload describes one table held by a session.
type Upload struct {
	Kind       ingest.Kind `json:"kind"`
	FileName   string      `json:"file_name"`
	Rows       int         `json:"rows"`
	Columns    []string    `json:"columns"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// Session is a snapshot; mutating it does not touch the store.
type Session struct {
	ID        string                       `json:"id"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
	Uploads   []Upload                     `json:"uploads"`
	Tables    map[ingest.Kind]*ingest.Table `json:"-"`
}

// Missing lists the kinds the session has not received yet, in canonical order.
func (s Session) Missing() []ingest.Kind {
	var out []ingest.Kind
	for _, k := range ingest.Kinds {
		if _, ok := s.Tables[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

type entry struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	tables    map[ingest.Kind]*ingest.Table
	uploads   map[ingest.Kind]Upload
}

// Store is an in-memory session registry. Sessions idle for longer than the
// TTL are dropped by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) Create() Session {
	now := s.now()
	e := &entry{
		id:        uuid.New().String(),
		createdAt: now,
		updatedAt: now,
		tables:    make(map[ingest.Kind]*ingest.Table),
		uploads:   make(map[ingest.Kind]Upload),
	}

	s.mu.Lock()
	s.sessions[e.id] = e
	s.mu.Unlock()
	return e.snapshot()
}

func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return e.snapshot(), nil
}

// Put stores or replaces the table for kind.
func (s *Store) Put(id string, kind ingest.Kind, fileName string, t *ingest.Table) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	now := s.now()
	e.tables[kind] = t
	e.uploads[kind] = Upload{
		Kind:       kind,
		FileName:   fileName,
		Rows:       t.Len(),
		Columns:    t.Header,
		UploadedAt: now,
	}
	e.updatedAt = now
	return e.snapshot(), nil
}

func (s *Store) Remove(id string, kind ingest.Kind) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	delete(e.tables, kind)
	delete(e.uploads, kind)
	e.updatedAt = s.now()
	return e.snapshot(), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.sessions {
		if e.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (e *entry) snapshot() Session {
	out := Session{
		ID:        e.id,
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
		Tables:    make(map[ingest.Kind]*ingest.Table, len(e.tables)),
		Uploads:   make([]Upload, 0, len(e.uploads)),
	}
	for k, t := range e.tables {
		out.Tables[k] = t
	}
	for _, u := range e.uploads {
		out.Uploads = append(out.Uploads, u)
	}
	sort.Slice(out.Uploads, func(i, j int) bool {
		return kindOrder(out.Uploads[i].Kind) < kindOrder(out.Uploads[j].Kind)
	})
	return out
}

func kindOrder(k ingest.Kind) int {
	for i, kind := range ingest.Kinds {
		if kind == k {
			return i
		}
	}
	return len(ingest.Kinds)
}
