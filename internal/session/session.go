// Package session holds multi-step project uploads until they are ready to
// be documented.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names a project wizard.
type Kind string

const (
	KindReact Kind = "react"
	KindNode  Kind = "node"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// File is an uploaded project file.
type File struct {
	Name    string `json:"filename"`
	Content string `json:"content"`
}

// Session collects the files of one project upload.
type Session struct {
	ID        string    `json:"session_id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PackageJSON string `json:"-"`
	ProjectName string `json:"project_name,omitempty"`

	// React
	Component File `json:"-"`

	// Node
	Server File   `json:"-"`
	Extras []File `json:"-"`
}

// Ready reports whether the session has the files its kind requires:
// package.json plus a component (react) or a server file (node).
func (s *Session) Ready() bool {
	if s.PackageJSON == "" {
		return false
	}
	switch s.Kind {
	case KindReact:
		return s.Component.Content != ""
	case KindNode:
		return s.Server.Content != ""
	}
	return false
}

// Status is the client-facing view of upload progress.
type Status struct {
	SessionID           string `json:"session_id"`
	Kind                Kind   `json:"kind"`
	PackageJSONUploaded bool   `json:"package_json_uploaded"`
	ComponentUploaded   bool   `json:"component_uploaded,omitempty"`
	ServerUploaded      bool   `json:"main_server_uploaded,omitempty"`
	AdditionalFiles     int    `json:"additional_files,omitempty"`
	Ready               bool   `json:"ready_for_processing"`
}

func (s *Session) Status() Status {
	return Status{
		SessionID:           s.ID,
		Kind:                s.Kind,
		PackageJSONUploaded: s.PackageJSON != "",
		ComponentUploaded:   s.Component.Content != "",
		ServerUploaded:      s.Server.Content != "",
		AdditionalFiles:     len(s.Extras),
		Ready:               s.Ready(),
	}
}

func (s *Session) clone() *Session {
	c := *s
	c.Extras = append([]File(nil), s.Extras...)
	return &c
}

// Store is a thread-safe in-memory session registry. Sessions idle longer
// than the TTL are evicted by Cleanup.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session of the given kind.
func (st *Store) Create(kind Kind) *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s.clone()
}

// Get returns a copy of the session.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// Update applies fn to a working copy of the session and stores it only if
// fn succeeds. The updated copy is returned.
func (st *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		return nil, ErrNotFound
	}
	work := s.clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = st.now()
	st.sessions[id] = work
	return work.clone(), nil
}

// Take removes the session and returns it, for handing to the pipeline.
func (st *Store) Take(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		return nil, ErrNotFound
	}
	delete(st.sessions, id)
	return s, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Cleanup removes expired sessions and returns how many were evicted.
func (st *Store) Cleanup() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session) bool {
	return st.ttl > 0 && st.now().Sub(s.UpdatedAt) > st.ttl
}
