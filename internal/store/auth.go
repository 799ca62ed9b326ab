package store

import (
	"encoding/json"
	"sync"

	"fleetdash/internal/logs"
	"fleetdash/internal/models"

	"github.com/pkg/errors"
)

// AuthState is the signed-in session.
type AuthState struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// authBlob is the on-disk shape: {"state":{...},"version":0}.
type authBlob struct {
	State   AuthState `json:"state"`
	Version int       `json:"version"`
}

// AuthStore holds the session and mirrors it to a Persister under one key.
type AuthStore struct {
	p   Persister
	key string

	mu    sync.RWMutex
	state AuthState
}

func NewAuthStore(p Persister, key string) *AuthStore {
	if p == nil {
		p = NewMemPersister()
	}
	if key == "" {
		key = "auth-storage"
	}
	return &AuthStore{p: p, key: key}
}

func (s *AuthStore) Key() string { return s.key }

// Restore loads the persisted blob into memory. A missing key leaves the
// store signed out; an unreadable blob is dropped.
func (s *AuthStore) Restore() (AuthState, error) {
	b, ok, err := s.p.Load(s.key)
	if err != nil {
		return AuthState{}, err
	}
	if !ok {
		return s.State(), nil
	}
	var blob authBlob
	if err := json.Unmarshal(b, &blob); err != nil {
		logs.Logger.WithError(err).Warnf("auth store: dropping unreadable %s", s.key)
		_ = s.p.Remove(s.key)
		return AuthState{}, nil
	}
	st := blob.State
	if st.Token == "" {
		st = AuthState{}
	} else {
		st.IsAuthenticated = true
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return cloneState(st), nil
}

func (s *AuthStore) Login(u models.User, token string) error {
	if token == "" {
		return errors.New("login: empty token")
	}
	st := AuthState{User: &u, Token: token, IsAuthenticated: true}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return s.persist(st)
}

// Logout clears memory and removes the persisted key.
func (s *AuthStore) Logout() error {
	s.mu.Lock()
	s.state = AuthState{}
	s.mu.Unlock()
	return s.p.Remove(s.key)
}

// UpdateUser merges p into the signed-in user. No-op when signed out.
func (s *AuthStore) UpdateUser(p models.UserPatch) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return nil
	}
	u := *s.state.User
	p.Apply(&u)
	s.state.User = &u
	st := s.state
	s.mu.Unlock()
	return s.persist(st)
}

func (s *AuthStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Token satisfies api.TokenSource.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *AuthStore) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return models.User{}, false
	}
	return *s.state.User, true
}

func (s *AuthStore) persist(st AuthState) error {
	b, err := json.Marshal(authBlob{State: st})
	if err != nil {
		return errors.Wrap(err, "encode auth state")
	}
	return s.p.Save(s.key, b)
}

func cloneState(st AuthState) AuthState {
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
