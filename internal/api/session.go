package api

import "sync"

// Session holds the account credentials and the current bearer token.
// The token is only written by login; gen increases on every successful login so
// callers can tell whether someone else already renewed it.
type Session struct {
	email    string
	password string

	mu           sync.Mutex
	token        string
	refreshToken string
	gen          uint64
}

// NewSession creates a session for the given credentials. No network call is made.
func NewSession(email, password string) *Session {
	return &Session{email: email, password: password}
}

// Email returns the account email.
func (s *Session) Email() string {
	return s.email
}

// Token returns the current bearer token and its generation.
func (s *Session) Token() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.gen
}

// HasToken reports whether a login has succeeded.
func (s *Session) HasToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *Session) set(token, refreshToken string) uint64 {
	s.token = token
	s.refreshToken = refreshToken
	s.gen++
	return s.gen
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refreshToken = ""
}
