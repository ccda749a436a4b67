// Package testutil provides test helpers for airzone-cli tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// LoginPath is the login endpoint served by RESTMock.
const LoginPath = "/api/v1/auth/login"

// PatchCall is a PATCH request body recorded by RESTMock.
type PatchCall struct {
	Path           string
	InstallationID string      `json:"installation_id"`
	Param          string      `json:"param"`
	Value          interface{} `json:"value"`
}

// RESTMock wraps httptest.Server with an Airzone-style login endpoint, Bearer token
// validation and route registration for testing the REST API client.
type RESTMock struct {
	Server   *httptest.Server
	Email    string
	Password string

	mu      sync.Mutex
	routes  map[string]http.HandlerFunc
	tokens  map[string]bool
	issued  int
	logins  int
	calls   map[string]int
	patches []PatchCall

	omitToken bool
}

// NewRESTMock creates a new mock REST server accepting the given credentials.
// All routes return 404 by default. Use Handle/HandleJSON to register routes.
func NewRESTMock(t *testing.T, email, password string) *RESTMock {
	t.Helper()

	m := &RESTMock{
		Email:    email,
		Password: password,
		routes:   make(map[string]http.HandlerFunc),
		tokens:   make(map[string]bool),
		calls:    make(map[string]int),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == LoginPath {
			m.handleLogin(w, r)
			return
		}

		key := r.Method + " " + r.URL.Path
		m.mu.Lock()
		m.calls[key]++
		m.mu.Unlock()

		// Validate Bearer token
		auth := r.Header.Get("Authorization")
		m.mu.Lock()
		valid := strings.HasPrefix(auth, "Bearer ") && m.tokens[strings.TrimPrefix(auth, "Bearer ")]
		m.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Unauthorized"})
			return
		}

		if r.Method == http.MethodPatch {
			var call PatchCall
			json.NewDecoder(r.Body).Decode(&call)
			call.Path = r.URL.Path
			m.mu.Lock()
			m.patches = append(m.patches, call)
			m.mu.Unlock()
		}

		m.mu.Lock()
		handler, ok := m.routes[key]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}

		// Try prefix match for dynamic paths
		m.mu.Lock()
		for routeKey, h := range m.routes {
			if strings.HasSuffix(routeKey, "/*") {
				prefix := strings.TrimSuffix(routeKey, "*")
				if strings.HasPrefix(key, prefix) {
					m.mu.Unlock()
					h(w, r)
					return
				}
			}
		}
		m.mu.Unlock()

		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Not found"})
	}))

	t.Cleanup(func() {
		m.Server.Close()
	})

	return m
}

func (m *RESTMock) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad request"})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins++

	if body.Email != m.Email || body.Password != m.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "userNotExist"})
		return
	}
	if m.omitToken {
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}

	m.issued++
	token := fmt.Sprintf("token-%d", m.issued)
	m.tokens[token] = true
	writeJSON(w, http.StatusOK, map[string]string{
		"token":        token,
		"refreshToken": fmt.Sprintf("refresh-%d", m.issued),
	})
}

// URL returns the base URL of the mock server.
func (m *RESTMock) URL() string {
	return m.Server.URL
}

// Handle registers a handler for a specific method and path.
func (m *RESTMock) Handle(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method+" "+path] = handler
}

// HandleJSON registers a handler that returns a canned JSON response.
func (m *RESTMock) HandleJSON(method, path string, statusCode int, data interface{}) {
	m.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, statusCode, data)
	})
}

// HandleNoContent registers a handler that answers 200 with an empty body.
func (m *RESTMock) HandleNoContent(method, path string) {
	m.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// SetPassword changes the accepted password.
func (m *RESTMock) SetPassword(password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Password = password
}

// OmitToken makes successful logins return a body without a token.
func (m *RESTMock) OmitToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitToken = true
}

// ExpireTokens invalidates every token issued so far.
func (m *RESTMock) ExpireTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]bool)
}

// Logins returns the number of login attempts received.
func (m *RESTMock) Logins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logins
}

// Calls returns how many times method and path were requested, including rejected calls.
func (m *RESTMock) Calls(method, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method+" "+path]
}

// Patches returns the PATCH bodies received so far, in order.
func (m *RESTMock) Patches() []PatchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PatchCall, len(m.patches))
	copy(out, m.patches)
	return out
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
