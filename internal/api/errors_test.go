package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestHTTPError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *HTTPError
		want string
	}{
		{
			name: "with body",
			err:  &HTTPError{Method: "GET", Path: "/api/v1/user", StatusCode: 500, Body: "boom\n"},
			want: "GET /api/v1/user: HTTP 500: boom",
		},
		{
			name: "without body",
			err:  &HTTPError{Method: "PATCH", Path: "/api/v1/devices/x", StatusCode: 404},
			want: "PATCH /api/v1/devices/x: HTTP 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthError_Error(t *testing.T) {
	err := &AuthError{Message: "credentials rejected", Err: &HTTPError{Method: "POST", Path: "/login", StatusCode: 401}}
	want := "authentication failed: credentials rejected: POST /login: HTTP 401"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Error("AuthError should unwrap to *HTTPError")
	}
}

func TestIsUnauthorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "AuthError", err: &AuthError{Message: "x"}, want: true},
		{name: "HTTPError 401", err: &HTTPError{StatusCode: 401}, want: true},
		{name: "HTTPError 404", err: &HTTPError{StatusCode: 404}, want: false},
		{name: "wrapped AuthError", err: fmt.Errorf("refresh: %w", &AuthError{Message: "x"}), want: true},
		{name: "plain error", err: errors.New("nope"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnauthorized(tt.err); got != tt.want {
				t.Errorf("IsUnauthorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "HTTPError 404", err: &HTTPError{StatusCode: 404}, want: true},
		{name: "wrapped 404", err: fmt.Errorf("wrapped: %w", &HTTPError{StatusCode: 404}), want: true},
		{name: "HTTPError 500", err: &HTTPError{StatusCode: 500}, want: false},
		{name: "AuthError", err: &AuthError{Message: "x"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
