// Package identity resolves which user a request acts on behalf of.
//
// There is no real authentication yet: the default provider pins every
// request to a single development user, optionally overridden by the
// X-User-ID header so multiple test users can coexist. Swapping in real
// auth later means implementing Provider and changing one wiring line.
package identity

import (
	"net/http"
	"regexp"
	"strings"
)

const (
	// UserIDHeader lets callers pick a user explicitly during development.
	UserIDHeader = "X-User-ID"

	// DefaultUserID and DefaultUserEmail identify the placeholder user
	// every unauthenticated request maps to.
	DefaultUserID    = "temp-user-123"
	DefaultUserEmail = "temp@fitnesse.local"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// Identity is the resolved caller of a request.
type Identity struct {
	UserID string
	Email  string
}

// Provider resolves the identity behind an HTTP request.
type Provider interface {
	Resolve(r *http.Request) Identity
}

// Static is the development Provider: a fixed user, with an optional
// X-User-ID header override. Invalid header values fall back to the default
// rather than failing the request.
type Static struct {
	UserID string
	Email  string
}

// NewStatic returns a Static provider for the default development user.
func NewStatic() Static {
	return Static{UserID: DefaultUserID, Email: DefaultUserEmail}
}

// Resolve implements Provider.
func (s Static) Resolve(r *http.Request) Identity {
	id := Identity{UserID: s.UserID, Email: s.Email}
	if r == nil {
		return id
	}
	if v := strings.TrimSpace(r.Header.Get(UserIDHeader)); v != "" && userIDPattern.MatchString(v) {
		id.UserID = v
		id.Email = v + "@fitnesse.local"
	}
	return id
}
