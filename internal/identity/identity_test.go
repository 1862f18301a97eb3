package identity

import (
	"net/http/httptest"
	"testing"
)

func TestStatic_Resolve(t *testing.T) {
	p := NewStatic()

	t.Run("default user", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		id := p.Resolve(r)
		if id.UserID != DefaultUserID || id.Email != DefaultUserEmail {
			t.Fatalf("unexpected identity: %+v", id)
		}
	})

	t.Run("header override", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(UserIDHeader, "alice-1")
		id := p.Resolve(r)
		if id.UserID != "alice-1" || id.Email != "alice-1@fitnesse.local" {
			t.Fatalf("unexpected identity: %+v", id)
		}
	})

	t.Run("invalid header falls back", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(UserIDHeader, "not a valid id!!")
		id := p.Resolve(r)
		if id.UserID != DefaultUserID {
			t.Fatalf("invalid header should fall back, got %+v", id)
		}
	})

	t.Run("nil request", func(t *testing.T) {
		id := p.Resolve(nil)
		if id.UserID != DefaultUserID {
			t.Fatalf("nil request should use default, got %+v", id)
		}
	})
}
