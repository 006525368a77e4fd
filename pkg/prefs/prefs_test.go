package prefs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFragmentDeterministic(t *testing.T) {
	p := Preferences{"zeta": "1", "alpha": "2"}

	got := p.Fragment()
	want := "User preferences:\n- alpha: 2\n- zeta: 1\n"
	if got != want {
		t.Errorf("Fragment = %q, want %q", got, want)
	}
}

func TestFragmentEmpty(t *testing.T) {
	if got := (Preferences{}).Fragment(); got != "" {
		t.Errorf("empty preferences should render nothing, got %q", got)
	}
	if got := (Preferences)(nil).Fragment(); got != "" {
		t.Errorf("nil preferences should render nothing, got %q", got)
	}
}

func TestHTTPStoreGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/preferences/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"favorite_team":"NYY"}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, time.Second)
	p, err := store.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p["favorite_team"] != "NYY" {
		t.Errorf("preferences = %v", p)
	}
}

func TestHTTPStoreNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, time.Second)
	p, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unknown user must not be an error, got %v", err)
	}
	if p != nil {
		t.Errorf("unknown user preferences = %v, want nil", p)
	}
}

func TestHTTPStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, time.Second)
	if _, err := store.Get(context.Background(), "u1"); err == nil {
		t.Fatal("5xx must surface as an error for the resilient wrapper")
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (Preferences, error) {
	return nil, errors.New("connection refused")
}

func TestResilientSwallowsFailure(t *testing.T) {
	store := Resilient(brokenStore{})

	p, err := store.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resilient store must not fail, got %v", err)
	}
	if p != nil {
		t.Errorf("got %v, want nil preferences on failure", p)
	}
}

func TestResilientPassesThrough(t *testing.T) {
	store := Resilient(Static{"u1": {"k": "v"}})

	p, err := store.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p["k"] != "v" {
		t.Errorf("preferences = %v", p)
	}
}
