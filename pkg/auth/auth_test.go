package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// voteFunc adapts a function to an Authenticator.
type voteFunc func(ctx context.Context, r *http.Request) Result

func (f voteFunc) Authenticate(ctx context.Context, r *http.Request) Result {
	return f(ctx, r)
}

func yes(subject string) Authenticator {
	return voteFunc(func(context.Context, *http.Request) Result {
		return Result{Decision: Yes, Identity: &Identity{Subject: subject}}
	})
}

func no(err error) Authenticator {
	return voteFunc(func(context.Context, *http.Request) Result {
		return Result{Decision: No, Err: err}
	})
}

func abstain() Authenticator {
	return voteFunc(func(context.Context, *http.Request) Result {
		return Result{Decision: Abstain}
	})
}

func TestChainFirstYesWins(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{abstain(), yes("alice"), no(errors.New("never reached"))}}

	result := chain.Authenticate(context.Background(), httptest.NewRequest("POST", "/v1/turns", nil))
	if result.Decision != Yes {
		t.Fatalf("decision = %v, want Yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("subject = %q, want alice", result.Identity.Subject)
	}
}

func TestChainNoStopsChain(t *testing.T) {
	wantErr := errors.New("bad credentials")
	chain := &Chain{Authenticators: []Authenticator{no(wantErr), yes("alice")}}

	result := chain.Authenticate(context.Background(), httptest.NewRequest("POST", "/v1/turns", nil))
	if result.Decision != No {
		t.Fatalf("decision = %v, want No", result.Decision)
	}
	if !errors.Is(result.Err, wantErr) {
		t.Errorf("err = %v, want %v", result.Err, wantErr)
	}
}

func TestChainAllAbstainDefaultYes(t *testing.T) {
	chain := &Chain{
		Authenticators:  []Authenticator{abstain(), abstain()},
		DefaultDecision: Yes,
	}

	result := chain.Authenticate(context.Background(), httptest.NewRequest("POST", "/v1/turns", nil))
	if result.Decision != Yes {
		t.Fatalf("decision = %v, want Yes", result.Decision)
	}
	if result.Identity.Subject != "anonymous" {
		t.Errorf("subject = %q, want anonymous", result.Identity.Subject)
	}
}

func TestChainAllAbstainDefaultNo(t *testing.T) {
	chain := &Chain{
		Authenticators:  []Authenticator{abstain()},
		DefaultDecision: No,
	}

	result := chain.Authenticate(context.Background(), httptest.NewRequest("POST", "/v1/turns", nil))
	if result.Decision != No {
		t.Fatalf("decision = %v, want No", result.Decision)
	}
	if !errors.Is(result.Err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", result.Err)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	id := &Identity{Subject: "bob", Scopes: []string{"turns:create"}}
	ctx := SetIdentity(context.Background(), id)

	got := IdentityFromContext(ctx)
	if got == nil || got.Subject != "bob" {
		t.Errorf("identity = %+v, want subject bob", got)
	}
	if IdentityFromContext(context.Background()) != nil {
		t.Error("expected nil identity from bare context")
	}
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	chain := &Chain{DefaultDecision: No}
	handler := Middleware(chain, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/turns", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{yes("carol")}}

	var gotSubject string
	handler := Middleware(chain, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := IdentityFromContext(r.Context()); id != nil {
			gotSubject = id.Subject
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/turns", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSubject != "carol" {
		t.Errorf("subject seen by handler = %q, want carol", gotSubject)
	}
}

func TestMiddlewareBypassSkipsAuth(t *testing.T) {
	chain := &Chain{DefaultDecision: No}

	called := false
	handler := Middleware(chain, nil, DefaultBypassEndpoints)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if !called {
		t.Error("bypass endpoint did not reach handler")
	}
}

func TestMiddlewareRateLimit(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{yes("dave")}}
	limiter := NewInProcessLimiter(nil, 2)
	handler := Middleware(chain, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/turns", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/turns", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
