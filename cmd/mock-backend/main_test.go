package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtside/courtside/pkg/api"
)

func invoke(t *testing.T, operation string) invokeResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke",
		strings.NewReader(`{"operation":"`+operation+`"}`))
	handleInvoke(rec, req)

	var resp invokeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp
}

func TestResolverPayloadShape(t *testing.T) {
	for _, op := range []string{"resolve_player", "resolve_team"} {
		resp := invoke(t, op)
		if resp.Error != "" {
			t.Fatalf("%s: error = %q", op, resp.Error)
		}

		var got api.ResolveResult
		if err := json.Unmarshal(resp.Result, &got); err != nil {
			t.Fatalf("%s: payload does not decode as a resolver result: %v", op, err)
		}
		if got.ID == "" || got.Name == "" {
			t.Errorf("%s: incomplete result: %+v", op, got)
		}
		if got.Match == "" || got.Match == api.MatchNone {
			t.Errorf("%s: match = %q, want a positive match", op, got.Match)
		}
		if got.Confidence <= 0 {
			t.Errorf("%s: confidence = %v", op, got.Confidence)
		}
	}
}

func TestUnknownOperationRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke",
		strings.NewReader(`{"operation":"moon_phase"}`))
	handleInvoke(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var resp invokeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected an error message for an unknown operation")
	}
}
