// Command mock-backend runs a deterministic sports-data backend for
// local development and integration testing. It serves the operation
// dispatch endpoint (POST /invoke) with canned data for every builtin
// registry operation.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtside/courtside/pkg/api"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /invoke", handleInvoke)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type invokeRequest struct {
	Operation string          `json:"operation"`
	Arguments json.RawMessage `json:"arguments"`
}

type invokeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// canned holds one deterministic payload per operation.
var canned = map[string]any{
	"player_stats": map[string]any{
		"player": "Mookie Betts", "avg": ".307", "hr": 19, "rbi": 75,
	},
	"team_stats": map[string]any{
		"team": "LAD", "wins": 98, "losses": 64, "run_diff": 162,
	},
	"standings": map[string]any{
		"division": "NL West",
		"teams": []map[string]any{
			{"team": "LAD", "wins": 98, "losses": 64},
			{"team": "SD", "wins": 93, "losses": 69},
			{"team": "SF", "wins": 80, "losses": 82},
		},
	},
	"schedule": map[string]any{
		"team": "LAD",
		"next": []map[string]string{
			{"opponent": "SF", "date": "2026-08-25"},
			{"opponent": "SD", "date": "2026-08-26"},
		},
	},
	"live_game": map[string]any{
		"live": true, "home": "LAD", "away": "SF", "score": "5-4", "inning": 8,
	},
	"resolve_player": api.ResolveResult{
		ID: "player-605141", Name: "Mookie Betts", Confidence: 1, Match: api.MatchExact,
	},
	"resolve_team": api.ResolveResult{
		ID: "team-119", Name: "Los Angeles Dodgers", Confidence: 0.97, Match: api.MatchAlias,
		Suggestions: []string{"Los Angeles Angels"},
	},
	"roster": map[string]any{
		"league": "friends-and-family", "players": []string{"player-605141", "player-660271"},
	},
	"matchup": map[string]any{
		"week": 21, "opponent": "The Benchwarmers", "projected": "112.4 - 98.7",
	},
	"projections": map[string]any{
		"player": "player-605141", "week": 21, "points": 18.3,
	},
}

func handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, invokeResponse{Error: "invalid JSON body"})
		return
	}

	payload, ok := canned[req.Operation]
	if !ok {
		writeJSON(w, http.StatusBadRequest, invokeResponse{Error: "unknown operation: " + req.Operation})
		return
	}

	slog.Info("invoke", "operation", req.Operation)

	result, err := json.Marshal(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, invokeResponse{Error: "encoding result failed"})
		return
	}
	writeJSON(w, http.StatusOK, invokeResponse{Result: result})
}

func writeJSON(w http.ResponseWriter, status int, body invokeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
