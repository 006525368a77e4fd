// Package prefs provides the client for the external preference store.
// The store is consumed through a narrow contract: keyed by user id, it
// returns a small preference document. Any failure degrades to empty
// preferences; a missing or broken preference store never fails a turn.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Preferences is the small per-user preference document: key/value
// pairs like "favorite_team": "NYY" or "stat_style": "sabermetric".
type Preferences map[string]string

// Fragment renders the preferences as an instruction fragment, one line
// per preference in sorted key order so the output is deterministic.
func (p Preferences) Fragment() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("User preferences:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, p[k])
	}
	return b.String()
}

// Store fetches preferences for a user.
type Store interface {
	Get(ctx context.Context, userID string) (Preferences, error)
}

// Static is a fixed in-memory Store, used in tests and single-user
// deployments.
type Static map[string]Preferences

// Get returns the stored preferences, or nil when the user is unknown.
func (s Static) Get(_ context.Context, userID string) (Preferences, error) {
	return s[userID], nil
}

// HTTPStore fetches preferences from the external preference service
// at GET {baseURL}/preferences/{userID}.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates an HTTPStore with a bounded request timeout.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Get fetches the preference document. Non-200 responses and transport
// errors are returned as errors; callers degrade to no preferences.
func (s *HTTPStore) Get(ctx context.Context, userID string) (Preferences, error) {
	u := s.baseURL + "/preferences/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("preference store returned status %d", resp.StatusCode)
	}

	var p Preferences
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding preference document: %w", err)
	}
	return p, nil
}

// Resilient wraps a Store so failures degrade to empty preferences
// with a warning instead of an error.
func Resilient(inner Store) Store {
	return resilientStore{inner: inner}
}

type resilientStore struct {
	inner Store
}

func (r resilientStore) Get(ctx context.Context, userID string) (Preferences, error) {
	p, err := r.inner.Get(ctx, userID)
	if err != nil {
		slog.Warn("preference lookup failed, proceeding without preferences",
			"user", userID,
			"error", err.Error(),
		)
		return nil, nil
	}
	return p, nil
}
