// Package prompt assembles the layered model instructions for a turn:
// global behavior rules, domain rules, and the per-user preference
// fragment, merged in fixed priority order and bounded in size.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/courtside/courtside/pkg/cache"
	"github.com/courtside/courtside/pkg/prefs"
)

// DefaultMaxChars caps assembled instructions. When the user fragment
// would push past the cap it is truncated; the global and domain layers
// are never cut.
const DefaultMaxChars = 8_000

// Assembler merges instruction layers for a turn. Assembly never fails
// the turn: unknown domains fall back to global-only, preference
// failures degrade to no preferences.
type Assembler struct {
	layers   Layers
	prefs    prefs.Store
	cache    cache.Store
	maxChars int
	ttl      time.Duration
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMaxChars overrides the instruction size cap.
func WithMaxChars(n int) Option {
	return func(a *Assembler) { a.maxChars = n }
}

// WithCacheTTL overrides the assembled-instruction cache interval.
func WithCacheTTL(d time.Duration) Option {
	return func(a *Assembler) { a.ttl = d }
}

// New creates an Assembler. The preference store may be nil (no user
// layer); the cache store may be nil (assembly is recomputed per turn).
func New(layers Layers, prefStore prefs.Store, cacheStore cache.Store, opts ...Option) *Assembler {
	a := &Assembler{
		layers:   layers,
		prefs:    prefStore,
		cache:    cacheStore,
		maxChars: DefaultMaxChars,
		ttl:      cache.TTLInstructions,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble produces the instruction text for a turn. Memory hints from
// the request are folded into the user fragment for this turn only.
func (a *Assembler) Assemble(ctx context.Context, domain, userID string, memory map[string]string) string {
	fragment := a.userFragment(ctx, userID, memory)

	key := cache.InstructionKey(domain, fragment)
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, key); err == nil {
			return string(cached)
		}
	}

	assembled := a.merge(domain, fragment)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, []byte(assembled), a.ttl); err != nil {
			slog.Warn("instruction cache write failed", "error", err.Error())
		}
	}
	return assembled
}

// merge joins the layers lowest-priority first and applies the size cap
// to the user fragment.
func (a *Assembler) merge(domain, fragment string) string {
	parts := []string{a.layers.Global}

	if domainLayer, ok := a.layers.Domains[domain]; ok {
		parts = append(parts, domainLayer)
	}

	base := strings.Join(parts, "\n\n")
	if fragment == "" {
		return base
	}

	budget := a.maxChars - len(base) - 2
	if budget <= 0 {
		// The cap only ever cuts the user fragment.
		return base
	}
	if len(fragment) > budget {
		// Back off to a rune boundary so the cut never emits invalid UTF-8.
		cut := budget
		for cut > 0 && !utf8.RuneStart(fragment[cut]) {
			cut--
		}
		fragment = fragment[:cut]
	}
	return base + "\n\n" + fragment
}

// userFragment builds the per-user layer from stored preferences and
// the turn's memory hints.
func (a *Assembler) userFragment(ctx context.Context, userID string, memory map[string]string) string {
	var parts []string

	if a.prefs != nil && userID != "" {
		p, err := a.prefs.Get(ctx, userID)
		if err != nil {
			// Degrade to no preferences; the turn must proceed.
			slog.Warn("preference lookup failed during assembly",
				"user", userID, "error", err.Error())
		} else if f := p.Fragment(); f != "" {
			parts = append(parts, f)
		}
	}

	if len(memory) > 0 {
		keys := make([]string, 0, len(memory))
		for k := range memory {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString("Context for this request:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, memory[k])
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n")
}
