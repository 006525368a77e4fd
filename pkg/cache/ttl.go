package cache

import (
	"encoding/json"
	"time"
)

// Default TTLs. Live game data goes stale in seconds; rosters and
// resolved entities are stable for hours. The exact values are product
// tuning, which is why the policy is a table, not code.
const (
	TTLLive         = 30 * time.Second
	TTLSchedule     = 5 * time.Minute
	TTLRoster       = 6 * time.Hour
	TTLInstructions = 3 * time.Minute
)

// TTLRule selects a TTL for one tool. When LivenessField is set and the
// call's arguments carry a true value for it, LiveTTL applies instead
// of TTL (an in-progress game fetch expires faster than a finished one).
type TTLRule struct {
	TTL           time.Duration `yaml:"ttl"`
	LivenessField string        `yaml:"liveness_field"`
	LiveTTL       time.Duration `yaml:"live_ttl"`
}

// TTLPolicy maps tool names to TTL rules. Unlisted tools use Default.
type TTLPolicy struct {
	Rules   map[string]TTLRule `yaml:"rules"`
	Default time.Duration      `yaml:"default"`
}

// DefaultTTLPolicy returns the shipped policy table.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Default: TTLSchedule,
		Rules: map[string]TTLRule{
			"resolve_entity": {TTL: TTLRoster},
			"fantasy_data":   {TTL: TTLSchedule},
			"sports_data": {
				TTL:           TTLSchedule,
				LivenessField: "live",
				LiveTTL:       TTLLive,
			},
		},
	}
}

// For returns the TTL for a tool invocation, consulting the liveness
// argument when the rule declares one.
func (p TTLPolicy) For(toolName string, args json.RawMessage) time.Duration {
	rule, ok := p.Rules[toolName]
	if !ok {
		if p.Default > 0 {
			return p.Default
		}
		return TTLSchedule
	}

	if rule.LivenessField != "" && len(args) > 0 {
		var m map[string]any
		if err := json.Unmarshal(args, &m); err == nil {
			if live, ok := m[rule.LivenessField].(bool); ok && live {
				return rule.LiveTTL
			}
		}
	}
	return rule.TTL
}
