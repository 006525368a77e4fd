package cache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTTLPolicyFor(t *testing.T) {
	policy := DefaultTTLPolicy()

	tests := []struct {
		name string
		tool string
		args string
		want time.Duration
	}{
		{"roster-class tool", "resolve_entity", `{"name":"Yankees"}`, TTLRoster},
		{"unlisted tool uses default", "mystery_tool", `{}`, TTLSchedule},
		{"non-live game fetch", "sports_data", `{"endpoint":"game","live":false}`, TTLSchedule},
		{"live game fetch", "sports_data", `{"endpoint":"game","live":true}`, TTLLive},
		{"liveness field absent", "sports_data", `{"endpoint":"standings"}`, TTLSchedule},
		{"liveness field wrong type", "sports_data", `{"live":"yes"}`, TTLSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.For(tt.tool, json.RawMessage(tt.args))
			if got != tt.want {
				t.Errorf("For(%s, %s) = %v, want %v", tt.tool, tt.args, got, tt.want)
			}
		})
	}
}

func TestTTLPolicyEmptyDefault(t *testing.T) {
	p := TTLPolicy{}
	if got := p.For("anything", nil); got != TTLSchedule {
		t.Errorf("zero-value policy should fall back to TTLSchedule, got %v", got)
	}
}
