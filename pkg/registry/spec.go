package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/courtside/courtside/pkg/api"
)

// File is the YAML document shape for tool registry configuration:
//
//	domains:
//	  baseball:
//	    - name: sports_data
//	      backend: stats
//	      description: Query baseball statistics.
//	      discriminator: endpoint
//	      operations: [player_stats, team_stats, standings, schedule, live_game]
type File struct {
	Domains map[string][]api.ToolSpec `yaml:"domains"`
}

// LoadFile reads a registry YAML file and constructs the Registry,
// failing fast on any configuration error.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing registry config: %w", err)
	}
	return New(f.Domains)
}

// Builtin returns the registry shipped with the server: three sport
// domains plus fantasy, each within the tool-count bound.
func Builtin() *Registry {
	r, err := New(map[string][]api.ToolSpec{
		"baseball": {
			{
				Name:        "sports_data",
				Backend:     "stats",
				Description: "Query baseball statistics: player and team stats, standings, schedules, and live games.",
				Operations:  []string{"player_stats", "team_stats", "standings", "schedule", "live_game"},
			},
			{
				Name:        "resolve_entity",
				Backend:     "resolver",
				Description: "Resolve a free-text player or team name to a canonical identifier.",
				Operations:  []string{"resolve_player", "resolve_team"},
			},
			{
				Name:        "fantasy_data",
				Backend:     "fantasy",
				Description: "Query fantasy league rosters, matchups, and projections.",
				Operations:  []string{"roster", "matchup", "projections"},
			},
		},
		"basketball": {
			{
				Name:        "sports_data",
				Backend:     "stats",
				Description: "Query basketball statistics: player and team stats, standings, schedules, and live games.",
				Operations:  []string{"player_stats", "team_stats", "standings", "schedule", "live_game"},
			},
			{
				Name:        "resolve_entity",
				Backend:     "resolver",
				Description: "Resolve a free-text player or team name to a canonical identifier.",
				Operations:  []string{"resolve_player", "resolve_team"},
			},
		},
		"football": {
			{
				Name:        "sports_data",
				Backend:     "stats",
				Description: "Query football statistics: player and team stats, standings, schedules, and live games.",
				Operations:  []string{"player_stats", "team_stats", "standings", "schedule", "live_game"},
			},
			{
				Name:        "resolve_entity",
				Backend:     "resolver",
				Description: "Resolve a free-text player or team name to a canonical identifier.",
				Operations:  []string{"resolve_player", "resolve_team"},
			},
			{
				Name:        "fantasy_data",
				Backend:     "fantasy",
				Description: "Query fantasy league rosters, matchups, and projections.",
				Operations:  []string{"roster", "matchup", "projections"},
			},
		},
	})
	if err != nil {
		// The builtin set is checked by tests; failing here means a
		// programming error, not a runtime condition.
		panic("registry: builtin config invalid: " + err.Error())
	}
	return r
}
