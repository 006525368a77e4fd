package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layers holds the static instruction layers. Merge order is fixed and
// lowest-to-highest priority: global behavior rules first, then the
// domain layer, then the per-user fragment. Higher layers add detail;
// nothing at runtime prevents a higher layer from contradicting a lower
// one, so the ordering convention is the only enforcement.
type Layers struct {
	// Global is the behavior prompt shared by every domain.
	Global string `yaml:"global"`

	// Domains maps a domain name to its domain-specific rules.
	Domains map[string]string `yaml:"domains"`
}

// LoadLayers reads an instruction layer YAML file.
func LoadLayers(path string) (Layers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layers{}, fmt.Errorf("reading prompt layers %s: %w", path, err)
	}
	var l Layers
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layers{}, fmt.Errorf("parsing prompt layers: %w", err)
	}
	if l.Global == "" {
		return Layers{}, fmt.Errorf("prompt layers: global layer is required")
	}
	return l, nil
}

// BuiltinLayers returns the instruction layers shipped with the server.
func BuiltinLayers() Layers {
	return Layers{
		Global: "You are courtside, a sports assistant. Answer questions about " +
			"sports using the provided tools. Cite the data you fetched. Decline " +
			"requests unrelated to sports. Never fabricate statistics.",
		Domains: map[string]string{
			"baseball": "The user is asking about baseball. Resolve team and player " +
				"names with resolve_entity before fetching statistics. Prefer " +
				"season-to-date numbers unless the user asks about a specific game.",
			"basketball": "The user is asking about basketball. Resolve team and " +
				"player names with resolve_entity before fetching statistics.",
			"football": "The user is asking about football. Resolve team and player " +
				"names with resolve_entity before fetching statistics. Fantasy " +
				"questions should use fantasy_data.",
		},
	}
}
