// Package registry declares the per-domain meta-tool sets exposed to
// the model. Each meta-tool multiplexes several backend operations
// through a discriminator argument so a domain never exposes more than
// MaxToolsPerDomain tools: model accuracy degrades past a small tool
// count, so the bound is a hard design constraint checked at startup.
package registry

import (
	"encoding/json"
	"fmt"

	"github.com/courtside/courtside/pkg/api"
)

// MaxToolsPerDomain is the hard upper bound on tools per domain.
// Exceeding it is a configuration error that fails construction, never
// a request-time condition.
const MaxToolsPerDomain = 3

// Registry holds the static per-domain tool sets. Loaded at startup,
// never mutated at runtime, safe for concurrent reads.
type Registry struct {
	domains map[string][]api.ToolSpec
	byName  map[string]api.ToolSpec
}

// New builds a Registry from per-domain tool specs, enforcing the
// tool-count bound and name uniqueness. Tool names are global: one name
// maps to exactly one backend binding.
func New(domains map[string][]api.ToolSpec) (*Registry, error) {
	r := &Registry{
		domains: make(map[string][]api.ToolSpec, len(domains)),
		byName:  make(map[string]api.ToolSpec),
	}

	for domain, specs := range domains {
		if len(specs) > MaxToolsPerDomain {
			return nil, fmt.Errorf("registry: domain %q declares %d tools, maximum is %d",
				domain, len(specs), MaxToolsPerDomain)
		}

		prepared := make([]api.ToolSpec, 0, len(specs))
		for _, spec := range specs {
			if spec.Name == "" {
				return nil, fmt.Errorf("registry: domain %q has a tool with no name", domain)
			}
			if spec.Backend == "" {
				return nil, fmt.Errorf("registry: tool %q has no backend binding", spec.Name)
			}
			if len(spec.Operations) == 0 {
				return nil, fmt.Errorf("registry: tool %q multiplexes no operations", spec.Name)
			}
			if spec.Discriminator == "" {
				spec.Discriminator = "endpoint"
			}
			if len(spec.Parameters) == 0 {
				spec.Parameters = defaultParameters(spec)
			}

			if existing, ok := r.byName[spec.Name]; ok {
				if existing.Backend != spec.Backend {
					return nil, fmt.Errorf("registry: tool %q bound to both %q and %q",
						spec.Name, existing.Backend, spec.Backend)
				}
			} else {
				r.byName[spec.Name] = spec
			}
			prepared = append(prepared, spec)
		}
		r.domains[domain] = prepared
	}

	return r, nil
}

// ToolsFor returns the tool set for a domain. Unknown domains get an
// empty set; a turn with zero tools still completes as a model-only
// answer.
func (r *Registry) ToolsFor(domain string) []api.ToolSpec {
	return r.domains[domain]
}

// Lookup returns the spec for a tool name, across all domains.
func (r *Registry) Lookup(name string) (api.ToolSpec, bool) {
	spec, ok := r.byName[name]
	return spec, ok
}

// Domains lists the configured domain names.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.domains))
	for d := range r.domains {
		out = append(out, d)
	}
	return out
}

// ValidateCall checks a model-emitted tool call against the declared
// contract: known tool name, well-formed JSON object arguments, and a
// discriminator value within the declared operation enum.
func (r *Registry) ValidateCall(call api.ToolCallData) *api.TurnError {
	spec, ok := r.byName[call.Name]
	if !ok {
		return api.NewUnresolvableToolError(call.Name)
	}

	var args map[string]any
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return api.NewBackendRejectedError(spec.Backend,
				fmt.Sprintf("tool %q arguments are not a JSON object", call.Name))
		}
	}

	op, _ := args[spec.Discriminator].(string)
	if op == "" {
		return api.NewBackendRejectedError(spec.Backend,
			fmt.Sprintf("tool %q requires the %q argument", call.Name, spec.Discriminator))
	}
	for _, known := range spec.Operations {
		if op == known {
			return nil
		}
	}
	return api.NewBackendRejectedError(spec.Backend,
		fmt.Sprintf("tool %q has no operation %q", call.Name, op))
}

// Operation extracts the discriminator value from a validated call.
func (r *Registry) Operation(call api.ToolCallData) string {
	spec, ok := r.byName[call.Name]
	if !ok {
		return ""
	}
	var args map[string]any
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return ""
	}
	op, _ := args[spec.Discriminator].(string)
	return op
}

// defaultParameters builds a JSON-schema argument contract from the
// operation enum when the spec file does not carry an explicit schema.
func defaultParameters(spec api.ToolSpec) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			spec.Discriminator: map[string]any{
				"type": "string",
				"enum": spec.Operations,
			},
		},
		"required":             []string{spec.Discriminator},
		"additionalProperties": true,
	}
	data, err := json.Marshal(schema)
	if err != nil {
		// Marshaling a map of strings cannot fail in practice.
		panic("registry: building default schema: " + err.Error())
	}
	return data
}
