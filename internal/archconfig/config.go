// Package archconfig loads and cross-validates the architecture
// configuration triple (module_map.json, allowed_rules.json,
// exceptions.json) described in spec.md §3/§6. The resulting
// ArchitectureConfig is read-only for the lifetime of one analysis.
package archconfig

import (
	"fmt"
	"time"

	"github.com/archdrift/archdrift/internal/apperrors"
	"github.com/archdrift/archdrift/internal/jsonstore"
)

// Module is a named bucket of files defined by one or more path roots.
type Module struct {
	ID    string   `json:"id"`
	Roots []string `json:"roots"`
}

// EdgeRef is a declared (from, to) module-id pair, as used in allowed_edges.
type EdgeRef struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Exception is a declarative, config-level time-bound allowance. Distinct
// from baseline.ActiveException: per spec.md §9 Open Question 2, this is
// loaded but not consulted during classification.
type Exception struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Reason    string  `json:"reason"`
	Owner     string  `json:"owner"`
	ExpiresOn *string `json:"expires_on,omitempty"` // "YYYY-MM-DD"
}

// ModuleMapDoc is the on-disk shape of module_map.json.
type ModuleMapDoc struct {
	Version           string   `json:"version"`
	UnmappedModuleID  string   `json:"unmapped_module_id"`
	Modules           []Module `json:"modules"`
}

// RulesDoc is the on-disk shape of allowed_rules.json.
type RulesDoc struct {
	Version       string    `json:"version"`
	DenyByDefault bool      `json:"deny_by_default"`
	AllowedEdges  []EdgeRef `json:"allowed_edges"`
}

// ExceptionsDoc is the on-disk shape of exceptions.json.
type ExceptionsDoc struct {
	Version    string      `json:"version"`
	Exceptions []Exception `json:"exceptions"`
}

// ArchitectureConfig is the immutable, cross-validated union of the three
// documents, as consumed by C1/C4/C8.
type ArchitectureConfig struct {
	Version          string
	UnmappedModuleID string
	Modules          []Module
	DenyByDefault    bool
	AllowedEdges     []EdgeRef
	Exceptions       []Exception

	moduleIDs map[string]struct{}
}

// KnownModuleID reports whether id is a declared module id or the unmapped
// sentinel.
func (c *ArchitectureConfig) KnownModuleID(id string) bool {
	if id == c.UnmappedModuleID {
		return true
	}
	_, ok := c.moduleIDs[id]
	return ok
}

// Load reads module_map.json, allowed_rules.json, and exceptions.json from
// dir and cross-validates them. exceptions.json is optional; its absence is
// not an error (empty exception list).
func Load(dir string) (*ArchitectureConfig, error) {
	var mapDoc ModuleMapDoc
	mapPath := dir + "/module_map.json"
	if err := jsonstore.ReadJSON(mapPath, &mapDoc); err != nil {
		return nil, apperrors.InvalidConfig(mapPath, "failed to load module map: %v", err)
	}

	var rulesDoc RulesDoc
	rulesPath := dir + "/allowed_rules.json"
	if err := jsonstore.ReadJSON(rulesPath, &rulesDoc); err != nil {
		return nil, apperrors.InvalidConfig(rulesPath, "failed to load allowed rules: %v", err)
	}

	var excDoc ExceptionsDoc
	excPath := dir + "/exceptions.json"
	if jsonstore.Exists(excPath) {
		if err := jsonstore.ReadJSON(excPath, &excDoc); err != nil {
			return nil, apperrors.InvalidConfig(excPath, "failed to load exceptions: %v", err)
		}
	}

	return build(mapPath, rulesPath, excPath, mapDoc, rulesDoc, excDoc)
}

// FromDocs builds an ArchitectureConfig directly from in-memory documents,
// primarily for tests and for callers that construct configs without a
// filesystem (e.g. bootstrap flows).
func FromDocs(mapDoc ModuleMapDoc, rulesDoc RulesDoc, excDoc ExceptionsDoc) (*ArchitectureConfig, error) {
	return build("module_map.json", "allowed_rules.json", "exceptions.json", mapDoc, rulesDoc, excDoc)
}

func build(mapPath, rulesPath, excPath string, mapDoc ModuleMapDoc, rulesDoc RulesDoc, excDoc ExceptionsDoc) (*ArchitectureConfig, error) {
	if mapDoc.Version != "1.0" {
		return nil, apperrors.InvalidConfig(mapPath, "unsupported version %q", mapDoc.Version)
	}
	if mapDoc.UnmappedModuleID == "" {
		return nil, apperrors.InvalidConfig(mapPath, "unmapped_module_id must be non-empty")
	}

	moduleIDs := make(map[string]struct{}, len(mapDoc.Modules))
	for _, m := range mapDoc.Modules {
		if m.ID == "" {
			return nil, apperrors.InvalidConfig(mapPath, "module id must be non-empty")
		}
		if _, dup := moduleIDs[m.ID]; dup {
			return nil, apperrors.InvalidConfig(mapPath, "duplicate module id %q", m.ID)
		}
		if len(m.Roots) == 0 {
			return nil, apperrors.InvalidConfig(mapPath, "module %q has no roots", m.ID)
		}
		for _, r := range m.Roots {
			if r == "" {
				return nil, apperrors.InvalidConfig(mapPath, "module %q has an empty root", m.ID)
			}
		}
		moduleIDs[m.ID] = struct{}{}
	}

	cfg := &ArchitectureConfig{
		Version:          mapDoc.Version,
		UnmappedModuleID: mapDoc.UnmappedModuleID,
		Modules:          mapDoc.Modules,
		DenyByDefault:    rulesDoc.DenyByDefault,
		AllowedEdges:     rulesDoc.AllowedEdges,
		Exceptions:       excDoc.Exceptions,
		moduleIDs:        moduleIDs,
	}

	// Cross-validation is skipped entirely when modules is empty
	// (bootstrapping), per spec.md §3.
	if len(mapDoc.Modules) == 0 {
		return cfg, nil
	}

	for _, e := range rulesDoc.AllowedEdges {
		if !cfg.KnownModuleID(e.From) || !cfg.KnownModuleID(e.To) {
			return nil, apperrors.InvalidConfig(rulesPath, "allowed edge (%s,%s) references unknown module id", e.From, e.To)
		}
	}
	for _, exc := range excDoc.Exceptions {
		if !cfg.KnownModuleID(exc.From) || !cfg.KnownModuleID(exc.To) {
			return nil, apperrors.InvalidConfig(excPath, "exception (%s,%s) references unknown module id", exc.From, exc.To)
		}
		if exc.ExpiresOn != nil {
			if _, err := time.Parse("2006-01-02", *exc.ExpiresOn); err != nil {
				return nil, apperrors.InvalidConfig(excPath, "exception (%s,%s) has invalid expires_on %q: %v", exc.From, exc.To, *exc.ExpiresOn, err)
			}
		}
	}

	return cfg, nil
}

// Validate re-checks cross-validation invariants; Load/FromDocs already run
// this, but it is exposed for callers that mutate a config in tests.
func (c *ArchitectureConfig) Validate() error {
	if len(c.Modules) == 0 {
		return nil
	}
	for _, e := range c.AllowedEdges {
		if !c.KnownModuleID(e.From) || !c.KnownModuleID(e.To) {
			return fmt.Errorf("allowed edge (%s,%s) references unknown module id", e.From, e.To)
		}
	}
	for _, exc := range c.Exceptions {
		if !c.KnownModuleID(exc.From) || !c.KnownModuleID(exc.To) {
			return fmt.Errorf("exception (%s,%s) references unknown module id", exc.From, exc.To)
		}
	}
	return nil
}
