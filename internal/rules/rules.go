// Package rules implements C8, the Rule Checker: deriving forbidden-edge
// violations from a compare result, the architecture config, and the set
// of currently active exceptions.
package rules

import (
	"sort"

	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/baseline"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/compare"
)

// ViolationTypeForbiddenAdded names the only violation kind this engine recognizes: the
// system has no concept of required edges, so forbidden-removed never
// applies, per spec.md §4.8.
const ViolationTypeForbiddenAdded = "forbidden_added"

// Violation is one forbidden edge, with a human-oriented reason.
type Violation struct {
	Type   string         `json:"type"`
	Edge   canonical.Edge `json:"edge"`
	Reason string         `json:"reason"`
}

// CheckError is the structured error object returned for malformed input,
// per spec.md §4.8 ("no partial results").
type CheckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the rule-check output.
type Result struct {
	OK                  bool             `json:"ok"`
	ForbiddenAdded       []canonical.Edge `json:"forbidden_added"`
	AllowedViaException  []canonical.Edge `json:"allowed_via_exception"`
	Violations           []Violation      `json:"violations"`
	Error                *CheckError      `json:"error,omitempty"`
}

// Check derives forbidden-added violations from cmp.Added() against
// config.AllowedEdges and the active exceptions. allowed_edges is dominant
// over exceptions (spec.md §9 Open Question 1, decided): an edge present in
// both allowed_edges and exceptions is never tagged allowed_via_exception.
func Check(cmp compare.Result, cfg *archconfig.ArchitectureConfig, active []baseline.ActiveException) Result {
	added := cmp.Added()

	allowed := toEdgeSet(cfg.AllowedEdges)
	exceptions := toExceptionEdgeSet(active)

	if !cfg.DenyByDefault && len(cfg.AllowedEdges) == 0 {
		return Result{OK: true}
	}

	var forbiddenRaw []canonical.Edge
	for _, e := range added {
		if _, ok := allowed[e]; ok {
			continue
		}
		forbiddenRaw = append(forbiddenRaw, e)
	}

	var allowedViaException, forbiddenAdded []canonical.Edge
	for _, e := range forbiddenRaw {
		if _, ok := exceptions[e]; ok {
			allowedViaException = append(allowedViaException, e)
		} else {
			forbiddenAdded = append(forbiddenAdded, e)
		}
	}

	sortEdges(allowedViaException)
	sortEdges(forbiddenAdded)

	var violations []Violation
	for _, e := range forbiddenAdded {
		violations = append(violations, Violation{
			Type:   ViolationTypeForbiddenAdded,
			Edge:   e,
			Reason: "edge (" + e.From + " -> " + e.To + ") is not in allowed_edges and has no active exception",
		})
	}

	return Result{
		OK:                  len(forbiddenAdded) == 0,
		ForbiddenAdded:       forbiddenAdded,
		AllowedViaException: allowedViaException,
		Violations:          violations,
	}
}

func toEdgeSet(refs []archconfig.EdgeRef) map[canonical.Edge]struct{} {
	set := make(map[canonical.Edge]struct{}, len(refs))
	for _, r := range refs {
		set[canonical.Edge{From: r.From, To: r.To}] = struct{}{}
	}
	return set
}

func toExceptionEdgeSet(active []baseline.ActiveException) map[canonical.Edge]struct{} {
	set := make(map[canonical.Edge]struct{}, len(active))
	for _, e := range active {
		set[canonical.Edge{From: e.FromModule, To: e.ToModule}] = struct{}{}
	}
	return set
}

func sortEdges(edges []canonical.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}
