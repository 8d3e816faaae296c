// Package compare implements C7, the Edge Comparator: set difference
// between an old and new edge set.
package compare

import (
	"sort"

	"github.com/archdrift/archdrift/internal/baseline"
	"github.com/archdrift/archdrift/internal/canonical"
)

// Result is the output of Compare: convergence (old ∩ new), divergence
// (new − old), and absence (old − new), each sorted lexicographically.
type Result struct {
	Convergence []canonical.Edge `json:"convergence"`
	Divergence  []canonical.Edge `json:"divergence"`
	Absence     []canonical.Edge `json:"absence"`

	ConvergenceCount int `json:"convergence_count"`
	DivergenceCount  int `json:"divergence_count"`
	AbsenceCount     int `json:"absence_count"`
}

// Compare validates both edge sets (identical to the baseline normalizer)
// and returns the set comparison.
func Compare(old, new []canonical.Edge) (Result, error) {
	oldNorm, err := baseline.Normalize(old)
	if err != nil {
		return Result{}, err
	}
	newNorm, err := baseline.Normalize(new)
	if err != nil {
		return Result{}, err
	}

	oldSet := toSet(oldNorm)
	newSet := toSet(newNorm)

	var convergence, divergence, absence []canonical.Edge
	for e := range oldSet {
		if _, ok := newSet[e]; ok {
			convergence = append(convergence, e)
		} else {
			absence = append(absence, e)
		}
	}
	for e := range newSet {
		if _, ok := oldSet[e]; !ok {
			divergence = append(divergence, e)
		}
	}

	sortEdges(convergence)
	sortEdges(divergence)
	sortEdges(absence)

	return Result{
		Convergence: convergence, Divergence: divergence, Absence: absence,
		ConvergenceCount: len(convergence), DivergenceCount: len(divergence), AbsenceCount: len(absence),
	}, nil
}

// Added is an alias for Divergence (new − old), the terminology used by
// C8/C10 for "edges_added".
func (r Result) Added() []canonical.Edge { return r.Divergence }

// Removed is an alias for Absence (old − new), the terminology used by
// C8/C10 for "edges_removed".
func (r Result) Removed() []canonical.Edge { return r.Absence }

func toSet(edges []canonical.Edge) map[canonical.Edge]struct{} {
	set := make(map[canonical.Edge]struct{}, len(edges))
	for _, e := range edges {
		set[e] = struct{}{}
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
