// Package readiness implements C11, the Readiness Gate: assessing whether
// enough data exists to classify at all, forcing Unknown when not.
package readiness

import (
	"sort"

	"github.com/archdrift/archdrift/internal/classify"
	"github.com/archdrift/archdrift/internal/depgraph"
)

const (
	ReasonBaselineMissing = "BASELINE_MISSING"
	ReasonBaselineEmpty   = "BASELINE_EMPTY"
	ReasonNoSourceFiles   = "NO_SOURCE_FILES"
	ReasonMappingTooLow   = "MAPPING_TOO_LOW"
)

const mappingTooLowThreshold = 0.5

// BaselineState is the subset of baseline status readiness needs.
type BaselineState struct {
	Exists    bool
	EdgeCount int
}

// Assess checks the four readiness conditions from spec.md §4.11 against
// the current baseline and graph-build health. It returns the sorted union
// of triggered reason codes (empty when ready).
func Assess(baseline BaselineState, health depgraph.HealthReport) []string {
	var reasons []string

	if !baseline.Exists {
		reasons = append(reasons, ReasonBaselineMissing)
	} else if baseline.EdgeCount == 0 {
		reasons = append(reasons, ReasonBaselineEmpty)
	}

	if health.IncludedFiles == 0 {
		reasons = append(reasons, ReasonNoSourceFiles)
	} else if health.UnmappedRatio() >= mappingTooLowThreshold {
		reasons = append(reasons, ReasonMappingTooLow)
	}

	sort.Strings(reasons)
	return reasons
}

// neutralSummaryText is surfaced to collaborators alongside an Unknown
// verdict forced by readiness, per spec.md §7 ("baseline not ready").
const neutralSummaryText = "baseline not ready"

// Gate runs Assess and, if any reason fired, forces the verdict to Unknown
// with the union of reason codes and a neutral summary; otherwise returns
// classified unmodified, per spec.md §4.11 ("When ready, C10 runs
// unmodified").
func Gate(baseline BaselineState, health depgraph.HealthReport, classified classify.Record) (classify.Record, string) {
	reasons := Assess(baseline, health)
	if len(reasons) == 0 {
		return classified, ""
	}
	return classify.Record{
		Classification: classify.Unknown,
		ReasonCodes:    reasons,
		Summary:        classify.Summary{},
	}, neutralSummaryText
}
