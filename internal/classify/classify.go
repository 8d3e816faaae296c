// Package classify implements C10, the Classifier: deriving a drift
// verdict and sorted reason codes from a compare result, rule-check
// result, and cycle diff.
package classify

import (
	"sort"

	"github.com/archdrift/archdrift/internal/compare"
	"github.com/archdrift/archdrift/internal/cycles"
	"github.com/archdrift/archdrift/internal/rules"
)

// Classification is one of the five verdicts the engine can emit.
type Classification string

const (
	Negative    Classification = "negative"
	Positive    Classification = "positive"
	NeedsReview Classification = "needs_review"
	NoChange    Classification = "no_change"
	Unknown     Classification = "unknown"
)

// Summary is the numeric rollup embedded in a Record.
type Summary struct {
	EdgesAddedCount             int `json:"edges_added_count"`
	EdgesRemovedCount           int `json:"edges_removed_count"`
	ForbiddenEdgesAddedCount    int `json:"forbidden_edges_added_count"`
	ForbiddenEdgesRemovedCount  int `json:"forbidden_edges_removed_count"`
	CyclesAddedCount            int `json:"cycles_added_count"`
	CyclesRemovedCount          int `json:"cycles_removed_count"`
}

// Record is the classifier's output.
type Record struct {
	Classification Classification `json:"classification"`
	ReasonCodes    []string       `json:"reason_codes"`
	Summary        Summary        `json:"summary"`
}

// Inputs bundles the three upstream results the classifier reads. Any of
// them may be nil to model "missing data" (e.g. an orchestration-seam
// failure converted to a reason code per spec.md §7).
type Inputs struct {
	Compare *compare.Result
	Rules   *rules.Result
	Cycles  *cycles.DiffResult
}

// Classify derives a Record from in. Missing compare/rules/cycles, or a set
// rules.Error, short-circuits to Unknown with an all-zero summary, per
// spec.md §4.10.
func Classify(in Inputs) Record {
	var missing []string
	if in.Compare == nil {
		missing = append(missing, "missing_compare")
	}
	if in.Rules == nil || in.Rules.Error != nil {
		missing = append(missing, "missing_rules")
	}
	if in.Cycles == nil {
		missing = append(missing, "missing_cycles")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Record{Classification: Unknown, ReasonCodes: missing, Summary: Summary{}}
	}

	ea := in.Compare.DivergenceCount
	er := in.Compare.AbsenceCount
	fa := len(in.Rules.ForbiddenAdded)
	fr := 0 // the system has no concept of required edges; forbidden-removed is always empty.
	ca := len(in.Cycles.CyclesAdded)
	cr := len(in.Cycles.CyclesRemoved)

	summary := Summary{
		EdgesAddedCount:            ea,
		EdgesRemovedCount:          er,
		ForbiddenEdgesAddedCount:   fa,
		ForbiddenEdgesRemovedCount: fr,
		CyclesAddedCount:           ca,
		CyclesRemovedCount:         cr,
	}

	if ea == 0 && er == 0 && ca == 0 && cr == 0 {
		return Record{Classification: NoChange, ReasonCodes: []string{}, Summary: summary}
	}

	if fa > 0 || ca > 0 {
		var reasons []string
		if fa > 0 {
			reasons = append(reasons, "forbidden_edges_added")
		}
		if ca > 0 {
			reasons = append(reasons, "cycles_added")
		}
		sort.Strings(reasons)
		return Record{Classification: Negative, ReasonCodes: reasons, Summary: summary}
	}

	if fr > 0 || cr > 0 {
		var reasons []string
		if fr > 0 {
			reasons = append(reasons, "forbidden_edges_removed")
		}
		if cr > 0 {
			reasons = append(reasons, "cycles_removed")
		}
		sort.Strings(reasons)
		return Record{Classification: Positive, ReasonCodes: reasons, Summary: summary}
	}

	return Record{Classification: NeedsReview, ReasonCodes: []string{"allowed_edges_changed"}, Summary: summary}
}
