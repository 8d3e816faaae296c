package classify

import (
	"testing"

	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/compare"
	"github.com/archdrift/archdrift/internal/cycles"
	"github.com/archdrift/archdrift/internal/rules"
	"github.com/stretchr/testify/require"
)

func TestClassify_MissingDataYieldsUnknown(t *testing.T) {
	rec := Classify(Inputs{})
	require.Equal(t, Unknown, rec.Classification)
	require.Equal(t, []string{"missing_compare", "missing_cycles", "missing_rules"}, rec.ReasonCodes)
	require.Equal(t, Summary{}, rec.Summary)
}

func TestClassify_RulesErrorYieldsUnknown(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{},
		Rules:   &rules.Result{Error: &rules.CheckError{Code: "bad", Message: "bad"}},
		Cycles:  &cycles.DiffResult{},
	})
	require.Equal(t, Unknown, rec.Classification)
	require.Contains(t, rec.ReasonCodes, "missing_rules")
}

func TestClassify_NoChange(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{},
		Rules:   &rules.Result{},
		Cycles:  &cycles.DiffResult{},
	})
	require.Equal(t, NoChange, rec.Classification)
	require.Empty(t, rec.ReasonCodes)
}

func TestClassify_ForbiddenEdgeAddedIsNegative(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{DivergenceCount: 1},
		Rules:   &rules.Result{ForbiddenAdded: []canonical.Edge{{From: "ui", To: "core"}}},
		Cycles:  &cycles.DiffResult{},
	})
	require.Equal(t, Negative, rec.Classification)
	require.Equal(t, []string{"forbidden_edges_added"}, rec.ReasonCodes)
	require.Equal(t, 1, rec.Summary.ForbiddenEdgesAddedCount)
}

func TestClassify_CycleAddedIsNegative(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{DivergenceCount: 1},
		Rules:   &rules.Result{},
		Cycles:  &cycles.DiffResult{CyclesAdded: [][]string{{"A", "B"}}},
	})
	require.Equal(t, Negative, rec.Classification)
	require.Equal(t, []string{"cycles_added"}, rec.ReasonCodes)
}

func TestClassify_CyclesRemovedIsPositive(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{AbsenceCount: 1},
		Rules:   &rules.Result{},
		Cycles:  &cycles.DiffResult{CyclesRemoved: [][]string{{"A", "B"}}},
	})
	require.Equal(t, Positive, rec.Classification)
	require.Equal(t, []string{"cycles_removed"}, rec.ReasonCodes)
}

func TestClassify_OnlyAllowedEdgesChangedIsNeedsReview(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{DivergenceCount: 1},
		Rules:   &rules.Result{},
		Cycles:  &cycles.DiffResult{},
	})
	require.Equal(t, NeedsReview, rec.Classification)
	require.Equal(t, []string{"allowed_edges_changed"}, rec.ReasonCodes)
}

func TestClassify_RiskFirstTieBreak(t *testing.T) {
	rec := Classify(Inputs{
		Compare: &compare.Result{DivergenceCount: 1, AbsenceCount: 1},
		Rules:   &rules.Result{ForbiddenAdded: []canonical.Edge{{From: "ui", To: "core"}}},
		Cycles:  &cycles.DiffResult{CyclesRemoved: [][]string{{"A", "B"}}},
	})
	require.Equal(t, Negative, rec.Classification)
	require.Equal(t, []string{"forbidden_edges_added"}, rec.ReasonCodes)
}
