package readiness

import (
	"testing"

	"github.com/archdrift/archdrift/internal/classify"
	"github.com/archdrift/archdrift/internal/depgraph"
	"github.com/stretchr/testify/require"
)

func TestAssess_BaselineMissing(t *testing.T) {
	reasons := Assess(BaselineState{Exists: false}, depgraph.HealthReport{IncludedFiles: 10})
	require.Contains(t, reasons, ReasonBaselineMissing)
}

func TestAssess_BaselineEmpty(t *testing.T) {
	reasons := Assess(BaselineState{Exists: true, EdgeCount: 0}, depgraph.HealthReport{IncludedFiles: 10})
	require.Contains(t, reasons, ReasonBaselineEmpty)
}

func TestAssess_NoSourceFiles(t *testing.T) {
	reasons := Assess(BaselineState{Exists: true, EdgeCount: 1}, depgraph.HealthReport{IncludedFiles: 0})
	require.Contains(t, reasons, ReasonNoSourceFiles)
}

func TestAssess_MappingTooLow(t *testing.T) {
	reasons := Assess(BaselineState{Exists: true, EdgeCount: 1}, depgraph.HealthReport{IncludedFiles: 10, UnmappedFiles: 5})
	require.Contains(t, reasons, ReasonMappingTooLow)
}

func TestAssess_ReadyWhenAllConditionsPass(t *testing.T) {
	reasons := Assess(BaselineState{Exists: true, EdgeCount: 1}, depgraph.HealthReport{IncludedFiles: 10, UnmappedFiles: 1})
	require.Empty(t, reasons)
}

func TestGate_ForcesUnknownWhenNotReady(t *testing.T) {
	classified := classify.Record{Classification: classify.Negative, ReasonCodes: []string{"cycles_added"}}
	gated, summary := Gate(BaselineState{Exists: false}, depgraph.HealthReport{IncludedFiles: 10}, classified)
	require.Equal(t, classify.Unknown, gated.Classification)
	require.Contains(t, gated.ReasonCodes, ReasonBaselineMissing)
	require.Equal(t, neutralSummaryText, summary)
}

func TestGate_PassesThroughWhenReady(t *testing.T) {
	classified := classify.Record{Classification: classify.NoChange, ReasonCodes: []string{}}
	gated, summary := Gate(BaselineState{Exists: true, EdgeCount: 1}, depgraph.HealthReport{IncludedFiles: 10}, classified)
	require.Equal(t, classified, gated)
	require.Empty(t, summary)
}
