package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archdrift/archdrift/internal/baseline"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/classify"
	"github.com/archdrift/archdrift/internal/commitdelta"
	"github.com/archdrift/archdrift/internal/compare"
	"github.com/archdrift/archdrift/internal/cycles"
	"github.com/archdrift/archdrift/internal/depgraph"
	"github.com/archdrift/archdrift/internal/readiness"
	"github.com/archdrift/archdrift/internal/rules"
	"github.com/archdrift/archdrift/internal/vcsgit"
)

var analyzeRepoRoot string

// commitResult is one commit's full C6->C11 outcome, printed as one JSON
// line per commit SHA supplied on the command line.
type commitResult struct {
	CommitSHA      string          `json:"commit_sha"`
	Classification classify.Record `json:"classification"`
	GateReason     string          `json:"gate_reason,omitempty"`
	EdgesAdded     []canonical.Edge `json:"edges_added"`
	EdgesRemoved   []canonical.Edge `json:"edges_removed"`
	CyclesAdded    [][]string       `json:"cycles_added"`
	CyclesRemoved  [][]string       `json:"cycles_removed"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <sha...>",
	Short: "Classify architectural drift for one or more commits against the approved baseline",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRepoRoot, "repo", ".", "repository root")
	analyzeCmd.Flags().StringVar(&baselineConfigDir, "config-dir", ".archdrift", "directory holding module_map.json/allowed_rules.json/exceptions.json")
}

// runAnalyze processes each commit SHA in the order given on the command
// line, per spec.md §5's single-analysis ordering guarantee: one commit's
// full pipeline runs to completion before the next begins.
func runAnalyze(cmd *cobra.Command, args []string) error {
	archCfg, err := loadArchConfig()
	if err != nil {
		return err
	}

	repo, err := vcsgit.Open(analyzeRepoRoot)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	status, err := baseline.GetStatus(baselineConfigDir)
	if err != nil {
		return fmt.Errorf("read baseline status: %w", err)
	}

	var baselineEdges []canonical.Edge
	var health depgraph.HealthReport
	if status.Exists {
		loaded, err := baseline.Load(baselineConfigDir)
		if err != nil {
			return fmt.Errorf("load baseline: %w", err)
		}
		baselineEdges = loaded.Edges
		if loaded.Summary.Health != nil {
			health = depgraph.HealthReport{
				IncludedFiles:     loaded.Summary.Health.IncludedFiles,
				UnmappedFiles:     loaded.Summary.Health.UnmappedFiles,
				UnresolvedImports: loaded.Summary.Health.UnresolvedImports,
				UnmappedBuckets:   loaded.Summary.Health.TopBuckets,
			}
		}
	}

	now := time.Now().UTC()
	rawExceptions, err := baseline.ReadExceptions(baselineConfigDir)
	if err != nil {
		return fmt.Errorf("read exceptions: %w", err)
	}
	active := baseline.Active(rawExceptions, now)

	baselineState := readiness.BaselineState{Exists: status.Exists, EdgeCount: status.EdgeCount}

	for _, sha := range args {
		deadline, cancelOne := context.WithTimeout(cmd.Context(), cfg.Timeouts.Analysis)
		delta, err := commitdelta.Delta(deadline, repo, sha, archCfg, cfg.DeltaBounds)
		cancelOne()
		if err != nil {
			return fmt.Errorf("extract commit delta for %s: %w", sha, err)
		}

		newEdges := applyDelta(baselineEdges, delta.EdgesAdded, delta.EdgesRemoved)

		cmpResult, err := compare.Compare(baselineEdges, newEdges)
		var cmpErr error
		var ruleResult rules.Result
		var cycleDiff cycles.DiffResult
		if err != nil {
			cmpErr = err
		} else {
			ruleResult = rules.Check(cmpResult, archCfg, active)
			cycleDiff, _, _ = cycles.Diff(baselineEdges, newEdges, cycles.DefaultMaxCycles)
		}

		var record classify.Record
		if cmpErr != nil {
			record = classify.Classify(classify.Inputs{})
		} else {
			record = classify.Classify(classify.Inputs{Compare: &cmpResult, Rules: &ruleResult, Cycles: &cycleDiff})
		}

		gated, gateReason := readiness.Gate(baselineState, health, record)

		result := commitResult{
			CommitSHA:      sha,
			Classification: gated,
			GateReason:     gateReason,
			EdgesAdded:     delta.EdgesAdded,
			EdgesRemoved:   delta.EdgesRemoved,
			CyclesAdded:    cycleDiff.CyclesAdded,
			CyclesRemoved:  cycleDiff.CyclesRemoved,
		}

		out, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

// applyDelta derives the post-commit edge set by unioning in edgesAdded and
// removing edgesRemoved from the baseline, so C7 can diff two full edge
// sets rather than two deltas.
func applyDelta(base []canonical.Edge, added, removed []canonical.Edge) []canonical.Edge {
	set := make(map[canonical.Edge]struct{}, len(base))
	for _, e := range base {
		set[e] = struct{}{}
	}
	for _, e := range removed {
		delete(set, e)
	}
	for _, e := range added {
		set[e] = struct{}{}
	}
	out := make([]canonical.Edge, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	return out
}
