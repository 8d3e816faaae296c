package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/baseline"
	"github.com/archdrift/archdrift/internal/depgraph"
)

var (
	baselineConfigDir string
	baselineRepoRoot  string
	approveBy         string
	approveNote       string
	approveExceptions []string
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Build, inspect, and approve the approved dependency baseline",
}

var baselineCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Build a fresh baseline from the current tree and store it as draft",
	RunE:  runBaselineCreate,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current baseline's status",
	RunE:  runBaselineShow,
}

var baselineApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Mark the draft baseline accepted, optionally recording exceptions",
	RunE:  runBaselineApprove,
}

func init() {
	for _, c := range []*cobra.Command{baselineCreateCmd, baselineShowCmd, baselineApproveCmd} {
		c.Flags().StringVar(&baselineRepoRoot, "repo", ".", "repository root to scan")
		c.Flags().StringVar(&baselineConfigDir, "config-dir", ".archdrift", "directory holding module_map.json/allowed_rules.json/exceptions.json")
	}
	baselineApproveCmd.Flags().StringVar(&approveBy, "by", "", "approver identity")
	baselineApproveCmd.Flags().StringVar(&approveNote, "note", "", "approval note")
	baselineApproveCmd.Flags().StringArrayVar(&approveExceptions, "exception", nil,
		"repeatable exception, shaped from:to:owner:reason:expires_on (expires_on may be empty)")

	baselineCmd.AddCommand(baselineCreateCmd, baselineShowCmd, baselineApproveCmd)
}

func loadArchConfig() (*archconfig.ArchitectureConfig, error) {
	return archconfig.Load(baselineConfigDir)
}

func runBaselineCreate(cmd *cobra.Command, args []string) error {
	archCfg, err := loadArchConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeouts.BaselineBuild)
	defer cancel()

	result, err := depgraph.Build(ctx, baselineRepoRoot, archCfg, cfg.GraphBounds, cfg.Workers)
	if err != nil {
		return fmt.Errorf("build dependency graph: %w", err)
	}

	health := baseline.Health{
		IncludedFiles:     result.Health.IncludedFiles,
		UnmappedFiles:     result.Health.UnmappedFiles,
		UnmappedRatio:     result.Health.UnmappedRatio(),
		UnresolvedImports: result.Health.UnresolvedImports,
		TopBuckets:        result.Health.UnmappedBuckets,
	}

	dir := baselineConfigDir
	hash, edgeCount, err := baseline.Store(dir, result.Edges, &health, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store baseline: %w", err)
	}

	if err := baseline.WriteMeta(dir, baseline.Meta{Status: "draft"}); err != nil {
		return fmt.Errorf("write baseline meta: %w", err)
	}

	fmt.Printf("baseline created: %d edges, hash %s (draft, not yet approved)\n", edgeCount, hash)
	fmt.Printf("included_files=%d unmapped_files=%d unmapped_ratio=%.3f unresolved_imports=%d\n",
		health.IncludedFiles, health.UnmappedFiles, health.UnmappedRatio, health.UnresolvedImports)
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	status, err := baseline.GetStatus(baselineConfigDir)
	if err != nil {
		return fmt.Errorf("read baseline status: %w", err)
	}
	if !status.Exists {
		fmt.Println("no baseline found; run `archdrift baseline create` first")
		return nil
	}
	fmt.Printf("status=%s edge_count=%d\n", status.Meta.Status, status.EdgeCount)
	if status.Meta.ApprovedBy != nil {
		fmt.Printf("approved_by=%s approved_at=%s\n", *status.Meta.ApprovedBy, derefStr(status.Meta.ApprovedAt))
	}
	if status.Meta.ApprovalNote != nil {
		fmt.Printf("note=%s\n", *status.Meta.ApprovalNote)
	}
	return nil
}

func runBaselineApprove(cmd *cobra.Command, args []string) error {
	status, err := baseline.GetStatus(baselineConfigDir)
	if err != nil {
		return fmt.Errorf("read baseline status: %w", err)
	}
	if !status.Exists {
		return fmt.Errorf("no baseline found; run `archdrift baseline create` first")
	}

	now := time.Now().UTC()
	exceptions, err := parseExceptionFlags(approveExceptions, now)
	if err != nil {
		return err
	}
	if len(exceptions) > 0 {
		if err := baseline.WriteExceptions(baselineConfigDir, exceptions, now); err != nil {
			return fmt.Errorf("write exceptions: %w", err)
		}
	}

	loaded, err := baseline.Load(baselineConfigDir)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}

	by := &approveBy
	if approveBy == "" {
		by = nil
	}
	note := &approveNote
	if approveNote == "" {
		note = nil
	}
	approvedAt := now.Format(time.RFC3339)
	hash := loaded.Summary.BaselineHashSHA256

	meta := baseline.Meta{
		Status:             "accepted",
		ApprovedBy:         by,
		ApprovedAt:         &approvedAt,
		ApprovalNote:       note,
		BaselineHashSHA256: &hash,
	}
	if err := baseline.WriteMeta(baselineConfigDir, meta); err != nil {
		return fmt.Errorf("write baseline meta: %w", err)
	}

	fmt.Printf("baseline approved: hash %s, %d active exception(s)\n", hash, len(exceptions))
	return nil
}

// parseExceptionFlags parses repeatable --exception flags shaped
// from:to:owner:reason:expires_on into baseline.ActiveException records,
// which baseline.WriteExceptions validates when the caller writes them
// (D-EXC-CLI). Config-declared exceptions are validated separately, by
// archconfig when the config is loaded.
func parseExceptionFlags(raw []string, now time.Time) ([]baseline.ActiveException, error) {
	var out []baseline.ActiveException
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 5)
		if len(parts) < 4 {
			return nil, fmt.Errorf("invalid --exception %q: want from:to:owner:reason[:expires_on]", r)
		}
		exc := baseline.ActiveException{
			FromModule: parts[0],
			ToModule:   parts[1],
			Owner:      parts[2],
			Reason:     parts[3],
			CreatedAt:  now,
		}
		if len(parts) == 5 && parts[4] != "" {
			expires, err := time.Parse("2006-01-02", parts[4])
			if err != nil {
				return nil, fmt.Errorf("invalid --exception %q: expires_on must be YYYY-MM-DD: %w", r, err)
			}
			out = append(out, setExpiry(exc, expires))
			continue
		}
		out = append(out, exc)
	}
	return out, nil
}

func setExpiry(e baseline.ActiveException, t time.Time) baseline.ActiveException {
	e.ExpiresAt = &t
	return e
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
