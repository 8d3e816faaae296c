package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/baseline"
	"github.com/archdrift/archdrift/internal/snapshot"
)

var (
	snapshotRepoRoot  string
	snapshotConfigDir string
	snapshotLabel     string
	snapshotBy        string
	snapshotNote      string
	snapshotListLimit int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, list, and resolve content-addressed onboarding-config snapshots",
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the current module map (and baseline, if one exists)",
	RunE:  runSnapshotCreate,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots for the repo, newest first",
	RunE:  runSnapshotList,
}

var snapshotResolveCmd = &cobra.Command{
	Use:   "resolve [snapshot-id]",
	Short: "Resolve a snapshot id, or the newest snapshot when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshotResolve,
}

func init() {
	for _, c := range []*cobra.Command{snapshotCreateCmd, snapshotListCmd, snapshotResolveCmd} {
		c.Flags().StringVar(&snapshotRepoRoot, "repo", ".", "repository root")
		c.Flags().StringVar(&snapshotConfigDir, "config-dir", ".archdrift", "directory holding module_map.json/allowed_rules.json/exceptions.json")
	}
	snapshotCreateCmd.Flags().StringVar(&snapshotLabel, "label", "", "optional human-readable label")
	snapshotCreateCmd.Flags().StringVar(&snapshotBy, "by", "", "creator identity")
	snapshotCreateCmd.Flags().StringVar(&snapshotNote, "note", "", "optional note")
	snapshotListCmd.Flags().IntVar(&snapshotListLimit, "limit", 20, "maximum snapshots to return (clamped to [1,100])")

	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotListCmd, snapshotResolveCmd)
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	archCfg, err := archconfig.Load(snapshotConfigDir)
	if err != nil {
		return err
	}

	moduleMapDoc := archconfig.ModuleMapDoc{
		Version:          archCfg.Version,
		UnmappedModuleID: archCfg.UnmappedModuleID,
		Modules:          archCfg.Modules,
	}
	moduleMapSHA, err := snapshot.MarshalForHash(moduleMapDoc)
	if err != nil {
		return fmt.Errorf("hash module map: %w", err)
	}

	in := snapshot.Input{
		RepoRoot:        snapshotRepoRoot,
		ConfigDir:       snapshotConfigDir,
		ModuleMapSHA256: moduleMapSHA,
	}
	if status, err := loadBaselineHashIfPresent(); err == nil && status != "" {
		in.BaselineHash = &status
	}
	if snapshotLabel != "" {
		in.Label = &snapshotLabel
	}
	if snapshotBy != "" {
		in.By = &snapshotBy
	}
	if snapshotNote != "" {
		in.Note = &snapshotNote
	}

	result, err := snapshot.Create(cfg.DataDir, in, archCfg, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	status := "existing"
	if result.IsNew {
		status = "new"
	}
	fmt.Printf("snapshot %s (%s): repo_id=%s created_at=%s\n", result.Metadata.SnapshotID, status, result.Metadata.RepoID, result.Metadata.CreatedAtUTC)
	return nil
}

func loadBaselineHashIfPresent() (string, error) {
	st, err := baseline.GetStatus(snapshotConfigDir)
	if err != nil || !st.Exists {
		return "", err
	}
	loaded, err := baseline.Load(snapshotConfigDir)
	if err != nil {
		return "", err
	}
	return loaded.Summary.BaselineHashSHA256, nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	metas, err := snapshot.List(cfg.DataDir, snapshotRepoRoot, snapshotListLimit)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	out, err := json.Marshal(metas)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runSnapshotResolve(cmd *cobra.Command, args []string) error {
	var id string
	if len(args) == 1 {
		id = args[0]
	}
	meta, err := snapshot.Resolve(cfg.DataDir, snapshotRepoRoot, id)
	if err != nil {
		return fmt.Errorf("resolve snapshot: %w", err)
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
