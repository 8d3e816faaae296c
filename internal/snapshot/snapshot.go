// Package snapshot implements C12, the Snapshot Registry: content-addressed
// onboarding-config snapshots, keyed by repo id and snapshot id, with
// idempotent create, descending-by-time listing, and id-or-latest resolve.
package snapshot

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/archdrift/archdrift/internal/apperrors"
	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/jsonstore"
)

var snapshotIDPattern = regexp.MustCompile(`^[a-f0-9]{16}$`)

// RepoID derives the content-addressed repo id from a repo root path,
// per spec.md §4.12.
func RepoID(repoRoot string) string {
	return canonical.ShortHash(filepath.ToSlash(repoRoot), 16)
}

// Metadata is the on-disk shape of a snapshot's metadata.json, per
// spec.md §6.
type Metadata struct {
	SnapshotID       string  `json:"snapshot_id"`
	RepoID           string  `json:"repo_id"`
	RepoPath         string  `json:"repo_path"`
	ConfigDir        string  `json:"config_dir"`
	ModuleMapSHA256  string  `json:"module_map_sha256"`
	RulesHash        *string `json:"rules_hash,omitempty"`
	BaselineHash     *string `json:"baseline_hash,omitempty"`
	SnapshotLabel    *string `json:"snapshot_label,omitempty"`
	CreatedBy        *string `json:"created_by,omitempty"`
	Note             *string `json:"note,omitempty"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// Input bundles the fields Create needs beyond the repo/config-dir pair.
type Input struct {
	RepoRoot        string
	ConfigDir       string
	ModuleMapSHA256 string
	RulesHash       *string
	BaselineHash    *string
	Label           *string
	By              *string
	Note            *string
}

// snapshotID derives the content-addressed snapshot id from the three
// optional content hashes, per spec.md §4.12.
func snapshotID(moduleMapSHA256 string, rulesHash, baselineHash *string) string {
	input := moduleMapSHA256 + "|" + derefOr(rulesHash, "") + "|" + derefOr(baselineHash, "")
	return canonical.ShortHash(input, 16)
}

func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func snapshotDir(dataDir, repoID, snapID string) string {
	return filepath.Join(dataDir, "snapshots", repoID, snapID)
}

// CreateResult reports whether Create made a new snapshot or returned an
// existing one.
type CreateResult struct {
	Metadata Metadata
	IsNew    bool
}

// Create writes a new snapshot directory idempotently: if one already
// exists with both module_map.json and metadata.json present, its existing
// metadata is returned with IsNew=false; otherwise both files are written
// atomically, per spec.md §4.12.
func Create(dataDir string, in Input, moduleMap *archconfig.ArchitectureConfig, nowUTC string) (CreateResult, error) {
	repoID := RepoID(in.RepoRoot)
	snapID := snapshotID(in.ModuleMapSHA256, in.RulesHash, in.BaselineHash)
	dir := snapshotDir(dataDir, repoID, snapID)

	moduleMapPath := filepath.Join(dir, "module_map.json")
	metaPath := filepath.Join(dir, "metadata.json")

	if jsonstore.Exists(moduleMapPath) && jsonstore.Exists(metaPath) {
		var existing Metadata
		if err := jsonstore.ReadJSON(metaPath, &existing); err != nil {
			return CreateResult{}, apperrors.IOError(metaPath, err)
		}
		return CreateResult{Metadata: existing, IsNew: false}, nil
	}

	meta := Metadata{
		SnapshotID:      snapID,
		RepoID:          repoID,
		RepoPath:        in.RepoRoot,
		ConfigDir:       in.ConfigDir,
		ModuleMapSHA256: in.ModuleMapSHA256,
		RulesHash:       in.RulesHash,
		BaselineHash:    in.BaselineHash,
		SnapshotLabel:   in.Label,
		CreatedBy:       in.By,
		Note:            in.Note,
		CreatedAtUTC:    nowUTC,
	}

	moduleMapDoc := archconfig.ModuleMapDoc{
		Version:          moduleMap.Version,
		UnmappedModuleID: moduleMap.UnmappedModuleID,
		Modules:          moduleMap.Modules,
	}
	if err := jsonstore.WriteAtomic(moduleMapPath, moduleMapDoc); err != nil {
		return CreateResult{}, apperrors.IOError(moduleMapPath, err)
	}
	if err := jsonstore.WriteAtomic(metaPath, meta); err != nil {
		return CreateResult{}, apperrors.IOError(metaPath, err)
	}

	return CreateResult{Metadata: meta, IsNew: true}, nil
}

// List scans every snapshot directory for repoRoot's repo id, sorted
// descending by created_at_utc (empty timestamps sort last), clipped to
// limit (clamped to [1,100]).
func List(dataDir, repoRoot string, limit int) ([]Metadata, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	repoID := RepoID(repoRoot)
	base := filepath.Join(dataDir, "snapshots", repoID)

	entries, err := jsonstore.ListDirs(base)
	if err != nil {
		return nil, nil // no snapshots directory yet is not an error
	}

	cached := cachedTimestamps(dataDir, repoID)
	stale := len(cached) != len(entries)
	if !stale {
		for _, snapID := range entries {
			if _, ok := cached[snapID]; !ok {
				stale = true
				break
			}
		}
	}

	var metas []Metadata
	fresh := map[string]string{}
	for _, snapID := range entries {
		metaPath := filepath.Join(base, snapID, "metadata.json")
		if !jsonstore.Exists(metaPath) {
			continue
		}
		var m Metadata
		if err := jsonstore.ReadJSON(metaPath, &m); err != nil {
			return nil, apperrors.IOError(metaPath, err)
		}
		metas = append(metas, m)
		fresh[snapID] = m.CreatedAtUTC
	}
	if stale {
		updateCache(dataDir, repoID, fresh)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		a, b := metas[i].CreatedAtUTC, metas[j].CreatedAtUTC
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a > b
	})

	if len(metas) > limit {
		metas = metas[:limit]
	}
	return metas, nil
}

// ValidSnapshotID reports whether id matches the required 16-hex-digit
// snapshot id shape.
func ValidSnapshotID(id string) bool {
	return snapshotIDPattern.MatchString(id)
}

// Resolve looks up a specific snapshotID (validated against
// ValidSnapshotID) or, if empty, the newest by created_at_utc.
func Resolve(dataDir, repoRoot, snapshotID string) (Metadata, error) {
	repoID := RepoID(repoRoot)

	if snapshotID != "" {
		if !ValidSnapshotID(snapshotID) {
			return Metadata{}, apperrors.SnapshotNotFound(repoID, snapshotID)
		}
		metaPath := filepath.Join(dataDir, "snapshots", repoID, snapshotID, "metadata.json")
		if !jsonstore.Exists(metaPath) {
			return Metadata{}, apperrors.SnapshotNotFound(repoID, snapshotID)
		}
		var m Metadata
		if err := jsonstore.ReadJSON(metaPath, &m); err != nil {
			return Metadata{}, apperrors.IOError(metaPath, err)
		}
		return m, nil
	}

	metas, err := List(dataDir, repoRoot, 1)
	if err != nil {
		return Metadata{}, err
	}
	if len(metas) == 0 {
		return Metadata{}, apperrors.SnapshotNotFound(repoID, "")
	}
	return metas[0], nil
}

// MarshalForHash is exposed so callers (the CLI) can compute
// module_map_sha256 consistently from the same document shape Create
// writes to disk.
func MarshalForHash(moduleMap archconfig.ModuleMapDoc) (string, error) {
	b, err := json.Marshal(moduleMap)
	if err != nil {
		return "", err
	}
	return canonical.ShortHash(string(b), 64), nil
}
