// Package baseline implements C5, the Baseline Store: content-addressed
// persistence of an approved edge set plus its health summary, approval
// metadata, and time-bound exceptions.
package baseline

import (
	"sort"
	"time"

	"github.com/archdrift/archdrift/internal/apperrors"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/depgraph"
	"github.com/archdrift/archdrift/internal/jsonstore"
)

const edgesFile = "baseline_edges.json"
const summaryFile = "baseline_summary.json"
const metaFile = "baseline_meta.json"
const exceptionsFile = "baseline_exceptions.json"

// edgesDoc is the on-disk shape of baseline_edges.json.
type edgesDoc struct {
	Version string           `json:"version"`
	Edges   []canonical.Edge `json:"edges"`
}

// Health mirrors depgraph.HealthReport plus the derived unmapped ratio, as
// embedded in baseline_summary.json without affecting the baseline hash.
type Health struct {
	EdgeCount         int              `json:"edge_count"`
	IncludedFiles     int              `json:"included_files"`
	UnmappedFiles     int              `json:"unmapped_files"`
	UnmappedRatio     float64          `json:"unmapped_ratio"`
	UnresolvedImports int              `json:"unresolved_imports"`
	TopBuckets        []depgraph.Bucket `json:"top_buckets"`
}

// Summary is the on-disk shape of baseline_summary.json.
type Summary struct {
	Version            string  `json:"version"`
	CreatedAtUTC        string  `json:"created_at_utc"`
	BaselineHashSHA256  string  `json:"baseline_hash_sha256"`
	EdgeCount           int     `json:"edge_count"`
	Health              *Health `json:"health,omitempty"`
}

// Meta is the on-disk shape of baseline_meta.json.
type Meta struct {
	Status             string  `json:"status"` // "draft" | "accepted"
	ApprovedBy         *string `json:"approved_by,omitempty"`
	ApprovedAt         *string `json:"approved_at,omitempty"`
	ApprovalNote       *string `json:"approval_note,omitempty"`
	BaselineHashSHA256 *string `json:"baseline_hash_sha256,omitempty"`
}

// ActiveException is a baseline-scoped, time-bound allowance, distinct from
// archconfig.Exception per spec.md §9 Open Question 2.
type ActiveException struct {
	FromModule string    `json:"from_module"`
	ToModule   string    `json:"to_module"`
	Owner      string    `json:"owner"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// Active reports whether the exception is active at instant now: expires_at
// in the future, or no expiry at all (active forever).
func (e ActiveException) Active(now time.Time) bool {
	if e.ExpiresAt == nil {
		return true
	}
	return e.ExpiresAt.After(now)
}

// Normalize validates each edge has non-empty endpoints, dedupes, and sorts
// by (from, to). Invalid edges yield an InvalidEdge error.
func Normalize(edges []canonical.Edge) ([]canonical.Edge, error) {
	for _, e := range edges {
		if e.From == "" || e.To == "" {
			return nil, apperrors.InvalidEdge("edge has an empty endpoint: (%q,%q)", e.From, e.To)
		}
	}
	return canonical.Normalize(edges), nil
}

// Hash returns the baseline hash for a normalized edge set, delegating to
// the single canonical-bytes routine.
func Hash(edges []canonical.Edge) string {
	return canonical.Hash(edges)
}

// Store writes baseline_edges.json and baseline_summary.json atomically.
// health is optional: when present it is embedded in the summary without
// affecting the hash. nowUTC is the RFC3339 timestamp recorded as
// created_at_utc (injected by the caller so the store stays deterministic
// under test).
func Store(dir string, edges []canonical.Edge, health *Health, nowUTC string) (hash string, edgeCount int, err error) {
	normalized, err := Normalize(edges)
	if err != nil {
		return "", 0, err
	}

	hash = canonical.Hash(normalized)
	edgeCount = len(normalized)

	if health != nil {
		health.EdgeCount = edgeCount
	}

	if err := jsonstore.WriteAtomic(dir+"/"+edgesFile, edgesDoc{Version: "1.0", Edges: normalized}); err != nil {
		return "", 0, apperrors.IOError(dir+"/"+edgesFile, err)
	}

	summary := Summary{
		Version:            "1.0",
		CreatedAtUTC:        nowUTC,
		BaselineHashSHA256:  hash,
		EdgeCount:           edgeCount,
		Health:              health,
	}
	if err := jsonstore.WriteAtomic(dir+"/"+summaryFile, summary); err != nil {
		return "", 0, apperrors.IOError(dir+"/"+summaryFile, err)
	}

	return hash, edgeCount, nil
}

// Loaded is the in-memory result of Load: the validated edge set and its
// persisted summary.
type Loaded struct {
	Edges   []canonical.Edge
	Summary Summary
}

// Load reads baseline_edges.json and baseline_summary.json, recomputes the
// hash and edge count from the on-disk edges, and refuses on mismatch
// (tamper detection, fatal per spec.md §4.5/§7).
func Load(dir string) (*Loaded, error) {
	edgesPath := dir + "/" + edgesFile
	summaryPath := dir + "/" + summaryFile

	if !jsonstore.Exists(edgesPath) || !jsonstore.Exists(summaryPath) {
		return nil, apperrors.BaselineMissing(dir)
	}

	var doc edgesDoc
	if err := jsonstore.ReadJSON(edgesPath, &doc); err != nil {
		return nil, apperrors.IOError(edgesPath, err)
	}
	var summary Summary
	if err := jsonstore.ReadJSON(summaryPath, &summary); err != nil {
		return nil, apperrors.IOError(summaryPath, err)
	}

	normalized, err := Normalize(doc.Edges)
	if err != nil {
		return nil, err
	}

	recomputedHash := canonical.Hash(normalized)
	if recomputedHash != summary.BaselineHashSHA256 {
		return nil, apperrors.BaselineHashMismatch(edgesPath, summary.BaselineHashSHA256, recomputedHash)
	}
	if len(normalized) != summary.EdgeCount {
		return nil, apperrors.BaselineHashMismatch(summaryPath, summary.BaselineHashSHA256, recomputedHash).
			WithContext("edge_count_on_disk", summary.EdgeCount).
			WithContext("edge_count_recomputed", len(normalized))
	}

	return &Loaded{Edges: normalized, Summary: summary}, nil
}

// WriteMeta serializes baseline_meta.json, recording approval state.
func WriteMeta(dir string, meta Meta) error {
	path := dir + "/" + metaFile
	if err := jsonstore.WriteAtomic(path, meta); err != nil {
		return apperrors.IOError(path, err)
	}
	return nil
}

// ReadMeta reads baseline_meta.json. A missing file is not an error: it
// returns a zero-value draft Meta.
func ReadMeta(dir string) (Meta, error) {
	path := dir + "/" + metaFile
	if !jsonstore.Exists(path) {
		return Meta{Status: "draft"}, nil
	}
	var meta Meta
	if err := jsonstore.ReadJSON(path, &meta); err != nil {
		return Meta{}, apperrors.IOError(path, err)
	}
	return meta, nil
}

// WriteExceptions validates every record (non-empty endpoints, non-empty
// owner/reason, expires_at strictly after created_at when both are
// present), auto-fills created_at when zero, and writes the list
// atomically.
func WriteExceptions(dir string, exceptions []ActiveException, now time.Time) error {
	out := make([]ActiveException, len(exceptions))
	for i, e := range exceptions {
		if e.FromModule == "" || e.ToModule == "" {
			return apperrors.InvalidEdge("exception has an empty endpoint: (%q,%q)", e.FromModule, e.ToModule)
		}
		if e.Owner == "" || e.Reason == "" {
			return apperrors.InvalidConfig(exceptionsFile, "exception (%s,%s) missing owner/reason", e.FromModule, e.ToModule)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.ExpiresAt != nil && !e.ExpiresAt.After(e.CreatedAt) {
			return apperrors.InvalidConfig(exceptionsFile, "exception (%s,%s) expires_at must be after created_at", e.FromModule, e.ToModule)
		}
		out[i] = e
	}

	path := dir + "/" + exceptionsFile
	if err := jsonstore.WriteAtomic(path, out); err != nil {
		return apperrors.IOError(path, err)
	}
	return nil
}

// ReadExceptions reads baseline_exceptions.json. A missing file yields an
// empty list, not an error (optional artifact per spec.md §3).
func ReadExceptions(dir string) ([]ActiveException, error) {
	path := dir + "/" + exceptionsFile
	if !jsonstore.Exists(path) {
		return nil, nil
	}
	var exceptions []ActiveException
	if err := jsonstore.ReadJSON(path, &exceptions); err != nil {
		return nil, apperrors.IOError(path, err)
	}
	return exceptions, nil
}

// Active filters exceptions to those active at instant now, sorted by
// (from_module, to_module) for deterministic downstream consumption.
func Active(exceptions []ActiveException, now time.Time) []ActiveException {
	var out []ActiveException
	for _, e := range exceptions {
		if e.Active(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromModule != out[j].FromModule {
			return out[i].FromModule < out[j].FromModule
		}
		return out[i].ToModule < out[j].ToModule
	})
	return out
}

// Status is a lightweight probe of whether a baseline exists and its
// approval state, used by the readiness gate and the CLI's baseline and
// snapshot commands.
type Status struct {
	Exists    bool
	EdgeCount int
	Meta      Meta
}

// GetStatus reports whether dir holds a valid baseline and its meta state.
// A missing baseline is not an error: Exists is false.
func GetStatus(dir string) (Status, error) {
	if !jsonstore.Exists(dir + "/" + summaryFile) {
		return Status{Exists: false}, nil
	}
	loaded, err := Load(dir)
	if err != nil {
		return Status{}, err
	}
	meta, err := ReadMeta(dir)
	if err != nil {
		return Status{}, err
	}
	return Status{Exists: true, EdgeCount: loaded.Summary.EdgeCount, Meta: meta}, nil
}
