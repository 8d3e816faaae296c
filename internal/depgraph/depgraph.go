// Package depgraph implements C4, the Dependency Graph Builder: walking a
// source tree, mapping files to modules, extracting and resolving imports,
// and emitting the module-level edge set plus a health report.
package depgraph

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/archdrift/archdrift/internal/apperrors"
	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/langextract"
	"github.com/archdrift/archdrift/internal/pathmap"
	"github.com/archdrift/archdrift/internal/resolve"
	"github.com/archdrift/archdrift/internal/workerpool"
)

// ignoreDirs is skipped entirely during the tree walk, per spec.md §4.4.
var ignoreDirs = map[string]struct{}{
	".git": {}, "node_modules": {}, "dist": {}, "build": {}, "out": {},
	"target": {}, ".venv": {}, "venv": {}, "__pycache__": {}, ".mypy_cache": {},
	".tox": {}, ".next": {}, "coverage": {}, "vendor": {},
}

var sourceExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
}

const maxBuckets = 200

// Bounds caps the size of a single graph build, per spec.md §4.4.
type Bounds struct {
	MaxFiles     int
	MaxFileBytes int64
	MaxEvidence  int
}

// Evidence is one recorded import contribution to an emitted edge.
type Evidence struct {
	FromFile   string `json:"from_file"`
	ToFile     string `json:"to_file"`
	ImportRef  string `json:"import_ref"`
	FromModule string `json:"from_module"`
	ToModule   string `json:"to_module"`
	Lang       string `json:"lang"`
}

// Bucket counts unmapped files by their top-two path segments.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HealthReport is the graph-build health summary, reused verbatim by
// internal/readiness's MAPPING_TOO_LOW gate (D-HEALTH).
type HealthReport struct {
	ScannedFiles      int      `json:"scanned_files"`
	IncludedFiles     int      `json:"included_files"`
	SkippedFiles      int      `json:"skipped_files"`
	UnmappedFiles     int      `json:"unmapped_files"`
	UnresolvedImports int      `json:"unresolved_imports"`
	UnmappedBuckets   []Bucket `json:"unmapped_buckets"`
}

// UnmappedRatio is unmapped_files / included_files, or 0 if no files were
// included (the readiness gate treats 0 included files as its own reason).
func (h HealthReport) UnmappedRatio() float64 {
	if h.IncludedFiles == 0 {
		return 0
	}
	return float64(h.UnmappedFiles) / float64(h.IncludedFiles)
}

// Result is the builder's output: the emitted edge set, bounded evidence,
// and the health report.
type Result struct {
	Edges    []canonical.Edge
	Evidence []Evidence
	Health   HealthReport
}

// Build walks repoRoot, extracts and resolves imports per C2/C3, and emits
// the module-level dependency graph. workers <= 0 uses workerpool.DefaultWorkers.
func Build(ctx context.Context, repoRoot string, cfg *archconfig.ArchitectureConfig, bounds Bounds, workers int) (Result, error) {
	mapper, err := pathmap.New(cfg)
	if err != nil {
		return Result{}, err
	}

	files, scanned, err := collectFiles(repoRoot, bounds.MaxFiles)
	if err != nil {
		return Result{}, apperrors.IOError(repoRoot, err)
	}

	internal := internalPrefixes(cfg)
	tsconfig := loadNearestTSConfig(repoRoot)

	results, err := workerpool.Map(ctx, files, workers, func(ctx context.Context, relPath string) (fileOutcome, error) {
		return processFile(repoRoot, relPath, mapper, internal, bounds, tsconfig)
	})
	if err != nil {
		return Result{}, err
	}

	return merge(scanned, results, bounds.MaxEvidence), nil
}

// collectFiles walks repoRoot for source-extension files, skipping
// ignoreDirs, sorted by repo-relative path and truncated to maxFiles.
func collectFiles(repoRoot string, maxFiles int) ([]string, int, error) {
	var all []string
	scanned := 0

	err := filepath.WalkDir(repoRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := ignoreDirs[d.Name()]; skip && p != repoRoot {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if _, ok := sourceExtensions[ext]; !ok {
			return nil
		}
		scanned++
		rel, relErr := filepath.Rel(repoRoot, p)
		if relErr != nil {
			return relErr
		}
		all = append(all, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Strings(all)
	if maxFiles > 0 && len(all) > maxFiles {
		all = all[:maxFiles]
	}
	return all, scanned, nil
}

// internalPrefixes derives the internal-prefix set from the top-level path
// segment of every module root, driving C2's external-import filtering.
func internalPrefixes(cfg *archconfig.ArchitectureConfig) map[string]struct{} {
	out := map[string]struct{}{}
	for _, mod := range cfg.Modules {
		for _, root := range mod.Roots {
			seg := strings.SplitN(pathmap.Normalize(root), "/", 2)[0]
			if seg != "" {
				out[seg] = struct{}{}
			}
		}
	}
	return out
}

type fileOutcome struct {
	path            string
	skipped         bool
	fromModule      string
	unmapped        bool
	bucket          string
	unresolvedCount int
	evidence        []Evidence
	edges           []canonical.Edge
}

func bucketFor(relPath string) string {
	segs := strings.SplitN(relPath, "/", 3)
	if len(segs) < 2 {
		return "__other__"
	}
	return segs[0] + "/" + segs[1]
}

func processFile(repoRoot, relPath string, mapper *pathmap.Mapper, internal map[string]struct{}, bounds Bounds, tsconfig *resolve.TSConfig) (fileOutcome, error) {
	abs := filepath.Join(repoRoot, filepath.FromSlash(relPath))
	info, err := os.Stat(abs)
	if err != nil {
		return fileOutcome{path: relPath, skipped: true}, nil
	}
	if bounds.MaxFileBytes > 0 && info.Size() > bounds.MaxFileBytes {
		return fileOutcome{path: relPath, skipped: true}, nil
	}

	fromModule := mapper.Map(relPath)
	if fromModule == mapper.UnmappedID() {
		return fileOutcome{path: relPath, unmapped: true, bucket: bucketFor(relPath)}, nil
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return fileOutcome{path: relPath, skipped: true}, nil
	}
	text := string(raw)

	ext := strings.ToLower(filepath.Ext(relPath))
	var groups []langextract.Group
	lang := ""
	switch ext {
	case ".py":
		lang = "python"
		res, err := langextract.ExtractPython(raw, internal)
		if err != nil {
			return fileOutcome{path: relPath, skipped: true}, nil
		}
		groups = res.Groups
	default:
		lang = "tsjs"
		res := langextract.ExtractTSJS(text, internal, true)
		groups = res.Groups
	}

	out := fileOutcome{path: relPath, fromModule: fromModule}
	for _, group := range groups {
		target, importRef, ok := resolveGroup(repoRoot, relPath, lang, group, tsconfig)
		if !ok {
			out.unresolvedCount++
			continue
		}
		toModule := mapper.Map(target)
		if toModule == mapper.UnmappedID() || toModule == fromModule {
			continue
		}
		out.edges = append(out.edges, canonical.Edge{From: fromModule, To: toModule})
		out.evidence = append(out.evidence, Evidence{
			FromFile: relPath, ToFile: target, ImportRef: importRef,
			FromModule: fromModule, ToModule: toModule, Lang: lang,
		})
	}
	return out, nil
}

func resolveGroup(repoRoot, fromFile, lang string, group langextract.Group, tsconfig *resolve.TSConfig) (string, string, bool) {
	if len(group) == 0 {
		return "", "", false
	}
	if lang == "python" {
		if strings.HasPrefix(group[0], ".") {
			for _, cand := range group {
				dots := 0
				for dots < len(cand) && cand[dots] == '.' {
					dots++
				}
				remainder := cand[dots:]
				if target, ok := resolve.ResolvePythonRelative(repoRoot, fromFile, dots, remainder, resolve.OS); ok {
					return target, cand, true
				}
			}
			return "", "", false
		}
		if target, ok := resolve.ResolvePythonAbsolute(repoRoot, group, resolve.OS); ok {
			return target, group[0], true
		}
		return "", "", false
	}

	spec := group[0]
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		if target, ok := resolve.ResolveTSJSRelative(repoRoot, fromFile, spec, resolve.OS); ok {
			return target, spec, true
		}
		return "", "", false
	}
	if target, ok := resolve.ResolveTSJSAbsolute(repoRoot, tsconfig, spec, resolve.OS); ok {
		return target, spec, true
	}
	return "", "", false
}

// loadNearestTSConfig loads the repo-root tsconfig.json or jsconfig.json
// once per build. A single configuration per repo root is sufficient for
// this core's scope; per-directory tsconfig discovery is left to a
// collaborator if the repo requires it.
func loadNearestTSConfig(repoRoot string) *resolve.TSConfig {
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		if cfg, err := resolve.LoadTSConfig(repoRoot, name); err == nil {
			return cfg
		}
	}
	return nil
}

func merge(scanned int, outcomes []fileOutcome, maxEvidence int) Result {
	var edges []canonical.Edge
	var evidence []Evidence
	health := HealthReport{ScannedFiles: scanned}
	bucketCounts := map[string]int{}

	for _, o := range outcomes {
		if o.skipped {
			health.SkippedFiles++
			continue
		}
		health.IncludedFiles++
		if o.unmapped {
			health.UnmappedFiles++
			bucketCounts[o.bucket]++
			continue
		}
		health.UnresolvedImports += o.unresolvedCount
		edges = append(edges, o.edges...)
		evidence = append(evidence, o.evidence...)
	}

	edges = canonical.Normalize(edges)

	sort.Slice(evidence, func(i, j int) bool {
		a, b := evidence[i], evidence[j]
		if a.FromFile != b.FromFile {
			return a.FromFile < b.FromFile
		}
		if a.ToFile != b.ToFile {
			return a.ToFile < b.ToFile
		}
		return a.ImportRef < b.ImportRef
	})
	if maxEvidence > 0 && len(evidence) > maxEvidence {
		evidence = evidence[:maxEvidence]
	}

	health.UnmappedBuckets = topBuckets(bucketCounts, maxBuckets)

	return Result{Edges: edges, Evidence: evidence, Health: health}
}

// topBuckets returns the top-10 buckets by count (ties broken by name),
// after capping distinct buckets at maxDistinct (overflow folded into
// "__other__"), per spec.md §4.4.
func topBuckets(counts map[string]int, maxDistinct int) []Bucket {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	folded := map[string]int{}
	kept := 0
	for _, name := range names {
		if kept < maxDistinct {
			folded[name] = counts[name]
			kept++
			continue
		}
		folded["__other__"] += counts[name]
	}

	out := make([]Bucket, 0, len(folded))
	for name, count := range folded {
		out = append(out, Bucket{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
