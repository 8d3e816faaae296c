// Package commitdelta implements C6, the Commit Delta Extractor: resolving a
// commit and its parent, enumerating changed blobs, extracting and resolving
// imports on both sides, and emitting added/removed module edges plus
// evidence. It never touches the working tree — every read goes through the
// RepoHandle/CommitHandle/Blob interfaces, so the extractor is agnostic to
// which version-control backend supplies them (internal/vcsgit is the only
// implementation today).
package commitdelta

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/archdrift/archdrift/internal/apperrors"
	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/langextract"
	"github.com/archdrift/archdrift/internal/pathmap"
	"github.com/archdrift/archdrift/internal/resolve"
)

// ChangedFile names one blob changed between a commit and its parent. Paths
// are repo-relative, slash-separated. A rename is modeled as FromPath !=
// ToPath; an add has FromPath == ""; a delete has ToPath == "".
type ChangedFile struct {
	FromPath string
	ToPath   string
}

// Blob is a read-only handle to one version of a file's content.
type Blob interface {
	Reader() (io.ReadCloser, error)
	Size() int64
}

// CommitHandle is a read-only handle to one commit's tree.
type CommitHandle interface {
	Hash() string
	// ParentHash returns the first parent's hash and true, or ("", false)
	// for a root commit.
	ParentHash() (string, bool)
	// ChangedFiles enumerates blobs that differ between other and the
	// receiver (other is normally the parent, or the empty-tree handle
	// for a root commit).
	ChangedFiles(other CommitHandle) ([]ChangedFile, error)
	// Blob returns the blob at path as it exists in this commit, or
	// ok=false if the path doesn't exist at this commit.
	Blob(path string) (Blob, bool, error)
	// FileExists reports whether a repo-relative path names a blob in
	// this commit's tree — the resolver's FileSystem check, backed by
	// the object database instead of the working tree.
	FileExists(path string) bool
	// DirExists reports whether a repo-relative path names a tree entry
	// in this commit's tree.
	DirExists(path string) bool
}

// RepoHandle resolves commits out of a repository's object database.
type RepoHandle interface {
	ResolveCommit(sha string) (CommitHandle, error)
	// EmptyTreeID is the canonical empty-tree commit handle used as the
	// "parent" of a root commit.
	EmptyTreeID() CommitHandle
}

// sourceExtensions mirrors depgraph's file-type gate: a changed blob whose
// pre- and post-image paths both have non-source extensions is ignored.
var sourceExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
}

// virtualRoot is a synthetic repoRoot handed to the internal/resolve
// functions, which are written in terms of an absolute repoRoot prefix
// they strip back off. Commit content has no real filesystem root, so this
// placeholder stands in; it is never part of any returned path.
const virtualRoot = "/repo"

// Bounds caps the size of a single delta computation, per spec.md §4.6.
type Bounds struct {
	MaxChangedFiles int
	MaxBytesPerFile int64
}

// Evidence is one import contribution to an added or removed edge.
type Evidence struct {
	SrcFile    string `json:"src_file"`
	FromModule string `json:"from_module"`
	ToModule   string `json:"to_module"`
	Direction  string `json:"direction"` // "added" or "removed"
	ImportText string `json:"import_ref"`
}

// CommitDelta is the extractor's output for a single commit.
type CommitDelta struct {
	CommitSHA            string           `json:"commit_sha"`
	ParentSHA             string          `json:"parent_sha,omitempty"`
	EdgesAdded           []canonical.Edge `json:"edges_added"`
	EdgesRemoved         []canonical.Edge `json:"edges_removed"`
	Evidence             []Evidence       `json:"evidence"`
	Truncated            bool             `json:"truncated"`
	FilesSkippedBinary   int              `json:"files_skipped_binary"`
	FilesSkippedTooLarge int              `json:"files_skipped_too_large"`
}

// Delta computes the commit delta for commitSHA against its parent, per
// spec.md §4.6.
func Delta(ctx context.Context, repo RepoHandle, commitSHA string, cfg *archconfig.ArchitectureConfig, bounds Bounds) (CommitDelta, error) {
	commit, err := repo.ResolveCommit(commitSHA)
	if err != nil {
		return CommitDelta{}, apperrors.IOError(commitSHA, err)
	}

	parentSHA, hasParent := commit.ParentHash()
	var parent CommitHandle
	if hasParent {
		parent, err = repo.ResolveCommit(parentSHA)
		if err != nil {
			return CommitDelta{}, apperrors.IOError(parentSHA, err)
		}
	} else {
		parent = repo.EmptyTreeID()
	}

	changed, err := commit.ChangedFiles(parent)
	if err != nil {
		return CommitDelta{}, apperrors.IOError(commitSHA, err)
	}

	changed = filterSourceFiles(changed)
	sort.Slice(changed, func(i, j int) bool {
		return changedKey(changed[i]) < changedKey(changed[j])
	})

	result := CommitDelta{CommitSHA: commit.Hash()}
	if hasParent {
		result.ParentSHA = parentSHA
	}

	if bounds.MaxChangedFiles > 0 && len(changed) > bounds.MaxChangedFiles {
		changed = changed[:bounds.MaxChangedFiles]
		result.Truncated = true
	}

	mapper, err := pathmap.New(cfg)
	if err != nil {
		return CommitDelta{}, err
	}
	internal := internalPrefixes(cfg)

	commitTSConfig := loadTSConfigFromCommit(commit)
	var parentTSConfig *resolve.TSConfig
	if hasParent {
		parentTSConfig = loadTSConfigFromCommit(parent)
	}

	commitSide := map[canonical.Edge]struct{}{}
	parentSide := map[canonical.Edge]struct{}{}
	var commitEvidence, parentEvidence []Evidence

	for _, cf := range changed {
		if err := ctx.Err(); err != nil {
			return CommitDelta{}, apperrors.Timeout("commit delta", err)
		}

		if cf.ToPath != "" {
			edges, ev, skippedBinary, skippedLarge := sideEdges(commit, cf.ToPath, mapper, internal, bounds, commitTSConfig)
			result.FilesSkippedBinary += skippedBinary
			result.FilesSkippedTooLarge += skippedLarge
			for _, e := range edges {
				commitSide[e] = struct{}{}
			}
			commitEvidence = append(commitEvidence, ev...)
		}
		if cf.FromPath != "" {
			edges, ev, skippedBinary, skippedLarge := sideEdges(parent, cf.FromPath, mapper, internal, bounds, parentTSConfig)
			result.FilesSkippedBinary += skippedBinary
			result.FilesSkippedTooLarge += skippedLarge
			for _, e := range edges {
				parentSide[e] = struct{}{}
			}
			parentEvidence = append(parentEvidence, ev...)
		}
	}

	var added, removed []canonical.Edge
	for e := range commitSide {
		if _, ok := parentSide[e]; !ok {
			added = append(added, e)
		}
	}
	for e := range parentSide {
		if _, ok := commitSide[e]; !ok {
			removed = append(removed, e)
		}
	}
	result.EdgesAdded = canonical.Normalize(added)
	result.EdgesRemoved = canonical.Normalize(removed)

	addedSet := map[canonical.Edge]struct{}{}
	for _, e := range result.EdgesAdded {
		addedSet[e] = struct{}{}
	}
	removedSet := map[canonical.Edge]struct{}{}
	for _, e := range result.EdgesRemoved {
		removedSet[e] = struct{}{}
	}

	var evidence []Evidence
	for _, ev := range commitEvidence {
		if _, ok := addedSet[canonical.Edge{From: ev.FromModule, To: ev.ToModule}]; ok {
			ev.Direction = "added"
			evidence = append(evidence, ev)
		}
	}
	for _, ev := range parentEvidence {
		if _, ok := removedSet[canonical.Edge{From: ev.FromModule, To: ev.ToModule}]; ok {
			ev.Direction = "removed"
			evidence = append(evidence, ev)
		}
	}

	sort.Slice(evidence, func(i, j int) bool {
		a, b := evidence[i], evidence[j]
		if a.SrcFile != b.SrcFile {
			return a.SrcFile < b.SrcFile
		}
		if a.FromModule != b.FromModule {
			return a.FromModule < b.FromModule
		}
		if a.ToModule != b.ToModule {
			return a.ToModule < b.ToModule
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		return a.ImportText < b.ImportText
	})
	result.Evidence = evidence

	return result, nil
}

func changedKey(cf ChangedFile) string {
	if cf.ToPath != "" {
		return cf.ToPath
	}
	return cf.FromPath
}

func filterSourceFiles(changed []ChangedFile) []ChangedFile {
	out := make([]ChangedFile, 0, len(changed))
	for _, cf := range changed {
		if !hasSourceExt(cf.FromPath) && !hasSourceExt(cf.ToPath) {
			continue
		}
		out = append(out, cf)
	}
	return out
}

func hasSourceExt(p string) bool {
	if p == "" {
		return false
	}
	_, ok := sourceExtensions[strings.ToLower(filepath.Ext(p))]
	return ok
}

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

// commitFS bridges a CommitHandle to resolve.FileSystem, so the shared
// resolver functions can run against commit-tree content instead of the
// working tree. Paths arrive prefixed with virtualRoot; they're stripped
// back to repo-relative before asking the commit.
type commitFS struct {
	commit CommitHandle
}

func (f commitFS) FileExists(p string) bool {
	return f.commit.FileExists(stripVirtualRoot(p))
}

func (f commitFS) DirExists(p string) bool {
	return f.commit.DirExists(stripVirtualRoot(p))
}

func stripVirtualRoot(p string) string {
	rel := strings.TrimPrefix(p, virtualRoot)
	return strings.TrimPrefix(rel, "/")
}

// loadTSConfigFromCommit reads tsconfig.json or jsconfig.json at the
// commit's repo root, if present, without following "extends" (no second
// commit side is available to chase a parent config against).
func loadTSConfigFromCommit(commit CommitHandle) *resolve.TSConfig {
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		blob, ok, err := commit.Blob(name)
		if err != nil || !ok {
			continue
		}
		rc, err := blob.Reader()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		if cfg, err := resolve.ParseTSConfig(raw); err == nil {
			return cfg
		}
	}
	return nil
}

// sideEdges reads path out of commit (up to bounds.MaxBytesPerFile+1 bytes),
// rejecting binary or too-large content, and extracts+resolves its imports
// into module edges restricted to module-internal targets (edges whose "to"
// module is not the unmapped sentinel), per spec.md §4.6 step 3.
func sideEdges(commit CommitHandle, path string, mapper *pathmap.Mapper, internal map[string]struct{}, bounds Bounds, tsconfig *resolve.TSConfig) ([]canonical.Edge, []Evidence, int, int) {
	fromModule := mapper.Map(path)
	if fromModule == mapper.UnmappedID() {
		return nil, nil, 0, 0
	}

	blob, ok, err := commit.Blob(path)
	if err != nil || !ok {
		return nil, nil, 0, 0
	}

	rc, err := blob.Reader()
	if err != nil {
		return nil, nil, 0, 0
	}
	defer rc.Close()

	capBytes := bounds.MaxBytesPerFile
	if capBytes <= 0 {
		capBytes = 1 << 20
	}
	limited := io.LimitReader(rc, capBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, nil, 0, 0
	}
	if bytes.IndexByte(raw, 0) != -1 {
		return nil, nil, 1, 0
	}
	if int64(len(raw)) > capBytes {
		return nil, nil, 0, 1
	}

	text := strings.ToValidUTF8(string(raw), string(utf8.RuneError))

	ext := strings.ToLower(filepath.Ext(path))
	lang := "tsjs"
	var groups []langextract.Group
	if ext == ".py" {
		lang = "python"
		res, err := langextract.ExtractPython([]byte(text), internal)
		if err != nil {
			return nil, nil, 0, 0
		}
		groups = res.Groups
	} else {
		res := langextract.ExtractTSJS(text, internal, true)
		groups = res.Groups
	}

	fs := commitFS{commit: commit}

	var edges []canonical.Edge
	var evidence []Evidence
	for _, group := range groups {
		target, importRef, found := resolveGroup(path, lang, group, tsconfig, fs)
		if !found {
			continue
		}
		toModule := mapper.Map(target)
		if toModule == mapper.UnmappedID() || toModule == fromModule {
			continue
		}
		edges = append(edges, canonical.Edge{From: fromModule, To: toModule})
		evidence = append(evidence, Evidence{
			SrcFile: path, FromModule: fromModule, ToModule: toModule, ImportText: importRef,
		})
	}
	return edges, evidence, 0, 0
}

// resolveGroup mirrors depgraph's resolveGroup, but resolves against a
// commit's tree (via fs) instead of the real filesystem.
func resolveGroup(fromFile, lang string, group langextract.Group, tsconfig *resolve.TSConfig, fs resolve.FileSystem) (string, string, bool) {
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
				if target, ok := resolve.ResolvePythonRelative(virtualRoot, fromFile, dots, remainder, fs); ok {
					return target, cand, true
				}
			}
			return "", "", false
		}
		if target, ok := resolve.ResolvePythonAbsolute(virtualRoot, group, fs); ok {
			return target, group[0], true
		}
		return "", "", false
	}

	spec := group[0]
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		if target, ok := resolve.ResolveTSJSRelative(virtualRoot, fromFile, spec, fs); ok {
			return target, spec, true
		}
		return "", "", false
	}
	if target, ok := resolve.ResolveTSJSAbsolute(virtualRoot, tsconfig, spec, fs); ok {
		return target, spec, true
	}
	return "", "", false
}
