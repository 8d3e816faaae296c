// Package resolve implements C3, the Import Resolver: given an import
// specifier and the importing file's location, resolve to a target file
// path using language-specific search rules (spec.md §4.3).
package resolve

import (
	"os"
	"path"
	"strings"
)

// FileSystem abstracts the filesystem checks the resolver needs, so
// resolution is testable without touching disk. depgraph passes the real
// OS-backed implementation; commitdelta (which resolves against blobs, not
// a working tree) passes one backed by the tree listing.
type FileSystem interface {
	FileExists(path string) bool
	DirExists(path string) bool
}

// osFS is the default FileSystem, backed by the real filesystem.
type osFS struct{}

func (osFS) FileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (osFS) DirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// OS is the default, filesystem-backed FileSystem.
var OS FileSystem = osFS{}

// PythonRoots returns the absolute search roots for absolute Python
// imports: repo/src (if it exists) followed by repo, per spec.md §4.3.
func PythonRoots(repoRoot string, fs FileSystem) []string {
	src := path.Join(repoRoot, "src")
	if fs.DirExists(src) {
		return []string{src, repoRoot}
	}
	return []string{repoRoot}
}

// ResolvePythonRelative resolves a relative specifier (leading dots) from
// fromFile's repo-relative location. level is the dot count; remainder is
// the text after the dots (possibly empty, possibly dotted). Returns a
// repo-relative path.
func ResolvePythonRelative(repoRoot, fromFile string, level int, remainder string, fs FileSystem) (string, bool) {
	dir := path.Dir(path.Join(repoRoot, fromFile))
	for i := 0; i < level-1; i++ {
		dir = path.Dir(dir)
	}

	target := dir
	if remainder != "" {
		target = path.Join(dir, strings.ReplaceAll(remainder, ".", "/"))
	}

	abs, ok := probePython(target, fs)
	if !ok {
		return "", false
	}
	return relTo(repoRoot, abs), true
}

// ResolvePythonAbsolute tries the grouped candidates in order (submodule
// attempts first, then package per spec.md §4.2), probing every search
// root for one candidate before moving to the next, and returns the first
// resolvable path.
func ResolvePythonAbsolute(repoRoot string, group []string, fs FileSystem) (string, bool) {
	roots := PythonRoots(repoRoot, fs)
	for _, candidate := range group {
		segments := strings.Split(candidate, ".")
		for _, root := range roots {
			target := path.Join(append([]string{root}, segments...)...)
			if abs, ok := probePython(target, fs); ok {
				return relTo(repoRoot, abs), true
			}
		}
	}
	return "", false
}

// probePython tries "<target>.py" then "<target>/__init__.py".
func probePython(target string, fs FileSystem) (string, bool) {
	if fs.FileExists(target + ".py") {
		return target + ".py", true
	}
	if fs.FileExists(path.Join(target, "__init__.py")) {
		return path.Join(target, "__init__.py"), true
	}
	return "", false
}

func relTo(repoRoot, abs string) string {
	rel := strings.TrimPrefix(abs, repoRoot)
	return strings.TrimPrefix(rel, "/")
}
