package resolve

import (
	"path"
	"strings"
)

var tsjsExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// ResolveTSJSRelative probes a relative specifier from fromFile's
// directory: the base path itself (if it already has a recognized
// extension), then base+ext for each extension, then base/index+ext, per
// spec.md §4.3. Returns a repo-relative path.
func ResolveTSJSRelative(repoRoot, fromFile, spec string, fs FileSystem) (string, bool) {
	dir := path.Dir(path.Join(repoRoot, fromFile))
	base := path.Join(dir, spec)
	return probeTSJS(repoRoot, base, fs)
}

// probeTSJS applies the shared relative/alias probing order to base (an
// absolute path without a guaranteed extension).
func probeTSJS(repoRoot, base string, fs FileSystem) (string, bool) {
	if hasKnownExt(base) && fs.FileExists(base) {
		return relTo(repoRoot, base), true
	}
	for _, ext := range tsjsExtensions {
		if fs.FileExists(base + ext) {
			return relTo(repoRoot, base+ext), true
		}
	}
	for _, ext := range tsjsExtensions {
		idx := path.Join(base, "index"+ext)
		if fs.FileExists(idx) {
			return relTo(repoRoot, idx), true
		}
	}
	return "", false
}

func hasKnownExt(p string) bool {
	for _, ext := range tsjsExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// ResolveTSJSAbsolute resolves a non-relative specifier via the loaded
// tsconfig's paths/baseUrl, rejecting any candidate outside repoRoot, per
// spec.md §4.3. Requires a loaded TSConfig; returns false if cfg is nil.
func ResolveTSJSAbsolute(repoRoot string, cfg *TSConfig, spec string, fs FileSystem) (string, bool) {
	if cfg == nil {
		return "", false
	}

	for _, candidateBase := range cfg.candidates(spec) {
		abs := path.Join(repoRoot, candidateBase)
		if !withinRoot(repoRoot, abs) {
			continue
		}
		if resolved, ok := probeTSJS(repoRoot, abs, fs); ok {
			return resolved, true
		}
	}
	return "", false
}

// withinRoot reports whether abs is repoRoot itself or lexically nested
// under it, guarding against siblings that merely share a string prefix
// (e.g. repoRoot "/a/b" must not match "/a/bc").
func withinRoot(repoRoot, abs string) bool {
	clean := path.Clean(abs)
	root := path.Clean(repoRoot)
	return clean == root || strings.HasPrefix(clean, root+"/")
}
