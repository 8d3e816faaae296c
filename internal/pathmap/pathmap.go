// Package pathmap implements C1, the Path Mapper: mapping repository-relative
// file paths to a module id via longest-prefix match over configured roots.
package pathmap

import (
	"strings"

	"github.com/archdrift/archdrift/internal/apperrors"
	"github.com/archdrift/archdrift/internal/archconfig"
)

// Normalize converts path separators to forward slashes, strips a leading
// "./" or "/", and collapses duplicate slashes. Normalization is total and
// idempotent: Normalize(Normalize(p)) == Normalize(p).
func Normalize(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	for {
		if strings.HasPrefix(p, "./") {
			p = p[2:]
		} else if strings.HasPrefix(p, "/") {
			p = p[1:]
		} else {
			return p
		}
	}
}

// root is a single precomputed (normalizedRoot, moduleID) entry, kept in
// declaration order so prefix-length ties resolve deterministically to the
// first module declared.
type root struct {
	normalized string
	moduleID   string
}

// Mapper memoizes normalized roots across calls so Map is a single linear
// scan rather than re-normalizing configuration on every call.
type Mapper struct {
	cfg   *archconfig.ArchitectureConfig
	roots []root
}

// New builds a Mapper from cfg. Returns an InvalidConfig error if any
// module declares an empty root (defensive; archconfig.Load already
// rejects this, but Mapper may be built directly from a hand-assembled
// config in tests).
func New(cfg *archconfig.ArchitectureConfig) (*Mapper, error) {
	m := &Mapper{cfg: cfg}
	for _, mod := range cfg.Modules {
		for _, r := range mod.Roots {
			if r == "" {
				return nil, apperrors.InvalidConfig("module_map.json", "invalid configuration: module %q has an empty root", mod.ID)
			}
			m.roots = append(m.roots, root{normalized: Normalize(r), moduleID: mod.ID})
		}
	}
	return m, nil
}

// Map returns the module id owning path: the longest normalized root that
// equals path or is a proper "/"-delimited prefix of it. Ties on equal
// length resolve to the first module in declaration order. If no root
// matches, or the config has no modules, returns cfg.UnmappedModuleID.
func (m *Mapper) Map(path string) string {
	if len(m.roots) == 0 {
		return m.cfg.UnmappedModuleID
	}

	p := Normalize(path)

	bestLen := -1
	bestIdx := -1
	for i, r := range m.roots {
		if !matches(r.normalized, p) {
			continue
		}
		l := len(r.normalized)
		if l > bestLen {
			bestLen = l
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return m.cfg.UnmappedModuleID
	}
	return m.roots[bestIdx].moduleID
}

// UnmappedID returns the configured sentinel module id returned by Map when
// no root matches.
func (m *Mapper) UnmappedID() string {
	return m.cfg.UnmappedModuleID
}

// matches reports whether root equals path or is a proper prefix of path
// followed by "/".
func matches(root, path string) bool {
	if root == path {
		return true
	}
	return strings.HasPrefix(path, root+"/")
}
