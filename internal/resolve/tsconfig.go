package resolve

import (
	"encoding/json"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/archdrift/archdrift/internal/langextract"
)

// TSConfig is the subset of a loaded tsconfig.json/jsconfig.json needed for
// absolute-specifier resolution: baseUrl and paths, with extends already
// flattened in per spec.md §4.3 (child paths fully replace parent paths per
// key; baseUrl inherited if unset on the child).
type TSConfig struct {
	BaseURL string            // repo-relative
	Paths   map[string][]string
}

type tsconfigFile struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

const maxExtendsDepth = 8

// LoadTSConfig loads and flattens a tsconfig/jsconfig chain starting at
// configPath (repo-relative), tolerating JSONC comments by reusing the
// TS/JS string-aware comment stripper.
func LoadTSConfig(repoRoot, configPath string) (*TSConfig, error) {
	return loadTSConfigChain(repoRoot, configPath, 0)
}

// ParseTSConfig parses a single tsconfig/jsconfig document's bytes without
// following "extends" (the caller has no filesystem to chase a parent
// config against — used by commitdelta, which only has blob content for
// one commit side at a time).
func ParseTSConfig(raw []byte) (*TSConfig, error) {
	stripped := langextract.StripComments(string(raw))
	var doc tsconfigFile
	if err := json.Unmarshal([]byte(stripped), &doc); err != nil {
		return nil, err
	}
	return &TSConfig{BaseURL: doc.CompilerOptions.BaseURL, Paths: doc.CompilerOptions.Paths}, nil
}

func loadTSConfigChain(repoRoot, configPath string, depth int) (*TSConfig, error) {
	if depth > maxExtendsDepth {
		return nil, errors.New("resolve: tsconfig extends chain too deep")
	}

	abs := path.Join(repoRoot, configPath)
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	stripped := langextract.StripComments(string(raw))
	var doc tsconfigFile
	if err := json.Unmarshal([]byte(stripped), &doc); err != nil {
		return nil, err
	}

	cfg := &TSConfig{
		BaseURL: doc.CompilerOptions.BaseURL,
		Paths:   doc.CompilerOptions.Paths,
	}

	if doc.Extends != "" {
		parentPath := path.Join(path.Dir(configPath), doc.Extends)
		parent, err := loadTSConfigChain(repoRoot, parentPath, depth+1)
		if err == nil {
			if cfg.BaseURL == "" {
				cfg.BaseURL = parent.BaseURL
			}
			if cfg.Paths == nil {
				cfg.Paths = parent.Paths
			}
		}
	}

	return cfg, nil
}

// candidates returns the repo-relative candidate base paths for spec, in
// resolution order: the paths-alias match (longest pattern, exactly one
// "*" wildcard) first, then baseUrl+spec.
func (c *TSConfig) candidates(spec string) []string {
	var out []string

	if alias, ok := c.matchPaths(spec); ok {
		out = append(out, alias)
	}

	baseURL := c.BaseURL
	out = append(out, path.Join(baseURL, spec))

	return out
}

// matchPaths finds the longest "paths" pattern key matching spec and
// substitutes the single "*" wildcard into the first matching target.
func (c *TSConfig) matchPaths(spec string) (string, bool) {
	bestLen := -1
	var best string
	var found bool

	for pattern, targets := range c.Paths {
		if len(targets) == 0 {
			continue
		}
		prefix, hasWildcard := splitWildcard(pattern)
		var captured string
		var ok bool
		if hasWildcard {
			if strings.HasPrefix(spec, prefix) {
				captured = spec[len(prefix):]
				ok = true
			}
		} else if spec == pattern {
			ok = true
		}
		if !ok {
			continue
		}
		if len(prefix) <= bestLen {
			continue
		}

		targetPrefix, targetHasWildcard := splitWildcard(targets[0])
		target := targetPrefix
		if targetHasWildcard {
			target = targetPrefix + captured
		}

		bestLen = len(prefix)
		best = path.Join(c.BaseURL, target)
		found = true
	}

	return best, found
}

// splitWildcard returns the text before a single "*" wildcard in pattern,
// and whether a wildcard was present.
func splitWildcard(pattern string) (string, bool) {
	idx := strings.IndexByte(pattern, '*')
	if idx == -1 {
		return pattern, false
	}
	return pattern[:idx], true
}
