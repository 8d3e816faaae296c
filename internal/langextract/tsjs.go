package langextract

import (
	"regexp"
	"strings"
)

// StripComments removes // line comments and /* */ block comments from
// TS/JS source while respecting single, double, and backtick string
// literals (including backslash escapes), so that a comment marker inside
// a string is not mistaken for a real comment. Block comments are replaced
// with a single space; a line comment is dropped up to its terminating
// newline, which is kept (preserving line numbers is not required here
// since C2 only needs specifiers, not positions).
func StripComments(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	runes := []rune(src)
	n := len(runes)
	i := 0
	for i < n {
		c := runes[i]

		switch {
		case c == '/' && i+1 < n && runes[i+1] == '/':
			for i < n && runes[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
			out.WriteByte(' ')
			continue
		case c == '\'' || c == '"' || c == '`':
			quote := c
			out.WriteRune(c)
			i++
			for i < n {
				if runes[i] == '\\' && i+1 < n {
					out.WriteRune(runes[i])
					out.WriteRune(runes[i+1])
					i += 2
					continue
				}
				out.WriteRune(runes[i])
				if runes[i] == quote {
					i++
					break
				}
				i++
			}
			continue
		default:
			out.WriteRune(c)
			i++
		}
	}
	return out.String()
}

var tsjsImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bimport\s+[^'"` + "`" + `;]*?\sfrom\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`),
	regexp.MustCompile(`\bimport\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*;?`),
	regexp.MustCompile(`\bexport\s+[^'"` + "`" + `;]*?\sfrom\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`),
	regexp.MustCompile(`\brequire\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*\)`),
	regexp.MustCompile(`\bimport\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*\)`),
}

// ExtractTSJS strips comments, then regex-scans for the five import shapes
// named in spec.md §4.2: static `import ... from "spec"`, bare
// `import "spec"`, `export ... from "spec"`, `require("spec")`, and dynamic
// `import("spec")`. Relative specifiers are always kept. Absolute
// specifiers are kept only if includeAbsolute is true, or the specifier's
// top-level segment (the `@scope/name` pair for scoped packages) is in
// internalPrefixes.
func ExtractTSJS(source string, internalPrefixes map[string]struct{}, includeAbsolute bool) Result {
	stripped := StripComments(source)

	seen := make(map[string]struct{})
	var specs []string
	for _, re := range tsjsImportPatterns {
		for _, m := range re.FindAllStringSubmatch(stripped, -1) {
			spec := m[1]
			if spec == "" {
				continue
			}
			if !keepTSJSSpecifier(spec, internalPrefixes, includeAbsolute) {
				continue
			}
			if _, ok := seen[spec]; ok {
				continue
			}
			seen[spec] = struct{}{}
			specs = append(specs, spec)
		}
	}

	groups := make([]Group, len(specs))
	for i, s := range specs {
		groups[i] = Group{s}
	}
	return Result{Specifiers: flattenSorted(groups), Groups: groups}
}

func keepTSJSSpecifier(spec string, internalPrefixes map[string]struct{}, includeAbsolute bool) bool {
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		return true
	}
	if includeAbsolute {
		return true
	}
	_, ok := internalPrefixes[tsjsTopLevel(spec)]
	return ok
}

// tsjsTopLevel returns the specifier's top-level segment: for a scoped
// package "@scope/name/sub" that's "@scope/name"; otherwise it's the first
// path segment.
func tsjsTopLevel(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
