package langextract

import "errors"

var (
	errNoParser    = errors.New("langextract: failed to create tree-sitter parser")
	errParseFailed = errors.New("langextract: tree-sitter parse returned no tree")
	errSyntaxError = errors.New("langextract: source has a syntax error")
)
