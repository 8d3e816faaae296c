package langextract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPython_AbsoluteImport(t *testing.T) {
	src := []byte("import pkg.sub\nimport external_lib\n")
	internal := map[string]struct{}{"pkg": {}}
	res, err := ExtractPython(src, internal)
	require.NoError(t, err)
	require.Equal(t, []string{"pkg.sub"}, res.Specifiers)
}

func TestExtractPython_RelativeImport(t *testing.T) {
	src := []byte("from . import sibling\nfrom ..pkg import thing\n")
	res, err := ExtractPython(src, map[string]struct{}{})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{".", "..pkg"}, res.Specifiers)
}

func TestExtractPython_FromImportGroupsSubmoduleFirst(t *testing.T) {
	src := []byte("from pkg.sub import a, b\n")
	internal := map[string]struct{}{"pkg": {}}
	res, err := ExtractPython(src, internal)
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	require.Equal(t, Group{"pkg.sub.a", "pkg.sub.b", "pkg.sub"}, res.Groups[0])
}

func TestExtractPython_WildcardSkipped(t *testing.T) {
	src := []byte("from pkg import *\n")
	internal := map[string]struct{}{"pkg": {}}
	res, err := ExtractPython(src, internal)
	require.NoError(t, err)
	require.Equal(t, []string{"pkg"}, res.Specifiers)
}

func TestExtractPython_ExternalDropped(t *testing.T) {
	src := []byte("import os\nfrom sys import argv\n")
	res, err := ExtractPython(src, map[string]struct{}{"pkg": {}})
	require.NoError(t, err)
	require.Empty(t, res.Specifiers)
}

func TestExtractPython_SyntaxErrorIsolated(t *testing.T) {
	src := []byte("def broken(:\n")
	_, err := ExtractPython(src, nil)
	require.Error(t, err)
}
