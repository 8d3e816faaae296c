package pathmap

import (
	"testing"

	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/stretchr/testify/require"
)

func cfgWithModules(t *testing.T, modules []archconfig.Module) *archconfig.ArchitectureConfig {
	t.Helper()
	cfg, err := archconfig.FromDocs(
		archconfig.ModuleMapDoc{Version: "1.0", UnmappedModuleID: "unmapped", Modules: modules},
		archconfig.RulesDoc{},
		archconfig.ExceptionsDoc{},
	)
	require.NoError(t, err)
	return cfg
}

func TestMap_LongestPrefix(t *testing.T) {
	cfg := cfgWithModules(t, []archconfig.Module{
		{ID: "ui", Roots: []string{"src/ui"}},
		{ID: "ui-widgets", Roots: []string{"src/ui/widgets"}},
		{ID: "core", Roots: []string{"src/core"}},
	})
	m, err := New(cfg)
	require.NoError(t, err)

	require.Equal(t, "ui", m.Map("src/ui/app.ts"))
	require.Equal(t, "ui-widgets", m.Map("src/ui/widgets/button.ts"))
	require.Equal(t, "core", m.Map("src/core/engine.py"))
	require.Equal(t, "unmapped", m.Map("README.md"))
}

func TestMap_ExactRootMatch(t *testing.T) {
	cfg := cfgWithModules(t, []archconfig.Module{{ID: "ui", Roots: []string{"src/ui"}}})
	m, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, "ui", m.Map("src/ui"))
}

func TestMap_DeclarationOrderTieBreak(t *testing.T) {
	cfg := cfgWithModules(t, []archconfig.Module{
		{ID: "first", Roots: []string{"src/shared"}},
		{ID: "second", Roots: []string{"src/shared"}},
	})
	m, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, "first", m.Map("src/shared/x.ts"))
}

func TestMap_EmptyModulesShortcutsToUnmapped(t *testing.T) {
	cfg := cfgWithModules(t, nil)
	m, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, "unmapped", m.Map("anything.py"))
}

func TestMap_Idempotent(t *testing.T) {
	cfg := cfgWithModules(t, []archconfig.Module{{ID: "core", Roots: []string{"src/core"}}})
	m, err := New(cfg)
	require.NoError(t, err)
	p := "./src//core/a.py"
	once := m.Map(p)
	twice := m.Map(Normalize(p))
	require.Equal(t, once, twice)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"./a/b.py":   "a/b.py",
		"/a/b.py":    "a/b.py",
		"a//b///c":   "a/b/c",
		`a\b\c.ts`:   "a/b/c.ts",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in), "input %q", in)
	}
}
