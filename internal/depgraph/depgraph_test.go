package depgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func testConfig(t *testing.T) *archconfig.ArchitectureConfig {
	t.Helper()
	cfg, err := archconfig.FromDocs(
		archconfig.ModuleMapDoc{
			Version:          "1.0",
			UnmappedModuleID: "unmapped",
			Modules: []archconfig.Module{
				{ID: "ui", Roots: []string{"ui"}},
				{ID: "core", Roots: []string{"core"}},
			},
		},
		archconfig.RulesDoc{},
		archconfig.ExceptionsDoc{},
	)
	require.NoError(t, err)
	return cfg
}

func TestBuild_EmitsEdgeAcrossModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ui/widget.py", "from core.engine import run\n")
	writeFile(t, root, "core/engine.py", "x = 1\n")

	cfg := testConfig(t)
	res, err := Build(context.Background(), root, cfg, Bounds{MaxFiles: 100, MaxFileBytes: 1 << 20, MaxEvidence: 100}, 2)
	require.NoError(t, err)

	require.Equal(t, []canonical.Edge{{From: "ui", To: "core"}}, res.Edges)
	require.Equal(t, 2, res.Health.ScannedFiles)
	require.Equal(t, 2, res.Health.IncludedFiles)
	require.Equal(t, 0, res.Health.UnmappedFiles)
	require.Len(t, res.Evidence, 1)
	require.Equal(t, "ui/widget.py", res.Evidence[0].FromFile)
	require.Equal(t, "core/engine.py", res.Evidence[0].ToFile)
}

func TestBuild_SuppressesSelfModuleEdge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ui/a.py", "from ui.b import thing\n")
	writeFile(t, root, "ui/b.py", "y = 2\n")

	cfg := testConfig(t)
	res, err := Build(context.Background(), root, cfg, Bounds{MaxFiles: 100, MaxFileBytes: 1 << 20, MaxEvidence: 100}, 2)
	require.NoError(t, err)
	require.Empty(t, res.Edges)
}

func TestBuild_UnmappedFileBumpsBucket(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "scripts/tools/helper.py", "x = 1\n")

	cfg := testConfig(t)
	res, err := Build(context.Background(), root, cfg, Bounds{MaxFiles: 100, MaxFileBytes: 1 << 20, MaxEvidence: 100}, 2)
	require.NoError(t, err)
	require.Equal(t, 1, res.Health.UnmappedFiles)
	require.Len(t, res.Health.UnmappedBuckets, 1)
	require.Equal(t, "scripts/tools", res.Health.UnmappedBuckets[0].Name)
}

func TestBuild_UnresolvedImportCounted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ui/a.py", "from . import nonexistent_sibling\n")

	cfg := testConfig(t)
	res, err := Build(context.Background(), root, cfg, Bounds{MaxFiles: 100, MaxFileBytes: 1 << 20, MaxEvidence: 100}, 2)
	require.NoError(t, err)
	require.Empty(t, res.Edges)
	require.Equal(t, 1, res.Health.UnresolvedImports)
}

func TestBuild_RespectsMaxFileBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ui/a.py", "from core.engine import run\n")
	writeFile(t, root, "core/engine.py", "x = 1\n")

	cfg := testConfig(t)
	res, err := Build(context.Background(), root, cfg, Bounds{MaxFiles: 100, MaxFileBytes: 5, MaxEvidence: 100}, 2)
	require.NoError(t, err)
	require.Greater(t, res.Health.SkippedFiles, 0)
}

func TestBuild_IgnoresVendoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "require('core')\n")
	writeFile(t, root, "ui/a.py", "x = 1\n")

	cfg := testConfig(t)
	res, err := Build(context.Background(), root, cfg, Bounds{MaxFiles: 100, MaxFileBytes: 1 << 20, MaxEvidence: 100}, 2)
	require.NoError(t, err)
	require.Equal(t, 1, res.Health.ScannedFiles)
}

func TestHealthReport_UnmappedRatio(t *testing.T) {
	h := HealthReport{IncludedFiles: 4, UnmappedFiles: 2}
	require.Equal(t, 0.5, h.UnmappedRatio())

	empty := HealthReport{IncludedFiles: 0, UnmappedFiles: 0}
	require.Equal(t, float64(0), empty.UnmappedRatio())
}
