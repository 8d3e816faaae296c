package rules

import (
	"testing"

	"github.com/archdrift/archdrift/internal/archconfig"
	"github.com/archdrift/archdrift/internal/baseline"
	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/compare"
	"github.com/stretchr/testify/require"
)

func cfgDenyByDefault(allowed []archconfig.EdgeRef) *archconfig.ArchitectureConfig {
	cfg, _ := archconfig.FromDocs(
		archconfig.ModuleMapDoc{
			Version: "1.0", UnmappedModuleID: "unmapped",
			Modules: []archconfig.Module{{ID: "ui", Roots: []string{"ui"}}, {ID: "core", Roots: []string{"core"}}},
		},
		archconfig.RulesDoc{DenyByDefault: true, AllowedEdges: allowed},
		archconfig.ExceptionsDoc{},
	)
	return cfg
}

func TestCheck_ForbiddenEdgeAdded(t *testing.T) {
	cfg := cfgDenyByDefault(nil)
	cmp, err := compare.Compare(
		[]canonical.Edge{{From: "core", To: "ui"}},
		[]canonical.Edge{{From: "core", To: "ui"}, {From: "ui", To: "core"}},
	)
	require.NoError(t, err)

	res := Check(cmp, cfg, nil)
	require.False(t, res.OK)
	require.Equal(t, []canonical.Edge{{From: "ui", To: "core"}}, res.ForbiddenAdded)
	require.Len(t, res.Violations, 1)
	require.Equal(t, ViolationTypeForbiddenAdded, res.Violations[0].Type)
}

func TestCheck_ExceptionSuppressesViolation(t *testing.T) {
	cfg := cfgDenyByDefault(nil)
	cmp, err := compare.Compare(
		[]canonical.Edge{{From: "core", To: "ui"}},
		[]canonical.Edge{{From: "core", To: "ui"}, {From: "ui", To: "core"}},
	)
	require.NoError(t, err)

	active := []baseline.ActiveException{{FromModule: "ui", ToModule: "core"}}
	res := Check(cmp, cfg, active)
	require.True(t, res.OK)
	require.Equal(t, []canonical.Edge{{From: "ui", To: "core"}}, res.AllowedViaException)
	require.Empty(t, res.ForbiddenAdded)
}

func TestCheck_AllowedEdgesDominatesExceptions(t *testing.T) {
	cfg := cfgDenyByDefault([]archconfig.EdgeRef{{From: "ui", To: "core"}})
	cmp, err := compare.Compare(nil, []canonical.Edge{{From: "ui", To: "core"}})
	require.NoError(t, err)

	active := []baseline.ActiveException{{FromModule: "ui", ToModule: "core"}}
	res := Check(cmp, cfg, active)
	require.True(t, res.OK)
	require.Empty(t, res.AllowedViaException, "edge already in allowed_edges must not be tagged allowed_via_exception")
}

func TestCheck_PermissiveModeWhenAllowedEmptyAndNotDenyByDefault(t *testing.T) {
	cfg, err := archconfig.FromDocs(
		archconfig.ModuleMapDoc{Version: "1.0", UnmappedModuleID: "unmapped"},
		archconfig.RulesDoc{DenyByDefault: false, AllowedEdges: nil},
		archconfig.ExceptionsDoc{},
	)
	require.NoError(t, err)
	cmp, err := compare.Compare(nil, []canonical.Edge{{From: "ui", To: "core"}})
	require.NoError(t, err)

	res := Check(cmp, cfg, nil)
	require.True(t, res.OK)
	require.Empty(t, res.ForbiddenAdded)
}

func TestCheck_NoChangeIsOK(t *testing.T) {
	cfg := cfgDenyByDefault(nil)
	cmp, err := compare.Compare(nil, nil)
	require.NoError(t, err)
	res := Check(cmp, cfg, nil)
	require.True(t, res.OK)
}
