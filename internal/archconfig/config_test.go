package archconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validMapDoc() ModuleMapDoc {
	return ModuleMapDoc{
		Version:          "1.0",
		UnmappedModuleID: "unmapped",
		Modules: []Module{
			{ID: "ui", Roots: []string{"ui"}},
			{ID: "core", Roots: []string{"core"}},
		},
	}
}

func TestFromDocs_BuildsValidConfig(t *testing.T) {
	cfg, err := FromDocs(validMapDoc(), RulesDoc{}, ExceptionsDoc{})
	require.NoError(t, err)
	require.True(t, cfg.KnownModuleID("ui"))
	require.True(t, cfg.KnownModuleID("unmapped"))
	require.False(t, cfg.KnownModuleID("nope"))
}

func TestFromDocs_EmptyModulesSkipsCrossValidation(t *testing.T) {
	mapDoc := ModuleMapDoc{Version: "1.0", UnmappedModuleID: "unmapped"}
	rules := RulesDoc{AllowedEdges: []EdgeRef{{From: "a", To: "b"}}}
	cfg, err := FromDocs(mapDoc, rules, ExceptionsDoc{})
	require.NoError(t, err)
	require.Empty(t, cfg.Modules)
}

func TestFromDocs_RejectsUnsupportedVersion(t *testing.T) {
	mapDoc := validMapDoc()
	mapDoc.Version = "2.0"
	_, err := FromDocs(mapDoc, RulesDoc{}, ExceptionsDoc{})
	require.Error(t, err)
}

func TestFromDocs_RejectsDuplicateModuleID(t *testing.T) {
	mapDoc := validMapDoc()
	mapDoc.Modules = append(mapDoc.Modules, Module{ID: "ui", Roots: []string{"other"}})
	_, err := FromDocs(mapDoc, RulesDoc{}, ExceptionsDoc{})
	require.Error(t, err)
}

func TestFromDocs_RejectsModuleWithNoRoots(t *testing.T) {
	mapDoc := validMapDoc()
	mapDoc.Modules = append(mapDoc.Modules, Module{ID: "empty"})
	_, err := FromDocs(mapDoc, RulesDoc{}, ExceptionsDoc{})
	require.Error(t, err)
}

func TestFromDocs_RejectsAllowedEdgeWithUnknownModule(t *testing.T) {
	rules := RulesDoc{AllowedEdges: []EdgeRef{{From: "ui", To: "ghost"}}}
	_, err := FromDocs(validMapDoc(), rules, ExceptionsDoc{})
	require.Error(t, err)
}

func TestFromDocs_RejectsExceptionWithInvalidExpiresOn(t *testing.T) {
	bad := "not-a-date"
	exc := ExceptionsDoc{Exceptions: []Exception{{From: "ui", To: "core", Owner: "me", Reason: "r", ExpiresOn: &bad}}}
	_, err := FromDocs(validMapDoc(), RulesDoc{}, exc)
	require.Error(t, err)
}

func TestFromDocs_AcceptsExceptionWithValidExpiresOn(t *testing.T) {
	good := "2026-12-31"
	exc := ExceptionsDoc{Exceptions: []Exception{{From: "ui", To: "core", Owner: "me", Reason: "r", ExpiresOn: &good}}}
	cfg, err := FromDocs(validMapDoc(), RulesDoc{}, exc)
	require.NoError(t, err)
	require.Len(t, cfg.Exceptions, 1)
}

func TestValidate_CatchesManuallyMutatedAllowedEdges(t *testing.T) {
	cfg, err := FromDocs(validMapDoc(), RulesDoc{}, ExceptionsDoc{})
	require.NoError(t, err)
	cfg.AllowedEdges = append(cfg.AllowedEdges, EdgeRef{From: "ui", To: "ghost"})
	require.Error(t, cfg.Validate())
}
