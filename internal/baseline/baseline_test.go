package baseline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/archdrift/archdrift/internal/canonical"
	"github.com/archdrift/archdrift/internal/jsonstore"
	"github.com/stretchr/testify/require"
)

func TestStoreAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	edges := []canonical.Edge{{From: "ui", To: "core"}, {From: "ui", To: "core"}}

	hash, count, err := Store(dir, edges, nil, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []canonical.Edge{{From: "ui", To: "core"}}, loaded.Edges)
	require.Equal(t, hash, loaded.Summary.BaselineHashSHA256)
}

func TestStore_HashIndependentOfInputOrderAndDuplicates(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	h1, _, err := Store(dir1, []canonical.Edge{{From: "a", To: "b"}, {From: "c", To: "d"}}, nil, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	h2, _, err := Store(dir2, []canonical.Edge{{From: "c", To: "d"}, {From: "c", To: "d"}, {From: "a", To: "b"}}, nil, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestStore_HealthDoesNotAffectHash(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	edges := []canonical.Edge{{From: "a", To: "b"}}
	h1, _, err := Store(dir1, edges, nil, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	h2, _, err := Store(dir2, edges, &Health{IncludedFiles: 10, UnmappedFiles: 2}, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestLoad_MissingBaseline(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_TamperDetection(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Store(dir, []canonical.Edge{{From: "a", To: "b"}}, nil, "2026-01-01T00:00:00Z")
	require.NoError(t, err)

	require.NoError(t, jsonstore.WriteAtomic(filepath.Join(dir, edgesFile), edgesDoc{
		Version: "1.0",
		Edges:   []canonical.Edge{{From: "a", To: "b"}, {From: "x", To: "y"}},
	}))

	_, err = Load(dir)
	require.ErrorContains(t, err, "hash mismatch")
}

func TestNormalize_RejectsEmptyEndpoint(t *testing.T) {
	_, err := Normalize([]canonical.Edge{{From: "", To: "b"}})
	require.Error(t, err)
}

func TestWriteExceptions_EnforcesExpiryAfterCreation(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	err := WriteExceptions(dir, []ActiveException{
		{FromModule: "ui", ToModule: "core", Owner: "alice", Reason: "temp", CreatedAt: now, ExpiresAt: &past},
	}, now)
	require.Error(t, err)
}

func TestWriteExceptions_AutoFillsCreatedAt(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	err := WriteExceptions(dir, []ActiveException{
		{FromModule: "ui", ToModule: "core", Owner: "alice", Reason: "temp", ExpiresAt: &future},
	}, now)
	require.NoError(t, err)

	got, err := ReadExceptions(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, now, got[0].CreatedAt)
}

func TestActive_FiltersByExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	exceptions := []ActiveException{
		{FromModule: "b", ToModule: "b", ExpiresAt: &future},
		{FromModule: "a", ToModule: "a", ExpiresAt: &past},
		{FromModule: "c", ToModule: "c", ExpiresAt: nil},
	}
	active := Active(exceptions, now)
	require.Len(t, active, 2)
	require.Equal(t, "b", active[0].FromModule)
	require.Equal(t, "c", active[1].FromModule)
}

func TestGetStatus_NoBaseline(t *testing.T) {
	dir := t.TempDir()
	status, err := GetStatus(dir)
	require.NoError(t, err)
	require.False(t, status.Exists)
}

func TestGetStatus_ReflectsApproval(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Store(dir, []canonical.Edge{{From: "a", To: "b"}}, nil, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	by := "alice"
	require.NoError(t, WriteMeta(dir, Meta{Status: "accepted", ApprovedBy: &by}))

	status, err := GetStatus(dir)
	require.NoError(t, err)
	require.True(t, status.Exists)
	require.Equal(t, "accepted", status.Meta.Status)
}
