package profile_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/internal/logging"
	"github.com/acta-run/acta-core/internal/profile"
)

func writeLegacyProfile(t *testing.T, legacyRoot, id string, cfg map[string]any) {
	t.Helper()
	dir := filepath.Join(legacyRoot, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0644))
}

func TestInit_MigratesLegacyProfiles(t *testing.T) {
	root := t.TempDir()
	paths := &config.Paths{
		Data:   filepath.Join(root, "data"),
		Config: filepath.Join(root, "config"),
		Cache:  filepath.Join(root, "cache"),
		State:  filepath.Join(root, "state"),
	}
	require.NoError(t, paths.EnsurePaths())

	legacyRoot := filepath.Join(root, "legacy")
	t.Setenv("ACTA_LEGACY_PROFILE_ROOT", legacyRoot)
	writeLegacyProfile(t, legacyRoot, "user-a", map[string]any{
		"name":          "User A",
		"modelProvider": "openai",
		"model":         "gpt-4",
	})
	writeLegacyProfile(t, legacyRoot, "user-b", map[string]any{
		"name":          "User B",
		"modelProvider": "ollama",
	})
	require.NoError(t, os.WriteFile(filepath.Join(legacyRoot, "active.json"),
		[]byte(`{"activeProfile":"user-b"}`), 0644))

	m := profile.New(paths, logging.Nop().Logger)
	prof, err := m.Init()
	require.NoError(t, err)
	assert.Equal(t, "user-b", prof.ID, "legacy active profile should be adopted")

	list, err := m.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	userA, err := m.Get("user-a")
	require.NoError(t, err)
	assert.Equal(t, "User A", userA.Name)
	assert.Equal(t, "gpt-4", userA.LLM.Model)
	assert.Equal(t, "openai", string(userA.LLM.AdapterID))

	userB, err := m.Get("user-b")
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", userB.LLM.Model, "missing model should default")
}

func TestInit_LegacyMigrationRunsOnce(t *testing.T) {
	root := t.TempDir()
	paths := &config.Paths{
		Data:   filepath.Join(root, "data"),
		Config: filepath.Join(root, "config"),
		Cache:  filepath.Join(root, "cache"),
		State:  filepath.Join(root, "state"),
	}
	require.NoError(t, paths.EnsurePaths())

	legacyRoot := filepath.Join(root, "legacy")
	t.Setenv("ACTA_LEGACY_PROFILE_ROOT", legacyRoot)
	writeLegacyProfile(t, legacyRoot, "user-a", map[string]any{"modelProvider": "ollama"})

	m := profile.New(paths, logging.Nop().Logger)
	_, err := m.Init()
	require.NoError(t, err)

	require.NoError(t, m.Delete("user-a", false))

	// A second Init must not re-import the deleted legacy profile.
	prof, err := m.Init()
	require.NoError(t, err)
	assert.NotEqual(t, "user-a", prof.ID)
	assert.False(t, m.Exists("user-a"))
}
