package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/pkg/types"
)

// legacyMigrationMarker records that a one-shot legacy migration ran, so a
// restart never re-imports profiles a user has since deleted on purpose.
type legacyMigrationMarker struct {
	LegacyRoot  string `json:"legacyRoot"`
	CompletedAt int64  `json:"completedAt"`
}

// legacyConfig is the subset of the legacy per-profile config.json this
// package understands; any other fields in the legacy file are ignored.
type legacyConfig struct {
	Name          string `json:"name"`
	ModelProvider string `json:"modelProvider"`
	Model         string `json:"model"`
	BaseURL       string `json:"baseUrl"`
	Endpoint      string `json:"endpoint"`
	TrustLevel    *int   `json:"trustLevel"`
}

type legacyActivePointer struct {
	ActiveProfile string `json:"activeProfile"`
}

// legacyMigrateLocked imports legacy profile directories into the current
// layout, skipping ids that already exist, and returns the legacy active
// profile's id (possibly "") so the caller can prefer adopting it. The
// caller must already hold m.activeLock. Migration runs once: a marker file
// short-circuits subsequent calls unless ACTA_FORCE_LEGACY_MIGRATION=1.
func (m *Manager) legacyMigrateLocked() (string, error) {
	markerPath := m.paths.LegacyMigrationMarkerPath()
	if !config.ForceLegacyMigration() {
		if _, err := os.Stat(markerPath); err == nil {
			return "", nil
		}
	}

	legacyRoot := config.LegacyProfilesRoot()
	entries, err := os.ReadDir(legacyRoot)
	if err != nil {
		// Absence of a legacy root is the common case, not a failure; still
		// record the marker so we don't re-stat it on every future startup.
		m.writeLegacyMarker(markerPath, legacyRoot)
		return "", nil
	}

	legacyActiveID := readLegacyActiveID(legacyRoot)

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), "_") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		id := strings.ToLower(e.Name())
		if ValidateID(id) != nil {
			continue
		}
		if m.Exists(id) {
			continue
		}

		cfg, err := readLegacyConfig(filepath.Join(legacyRoot, e.Name(), "config.json"))
		if err != nil {
			m.log.Warn().Err(err).Str("profileId", id).Msg("profile: skipping unreadable legacy profile")
			continue
		}

		prof := synthesizeProfile(id, cfg)
		if _, err := m.createLocked(prof); err != nil {
			m.log.Warn().Err(err).Str("profileId", id).Msg("profile: failed to migrate legacy profile")
		}
	}

	m.writeLegacyMarker(markerPath, legacyRoot)
	return strings.ToLower(legacyActiveID), nil
}

func (m *Manager) writeLegacyMarker(markerPath, legacyRoot string) {
	marker := legacyMigrationMarker{LegacyRoot: legacyRoot, CompletedAt: time.Now().UnixMilli()}
	if err := atomicWriteJSON(markerPath, marker); err != nil {
		m.log.Warn().Err(err).Msg("profile: failed to write legacy migration marker")
	}
}

func readLegacyActiveID(legacyRoot string) string {
	data, err := os.ReadFile(filepath.Join(legacyRoot, "active.json"))
	if err != nil {
		return ""
	}
	var ptr legacyActivePointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		return ""
	}
	return ptr.ActiveProfile
}

func readLegacyConfig(path string) (legacyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return legacyConfig{}, err
	}
	var cfg legacyConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return legacyConfig{}, err
	}
	return cfg, nil
}

// synthesizeProfile maps a legacy config document onto the current Profile
// shape: trust level is clamped to
// {0,1,2,3} defaulting to 2, the adapter is treated as cloud iff its
// provider name is one of openai/anthropic/gemini, and a missing model
// falls back to "llama3:8b".
func synthesizeProfile(id string, cfg legacyConfig) types.Profile {
	trust := types.TrustLevelDefault
	if cfg.TrustLevel != nil {
		level := *cfg.TrustLevel
		if level < 0 {
			level = 0
		}
		if level > int(types.TrustLevelElevated) {
			level = int(types.TrustLevelElevated)
		}
		trust = types.TrustLevel(level)
	}

	adapter := types.AdapterID(strings.ToLower(cfg.ModelProvider))
	if adapter == "" {
		adapter = types.AdapterOllama
	}
	mode := types.LLMModeLocal
	if types.IsCloudAdapter(adapter) {
		mode = types.LLMModeCloud
	}

	model := cfg.Model
	if model == "" {
		model = "llama3:8b"
	}

	name := cfg.Name
	if name == "" {
		name = id
	}

	return types.Profile{
		ID:   id,
		Name: name,
		Trust: types.TrustConfig{
			DefaultTrustLevel: trust,
		},
		LLM: types.LLMConfig{
			Mode:      mode,
			AdapterID: adapter,
			Model:     model,
			BaseURL:   cfg.BaseURL,
			Endpoint:  cfg.Endpoint,
		},
		Paths: defaultPaths(),
	}
}
