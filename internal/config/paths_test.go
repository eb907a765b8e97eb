package config

import (
	"path/filepath"
	"testing"
)

func TestGetPaths_HonoursXDGOverrides(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	p := GetPaths()
	if p.Data != filepath.Join("/tmp/xdg-data", "acta") {
		t.Errorf("Data = %q", p.Data)
	}
	if p.Config != filepath.Join("/tmp/xdg-config", "acta") {
		t.Errorf("Config = %q", p.Config)
	}
}

func TestLegacyProfilesRoot_PrefersExplicitOverride(t *testing.T) {
	t.Setenv("ACTA_LEGACY_PROFILE_ROOT", "/opt/legacy/profiles")
	if got := LegacyProfilesRoot(); got != "/opt/legacy/profiles" {
		t.Errorf("LegacyProfilesRoot() = %q, want explicit override", got)
	}
}

func TestDefaultHTTPRetries_LoweredUnderTest(t *testing.T) {
	t.Setenv("JEST_WORKER_ID", "")
	t.Setenv("NODE_ENV", "")
	if got := DefaultHTTPRetries(); got != 2 {
		t.Errorf("DefaultHTTPRetries() = %d, want 2 outside test runner", got)
	}

	t.Setenv("NODE_ENV", "test")
	if got := DefaultHTTPRetries(); got != 0 {
		t.Errorf("DefaultHTTPRetries() = %d, want 0 under NODE_ENV=test", got)
	}
}

func TestForceLegacyMigration(t *testing.T) {
	t.Setenv("ACTA_FORCE_LEGACY_MIGRATION", "1")
	if !ForceLegacyMigration() {
		t.Error("expected ForceLegacyMigration() to be true")
	}
	t.Setenv("ACTA_FORCE_LEGACY_MIGRATION", "0")
	if ForceLegacyMigration() {
		t.Error("expected ForceLegacyMigration() to be false")
	}
}
