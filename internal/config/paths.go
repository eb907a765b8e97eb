// Package config resolves the ACTA data/config directory layout, HTTP retry
// defaults, and legacy-profile-root discovery from environment variables.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths contains the standard XDG-style directories for ACTA data.
type Paths struct {
	Data   string // ~/.local/share/acta
	Config string // ~/.config/acta
	Cache  string // ~/.cache/acta
	State  string // ~/.local/state/acta
}

// GetPaths returns the standard paths for ACTA data, honouring
// XDG_DATA_HOME/XDG_CONFIG_HOME/XDG_CACHE_HOME/XDG_STATE_HOME overrides.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(getEnvOrDefault("XDG_DATA_HOME", defaultDataHome()), "acta"),
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), "acta"),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), "acta"),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), "acta"),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.Cache, p.State} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ProfilesRoot returns the directory under which per-profile subdirectories live.
func (p *Paths) ProfilesRoot() string {
	return filepath.Join(p.Data, "profiles")
}

// ActivePointerPath returns the path to the active-profile pointer file.
func (p *Paths) ActivePointerPath() string {
	return filepath.Join(p.Data, "active-profile.json")
}

// LegacyMigrationMarkerPath returns the path to the one-shot legacy-migration marker.
func (p *Paths) LegacyMigrationMarkerPath() string {
	return filepath.Join(p.Data, "legacyMigration.json")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}

// LegacyProfilesRoot resolves the legacy profile root, in discovery
// order: ACTA_LEGACY_PROFILE_ROOT, then an OS-specific default,
// then XDG_CONFIG_HOME/ACTA/profiles, then ~/.config/acta/profiles.
func LegacyProfilesRoot() string {
	if v := os.Getenv("ACTA_LEGACY_PROFILE_ROOT"); v != "" {
		return v
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ACTA", "profiles")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ACTA", "profiles")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "ACTA", "profiles")
		}
		return filepath.Join(os.Getenv("HOME"), ".config", "acta", "profiles")
	}
}

// SuggestedProfileID returns ACTA_PROFILE_ID, used only to seed the default
// profile id at first initialisation.
func SuggestedProfileID() string {
	return os.Getenv("ACTA_PROFILE_ID")
}

// ForceLegacyMigration reports whether ACTA_FORCE_LEGACY_MIGRATION=1 is set.
func ForceLegacyMigration() bool {
	return os.Getenv("ACTA_FORCE_LEGACY_MIGRATION") == "1"
}

// DefaultHTTPRetries returns the default retry count for the LLM HTTP client:
// 0 under a test runner (JEST_WORKER_ID set, or NODE_ENV=test — carried
// over from the environment ACTA embeds alongside), 2 otherwise.
func DefaultHTTPRetries() int {
	if os.Getenv("JEST_WORKER_ID") != "" || os.Getenv("NODE_ENV") == "test" {
		return 0
	}
	return 2
}
