package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/pkg/types"
)

// ActiveProfileID reads the active-profile pointer, returning ok=false if
// none has been set yet.
func (m *Manager) ActiveProfileID() (string, bool, error) {
	data, err := os.ReadFile(m.paths.ActivePointerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("profile: read active pointer: %w", err)
	}
	var ptr types.ActiveProfilePointer
	if err := json.Unmarshal(data, &ptr); err != nil || ptr.ProfileID == "" {
		return "", false, nil // a corrupt pointer is treated as absent, not fatal
	}
	return ptr.ProfileID, true, nil
}

func (m *Manager) setActiveProfileIDLocked(id string) error {
	return atomicWriteJSON(m.paths.ActivePointerPath(), types.ActiveProfilePointer{ProfileID: id})
}

// Get reads and normalizes the profile with the given id.
func (m *Manager) Get(id string) (types.Profile, error) {
	if err := ValidateID(id); err != nil {
		return types.Profile{}, err
	}
	data, err := os.ReadFile(m.profileDocPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return types.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return types.Profile{}, fmt.Errorf("profile: read %s: %w", id, err)
	}
	var prof types.Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return types.Profile{}, fmt.Errorf("profile: parse %s: %w", id, err)
	}
	if prof.ID == "" {
		prof.ID = id
	}
	return normalize(prof), nil
}

// List returns every profile under ProfilesRoot, sorted by id, skipping
// entries that fail to parse rather than failing the whole call.
func (m *Manager) List() ([]types.Profile, error) {
	root := m.paths.ProfilesRoot()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: list: %w", err)
	}

	var out []types.Profile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		if ValidateID(id) != nil {
			continue
		}
		prof, err := m.Get(id)
		if err != nil {
			m.log.Warn().Err(err).Str("profileId", id).Msg("profile: skipping unreadable profile directory")
			continue
		}
		out = append(out, prof)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Exists reports whether a profile directory exists for id.
func (m *Manager) Exists(id string) bool {
	_, err := os.Stat(m.profileDocPath(id))
	return err == nil
}

// Create writes a new profile document, assigning timestamps and filling
// defaults for any unset fields. It fails with ErrExists if id is taken.
func (m *Manager) Create(prof types.Profile) (types.Profile, error) {
	if err := ValidateID(prof.ID); err != nil {
		return types.Profile{}, err
	}
	lock := m.profileLock(prof.ID)
	var result types.Profile
	err := withLock(lock, func() error {
		if m.Exists(prof.ID) {
			return fmt.Errorf("%w: %s", ErrExists, prof.ID)
		}
		now := time.Now().UnixMilli()
		prof.CreatedAt = now
		prof.UpdatedAt = now
		prof.SchemaVersion = schemaVersion
		if prof.Paths == (types.Paths{}) {
			prof.Paths = defaultPaths()
		}
		prof = normalize(prof)
		if err := validateDocument(prof); err != nil {
			return err
		}
		if err := atomicWriteJSON(m.profileDocPath(prof.ID), prof); err != nil {
			return err
		}
		result = prof
		return nil
	})
	if err != nil {
		return types.Profile{}, err
	}
	return result, nil
}

// Update reads the profile with id, applies mutate, bumps UpdatedAt, and
// writes it back — all under the profile's own lock so concurrent updates
// never interleave.
func (m *Manager) Update(id string, mutate func(*types.Profile)) (types.Profile, error) {
	if err := ValidateID(id); err != nil {
		return types.Profile{}, err
	}
	lock := m.profileLock(id)
	var result types.Profile
	err := withLock(lock, func() error {
		prof, err := m.Get(id)
		if err != nil {
			return err
		}
		mutate(&prof)
		prof.ID = id // mutate must not change identity
		prof.UpdatedAt = time.Now().UnixMilli()
		prof = normalize(prof)
		if err := validateDocument(prof); err != nil {
			return err
		}
		if err := atomicWriteJSON(m.profileDocPath(id), prof); err != nil {
			return err
		}
		result = prof
		return nil
	})
	if err != nil {
		return types.Profile{}, err
	}
	return result, nil
}

// Delete removes a profile. If archive is true the directory is moved
// under a ".trash" sibling instead of being removed outright; deleting
// the active profile clears the
// pointer. Deleting a profile that does not exist is a no-op.
func (m *Manager) Delete(id string, archive bool) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return withLock(m.activeLock, func() error {
		lock := m.profileLock(id)
		return withLock(lock, func() error {
			dir := m.profileDir(id)
			if _, err := os.Stat(dir); err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return fmt.Errorf("profile: stat %s: %w", id, err)
			}

			if archive {
				trash := filepath.Join(m.paths.ProfilesRoot(), ".trash")
				if err := os.MkdirAll(trash, 0755); err != nil {
					return fmt.Errorf("profile: mkdir trash: %w", err)
				}
				dest := filepath.Join(trash, fmt.Sprintf("%s-%d", id, time.Now().UnixNano()))
				if err := os.Rename(dir, dest); err != nil {
					return fmt.Errorf("profile: archive %s: %w", id, err)
				}
			} else {
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("profile: remove %s: %w", id, err)
				}
			}

			activeID, ok, err := m.ActiveProfileID()
			if err != nil {
				return err
			}
			if ok && activeID == id {
				if err := os.Remove(m.paths.ActivePointerPath()); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("profile: clear active pointer: %w", err)
				}
			}
			return nil
		})
	})
}

// Switch makes id the active profile, failing if it does not exist.
func (m *Manager) Switch(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return withLock(m.activeLock, func() error {
		if !m.Exists(id) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return m.setActiveProfileIDLocked(id)
	})
}

// Active returns the currently active profile document.
func (m *Manager) Active() (types.Profile, error) {
	id, ok, err := m.ActiveProfileID()
	if err != nil {
		return types.Profile{}, err
	}
	if !ok {
		return types.Profile{}, fmt.Errorf("%w: no active profile set", ErrNotFound)
	}
	return m.Get(id)
}

// Init resolves the active profile at process startup:
// adopt the pointer if it resolves; otherwise attempt a one-shot legacy
// migration; otherwise adopt the first existing profile; otherwise create
// a fresh default profile and make it active.
func (m *Manager) Init() (types.Profile, error) {
	var result types.Profile
	err := withLock(m.activeLock, func() error {
		if id, ok, err := m.ActiveProfileID(); err == nil && ok && m.Exists(id) {
			prof, err := m.Get(id)
			if err == nil {
				result = prof
				return nil
			}
		}

		migrated, err := m.legacyMigrateLocked()
		if err != nil {
			m.log.Warn().Err(err).Msg("profile: legacy migration failed, continuing without it")
		}

		existing, err := m.List()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			chosen := existing[0]
			if migrated != "" {
				for _, p := range existing {
					if p.ID == migrated {
						chosen = p
						break
					}
				}
			}
			if err := m.setActiveProfileIDLocked(chosen.ID); err != nil {
				return err
			}
			result = chosen
			return nil
		}

		id := defaultProfileID()
		prof, err := m.createLocked(types.Profile{
			ID:   id,
			Name: "Default",
			Trust: types.TrustConfig{
				DefaultTrustLevel: types.TrustLevelDefault,
			},
			LLM: types.LLMConfig{
				Mode:      types.LLMModeLocal,
				AdapterID: types.AdapterOllama,
				Model:     "llama3:8b",
				BaseURL:   defaultOllamaBaseURL,
				Endpoint:  defaultOllamaBaseURL,
			},
			Paths: defaultPaths(),
		})
		if err != nil {
			return err
		}
		if err := m.setActiveProfileIDLocked(prof.ID); err != nil {
			return err
		}
		result = prof
		return nil
	})
	if err != nil {
		return types.Profile{}, err
	}
	return result, nil
}

// createLocked is Create's body without its own profileLock acquisition,
// for use from within Init which already holds the broader activeLock.
func (m *Manager) createLocked(prof types.Profile) (types.Profile, error) {
	now := time.Now().UnixMilli()
	prof.CreatedAt = now
	prof.UpdatedAt = now
	prof.SchemaVersion = schemaVersion
	if prof.Paths == (types.Paths{}) {
		prof.Paths = defaultPaths()
	}
	prof = normalize(prof)
	if err := validateDocument(prof); err != nil {
		return types.Profile{}, err
	}
	if err := atomicWriteJSON(m.profileDocPath(prof.ID), prof); err != nil {
		return types.Profile{}, err
	}
	return prof, nil
}

// defaultProfileID picks the id for a freshly initialized default profile:
// ACTA_PROFILE_ID lowercased if it validates, else "default".
func defaultProfileID() string {
	if suggested := strings.ToLower(config.SuggestedProfileID()); suggested != "" && ValidateID(suggested) == nil {
		return suggested
	}
	return "default"
}
