package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/acta-run/acta-core/internal/event"
)

// emitter is the minimal publish contract Watch needs, matching
// event.BusEmitter so callers don't have to depend on the full Bus API.
type emitter interface {
	Emit(eventType event.EventType, payload any)
}

// Watcher watches every profile directory's rules.json and profile.json for
// external edits (e.g. a user hand-editing the file, or a second process
// sharing the same data directory) and republishes event.ProfileUpdated so
// in-process callers can reload rather than serve stale state.
type Watcher struct {
	fsw  *fsnotify.Watcher
	em   emitter
	root string
}

// WatchProfiles starts a Watcher over the profile manager's ProfilesRoot. The
// returned Watcher must be closed when the caller is done with it. This is
// an optional convenience, not required for the manager's own correctness:
// every read in this package re-reads from disk, so a missed fsnotify event
// never produces stale data, only a delayed ProfileUpdated notification.
func (m *Manager) WatchProfiles(em emitter) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	profiles, err := m.List()
	if err != nil {
		fsw.Close()
		return nil, err
	}
	for _, prof := range profiles {
		dir := m.profileDir(prof.ID)
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
		trustDir := m.ResolvePath(prof, prof.Paths.Trust)
		if trustDir != dir {
			os.MkdirAll(trustDir, 0755)
			if err := fsw.Add(trustDir); err != nil {
				m.log.Warn().Err(err).Str("profileId", prof.ID).Msg("profile: failed to watch trust directory")
			}
		}
	}

	w := &Watcher{fsw: fsw, em: em, root: m.paths.ProfilesRoot()}
	go w.run()
	return w, nil
}

// profileIDFor maps a changed file back to the profile that owns it: the
// first path segment under the profiles root, regardless of how deep the
// file sits (profile.json lives at depth 1, rules.json under the trust dir).
func (w *Watcher) profileIDFor(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return ""
	}
	segs := strings.Split(filepath.ToSlash(rel), "/")
	if len(segs) == 0 || segs[0] == "." || segs[0] == ".." {
		return ""
	}
	return segs[0]
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			name := filepath.Base(ev.Name)
			if name != "profile.json" && name != "rules.json" {
				continue
			}
			id := w.profileIDFor(ev.Name)
			if id == "" {
				continue
			}
			w.em.Emit(event.ProfileUpdated, event.ProfileUpdatedData{ProfileID: id})
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
