package profile_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/pkg/types"
)

type recordingEmitter struct {
	mu      sync.Mutex
	emitted []event.EventType
}

func (r *recordingEmitter) Emit(eventType event.EventType, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted = append(r.emitted, eventType)
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emitted)
}

func TestWatchProfiles_NotifiesOnExternalRuleEdit(t *testing.T) {
	m, paths := newManager(t)
	_, err := m.Create(types.Profile{ID: "alpha", Paths: types.Paths{Logs: "logs", Memory: "memory", Trust: "trust"}})
	require.NoError(t, err)

	em := &recordingEmitter{}
	w, err := m.WatchProfiles(em)
	require.NoError(t, err)
	defer w.Close()

	trustDir := filepath.Join(paths.ProfilesRoot(), "alpha", "trust")
	require.NoError(t, os.MkdirAll(trustDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(trustDir, "rules.json"), []byte("[]"), 0644))

	assert.Eventually(t, func() bool { return em.count() > 0 }, 2*time.Second, 20*time.Millisecond)
}
