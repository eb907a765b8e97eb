package trustdefaults_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acta-run/acta-core/internal/trustdefaults"
	"github.com/acta-run/acta-core/pkg/types"
)

func TestGet_BuiltinPostures(t *testing.T) {
	for _, name := range []string{"build", "plan", "readonly"} {
		p, ok := trustdefaults.Get(name)
		require.True(t, ok, "expected built-in posture %q", name)
		assert.Equal(t, name, p.Name)
	}
	_, ok := trustdefaults.Get("nonexistent")
	assert.False(t, ok)
}

func TestApply_FillsUnsetOverridesOnly(t *testing.T) {
	trust := types.TrustConfig{
		Posture: "plan",
		Tools:   map[string]types.TrustLevel{"file.write": 4}, // explicit override
	}
	out := trustdefaults.Apply(trust)
	assert.Equal(t, types.TrustLevel(4), out.Tools["file.write"], "explicit override must survive")
	assert.Contains(t, out.Tools, "file.read*")
}

func TestApply_IdempotentOnSecondCall(t *testing.T) {
	trust := types.TrustConfig{Posture: "build"}
	once := trustdefaults.Apply(trust)
	twice := trustdefaults.Apply(once)
	assert.Equal(t, once, twice)
}

func TestApply_UnknownPosture_ReturnsUnchanged(t *testing.T) {
	trust := types.TrustConfig{Posture: "nope"}
	out := trustdefaults.Apply(trust)
	assert.Equal(t, trust, out)
}

func TestMatchToolLevel_ExactBeforePattern(t *testing.T) {
	trust := types.TrustConfig{Tools: map[string]types.TrustLevel{
		"file.*":      2,
		"file.delete": 0,
	}}
	level, ok := trustdefaults.MatchToolLevel(trust, "file.delete")
	require.True(t, ok)
	assert.Equal(t, types.TrustLevel(0), level)

	level, ok = trustdefaults.MatchToolLevel(trust, "file.read")
	require.True(t, ok)
	assert.Equal(t, types.TrustLevel(2), level)
}

func TestScopeMatches_PlainPrefixForNonBashTools(t *testing.T) {
	assert.True(t, trustdefaults.ScopeMatches("file.read", "/home/", "/home/user/doc.txt"))
	assert.False(t, trustdefaults.ScopeMatches("file.read", "/etc/", "/home/user/doc.txt"))
}

func TestScopeMatches_GlobForBashTools(t *testing.T) {
	assert.True(t, trustdefaults.ScopeMatches("bash.run", "git *", "git status"))
	assert.False(t, trustdefaults.ScopeMatches("bash.run", "git *", "rm -rf /"))
}

func TestScopeMatches_EmptyPrefixMatchesAny(t *testing.T) {
	assert.True(t, trustdefaults.ScopeMatches("file.read", "", "anything"))
}
