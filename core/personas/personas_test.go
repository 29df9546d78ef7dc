package personas

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbound-labs/compass/core/session"
)

func TestResolveClosedSet(t *testing.T) {
	for _, id := range IDs() {
		d, ok := Resolve(id)
		require.True(t, ok, "persona %s", id)
		assert.Equal(t, id, d.ID)
		assert.NotEmpty(t, d.Identity)
		assert.NotEmpty(t, d.Tone)
		assert.Len(t, d.PhaseGuidance, 4)
	}

	// Unknown ids are absent, never an error.
	_, ok := Resolve(ID("visionary"))
	assert.False(t, ok)
}

func TestSectionAndPhaseGuidance(t *testing.T) {
	sec := Section(Challenger)
	assert.Contains(t, sec, "The Challenger")
	assert.Contains(t, sec, "sparring partner")

	assert.NotEmpty(t, PhaseGuidance(Strategist, session.PhaseResearch))
	assert.Empty(t, Section(ID("visionary")))
	assert.Empty(t, PhaseGuidance(ID("visionary"), session.PhaseResearch))
}

func TestRecommendOrderedRules(t *testing.T) {
	tests := []struct {
		name    string
		profile ProfileSignals
		want    ID
	}{
		{
			"data-driven decision making",
			ProfileSignals{DecisionMaking: "Data-driven, wants the numbers first"},
			Strategist,
		},
		{
			"analytic communication",
			ProfileSignals{Communication: "Detailed-oriented written updates"},
			Strategist,
		},
		{
			"collaborative leadership",
			ProfileSignals{LeadershipStyle: "Builds consensus across the team"},
			Facilitator,
		},
		{
			"directive style",
			ProfileSignals{WorkingStyle: "Direct, trusts gut calls"},
			Challenger,
		},
		{
			"no signal falls back",
			ProfileSignals{LeadershipStyle: "Thoughtful"},
			Strategist,
		},
		{
			// First match wins: analytic beats collaborative.
			"mixed signals prefer rule order",
			ProfileSignals{
				DecisionMaking:  "data-driven",
				LeadershipStyle: "collaborative",
			},
			Strategist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.profile)
			assert.Equal(t, tt.want, rec.Persona)
			assert.NotEmpty(t, rec.Reasoning)
		})
	}
}

func TestRecommendDefaultReasoning(t *testing.T) {
	rec := Recommend(ProfileSignals{})
	assert.Equal(t, Strategist, rec.Persona)
	assert.Contains(t, rec.Reasoning, "balanced starting point")
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: challenger
    tone: "Override tone."
`), 0o644))

	r := NewRegistry(nil)
	require.NoError(t, r.LoadOverrides(path))

	d, ok := r.Resolve(Challenger)
	require.True(t, ok)
	assert.Equal(t, "Override tone.", d.Tone)
	// Untouched fields keep their defaults.
	assert.NotEmpty(t, d.Identity)

	// Unknown personas are rejected; the set is closed.
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: visionary
    tone: "nope"
`), 0o644))
	assert.Error(t, r.LoadOverrides(path))
}

func TestOverridesIsolatedPerRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: strategist
    tone: "Registry-local tone."
    phase_guidance:
      discovery: "Registry-local guidance."
`), 0o644))

	before := PhaseGuidance(Strategist, session.PhaseDiscovery)
	require.NotEmpty(t, before)

	r := NewRegistry(nil)
	require.NoError(t, r.LoadOverrides(path))

	d, ok := r.Resolve(Strategist)
	require.True(t, ok)
	assert.Equal(t, "Registry-local guidance.", d.PhaseGuidance[session.PhaseDiscovery])

	// Neither the default registry nor a later fresh registry sees the
	// override: guidance maps are copied, never shared.
	assert.Equal(t, before, PhaseGuidance(Strategist, session.PhaseDiscovery))
	fresh := NewRegistry(nil)
	assert.Equal(t, before, fresh.PhaseGuidance(Strategist, session.PhaseDiscovery))

	sec := Section(Strategist)
	assert.NotContains(t, sec, "Registry-local tone.")
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: facilitator
    tone: "First tone."
`), 0o644))

	r := NewRegistry(nil)
	require.NoError(t, r.Watch(path))
	defer r.Close()

	d, _ := r.Resolve(Facilitator)
	assert.Equal(t, "First tone.", d.Tone)

	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: facilitator
    tone: "Second tone."
`), 0o644))

	require.Eventually(t, func() bool {
		d, _ := r.Resolve(Facilitator)
		return d.Tone == "Second tone."
	}, 3*time.Second, 20*time.Millisecond)
}
