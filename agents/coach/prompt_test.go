package coach

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/personas"
	"github.com/northbound-labs/compass/core/session"
)

func fullContext() *clientcontext.ClientContext {
	return &clientcontext.ClientContext{
		OrgID:            "org-1",
		CompanyName:      "Acme Logistics",
		Industry:         "logistics",
		CompanySize:      "200-500",
		StrategicFocus:   clientcontext.FocusGrowth,
		FocusDescription: clientcontext.FocusGrowth.Describe(),
		PainPoints:       "quoting is slow",
		PriorAttempts:    "a 2023 reorg that stalled",
		TargetOutcomes:   "double mid-market revenue",
		SuccessMetrics:   []string{"NRR", "time to quote"},
		Persona:          personas.Strategist,
	}
}

func sectionNames(sections []Section) []string {
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Body != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

func TestCoachingSectionsFixedOrder(t *testing.T) {
	sections := CoachingSections(nil, fullContext(), session.NewState())

	assert.Equal(t, []string{
		"identity",
		"client_context",
		"industry",
		"strategic_focus",
		"recovery_history",
		"research_playbook",
		"canvas_framework",
		"bet_format",
		"current_state",
		"next_focus",
		"tone",
		"response_format",
	}, sectionNames(sections))
}

func TestConditionalSectionsDropWhenAbsent(t *testing.T) {
	cc := fullContext()
	cc.Industry = ""
	cc.StrategicFocus = ""
	cc.FocusDescription = ""
	cc.PriorAttempts = ""

	names := sectionNames(CoachingSections(nil, cc, session.NewState()))
	assert.NotContains(t, names, "industry")
	assert.NotContains(t, names, "strategic_focus")
	assert.NotContains(t, names, "recovery_history")
	// The static methodology blocks are unconditional.
	assert.Contains(t, names, "research_playbook")
	assert.Contains(t, names, "canvas_framework")
	assert.Contains(t, names, "bet_format")
}

func TestBuildCoachingPromptEmbedsProgressRender(t *testing.T) {
	state := session.NewState()
	state.ResearchPillars[session.PillarMacroMarket] = session.PillarProgress{Started: true}

	prompt := BuildCoachingPrompt(nil, fullContext(), state)

	// The progress summary appears verbatim, as does the advisor's output.
	assert.Contains(t, prompt, session.Summarize(state).Render())
	assert.Contains(t, prompt, session.SuggestNextFocus(state))
}

func TestBuildCoachingPromptSeparatesWithBlankLines(t *testing.T) {
	prompt := BuildCoachingPrompt(nil, fullContext(), session.NewState())
	require.True(t, strings.HasPrefix(prompt, "# COMPASS STRATEGY COACH"))
	assert.NotContains(t, prompt, "\n\n\n\n", "sections join with a single blank line")
}

func TestToneSectionLayersPersona(t *testing.T) {
	cc := fullContext()
	state := session.NewState()
	state.CurrentPhase = session.PhaseResearch

	tone := toneSection(nil, cc, state)
	assert.Contains(t, tone, "The Strategist")
	assert.Contains(t, tone, personas.PhaseGuidance(personas.Strategist, session.PhaseResearch))

	cc.Persona = ""
	assert.Equal(t, baseToneGuidelines, toneSection(nil, cc, state))
}

func TestRegistryOverridesReachPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  - id: strategist
    tone: "Overridden coaching tone."
    phase_guidance:
      research: "Overridden research emphasis."
`), 0o644))

	reg := personas.NewRegistry(nil)
	require.NoError(t, reg.LoadOverrides(path))

	state := session.NewState()
	state.CurrentPhase = session.PhaseResearch
	prompt := BuildCoachingPrompt(reg, fullContext(), state)

	assert.Contains(t, prompt, "Overridden coaching tone.")
	assert.Contains(t, prompt, "Phase emphasis: Overridden research emphasis.")
	// Without the registry the built-in text composes instead.
	fallback := BuildCoachingPrompt(nil, fullContext(), state)
	assert.NotContains(t, fallback, "Overridden coaching tone.")
}

func TestRenderDropsEmptySections(t *testing.T) {
	out := Render([]Section{
		{Name: "a", Body: "first"},
		{Name: "b", Body: ""},
		{Name: "c", Body: "second"},
	})
	assert.Equal(t, "first\n\nsecond", out)
}

func TestGenerateOpeningMessageFresh(t *testing.T) {
	msg := GenerateOpeningMessage(fullContext(), session.NewState(), "Dana", false)

	assert.Contains(t, msg, "Hello Dana")
	assert.Contains(t, msg, "Acme Logistics")
	assert.NotContains(t, msg, "Welcome back")
	// Exactly one bolded open question at the end.
	assert.Equal(t, 1, strings.Count(msg, "**What"))
	assert.True(t, strings.HasSuffix(msg, "**"))
}

func TestGenerateOpeningMessageResuming(t *testing.T) {
	state := session.NewState()
	state.TotalMessages = 12
	for _, k := range []session.PillarKey{session.PillarMacroMarket, session.PillarCustomer} {
		state.ResearchPillars[k] = session.PillarProgress{Started: true, Completed: true}
	}

	msg := GenerateOpeningMessage(fullContext(), state, "Dana", true)

	assert.Contains(t, msg, "Welcome back, Dana.")
	// 2 of 3 pillars complete: plain fraction, not the weighted summary.
	assert.Contains(t, msg, "67% complete")
	assert.Contains(t, msg, session.SuggestNextFocus(state))
}

func TestGenerateOpeningMessageResumingWithoutHistory(t *testing.T) {
	// A resumed session with no message history greets fresh.
	msg := GenerateOpeningMessage(fullContext(), session.NewState(), "", true)
	assert.NotContains(t, msg, "Welcome back")
	assert.Contains(t, msg, "strategy coach")
}
