package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbound-labs/compass/core/clientcontext"
)

func knownOrg() *clientcontext.ClientContext {
	return &clientcontext.ClientContext{
		OrgID:          "org-1",
		CompanyName:    "Acme Logistics",
		Industry:       "logistics",
		CompanySize:    "200-500",
		StrategicFocus: clientcontext.FocusGrowth,
		PainPoints:     "quoting is slow",
	}
}

func completedState(n int) ProfilingState {
	state := NewProfilingState()
	for i, d := range Dimensions() {
		if i < n {
			state.Completed[d] = true
		}
	}
	state.DimensionIndex = n
	return state
}

func TestDimensionsFixedOrder(t *testing.T) {
	assert.Equal(t, []Dimension{
		DimensionRole,
		DimensionObjectives,
		DimensionLeadershipStyle,
		DimensionExperience,
		DimensionWorkingStyle,
	}, Dimensions())
}

func TestKnownOrgSummaryNeverReasks(t *testing.T) {
	prompt := BuildIntakePrompt(knownOrg(), NewProfilingState(), "Dana")

	assert.Contains(t, prompt, "Do not ask about any of it again")
	assert.Contains(t, prompt, "Company: Acme Logistics")
	assert.Contains(t, prompt, "Industry: logistics")
	assert.Contains(t, prompt, "Dana")
}

func TestKnownOrgSummaryOmittedWhenNothingKnown(t *testing.T) {
	prompt := BuildIntakePrompt(&clientcontext.ClientContext{OrgID: "org-1"}, NewProfilingState(), "")
	assert.NotContains(t, prompt, "## Already known")
}

func TestChecklistMarksPosition(t *testing.T) {
	state := completedState(2)
	prompt := BuildIntakePrompt(knownOrg(), state, "")

	assert.Contains(t, prompt, "1. [x]")
	assert.Contains(t, prompt, "2. [x]")
	assert.Contains(t, prompt, "3. [>]")
	assert.Contains(t, prompt, "4. [ ]")
	assert.Contains(t, prompt, "at most two exchanges")
}

func TestCompletionBlockExactlyOneVariant(t *testing.T) {
	cases := []struct {
		name     string
		state    ProfilingState
		expected string
	}{
		{
			name: "awaiting summary wins over everything",
			state: func() ProfilingState {
				s := completedState(5)
				s.Status = StatusAwaitingSummary
				return s
			}(),
			expected: "## THIS IS YOUR FINAL TURN",
		},
		{
			name:     "wrap-up when index past end and four complete",
			state:    completedState(4),
			expected: "## When the interview ends",
		},
		{
			name: "wrap-up fires at index 5 with 4 complete",
			state: func() ProfilingState {
				s := completedState(4)
				s.DimensionIndex = 5
				return s
			}(),
			expected: "## Wrap up now",
		},
		{
			name:     "default early in the interview",
			state:    completedState(1),
			expected: "## When the interview ends",
		},
	}

	variants := []string{"## THIS IS YOUR FINAL TURN", "## Wrap up now", "## When the interview ends"}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prompt := BuildIntakePrompt(knownOrg(), tc.state, "")
			found := 0
			for _, v := range variants {
				if strings.Contains(prompt, v) {
					found++
					assert.Equal(t, tc.expected, v)
				}
			}
			assert.Equal(t, 1, found, "exactly one completion variant present")
		})
	}
}

func TestMarkerSchemaShape(t *testing.T) {
	require.True(t, strings.HasPrefix(MarkerSchema, "```json"))
	require.True(t, strings.HasSuffix(MarkerSchema, "```"))
	for _, field := range []string{
		`"role"`, `"objectives"`, `"leadershipStyle"`, `"experience"`,
		`"workingStyle"`, `"coachingApproach"`, `"recommendedPersona"`, `"reasoning"`,
	} {
		assert.Contains(t, MarkerSchema, field)
	}
}

func TestFinalTurnDemandsMarkerLast(t *testing.T) {
	state := NewProfilingState()
	state.Status = StatusAwaitingSummary
	prompt := BuildIntakePrompt(knownOrg(), state, "")

	assert.Contains(t, prompt, "literal last content")
	// The schema block closes the whole document.
	assert.True(t, strings.HasSuffix(prompt, "```"))
}

func TestCompletedCount(t *testing.T) {
	assert.Equal(t, 0, NewProfilingState().CompletedCount())
	assert.Equal(t, 3, completedState(3).CompletedCount())
}
