package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pillarState(macro, customer, colleague PillarProgress) State {
	s := NewState()
	s.ResearchPillars[PillarMacroMarket] = macro
	s.ResearchPillars[PillarCustomer] = customer
	s.ResearchPillars[PillarColleague] = colleague
	return s
}

func TestSuggestNextFocusAllUnstarted(t *testing.T) {
	// Branch 1 wins regardless of the current phase.
	for _, phase := range Phases() {
		s := NewState()
		s.CurrentPhase = phase
		assert.Equal(t, focusStartMacroMarket, SuggestNextFocus(s), "phase %s", phase)
	}
}

func TestSuggestNextFocusPillarOrder(t *testing.T) {
	started := PillarProgress{Started: true}
	done := PillarProgress{Started: true, Completed: true}
	none := PillarProgress{}

	tests := []struct {
		name      string
		macro     PillarProgress
		customer  PillarProgress
		colleague PillarProgress
		want      string
	}{
		{"macro in flight", started, none, none, focusContinueMacroMarket},
		{"macro done, customer untouched", done, none, none, focusStartCustomer},
		{"customer in flight", done, started, none, focusContinueCustomer},
		{"customer done, colleague untouched", done, done, none, focusStartColleague},
		{"colleague in flight", done, done, started, focusContinueColleague},
		{"all done, synthesis open", done, done, done, focusMoveToSynthesis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := pillarState(tt.macro, tt.customer, tt.colleague)
			assert.Equal(t, tt.want, SuggestNextFocus(s))
		})
	}
}

func TestSuggestNextFocusContinueBeatsStart(t *testing.T) {
	// Macro in flight wins even though customer is also unstarted.
	s := pillarState(PillarProgress{Started: true}, PillarProgress{}, PillarProgress{})
	assert.Equal(t, focusContinueMacroMarket, SuggestNextFocus(s))
}

func TestSuggestNextFocusCanvasWalk(t *testing.T) {
	done := PillarProgress{Started: true, Completed: true}
	s := pillarState(done, done, done)
	s.CurrentPhase = PhaseSynthesis
	s.CanvasProgress[CanvasStrategicSynthesis] = true

	// Synthesis flag is set, so branch 7 passes; canvas walk picks the first
	// open section in fixed order.
	assert.Equal(t, canvasFocus[CanvasMarketReality], SuggestNextFocus(s))

	s.CanvasProgress[CanvasMarketReality] = true
	assert.Equal(t, canvasFocus[CanvasCustomerInsights], SuggestNextFocus(s))

	s.CanvasProgress[CanvasCustomerInsights] = true
	s.CanvasProgress[CanvasOrganizationalContext] = true
	assert.Equal(t, canvasFocus[CanvasTeamContext], SuggestNextFocus(s))
}

func TestSuggestNextFocusCanvasWalkOnlyInLatePhases(t *testing.T) {
	done := PillarProgress{Started: true, Completed: true}
	s := pillarState(done, done, done)
	s.CanvasProgress[CanvasStrategicSynthesis] = true
	s.CurrentPhase = PhaseResearch

	// Research phase skips the canvas walk and falls through to the generic
	// recommendation.
	assert.Equal(t, focusReviewAndRefine, SuggestNextFocus(s))
}

func TestSuggestNextFocusFallback(t *testing.T) {
	done := PillarProgress{Started: true, Completed: true}
	s := pillarState(done, done, done)
	s.CurrentPhase = PhasePlanning
	for _, c := range CanvasSections() {
		s.CanvasProgress[c] = true
	}

	assert.Equal(t, focusReviewAndRefine, SuggestNextFocus(s))
}

func TestSuggestNextFocusIdempotent(t *testing.T) {
	s := pillarState(PillarProgress{Started: true}, PillarProgress{}, PillarProgress{})
	assert.Equal(t, SuggestNextFocus(s), SuggestNextFocus(s))
}
