package session

// Focus recommendation texts. The advisor returns these verbatim; the
// composer embeds them under its "suggested next focus" header.
const (
	focusStartMacroMarket    = "Start your research with the macro market pillar: what forces are reshaping your market right now?"
	focusContinueMacroMarket = "Continue your macro market research and push it to a conclusion before opening another pillar."
	focusStartCustomer       = "Open the customer pillar: go talk to customers and capture what they actually struggle with."
	focusContinueCustomer    = "Continue your customer research until you can state their problem in their own words."
	focusStartColleague      = "Open the colleague pillar: interview the people inside your organization who live closest to the problem."
	focusContinueColleague   = "Continue your colleague research and close out the remaining conversations."
	focusMoveToSynthesis     = "All three research pillars are complete. Move into synthesis and draft the strategic synthesis section of your canvas."
	focusReviewAndRefine     = "Review what you have captured so far and refine the weakest section before moving on."
)

// canvasFocus maps each canvas section to its recommendation text, used when
// the session is already in synthesis or planning.
var canvasFocus = map[CanvasSection]string{
	CanvasMarketReality:         "Fill in the market reality section of your canvas from your macro market findings.",
	CanvasCustomerInsights:      "Fill in the customer insights section of your canvas from your customer research.",
	CanvasOrganizationalContext: "Capture your organizational context: constraints, capabilities, and appetite for change.",
	CanvasStrategicSynthesis:    "Draft your strategic synthesis: where the market, customer, and organizational pictures overlap.",
	CanvasTeamContext:           "Complete the team context section: who carries this strategy and what they need.",
}

// SuggestNextFocus recommends the next coaching action for a state.
//
// This is a first-match-wins decision procedure; only branch order decides
// the outcome when several conditions hold at once. The function is stateless
// and idempotent, so it is safe to call on every turn.
func SuggestNextFocus(s State) string {
	macro := s.ResearchPillars[PillarMacroMarket]
	customer := s.ResearchPillars[PillarCustomer]
	colleague := s.ResearchPillars[PillarColleague]

	// 1. Nothing started anywhere: always begin with macro market,
	//    regardless of the current phase.
	if !macro.Started && !customer.Started && !colleague.Started {
		return focusStartMacroMarket
	}

	// 2-6. Walk the pillars in fixed order, continuing before starting.
	if macro.Started && !macro.Completed {
		return focusContinueMacroMarket
	}
	if !customer.Started {
		return focusStartCustomer
	}
	if customer.Started && !customer.Completed {
		return focusContinueCustomer
	}
	if !colleague.Started {
		return focusStartColleague
	}
	if colleague.Started && !colleague.Completed {
		return focusContinueColleague
	}

	// 7. Research done, synthesis not yet drafted.
	if macro.Completed && customer.Completed && colleague.Completed &&
		!s.CanvasProgress[CanvasStrategicSynthesis] {
		return focusMoveToSynthesis
	}

	// 8. In synthesis or planning, recommend the first open canvas section.
	if s.CurrentPhase == PhaseSynthesis || s.CurrentPhase == PhasePlanning {
		for _, c := range CanvasSections() {
			if !s.CanvasProgress[c] {
				return canvasFocus[c]
			}
		}
	}

	// 9. Everything above satisfied.
	return focusReviewAndRefine
}
