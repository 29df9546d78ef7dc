// Package coach composes the per-turn coaching instruction document and
// drives the language-model backend call for coaching sessions.
package coach

import (
	"fmt"
	"strings"

	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/personas"
	"github.com/northbound-labs/compass/core/session"
)

// Section is one named block of the instruction document. Sections with an
// empty body are dropped at render time; the order of the remaining sections
// is load-bearing for model priming and must not change.
type Section struct {
	Name string
	Body string
}

// Render joins the non-empty sections with a blank line. The document is
// immutable once built; it is assembled fresh on every request and never
// mutated mid-request.
func Render(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Body != "" {
			parts = append(parts, s.Body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// BuildCoachingPrompt assembles the full coaching instruction document. The
// registry supplies the persona overlay; nil falls back to the built-in
// catalog.
func BuildCoachingPrompt(reg *personas.Registry, cc *clientcontext.ClientContext, state session.State) string {
	return Render(CoachingSections(reg, cc, state))
}

// CoachingSections returns the ordered section list so tests can assert
// presence, absence, and ordering individually instead of substring-matching
// one opaque blob.
func CoachingSections(reg *personas.Registry, cc *clientcontext.ClientContext, state session.State) []Section {
	return []Section{
		{Name: "identity", Body: identityBlock},
		{Name: "client_context", Body: clientContextSection(cc)},
		{Name: "industry", Body: industrySection(cc)},
		{Name: "strategic_focus", Body: focusSection(cc)},
		{Name: "recovery_history", Body: recoverySection(cc)},
		{Name: "research_playbook", Body: researchPlaybook},
		{Name: "canvas_framework", Body: canvasFramework},
		{Name: "bet_format", Body: betFormat},
		{Name: "current_state", Body: currentStateSection(state)},
		{Name: "next_focus", Body: nextFocusSection(state)},
		{Name: "tone", Body: toneSection(reg, cc, state)},
		{Name: "response_format", Body: responseFormatGuidelines},
	}
}

const identityBlock = `# COMPASS STRATEGY COACH

You are a strategy coach guiding a leadership client through a fixed
four-phase methodology: Discovery, Research, Synthesis, and Planning. You are
a coach, not a consultant: you help the client do the work rather than doing
it for them. You never skip phases, and you keep the client focused on the
single most valuable next action.`

// clientContextSection formats what we know about the client. Fields that
// were never captured are omitted rather than rendered empty.
func clientContextSection(cc *clientcontext.ClientContext) string {
	var b strings.Builder
	b.WriteString("## Client context\n")
	if cc.CompanyName != "" {
		fmt.Fprintf(&b, "\nCompany: %s", cc.CompanyName)
	}
	if cc.CompanySize != "" {
		fmt.Fprintf(&b, "\nSize: %s", cc.CompanySize)
	}
	if cc.PainPoints != "" {
		fmt.Fprintf(&b, "\nStated pain points: %s", cc.PainPoints)
	}
	if cc.TargetOutcomes != "" {
		fmt.Fprintf(&b, "\nTarget outcomes: %s", cc.TargetOutcomes)
	}
	if len(cc.SuccessMetrics) > 0 {
		fmt.Fprintf(&b, "\nSuccess metrics: %s", strings.Join(cc.SuccessMetrics, "; "))
	}
	if cc.Profile != nil {
		if cc.Profile.Role != "" {
			fmt.Fprintf(&b, "\nClient role: %s", cc.Profile.Role)
		}
		if cc.Profile.Objectives != "" {
			fmt.Fprintf(&b, "\nClient objectives: %s", cc.Profile.Objectives)
		}
	}
	return b.String()
}

// industrySection is present only when an industry is known.
func industrySection(cc *clientcontext.ClientContext) string {
	if cc.Industry == "" {
		return ""
	}
	return fmt.Sprintf(`## Industry lens

The client operates in the %s industry. Ground your examples, market framing,
and research suggestions in that industry's realities rather than generic
business language.`, cc.Industry)
}

// focusSection is present only when a strategic focus is set.
func focusSection(cc *clientcontext.ClientContext) string {
	if cc.StrategicFocus == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Strategic focus: %s\n", cc.StrategicFocus)
	if cc.FocusDescription != "" {
		b.WriteString("\n")
		b.WriteString(cc.FocusDescription)
	}
	b.WriteString("\n\nKeep every recommendation anchored to this focus; flag it explicitly when the client drifts from it.")
	return b.String()
}

// recoverySection is present only when the client has described prior
// attempts, so past failures inform the coaching rather than being repeated.
func recoverySection(cc *clientcontext.ClientContext) string {
	if cc.PriorAttempts == "" {
		return ""
	}
	return fmt.Sprintf(`## Transformation history

The client has attempted strategic change before: %s

Treat this history with respect. Before recommending an approach, check it
against what already failed, and name what will be different this time.`, cc.PriorAttempts)
}

const researchPlaybook = `## Research playbook

Research runs across three pillars, always in this order of emphasis:
1. Macro market — forces, trends, and shifts reshaping the market.
2. Customer — first-hand evidence of what customers struggle with and value.
3. Colleague — what the people inside the organization know and believe.

A pillar counts as complete when the client can state its findings as
evidence, not opinion. Push for primary sources over secondhand summaries.`

const canvasFramework = `## Strategy canvas

The synthesis phase fills a five-section canvas, in order: market reality,
customer insights, organizational context, strategic synthesis, and team
context. Each section distills research into a few defensible statements.
The strategic synthesis section is where the three research pillars converge
into a point of view.`

const betFormat = `## Strategic bet format

Every strategic bet is captured in four parts:
- Belief: what we believe to be true.
- Implication: what that belief means for the business if true.
- Exploration: how we will test the belief cheaply.
- Success metric: the number that tells us the belief held.`

// currentStateSection embeds the progress summary verbatim.
func currentStateSection(state session.State) string {
	var b strings.Builder
	b.WriteString("## Current state\n\n")
	fmt.Fprintf(&b, "Phase: %s\n", state.CurrentPhase)
	b.WriteString(session.Summarize(state).Render())
	if n := len(state.StrategicBets); n > 0 {
		fmt.Fprintf(&b, "\nStrategic bets captured: %d", n)
	}
	return b.String()
}

// nextFocusSection embeds the advisor's recommendation verbatim.
func nextFocusSection(state session.State) string {
	return "## Suggested next focus\n\n" + session.SuggestNextFocus(state)
}

const baseToneGuidelines = `## Tone

Coach, don't lecture. Ask one question at a time. Keep replies short enough
to answer in a conversation, and end each reply with a clear next step.`

// toneSection layers the persona overlay and its phase guidance, when a
// persona is set, on top of the base tone guidelines. The overlay text comes
// from the given registry so file overrides reach the prompt; a nil registry
// reads the built-in catalog.
func toneSection(reg *personas.Registry, cc *clientcontext.ClientContext, state session.State) string {
	overlay := personas.Section(cc.Persona)
	guidance := personas.PhaseGuidance(cc.Persona, state.CurrentPhase)
	if reg != nil {
		overlay = reg.Section(cc.Persona)
		guidance = reg.PhaseGuidance(cc.Persona, state.CurrentPhase)
	}

	parts := []string{baseToneGuidelines}
	if overlay != "" {
		parts = append(parts, overlay)
	}
	if guidance != "" {
		parts = append(parts, "Phase emphasis: "+guidance)
	}
	return strings.Join(parts, "\n\n")
}

const responseFormatGuidelines = `## Response format

Use plain prose with occasional short lists. Bold at most one sentence per
reply: the question or action you most want the client to engage with. Never
emit headings in replies; this is a conversation, not a report.`
