package coach

import (
	"fmt"
	"math"
	"strings"

	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/session"
)

// GenerateOpeningMessage produces the deterministic first message of a turnless
// session view: either a welcome-back summary for a resumed session or a
// fresh-session greeting. No model call is involved.
//
// The resuming branch is only taken when the session actually has message
// history; a "resumed" session that never exchanged a message greets fresh.
// The fresh branch must never contain resumption language.
func GenerateOpeningMessage(cc *clientcontext.ClientContext, state session.State, userName string, isResuming bool) string {
	if isResuming && state.TotalMessages > 0 {
		return welcomeBackMessage(cc, state, userName)
	}
	return freshGreeting(cc, userName)
}

// welcomeBackMessage reports pillar completion as a plain fraction of the
// three completion booleans. This is deliberately not the weighted progress
// summary: a started-but-unfinished pillar counts for nothing here.
func welcomeBackMessage(cc *clientcontext.ClientContext, state session.State, userName string) string {
	completed := 0
	for _, k := range session.PillarKeys() {
		if state.ResearchPillars[k].Completed {
			completed++
		}
	}
	pct := int(math.Round(float64(completed) / 3.0 * 100.0))

	var b strings.Builder
	if userName != "" {
		fmt.Fprintf(&b, "Welcome back, %s.", userName)
	} else {
		b.WriteString("Welcome back.")
	}
	fmt.Fprintf(&b, " Your research pillars are %d%% complete.", pct)
	b.WriteString("\n\n")
	b.WriteString(session.SuggestNextFocus(state))
	return b.String()
}

// freshGreeting is a fixed-structure opener ending in exactly one bolded
// open question.
func freshGreeting(cc *clientcontext.ClientContext, userName string) string {
	var b strings.Builder
	if userName != "" {
		fmt.Fprintf(&b, "Hello %s, ", userName)
		b.WriteString("I'm your strategy coach.")
	} else {
		b.WriteString("Hello, I'm your strategy coach.")
	}
	if cc.CompanyName != "" {
		fmt.Fprintf(&b, " We'll build %s's strategy together", cc.CompanyName)
	} else {
		b.WriteString(" We'll build your strategy together")
	}
	b.WriteString(" across four phases: discovery, research, synthesis, and planning.")
	b.WriteString("\n\nWe start with discovery, where the goal is to name the real problem before chasing solutions.")
	b.WriteString("\n\n**What is the one strategic question that, if you answered it well this quarter, would change everything for your business?**")
	return b.String()
}
