// Package intake composes the instruction document for the initial profiling
// conversation, where the agent learns who the client is before any coaching
// begins.
package intake

import (
	"fmt"
	"strings"

	"github.com/northbound-labs/compass/core/clientcontext"
)

// ProfilingStatus tracks where the profiling conversation is.
type ProfilingStatus string

const (
	StatusInProgress      ProfilingStatus = "in_progress"
	StatusAwaitingSummary ProfilingStatus = "awaiting_summary"
)

// Dimension is one of the five fixed profiling topics.
type Dimension string

const (
	DimensionRole            Dimension = "role"
	DimensionObjectives      Dimension = "objectives"
	DimensionLeadershipStyle Dimension = "leadership_style"
	DimensionExperience      Dimension = "experience"
	DimensionWorkingStyle    Dimension = "working_style"
)

// Dimensions returns the five profiling dimensions in the order the
// conversation walks them.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionRole,
		DimensionObjectives,
		DimensionLeadershipStyle,
		DimensionExperience,
		DimensionWorkingStyle,
	}
}

var dimensionPrompts = map[Dimension]string{
	DimensionRole:            "Their role and scope of responsibility in the organization.",
	DimensionObjectives:      "What they personally want out of this strategy work.",
	DimensionLeadershipStyle: "How they lead: how decisions get made and communicated.",
	DimensionExperience:      "Their track record with strategic change, including what failed.",
	DimensionWorkingStyle:    "How they prefer to work through problems day to day.",
}

// ProfilingState is the conversation-level state the caller threads through
// each turn. DimensionIndex points at the dimension currently being explored;
// Completed marks the dimensions already covered. It serializes as the state
// blob of a profiling session row.
type ProfilingState struct {
	Status         ProfilingStatus    `json:"status"`
	DimensionIndex int                `json:"dimension_index"`
	Completed      map[Dimension]bool `json:"completed"`
}

// NewProfilingState starts a profiling conversation at the first dimension.
func NewProfilingState() ProfilingState {
	return ProfilingState{
		Status:    StatusInProgress,
		Completed: make(map[Dimension]bool),
	}
}

// CompletedCount reports how many dimensions are marked complete.
func (p ProfilingState) CompletedCount() int {
	n := 0
	for _, d := range Dimensions() {
		if p.Completed[d] {
			n++
		}
	}
	return n
}

// MarkerSchema documents the completion marker a terminal profiling reply must
// end with. A downstream parser locates this fenced block by position; the
// shape here is the contract, and this package neither validates nor repairs
// what the model actually emits.
const MarkerSchema = "```json\n" + `{
  "role": "<their role and scope>",
  "objectives": "<what they want from this work>",
  "leadershipStyle": "<how they lead and decide>",
  "experience": "<their history with strategic change>",
  "workingStyle": "<how they work through problems>",
  "coachingApproach": {
    "recommendedPersona": "<strategist | facilitator | challenger>",
    "reasoning": "<one sentence on why>"
  }
}
` + "```"

// BuildIntakePrompt assembles the profiling instruction document: guardrails,
// a summary of what is already known about the organization, the dimension
// checklist with pacing, and exactly one of three completion instructions.
func BuildIntakePrompt(cc *clientcontext.ClientContext, state ProfilingState, userName string) string {
	sections := []string{
		guardrails(userName),
		knownOrgSummary(cc),
		dimensionChecklist(state),
		completionBlock(state),
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func guardrails(userName string) string {
	var b strings.Builder
	b.WriteString(`# COMPASS PROFILING INTERVIEW

You are conducting a short structured interview to understand a new client
before coaching starts. Stay neutral in tone; no coaching persona applies yet.
Ask one question at a time, listen more than you talk, and never present
yourself as anything other than an interviewer getting to know them.`)
	if userName != "" {
		fmt.Fprintf(&b, "\n\nThe client's name is %s; address them by name.", userName)
	}
	return b.String()
}

// knownOrgSummary lists only fields already captured, so the interview never
// re-asks them.
func knownOrgSummary(cc *clientcontext.ClientContext) string {
	if cc == nil {
		return ""
	}
	var facts []string
	if cc.CompanyName != "" {
		facts = append(facts, fmt.Sprintf("Company: %s", cc.CompanyName))
	}
	if cc.Industry != "" {
		facts = append(facts, fmt.Sprintf("Industry: %s", cc.Industry))
	}
	if cc.CompanySize != "" {
		facts = append(facts, fmt.Sprintf("Company size: %s", cc.CompanySize))
	}
	if cc.StrategicFocus != "" {
		facts = append(facts, fmt.Sprintf("Declared strategic focus: %s", cc.StrategicFocus))
	}
	if cc.PainPoints != "" {
		facts = append(facts, fmt.Sprintf("Stated pain points: %s", cc.PainPoints))
	}
	if len(facts) == 0 {
		return ""
	}
	return "## Already known\n\nThe following is already on file. Do not ask about any of it again;\nreference it naturally instead.\n\n" +
		"- " + strings.Join(facts, "\n- ")
}

// dimensionChecklist renders the five topics with the current position and
// the pacing rule.
func dimensionChecklist(state ProfilingState) string {
	var b strings.Builder
	b.WriteString("## Interview dimensions\n\nCover these five topics in order:\n")
	for i, d := range Dimensions() {
		mark := " "
		switch {
		case state.Completed[d]:
			mark = "x"
		case i == state.DimensionIndex:
			mark = ">"
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, mark, dimensionPrompts[d])
	}
	b.WriteString("\n\nSpend at most two exchanges on any one topic before moving to the next.")
	b.WriteString("\nA topic marked [x] is done; [>] is where you are now.")
	return b.String()
}

// completionBlock emits exactly one of three variants, checked in priority
// order: the mandatory final-turn instruction, the wrap-up instruction, or
// the default description of the eventual marker requirement.
func completionBlock(state ProfilingState) string {
	switch {
	case state.Status == StatusAwaitingSummary:
		return finalTurnInstruction
	case state.DimensionIndex >= len(Dimensions()) && state.CompletedCount() >= 4:
		return wrapUpInstruction
	default:
		return defaultCompletionInstruction
	}
}

var finalTurnInstruction = `## THIS IS YOUR FINAL TURN

The interview is over. Thank the client briefly, then end your reply with the
completion marker below, filled in from everything you learned. The fenced
block must be the literal last content of your reply, with nothing after it.

` + MarkerSchema

var wrapUpInstruction = `## Wrap up now

You have covered enough ground. Do not open a new topic. Ask one final
confirming question if something important is still ambiguous; otherwise
summarize what you heard and end your reply with the completion marker below
as the literal last content.

` + MarkerSchema

var defaultCompletionInstruction = `## When the interview ends

Once all five topics are covered, your final reply must end with this
completion marker, filled in from the conversation, as the literal last
content of that reply:

` + MarkerSchema
