// Package personas defines the closed set of coaching persona overlays and
// the keyword heuristic that recommends one from a personal profile.
package personas

import (
	"github.com/northbound-labs/compass/core/session"
)

// ID identifies a persona. The set is closed; lookups on unknown ids are
// tolerated and simply come back absent.
type ID string

const (
	// Strategist is the analytic, evidence-first overlay.
	Strategist ID = "strategist"
	// Facilitator is the consensus-building, collaborative overlay.
	Facilitator ID = "facilitator"
	// Challenger is the direct, assumption-testing overlay.
	Challenger ID = "challenger"
)

// IDs returns the closed persona set in its fixed order.
func IDs() []ID {
	return []ID{Strategist, Facilitator, Challenger}
}

// Definition holds the tone and guidance text blocks for a persona. The text
// itself is configuration, not behavior: nothing in the engine depends on
// the wording.
type Definition struct {
	ID            ID                       `yaml:"id"`
	DisplayName   string                   `yaml:"display_name"`
	Identity      string                   `yaml:"identity"`
	Tone          string                   `yaml:"tone"`
	PhaseGuidance map[session.Phase]string `yaml:"phase_guidance"`
}

// defaults is the built-in persona catalog, overridable via a YAML file
// (see Registry).
var defaults = map[ID]Definition{
	Strategist: {
		ID:          Strategist,
		DisplayName: "The Strategist",
		Identity:    "You coach like a seasoned strategy consultant: structured, evidence-first, and rigorous about distinguishing facts from hypotheses.",
		Tone:        "Precise and analytical. Ask for the data behind a claim. Summarize options in structured comparisons before recommending.",
		PhaseGuidance: map[session.Phase]string{
			session.PhaseDiscovery: "Push for measurable definitions of the problem before exploring solutions.",
			session.PhaseResearch:  "Insist on primary evidence per pillar and flag unsupported generalizations.",
			session.PhaseSynthesis: "Drive toward a small set of mutually exclusive strategic options with explicit trade-offs.",
			session.PhasePlanning:  "Convert each bet into a falsifiable test with a numeric success metric.",
		},
	},
	Facilitator: {
		ID:          Facilitator,
		DisplayName: "The Facilitator",
		Identity:    "You coach like an experienced workshop facilitator: you draw the answers out of the client and their organization rather than supplying them.",
		Tone:        "Warm and inclusive. Reflect the client's words back, invite dissenting views, and check alignment before moving on.",
		PhaseGuidance: map[session.Phase]string{
			session.PhaseDiscovery: "Surface who else needs to be heard before the problem statement is settled.",
			session.PhaseResearch:  "Encourage conversations over desk research, especially for the colleague pillar.",
			session.PhaseSynthesis: "Help the client build shared ownership of the synthesis across their team.",
			session.PhasePlanning:  "Make sure every bet has a named owner who actually agreed to own it.",
		},
	},
	Challenger: {
		ID:          Challenger,
		DisplayName: "The Challenger",
		Identity:    "You coach like a sparring partner: direct, fast, and relentless about stress-testing comfortable assumptions.",
		Tone:        "Candid and brisk. Name the elephant in the room. Prefer one sharp question over three gentle ones.",
		PhaseGuidance: map[session.Phase]string{
			session.PhaseDiscovery: "Challenge whether the stated problem is the real problem.",
			session.PhaseResearch:  "Ask what evidence would change the client's mind, and go find it.",
			session.PhaseSynthesis: "Attack the synthesis: what would a competitor say is wrong with it?",
			session.PhasePlanning:  "Force a kill criterion onto every bet before it ships.",
		},
	},
}

// Resolve looks up a persona definition. Absent is not an error; unknown ids
// return ok == false.
func Resolve(id ID) (Definition, bool) {
	return defaultRegistry.Resolve(id)
}

// Section renders the persona's prompt overlay block, or "" for unknown ids.
func Section(id ID) string {
	return defaultRegistry.Section(id)
}

// PhaseGuidance returns the persona's guidance for a phase, or "" when either
// the persona or the phase entry is absent.
func PhaseGuidance(id ID, phase session.Phase) string {
	return defaultRegistry.PhaseGuidance(id, phase)
}
