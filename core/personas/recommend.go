package personas

import "strings"

// ProfileSignals carries the free-text profile fields the recommender
// inspects. Callers map their profile records onto this shape.
type ProfileSignals struct {
	DecisionMaking  string
	Communication   string
	LeadershipStyle string
	WorkingStyle    string
}

// Recommendation pairs a persona with the reasoning behind it.
type Recommendation struct {
	Persona   ID     `json:"persona"`
	Reasoning string `json:"reasoning"`
}

// Keyword sets for the recommendation rules. Matching is case-insensitive
// substring matching, and rule order is part of the contract: the first
// matching rule wins, so a profile that reads both "data-driven" and
// "collaborative" lands on the Strategist.
var (
	analyticKeywords      = []string{"data", "analytic", "detail-oriented", "detailed-oriented", "evidence", "metrics"}
	collaborativeKeywords = []string{"consensus", "collaborative", "supportive", "inclusive", "team-oriented"}
	directiveKeywords     = []string{"directive", "intuitive", "direct", "decisive", "gut"}
)

func matchesAny(texts []string, keywords []string) bool {
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// Recommend picks a persona from a profile via ordered keyword rules. Every
// call returns a persona: the default rule catches profiles with no signal.
func Recommend(p ProfileSignals) Recommendation {
	signalFields := []string{p.DecisionMaking, p.Communication}
	styleFields := []string{p.DecisionMaking, p.Communication, p.LeadershipStyle, p.WorkingStyle}

	// Rule (a): analytic signals in decision-making or communication.
	if matchesAny(signalFields, analyticKeywords) {
		return Recommendation{
			Persona:   Strategist,
			Reasoning: "Your profile emphasizes data and analysis, so the Strategist's evidence-first coaching style will match how you already make decisions.",
		}
	}

	// Rule (b): consensus and collaboration signals anywhere in the profile.
	if matchesAny(styleFields, collaborativeKeywords) {
		return Recommendation{
			Persona:   Facilitator,
			Reasoning: "Your profile leans on consensus and collaboration, so the Facilitator's inclusive coaching style will fit how you bring your organization along.",
		}
	}

	// Rule (c): directive or intuitive signals.
	if matchesAny(styleFields, directiveKeywords) {
		return Recommendation{
			Persona:   Challenger,
			Reasoning: "Your profile reads as direct and decisive, so the Challenger's candid sparring style will keep pace with you.",
		}
	}

	// Rule (d): default.
	return Recommendation{
		Persona:   Strategist,
		Reasoning: "The Strategist is a balanced starting point; we can switch personas once we learn more about how you like to work.",
	}
}
