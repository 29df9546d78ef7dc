// Package clientcontext aggregates organization, user, and session context
// from the persistent store into the shapes the prompt composers consume.
package clientcontext

import "github.com/northbound-labs/compass/core/personas"

// StrategicFocus is the closed enum of strategic focus areas an organization
// can declare.
type StrategicFocus string

const (
	FocusGrowth      StrategicFocus = "growth"
	FocusTurnaround  StrategicFocus = "turnaround"
	FocusInnovation  StrategicFocus = "innovation"
	FocusEfficiency  StrategicFocus = "efficiency"
	FocusMarketEntry StrategicFocus = "market_entry"
)

// focusDescriptions maps each focus to its human-readable description. The
// aggregator attaches the matching entry; unknown or empty focus values get
// no description rather than an error.
var focusDescriptions = map[StrategicFocus]string{
	FocusGrowth:      "Scaling what already works: expanding revenue, customers, or market share from a proven base.",
	FocusTurnaround:  "Reversing decline: stabilizing the business and rebuilding a credible path forward.",
	FocusInnovation:  "Creating new value: new products, services, or business models beyond the current core.",
	FocusEfficiency:  "Doing more with less: improving margins, throughput, or cost structure without losing capability.",
	FocusMarketEntry: "Entering new territory: new segments, geographies, or channels where the company has no position yet.",
}

// Describe returns the human-readable description for a focus, or "".
func (f StrategicFocus) Describe() string {
	return focusDescriptions[f]
}

// PersonalProfile is the embedded profile captured by a completed profiling
// session. Field names mirror the completion marker schema.
type PersonalProfile struct {
	Role             string            `json:"role"`
	Objectives       string            `json:"objectives"`
	LeadershipStyle  string            `json:"leadershipStyle"`
	Experience       string            `json:"experience"`
	WorkingStyle     string            `json:"workingStyle"`
	CoachingApproach *CoachingApproach `json:"coachingApproach,omitempty"`
}

// CoachingApproach is the persona recommendation embedded in a profile.
type CoachingApproach struct {
	RecommendedPersona personas.ID `json:"recommendedPersona"`
	Reasoning          string      `json:"reasoning"`
}

// Signals maps the profile onto the recommender's input shape. The interview
// captures decision-making and communication as part of the leadership-style
// dimension ("how decisions get made and communicated"), so that text feeds
// the recommender's headline rule; day-to-day interaction style lives in
// workingStyle.
func (p PersonalProfile) Signals() personas.ProfileSignals {
	return personas.ProfileSignals{
		DecisionMaking:  p.LeadershipStyle,
		Communication:   p.WorkingStyle,
		LeadershipStyle: p.LeadershipStyle,
		WorkingStyle:    p.WorkingStyle,
	}
}

// ClientContext is the merged per-session view of who the client is. It is
// derived fresh per request and never persisted by this layer.
type ClientContext struct {
	OrgID            string
	CompanyName      string
	Industry         string
	CompanySize      string
	StrategicFocus   StrategicFocus
	FocusDescription string
	PainPoints       string
	PriorAttempts    string
	TargetOutcomes   string
	SuccessMetrics   []string
	Persona          personas.ID
	Profile          *PersonalProfile
}

// Territory is one of the three fixed research territories.
type Territory string

const (
	TerritoryCompany    Territory = "company"
	TerritoryCustomer   Territory = "customer"
	TerritoryCompetitor Territory = "competitor"
)

// Territories returns the three territories in their fixed order.
func Territories() []Territory {
	return []Territory{TerritoryCompany, TerritoryCustomer, TerritoryCompetitor}
}

// QA is one ordered question/answer pair inside a territory group.
type QA struct {
	Question string
	Answer   string
}

// TerritoryGroup holds a territory's mapped insights in capture order.
type TerritoryGroup struct {
	Territory Territory
	Area      string
	Pairs     []QA
}

// Opportunity is one synthesis opportunity with its flattened score.
type Opportunity struct {
	Name         string  `json:"name"`
	Summary      string  `json:"summary"`
	OverallScore float64 `json:"overall_score"`
}

// SynthesisOutput is the flattened view of the newest synthesis record.
type SynthesisOutput struct {
	RecordID      string
	Opportunities []Opportunity
}
