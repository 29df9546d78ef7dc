// Package session holds the canonical per-session progress model for the
// coaching methodology, plus the pure functions that evolve and summarize it.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// StateVersion is the current schema tag written into persisted state blobs.
const StateVersion = 1

// Phase is one of the four ordered coaching stages.
type Phase string

const (
	PhaseDiscovery Phase = "discovery"
	PhaseResearch  Phase = "research"
	PhaseSynthesis Phase = "synthesis"
	PhasePlanning  Phase = "planning"
)

// Phases returns the four phases in methodology order.
func Phases() []Phase {
	return []Phase{PhaseDiscovery, PhaseResearch, PhaseSynthesis, PhasePlanning}
}

// IsValid reports whether p is a recognized phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDiscovery, PhaseResearch, PhaseSynthesis, PhasePlanning:
		return true
	}
	return false
}

// rank gives phases their methodology ordering for the highest-reached rule.
func (p Phase) rank() int {
	switch p {
	case PhaseDiscovery:
		return 0
	case PhaseResearch:
		return 1
	case PhaseSynthesis:
		return 2
	case PhasePlanning:
		return 3
	}
	return -1
}

// After reports whether p comes later in the methodology than other.
func (p Phase) After(other Phase) bool {
	return p.rank() > other.rank()
}

// PillarKey identifies one of the three fixed research pillars.
type PillarKey string

const (
	PillarMacroMarket PillarKey = "macro_market"
	PillarCustomer    PillarKey = "customer"
	PillarColleague   PillarKey = "colleague"
)

// PillarKeys returns the pillar keys in their fixed advisory order.
func PillarKeys() []PillarKey {
	return []PillarKey{PillarMacroMarket, PillarCustomer, PillarColleague}
}

// IsValid reports whether k is a recognized pillar key.
func (k PillarKey) IsValid() bool {
	switch k {
	case PillarMacroMarket, PillarCustomer, PillarColleague:
		return true
	}
	return false
}

// CanvasSection identifies one of the five fixed canvas completion flags.
type CanvasSection string

const (
	CanvasMarketReality         CanvasSection = "market_reality"
	CanvasCustomerInsights      CanvasSection = "customer_insights"
	CanvasOrganizationalContext CanvasSection = "organizational_context"
	CanvasStrategicSynthesis    CanvasSection = "strategic_synthesis"
	CanvasTeamContext           CanvasSection = "team_context"
)

// CanvasSections returns the five sections in their fixed walk order.
func CanvasSections() []CanvasSection {
	return []CanvasSection{
		CanvasMarketReality,
		CanvasCustomerInsights,
		CanvasOrganizationalContext,
		CanvasStrategicSynthesis,
		CanvasTeamContext,
	}
}

// IsValid reports whether c is a recognized canvas section.
func (c CanvasSection) IsValid() bool {
	for _, s := range CanvasSections() {
		if c == s {
			return true
		}
	}
	return false
}

// PillarProgress tracks one research pillar.
//
// Completed does not imply Started: the transition engine performs no
// cross-field validation, so a pillar can be completed without ever being
// marked started. Callers that care must check both flags.
type PillarProgress struct {
	Started        bool       `json:"started"`
	Completed      bool       `json:"completed"`
	Insights       []string   `json:"insights"`
	LastExploredAt *time.Time `json:"last_explored_at,omitempty"`
}

// StrategicBet is a captured belief->implication->exploration->metric record.
type StrategicBet struct {
	ID            string    `json:"id"`
	Belief        string    `json:"belief"`
	Implication   string    `json:"implication"`
	Exploration   string    `json:"exploration"`
	SuccessMetric string    `json:"success_metric"`
	CreatedAt     time.Time `json:"created_at"`
	PillarSource  PillarKey `json:"pillar_source,omitempty"`
}

// State is the durable per-session progress record. It is persisted as an
// opaque JSON blob keyed by session id; the store layer never inspects it.
type State struct {
	Version         int                          `json:"version"`
	CurrentPhase    Phase                        `json:"current_phase"`
	ResearchPillars map[PillarKey]PillarProgress `json:"research_pillars"`
	CanvasProgress  map[CanvasSection]bool       `json:"canvas_progress"`
	StrategicBets   []StrategicBet               `json:"strategic_bets"`
	KeyInsights     []string                     `json:"key_insights"`
	SessionCount    int                          `json:"session_count"`
	TotalMessages   int                          `json:"total_message_count"`
	LastActivityAt  time.Time                    `json:"last_activity_at"`
}

// NewState returns a fresh session state: discovery phase, all pillars and
// canvas sections untouched, counters zeroed.
func NewState() State {
	pillars := make(map[PillarKey]PillarProgress, 3)
	for _, k := range PillarKeys() {
		pillars[k] = PillarProgress{Insights: []string{}}
	}
	canvas := make(map[CanvasSection]bool, 5)
	for _, s := range CanvasSections() {
		canvas[s] = false
	}
	return State{
		Version:         StateVersion,
		CurrentPhase:    PhaseDiscovery,
		ResearchPillars: pillars,
		CanvasProgress:  canvas,
		StrategicBets:   []StrategicBet{},
		KeyInsights:     []string{},
		LastActivityAt:  time.Now(),
	}
}

// EncodeState serializes a state for storage.
func EncodeState(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return data, nil
}

// DecodeState deserializes and validates a persisted state blob. Unlike the
// store layer, which treats the blob as opaque, decode is strict: an unknown
// schema version, phase, pillar key, or canvas section is an error rather
// than something to silently carry forward.
func DecodeState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode session state: %w", err)
	}
	if s.Version != StateVersion {
		return State{}, fmt.Errorf("decode session state: unsupported version %d", s.Version)
	}
	if !s.CurrentPhase.IsValid() {
		return State{}, fmt.Errorf("decode session state: unknown phase %q", s.CurrentPhase)
	}
	for k := range s.ResearchPillars {
		if !k.IsValid() {
			return State{}, fmt.Errorf("decode session state: unknown pillar %q", k)
		}
	}
	for c := range s.CanvasProgress {
		if !c.IsValid() {
			return State{}, fmt.Errorf("decode session state: unknown canvas section %q", c)
		}
	}
	// Older writers may omit maps entirely; normalize so callers can index
	// without nil checks.
	if s.ResearchPillars == nil {
		s.ResearchPillars = make(map[PillarKey]PillarProgress, 3)
	}
	for _, k := range PillarKeys() {
		if _, ok := s.ResearchPillars[k]; !ok {
			s.ResearchPillars[k] = PillarProgress{Insights: []string{}}
		}
	}
	if s.CanvasProgress == nil {
		s.CanvasProgress = make(map[CanvasSection]bool, 5)
	}
	for _, c := range CanvasSections() {
		if _, ok := s.CanvasProgress[c]; !ok {
			s.CanvasProgress[c] = false
		}
	}
	return s, nil
}

// Clone returns a deep copy of the state. The transition engine relies on
// this to guarantee it never aliases its input.
func (s State) Clone() State {
	out := s
	out.ResearchPillars = make(map[PillarKey]PillarProgress, len(s.ResearchPillars))
	for k, p := range s.ResearchPillars {
		cp := p
		cp.Insights = append([]string(nil), p.Insights...)
		if p.LastExploredAt != nil {
			t := *p.LastExploredAt
			cp.LastExploredAt = &t
		}
		out.ResearchPillars[k] = cp
	}
	out.CanvasProgress = make(map[CanvasSection]bool, len(s.CanvasProgress))
	for k, v := range s.CanvasProgress {
		out.CanvasProgress[k] = v
	}
	out.StrategicBets = append([]StrategicBet(nil), s.StrategicBets...)
	out.KeyInsights = append([]string(nil), s.KeyInsights...)
	return out
}
