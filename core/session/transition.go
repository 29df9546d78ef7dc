package session

import (
	"time"

	"github.com/google/uuid"
)

// BetInput is the caller-supplied portion of a strategic bet. The engine
// assigns the id and creation timestamp.
type BetInput struct {
	Belief        string
	Implication   string
	Exploration   string
	SuccessMetric string
	PillarSource  PillarKey
}

// Update describes one turn's worth of incremental state changes. Any subset
// of fields may be set; zero-valued fields are ignored.
type Update struct {
	// SetPhase moves the session to the named phase when non-empty.
	SetPhase Phase

	// StartPillars marks the named pillars started.
	StartPillars []PillarKey

	// CompletePillars marks the named pillars completed. Completing a pillar
	// does not force-start it; see PillarProgress.
	CompletePillars []PillarKey

	// PillarInsights appends insights to the named pillars.
	PillarInsights map[PillarKey][]string

	// CompleteCanvas sets the named canvas flags true.
	CompleteCanvas []CanvasSection

	// AddBets appends strategic bets.
	AddBets []BetInput

	// AddKeyInsights appends session-level key insights.
	AddKeyInsights []string

	// MessageDelta increments the total message count.
	MessageDelta int
}

// clock is swapped in tests to pin timestamps.
var clock = time.Now

// ApplyUpdate returns a new state with the update applied. The input is never
// mutated: the engine deep-copies before touching anything, so callers may
// hold the old snapshot across the call.
//
// No cross-field validation happens here. In particular, completing a pillar
// that was never started leaves started == false, and setting a phase does
// not check adjacency. Two callers racing on the same session will each apply
// against their own snapshot and the last write wins; serialization is the
// store layer's problem (see store revision tokens).
func ApplyUpdate(state State, u Update) State {
	now := clock()
	out := state.Clone()

	if u.SetPhase != "" {
		out.CurrentPhase = u.SetPhase
	}

	for _, k := range u.StartPillars {
		p := out.ResearchPillars[k]
		p.Started = true
		t := now
		p.LastExploredAt = &t
		out.ResearchPillars[k] = p
	}

	for _, k := range u.CompletePillars {
		p := out.ResearchPillars[k]
		p.Completed = true
		t := now
		p.LastExploredAt = &t
		out.ResearchPillars[k] = p
	}

	for k, insights := range u.PillarInsights {
		p := out.ResearchPillars[k]
		p.Insights = append(p.Insights, insights...)
		t := now
		p.LastExploredAt = &t
		out.ResearchPillars[k] = p
	}

	for _, c := range u.CompleteCanvas {
		out.CanvasProgress[c] = true
	}

	for _, b := range u.AddBets {
		out.StrategicBets = append(out.StrategicBets, StrategicBet{
			ID:            uuid.New().String(),
			Belief:        b.Belief,
			Implication:   b.Implication,
			Exploration:   b.Exploration,
			SuccessMetric: b.SuccessMetric,
			CreatedAt:     now,
			PillarSource:  b.PillarSource,
		})
	}

	out.KeyInsights = append(out.KeyInsights, u.AddKeyInsights...)
	out.TotalMessages += u.MessageDelta

	// Unconditional, even for an empty update.
	out.LastActivityAt = now

	return out
}
