package clientcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/northbound-labs/compass/core/personas"
	"github.com/northbound-labs/compass/core/store"
)

// Store is the slice of the persistence layer the aggregator reads. All
// lookups are read-only and commute, so callers may issue them concurrently.
type Store interface {
	GetOrgProfile(ctx context.Context, orgID string) (*store.OrgProfile, error)
	GetIntakeRecord(ctx context.Context, orgID string) (*store.IntakeRecord, error)
	ListMappedInsights(ctx context.Context, sessionID string) ([]store.TerritoryInsightRow, error)
	LatestSynthesisRecord(ctx context.Context, sessionID string) (*store.SynthesisRecord, error)
	LatestCompletedProfilingSession(ctx context.Context, userID, orgID string) (*store.SessionRow, error)
}

const orgCacheSize = 128

// Aggregator loads and merges context records. Org profiles sit behind a
// small LRU since the same org is read on every turn of a session.
type Aggregator struct {
	store    Store
	orgCache *lru.Cache[string, *store.OrgProfile]
	logger   *slog.Logger
}

// NewAggregator creates an aggregator over the given store slice.
func NewAggregator(s Store, logger *slog.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, *store.OrgProfile](orgCacheSize)
	if err != nil {
		return nil, fmt.Errorf("new aggregator: %w", err)
	}
	return &Aggregator{store: s, orgCache: cache, logger: logger}, nil
}

// InvalidateOrg drops a cached org profile after an out-of-band update.
func (a *Aggregator) InvalidateOrg(orgID string) {
	a.orgCache.Remove(orgID)
}

func (a *Aggregator) orgProfile(ctx context.Context, orgID string) (*store.OrgProfile, error) {
	if p, ok := a.orgCache.Get(orgID); ok {
		return p, nil
	}
	p, err := a.store.GetOrgProfile(ctx, orgID)
	if err != nil {
		return nil, err
	}
	a.orgCache.Add(orgID, p)
	return p, nil
}

// pick implements the fixed field precedence: organization record wins, then
// the intake record, else empty.
func pick(org, intake string) string {
	if org != "" {
		return org
	}
	return intake
}

// LoadClientContext merges the organization profile and the onboarding intake
// record field by field, attaches the focus description, and (when a userID
// is given) the most recent completed personal profile.
//
// A missing organization profile is a hard failure: nothing downstream can
// compose a coaching prompt without it. A missing intake record or profile
// is an ordinary absent value.
func (a *Aggregator) LoadClientContext(ctx context.Context, orgID, userID string) (*ClientContext, error) {
	org, err := a.orgProfile(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load client context: %w", err)
	}

	intake, err := a.store.GetIntakeRecord(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load client context: %w", err)
	}
	if intake == nil {
		intake = &store.IntakeRecord{}
	}

	focus := StrategicFocus(pick(org.StrategicFocus, intake.StrategicFocus))

	metrics := org.SuccessMetrics
	if len(metrics) == 0 {
		metrics = intake.SuccessMetrics
	}

	cc := &ClientContext{
		OrgID:            orgID,
		CompanyName:      pick(org.CompanyName, intake.CompanyName),
		Industry:         pick(org.Industry, intake.Industry),
		CompanySize:      pick(org.CompanySize, intake.CompanySize),
		StrategicFocus:   focus,
		FocusDescription: focus.Describe(),
		PainPoints:       pick(org.PainPoints, intake.PainPoints),
		PriorAttempts:    pick(org.PriorAttempts, intake.PriorAttempts),
		TargetOutcomes:   pick(org.TargetOutcomes, intake.TargetOutcomes),
		SuccessMetrics:   metrics,
		Persona:          personas.ID(org.Persona),
	}

	if userID != "" {
		profile, err := a.LoadPersonalProfile(ctx, userID, orgID)
		if err != nil {
			return nil, fmt.Errorf("load client context: %w", err)
		}
		cc.Profile = profile
	}

	return cc, nil
}

// LoadTerritoryInsights groups the session's mapped insights by territory,
// preserving capture order within each group. Territories with no mapped
// rows are omitted.
func (a *Aggregator) LoadTerritoryInsights(ctx context.Context, sessionID string) ([]TerritoryGroup, error) {
	rows, err := a.store.ListMappedInsights(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load territory insights: %w", err)
	}

	byTerritory := make(map[Territory]*TerritoryGroup, 3)
	for _, row := range rows {
		terr := Territory(row.Territory)
		g, ok := byTerritory[terr]
		if !ok {
			g = &TerritoryGroup{Territory: terr, Area: row.Area}
			byTerritory[terr] = g
		}
		g.Pairs = append(g.Pairs, QA{Question: row.Question, Answer: row.Answer})
	}

	// Fixed territory order, not map order.
	var out []TerritoryGroup
	for _, terr := range Territories() {
		if g, ok := byTerritory[terr]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

// synthesisPayload is the stored shape of a synthesis record's payload.
type synthesisPayload struct {
	Opportunities []struct {
		Name    string `json:"name"`
		Summary string `json:"summary"`
		Scoring struct {
			Overall    float64            `json:"overall"`
			Dimensions map[string]float64 `json:"dimensions"`
		} `json:"scoring"`
	} `json:"opportunities"`
}

// LoadSynthesisOutput returns the newest synthesis record for the session,
// reshaped so each opportunity carries a flat overall score. Returns
// (nil, nil) when the session has no synthesis yet.
func (a *Aggregator) LoadSynthesisOutput(ctx context.Context, sessionID string) (*SynthesisOutput, error) {
	rec, err := a.store.LatestSynthesisRecord(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load synthesis output: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	var payload synthesisPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("load synthesis output: decode payload: %w", err)
	}

	out := &SynthesisOutput{RecordID: rec.ID}
	for _, opp := range payload.Opportunities {
		score := opp.Scoring.Overall
		if score == 0 && len(opp.Scoring.Dimensions) > 0 {
			// Older payloads carry only per-dimension scores.
			var sum float64
			for _, v := range opp.Scoring.Dimensions {
				sum += v
			}
			score = sum / float64(len(opp.Scoring.Dimensions))
		}
		out.Opportunities = append(out.Opportunities, Opportunity{
			Name:         opp.Name,
			Summary:      opp.Summary,
			OverallScore: score,
		})
	}
	return out, nil
}

// LoadPersonalProfile returns the profile embedded in the user's most recent
// completed profiling session, or (nil, nil) when no such session exists.
func (a *Aggregator) LoadPersonalProfile(ctx context.Context, userID, orgID string) (*PersonalProfile, error) {
	row, err := a.store.LatestCompletedProfilingSession(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("load personal profile: %w", err)
	}
	if row == nil || len(row.Profile) == 0 {
		return nil, nil
	}

	var profile PersonalProfile
	if err := json.Unmarshal(row.Profile, &profile); err != nil {
		return nil, fmt.Errorf("load personal profile: decode: %w", err)
	}
	return &profile, nil
}
