package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := NewState()

	assert.Equal(t, StateVersion, s.Version)
	assert.Equal(t, PhaseDiscovery, s.CurrentPhase)
	assert.Len(t, s.ResearchPillars, 3)
	assert.Len(t, s.CanvasProgress, 5)
	assert.Empty(t, s.StrategicBets)
	assert.Empty(t, s.KeyInsights)
	assert.Zero(t, s.TotalMessages)

	for _, k := range PillarKeys() {
		p := s.ResearchPillars[k]
		assert.False(t, p.Started)
		assert.False(t, p.Completed)
		assert.Empty(t, p.Insights)
	}
	for _, c := range CanvasSections() {
		assert.False(t, s.CanvasProgress[c])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := NewState()
	s.CurrentPhase = PhaseResearch
	s.ResearchPillars[PillarCustomer] = PillarProgress{
		Started:  true,
		Insights: []string{"buyers churn after onboarding"},
	}
	s.CanvasProgress[CanvasMarketReality] = true
	s.KeyInsights = append(s.KeyInsights, "pricing is not the problem")

	data, err := EncodeState(s)
	require.NoError(t, err)

	decoded, err := DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, PhaseResearch, decoded.CurrentPhase)
	assert.True(t, decoded.ResearchPillars[PillarCustomer].Started)
	assert.True(t, decoded.CanvasProgress[CanvasMarketReality])
	assert.Equal(t, s.KeyInsights, decoded.KeyInsights)
}

func TestDecodeStateRejectsUnknownVersion(t *testing.T) {
	s := NewState()
	s.Version = 99
	data, err := json.Marshal(s)
	require.NoError(t, err)

	_, err = DecodeState(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestDecodeStateRejectsUnknownPhase(t *testing.T) {
	s := NewState()
	s.CurrentPhase = Phase("retrospective")
	data, err := json.Marshal(s)
	require.NoError(t, err)

	_, err = DecodeState(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown phase")
}

func TestDecodeStateRejectsUnknownPillar(t *testing.T) {
	data := []byte(`{"version":1,"current_phase":"discovery","research_pillars":{"regulator":{}}}`)

	_, err := DecodeState(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pillar")
}

func TestDecodeStateNormalizesMissingMaps(t *testing.T) {
	data := []byte(`{"version":1,"current_phase":"discovery"}`)

	s, err := DecodeState(data)
	require.NoError(t, err)
	assert.Len(t, s.ResearchPillars, 3)
	assert.Len(t, s.CanvasProgress, 5)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewState()
	s.ResearchPillars[PillarMacroMarket] = PillarProgress{
		Started:  true,
		Insights: []string{"original"},
	}
	now := time.Now()
	p := s.ResearchPillars[PillarMacroMarket]
	p.LastExploredAt = &now
	s.ResearchPillars[PillarMacroMarket] = p

	c := s.Clone()
	cp := c.ResearchPillars[PillarMacroMarket]
	cp.Insights[0] = "mutated"
	*cp.LastExploredAt = now.Add(time.Hour)
	c.CanvasProgress[CanvasTeamContext] = true

	assert.Equal(t, "original", s.ResearchPillars[PillarMacroMarket].Insights[0])
	assert.Equal(t, now.Unix(), s.ResearchPillars[PillarMacroMarket].LastExploredAt.Unix())
	assert.False(t, s.CanvasProgress[CanvasTeamContext])
}

func TestPhaseAfter(t *testing.T) {
	assert.True(t, PhasePlanning.After(PhaseDiscovery))
	assert.True(t, PhaseSynthesis.After(PhaseResearch))
	assert.False(t, PhaseDiscovery.After(PhaseDiscovery))
	assert.False(t, PhaseResearch.After(PhaseSynthesis))
}
