package intake

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/northbound-labs/compass/core/clientcontext"
	"github.com/northbound-labs/compass/core/personas"
)

const (
	markerOpen  = "```json"
	markerClose = "```"
)

// ExtractProfile locates the completion marker in a terminal profiling reply
// and decodes it into a profile. The last fenced json block in the reply is
// taken as the marker. When the model left the coaching approach out, the
// keyword recommender fills it from the captured signals, so a completed
// profile always carries a persona recommendation.
func ExtractProfile(reply string) (*clientcontext.PersonalProfile, error) {
	start := strings.LastIndex(reply, markerOpen)
	if start == -1 {
		return nil, fmt.Errorf("extract profile: no completion marker in reply")
	}
	body := reply[start+len(markerOpen):]
	end := strings.Index(body, markerClose)
	if end == -1 {
		return nil, fmt.Errorf("extract profile: unterminated completion marker")
	}

	var profile clientcontext.PersonalProfile
	if err := json.Unmarshal([]byte(strings.TrimSpace(body[:end])), &profile); err != nil {
		return nil, fmt.Errorf("extract profile: decode marker: %w", err)
	}

	if profile.CoachingApproach == nil {
		rec := personas.Recommend(profile.Signals())
		profile.CoachingApproach = &clientcontext.CoachingApproach{
			RecommendedPersona: rec.Persona,
			Reasoning:          rec.Reasoning,
		}
	}
	return &profile, nil
}

// EncodeProfilingState serializes the interview state for the session row.
func EncodeProfilingState(s ProfilingState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode profiling state: %w", err)
	}
	return data, nil
}

// Advance applies the pacing rule after one completed exchange: two exchanges
// on a topic close it out and move to the next, and once every topic is
// behind us the interview waits only for its summary turn.
func Advance(s ProfilingState, exchangesOnTopic int) ProfilingState {
	out := s
	out.Completed = make(map[Dimension]bool, len(s.Completed))
	for d, done := range s.Completed {
		out.Completed[d] = done
	}

	dims := Dimensions()
	if out.DimensionIndex < len(dims) && exchangesOnTopic >= 2 {
		out.Completed[dims[out.DimensionIndex]] = true
		out.DimensionIndex++
	}
	if out.DimensionIndex >= len(dims) {
		out.Status = StatusAwaitingSummary
	}
	return out
}
