package session

import (
	"fmt"
	"math"
	"strings"
)

// Progress is the deterministic percentage summary of a state.
type Progress struct {
	// Overall blends research and canvas progress 50/50, rounded from the
	// unrounded raw components.
	Overall int `json:"overall"`

	// ResearchProgress and CanvasProgress are rounded independently for
	// display; they are not the inputs to Overall.
	ResearchProgress int `json:"research_progress"`
	CanvasProgress   int `json:"canvas_progress"`
}

// pillarScore gives a pillar 1.0 when completed, 0.5 when started but not
// completed, and 0 otherwise.
func pillarScore(p PillarProgress) float64 {
	switch {
	case p.Completed:
		return 1.0
	case p.Started:
		return 0.5
	}
	return 0.0
}

// Summarize computes the progress summary. Pure and side-effect free.
//
// The rounding order is load-bearing: Overall is rounded from the raw
// (unrounded) research and canvas values, while the two displayed components
// are rounded separately. Rounding an intermediate before combining would
// change results (e.g. one started pillar yields research 16.667 -> displayed
// 17, but overall round(16.667*0.5) = 8, not round(17*0.5) = 9).
func Summarize(s State) Progress {
	var sum float64
	for _, k := range PillarKeys() {
		sum += pillarScore(s.ResearchPillars[k])
	}
	rawResearch := sum / 3.0 * 100.0

	var done int
	for _, c := range CanvasSections() {
		if s.CanvasProgress[c] {
			done++
		}
	}
	rawCanvas := float64(done) / 5.0 * 100.0

	return Progress{
		Overall:          int(math.Round(rawResearch*0.5 + rawCanvas*0.5)),
		ResearchProgress: int(math.Round(rawResearch)),
		CanvasProgress:   int(math.Round(rawCanvas)),
	}
}

// Render produces the human-readable summary embedded verbatim into the
// coaching prompt. Treated as a stable text contract: the composer asserts
// this exact string appears in its output.
func (p Progress) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall progress: %d%%\n", p.Overall)
	fmt.Fprintf(&b, "Research pillars: %d%%\n", p.ResearchProgress)
	fmt.Fprintf(&b, "Strategy canvas: %d%%", p.CanvasProgress)
	return b.String()
}
