package selection

import (
	"errors"

	"inquisit/internal/flow"
	"inquisit/internal/pattern"
)

// ErrNoEligiblePatterns is the one hard failure in pattern selection: every
// catalog entry was filtered out. Callers must surface it, never substitute
// a default pattern.
var ErrNoEligiblePatterns = errors.New("no eligible patterns")

// Context is the per-turn selection input. It is rebuilt fresh from session
// state on every turn and never mutated by the selection path.
type Context struct {
	SessionID    string
	Category     pattern.Category
	Expertise    pattern.ExpertiseTier
	Depth        int
	TurnCount    int
	Phase        flow.Phase
	ProjectPhase pattern.ProjectPhase

	Concepts    []string
	Assumptions []string
	Definitions []string
	Focus       string

	// RecentPatterns is the session's last-used log (at most ten entries),
	// consumed for freshness scoring only.
	RecentPatterns []pattern.ID
}

// RecentUsageCount reports how often a pattern appears in the recent log.
func (c *Context) RecentUsageCount(id pattern.ID) int {
	n := 0
	for _, p := range c.RecentPatterns {
		if p == id {
			n++
		}
	}
	return n
}

// Constraints narrow a selection call. The zero value applies no constraints.
type Constraints struct {
	Exclude      []pattern.ID
	Prefer       []pattern.ID
	MaxDepth     int // 0 means unconstrained
	RequireFresh bool
}

func (c *Constraints) excluded(id pattern.ID) bool {
	if c == nil {
		return false
	}
	for _, e := range c.Exclude {
		if e == id {
			return true
		}
	}
	return false
}

func (c *Constraints) preferred(id pattern.ID) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Prefer {
		if p == id {
			return true
		}
	}
	return false
}

// Factors are the six named sub-scores, each clamped to [0,1].
type Factors struct {
	ContextRelevance float64
	ExpertiseMatch   float64
	FlowAppropriate  float64
	Freshness        float64
	Effectiveness    float64
	StrategicValue   float64
}

// ScoredPattern is one pattern's scoring outcome for a single call.
type ScoredPattern struct {
	ID        pattern.ID
	Factors   Factors
	Total     float64
	Reasoning []string
}

// Result is the outcome of a selectBest call.
type Result struct {
	Selected     ScoredPattern
	Confidence   float64
	Alternatives []ScoredPattern
	FollowUps    []pattern.ID
}
