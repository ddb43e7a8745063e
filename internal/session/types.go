package session

import (
	"time"

	"inquisit/internal/flow"
	"inquisit/internal/pattern"
)

// recentPatternCap bounds the per-session log of recently used patterns.
// Oldest entries are evicted on overflow; the log feeds freshness scoring only.
const recentPatternCap = 10

// DialogueSession is the durable state of one guided-questioning dialogue.
// The engine rebuilds its per-turn selection context from this struct; the
// struct itself is owned by the store and mutated only between turns.
type DialogueSession struct {
	ID        string
	Category  pattern.Category
	Expertise pattern.ExpertiseTier
	Focus     string

	CurrentPhase flow.Phase
	Depth        int
	TurnCount    int

	Concepts    []string
	Assumptions []string
	Definitions []string

	RecentPatterns []pattern.ID

	ObjectivesTotal     int
	ObjectivesCompleted int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DialogueTurn is one question/answer exchange within a session.
type DialogueTurn struct {
	SessionID    string
	TurnNumber   int
	Pattern      pattern.ID
	Phase        flow.Phase
	Question     string
	Insights     int
	Satisfaction *float64
	Depth        int
	Timestamp    time.Time
}

// RecordRecentPattern appends a pattern to the session's recent-usage log,
// evicting the oldest entry once the cap is reached.
func (s *DialogueSession) RecordRecentPattern(id pattern.ID) {
	s.RecentPatterns = append(s.RecentPatterns, id)
	if len(s.RecentPatterns) > recentPatternCap {
		s.RecentPatterns = s.RecentPatterns[len(s.RecentPatterns)-recentPatternCap:]
	}
}

// RecentUsageCount reports how often a pattern appears in the recent log.
func (s *DialogueSession) RecentUsageCount(id pattern.ID) int {
	n := 0
	for _, p := range s.RecentPatterns {
		if p == id {
			n++
		}
	}
	return n
}

// FlowTurns converts stored dialogue turns into the flow machine's turn shape.
func FlowTurns(turns []DialogueTurn) []flow.Turn {
	out := make([]flow.Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, flow.Turn{
			Pattern:      t.Pattern,
			Phase:        t.Phase,
			Insights:     t.Insights,
			Satisfaction: t.Satisfaction,
			Depth:        t.Depth,
			Timestamp:    t.Timestamp,
		})
	}
	return out
}
