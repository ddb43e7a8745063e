// Package flow tracks and transitions the conversational phase of a dialogue.
// It classifies the current phase from recent pattern usage, computes phase
// metrics and progress, and proposes (never auto-applies) transitions.
package flow

import (
	"time"

	"inquisit/internal/pattern"
)

// Phase is one of the five conversational states.
type Phase string

const (
	PhaseExploring    Phase = "exploring"
	PhaseDeepening    Phase = "deepening"
	PhaseClarifying   Phase = "clarifying"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseConcluding   Phase = "concluding"
)

// canonicalOrder is the forward direction of a dialogue. A transition to an
// earlier phase is a back-transition.
var canonicalOrder = []Phase{
	PhaseExploring, PhaseDeepening, PhaseClarifying, PhaseSynthesizing, PhaseConcluding,
}

// Ordinal returns the phase's position in the canonical ordering, or -1.
func (p Phase) Ordinal() int {
	for i, ph := range canonicalOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is one of the five phases.
func (p Phase) Valid() bool { return p.Ordinal() >= 0 }

// Previous returns the phase one step back in the canonical ordering,
// or exploring when already at the start.
func (p Phase) Previous() Phase {
	ord := p.Ordinal()
	if ord <= 0 {
		return PhaseExploring
	}
	return canonicalOrder[ord-1]
}

// Next returns the phase one step forward, or concluding when already there.
func (p Phase) Next() Phase {
	ord := p.Ordinal()
	if ord < 0 || ord >= len(canonicalOrder)-1 {
		return PhaseConcluding
	}
	return canonicalOrder[ord+1]
}

// ParsePhase validates a phase name. Unknown names return false.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(s)
	return p, p.Valid()
}

// Turn is the slice of a dialogue turn the flow machine consumes.
// The host's session store supplies these; most recent turn last.
type Turn struct {
	Pattern      pattern.ID
	Phase        Phase // phase the session was in when the turn happened
	Insights     int
	Satisfaction *float64 // 1-5, nil when the user gave no rating
	Depth        int
	Timestamp    time.Time
}

// PhaseSettings configures one phase, converted from config at startup.
type PhaseSettings struct {
	Preferred   []pattern.ID
	MaxTurns    int
	MinInsights int
	// SuccessCriteria are descriptive only; nothing enforces them.
	SuccessCriteria []string
}

// Rule is one allowed cross-phase transition.
type Rule struct {
	From            Phase
	To              Phase
	MinTurns        int
	MaxTurns        int // 0 means no upper bound
	BaseConfidence  float64
	TriggerPatterns []pattern.ID
}

// PhaseMetrics summarizes activity within the current phase.
type PhaseMetrics struct {
	TurnsInPhase      int                `json:"turns_in_phase"`
	PatternCounts     map[pattern.ID]int `json:"pattern_counts"`
	InsightsGenerated int                `json:"insights_generated"`
	AvgDepth          float64            `json:"avg_depth"`
	VarietyScore      float64            `json:"variety_score"`
	Effectiveness     float64            `json:"effectiveness"`
}

// ProgressAssessment scores how the dialogue is going, all values in [0,1].
type ProgressAssessment struct {
	ObjectiveAlignment     float64 `json:"objective_alignment"`
	InsightQuality         float64 `json:"insight_quality"`
	ParticipantEngagement  float64 `json:"participant_engagement"`
	ReadinessForTransition float64 `json:"readiness_for_transition"`
	OverallProgress        float64 `json:"overall_progress"`
	CompletionLikelihood   float64 `json:"completion_likelihood"`
}

// PhaseSuggestion is a proposed next phase with its confidence.
type PhaseSuggestion struct {
	Phase      Phase   `json:"phase"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// AnalysisResult is the full flow analysis for one call. Transient.
type AnalysisResult struct {
	CurrentPhase    Phase              `json:"current_phase"`
	Confidence      float64            `json:"confidence"`
	SuggestedNext   *PhaseSuggestion   `json:"suggested_next,omitempty"`
	Metrics         PhaseMetrics       `json:"metrics"`
	Progress        ProgressAssessment `json:"progress"`
	Recommendations []string           `json:"recommendations"`
}

// AnalysisInput carries everything Analyze needs. Objectives counts come from
// the host's session store; zero total means "no objectives defined".
type AnalysisInput struct {
	CurrentPhase        Phase
	Turns               []Turn
	Depth               int
	TurnCount           int
	ObjectivesTotal     int
	ObjectivesCompleted int
}

// PhaseLogEntry records one applied transition in a session's phase history.
type PhaseLogEntry struct {
	Phase     Phase     `json:"phase"`
	EnteredAt time.Time `json:"entered_at"`
}

// TransitionOutcome reports the result of a transition request. Invalid
// cross-phase moves set Success=false and leave the session phase unchanged;
// the failure travels as a flag so hosts can message it gracefully.
type TransitionOutcome struct {
	Success    bool     `json:"success"`
	From       Phase    `json:"from"`
	To         Phase    `json:"to"`
	Confidence float64  `json:"confidence"`
	Warnings   []string `json:"warnings"`
}

// Decision is the shorthand should-transition verdict.
type Decision struct {
	ShouldTransition bool   `json:"should_transition"`
	Reason           string `json:"reason"`
	SuggestedPhase   Phase  `json:"suggested_phase,omitempty"`
}
