package flow

import (
	"fmt"
	"time"

	"inquisit/internal/logging"
)

// ValidateTransition checks a requested phase change against the rule table.
// Same-phase transitions are always valid with zero warnings. Cross-phase
// moves must exist in the table; valid moves can still carry timing warnings.
func (m *Machine) ValidateTransition(from, to Phase, turnsInPhase int) TransitionOutcome {
	out := TransitionOutcome{From: from, To: to}

	if !from.Valid() || !to.Valid() {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unknown phase in transition %s -> %s", from, to))
		return out
	}

	// Self-transitions are always allowed, no matter the timing.
	if from == to {
		out.Success = true
		out.Confidence = 1.0
		return out
	}

	rule, ok := m.rules[from][to]
	if !ok {
		logging.FlowDebug("transition rejected, no rule: %s -> %s", from, to)
		return out
	}

	if to.Ordinal() < from.Ordinal() && !m.allowBack {
		out.Warnings = append(out.Warnings, fmt.Sprintf("back-transition %s -> %s is disabled by configuration", from, to))
		return out
	}

	out.Success = true
	out.Confidence = rule.BaseConfidence

	if to.Ordinal() < from.Ordinal() {
		out.Warnings = append(out.Warnings, fmt.Sprintf("back-transition: %s precedes %s in the canonical ordering", to, from))
	}
	if turnsInPhase < rule.MinTurns {
		out.Warnings = append(out.Warnings, fmt.Sprintf("premature: only %d turns in %s (minimum %d)", turnsInPhase, from, rule.MinTurns))
	}
	if rule.MaxTurns > 0 && turnsInPhase > rule.MaxTurns {
		out.Warnings = append(out.Warnings, fmt.Sprintf("overdue: %d turns in %s (maximum %d)", turnsInPhase, from, rule.MaxTurns))
	}

	return out
}

// ApplyTransition validates and, on success, appends the new phase to the
// session's phase history and checks the log for rapid-transition churn.
// The history slice is owned by the caller's session state; the returned
// slice replaces it.
func (m *Machine) ApplyTransition(history []PhaseLogEntry, from, to Phase, turnsInPhase int, now time.Time) ([]PhaseLogEntry, TransitionOutcome) {
	out := m.ValidateTransition(from, to, turnsInPhase)
	if !out.Success {
		return history, out
	}

	history = append(history, PhaseLogEntry{Phase: to, EnteredAt: now})

	if isRapidTransition(history) {
		out.Warnings = append(out.Warnings, "rapid transitions: last three phases are all distinct")
	}

	logging.Get(logging.CategoryFlow).Info("phase transition applied: %s -> %s (turnsInPhase=%d, warnings=%d)",
		from, to, turnsInPhase, len(out.Warnings))
	return history, out
}

// isRapidTransition reports whether the last three logged phases are all
// distinct, a sign the dialogue is churning instead of settling.
func isRapidTransition(history []PhaseLogEntry) bool {
	if len(history) < 3 {
		return false
	}
	a := history[len(history)-3].Phase
	b := history[len(history)-2].Phase
	c := history[len(history)-1].Phase
	return a != b && b != c && a != c
}
