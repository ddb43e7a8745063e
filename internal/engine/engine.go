// Package engine is the orchestration facade. It owns the component graph
// (catalog, scorer, selector, learner, flow machine, session store, insight
// extractor) and exposes the per-turn operations the serving layer calls.
package engine

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"inquisit/internal/config"
	"inquisit/internal/flow"
	"inquisit/internal/insight"
	"inquisit/internal/learning"
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
	"inquisit/internal/selection"
	"inquisit/internal/session"
)

// Engine wires the components together. Per-session state lives in the
// store; the learner is the only structure shared across sessions.
// The selector and machine can be swapped at runtime by Reconfigure, so
// reads of them go through the mutex.
type Engine struct {
	mu        sync.RWMutex
	cfg       *config.Config
	catalog   *pattern.Catalog
	store     *session.Store
	learner   *learning.Learner
	selector  *selection.Selector
	machine   *flow.Machine
	extractor *insight.Extractor
}

// Outcome is the host-reported result of one question turn.
type Outcome struct {
	Response     string   // participant's answer, mined for insights
	Satisfaction *float64 // optional 1-5 rating
	FollowUpUsed bool
	Depth        int
}

// New builds the engine from configuration.
func New(cfg *config.Config) (*Engine, error) {
	catalog := pattern.NewCatalog()

	learner := learning.NewLearner(learning.Config{
		Alpha:               cfg.Learning.Alpha,
		InsightTarget:       cfg.Learning.InsightTarget,
		DefaultSatisfaction: cfg.Learning.DefaultSatisfaction,
	})

	machine, err := flow.NewMachine(catalog, cfg.Flow)
	if err != nil {
		return nil, fmt.Errorf("failed to build flow machine: %w", err)
	}

	dbPath := cfg.Store.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Workspace, ".inquisit", "sessions.db")
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Workspace, dbPath)
	}
	store, err := session.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	scorer := selection.NewScorer(cfg.Scoring, cfg.Flow, learner)

	e := &Engine{
		cfg:       cfg,
		catalog:   catalog,
		store:     store,
		learner:   learner,
		selector:  selection.NewSelector(catalog, scorer),
		machine:   machine,
		extractor: insight.NewExtractor(),
	}
	logging.Get(logging.CategoryBoot).Info("engine ready: %d patterns, db=%s", catalog.Len(), dbPath)
	return e, nil
}

// Close releases the session store.
func (e *Engine) Close() error { return e.store.Close() }

// Reconfigure rebuilds the scoring and flow tables from a freshly loaded
// config. The catalog, learner, and open sessions carry over; a config that
// fails validation leaves the engine on the previous tables.
func (e *Engine) Reconfigure(cfg *config.Config) error {
	machine, err := flow.NewMachine(e.catalog, cfg.Flow)
	if err != nil {
		return fmt.Errorf("rejected reloaded config: %w", err)
	}
	scorer := selection.NewScorer(cfg.Scoring, cfg.Flow, e.learner)

	e.mu.Lock()
	e.cfg = cfg
	e.machine = machine
	e.selector = selection.NewSelector(e.catalog, scorer)
	e.mu.Unlock()

	logging.Get(logging.CategoryConfig).Info("scoring and flow tables reloaded")
	return nil
}

// components snapshots the swappable component pair for one operation.
func (e *Engine) components() (*selection.Selector, *flow.Machine) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selector, e.machine
}

// Catalog exposes the read-only pattern catalog.
func (e *Engine) Catalog() *pattern.Catalog { return e.catalog }

// StartSession creates a new dialogue session.
func (e *Engine) StartSession(category pattern.Category, expertise pattern.ExpertiseTier, focus string, objectives []string) (*session.DialogueSession, error) {
	sess, err := e.store.CreateSession(category, expertise, focus)
	if err != nil {
		return nil, err
	}
	for _, obj := range objectives {
		if err := e.store.AddObjective(sess.ID, obj); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// Session returns the stored session state.
func (e *Engine) Session(id string) (*session.DialogueSession, error) {
	return e.store.GetSession(id)
}

// CompleteObjective marks a session objective done.
func (e *Engine) CompleteObjective(sessionID, description string) error {
	return e.store.CompleteObjective(sessionID, description)
}

// Select picks the best question pattern for the session's next turn and
// records it into the session's recent-pattern log.
func (e *Engine) Select(sessionID string, constraints *selection.Constraints) (*selection.Result, error) {
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	selector, _ := e.components()
	result, err := selector.SelectBest(e.selectionContext(sess), constraints)
	if err != nil {
		return nil, err
	}

	// GetSession hands back the cached session, so a failed save must not
	// leave the recent-pattern log mutated in memory.
	prevRecent := append([]pattern.ID(nil), sess.RecentPatterns...)
	sess.RecordRecentPattern(result.Selected.ID)
	if err := e.store.SaveSession(sess); err != nil {
		sess.RecentPatterns = prevRecent
		return nil, err
	}
	return result, nil
}

// RecordOutcome folds one turn's result into the session history, the
// discovered concept/assumption/definition sets, and the shared learner.
func (e *Engine) RecordOutcome(sessionID string, patternID pattern.ID, outcome Outcome) error {
	timer := logging.StartTimer(logging.CategoryLearning, "RecordOutcome")
	defer timer.Stop()

	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return err
	}
	if _, err := e.catalog.Get(patternID); err != nil {
		return err
	}

	extracted := e.extractor.Extract(outcome.Response)
	sess.Concepts = mergeStrings(sess.Concepts, extracted.Concepts)
	sess.Assumptions = mergeStrings(sess.Assumptions, extracted.Assumptions)
	sess.Definitions = mergeStrings(sess.Definitions, extracted.Definitions)

	sess.TurnCount++
	if outcome.Depth > 0 {
		sess.Depth = outcome.Depth
	}

	turn := session.DialogueTurn{
		SessionID:    sessionID,
		TurnNumber:   sess.TurnCount,
		Pattern:      patternID,
		Phase:        sess.CurrentPhase,
		Insights:     extracted.Count(),
		Satisfaction: outcome.Satisfaction,
		Depth:        sess.Depth,
		Timestamp:    time.Now().UTC(),
	}
	if err := e.store.AppendTurn(turn); err != nil {
		return err
	}

	e.learner.RecordOutcome(patternID, learning.Context{
		Category:  sess.Category,
		Expertise: sess.Expertise,
	}, learning.Outcome{
		Satisfaction:      outcome.Satisfaction,
		InsightsGenerated: extracted.Count(),
		FollowUpUsed:      outcome.FollowUpUsed,
	})

	return e.store.SaveSession(sess)
}

// AnalyzeFlow runs the full flow analysis over the session's recent turns.
func (e *Engine) AnalyzeFlow(sessionID string) (*flow.AnalysisResult, error) {
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := e.store.RecentTurns(sessionID, 50)
	if err != nil {
		return nil, err
	}

	_, machine := e.components()
	return machine.Analyze(flow.AnalysisInput{
		CurrentPhase:        sess.CurrentPhase,
		Turns:               session.FlowTurns(turns),
		Depth:               sess.Depth,
		TurnCount:           sess.TurnCount,
		ObjectivesTotal:     sess.ObjectivesTotal,
		ObjectivesCompleted: sess.ObjectivesCompleted,
	}), nil
}

// Transition validates a phase change and, when valid, applies it to the
// session and its phase log. On rejection the session is left untouched.
func (e *Engine) Transition(sessionID string, from, to flow.Phase) (flow.TransitionOutcome, error) {
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return flow.TransitionOutcome{}, err
	}
	if from != sess.CurrentPhase {
		return flow.TransitionOutcome{From: from, To: to,
			Warnings: []string{fmt.Sprintf("session is in %s, not %s", sess.CurrentPhase, from)}}, nil
	}

	turns, err := e.store.RecentTurns(sessionID, 50)
	if err != nil {
		return flow.TransitionOutcome{}, err
	}
	history, err := e.store.PhaseHistory(sessionID)
	if err != nil {
		return flow.TransitionOutcome{}, err
	}

	turnsInPhase := flow.TurnsInPhase(session.FlowTurns(turns), from)
	now := time.Now().UTC()
	_, machine := e.components()
	_, outcome := machine.ApplyTransition(history, from, to, turnsInPhase, now)
	if !outcome.Success {
		return outcome, nil
	}

	if err := e.store.LogPhase(sessionID, to, now); err != nil {
		return flow.TransitionOutcome{}, err
	}
	sess.CurrentPhase = to
	if err := e.store.SaveSession(sess); err != nil {
		return flow.TransitionOutcome{}, err
	}
	return outcome, nil
}

// ShouldTransition is the lightweight between-analyses check.
func (e *Engine) ShouldTransition(sessionID string) (flow.Decision, error) {
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return flow.Decision{}, err
	}
	turns, err := e.store.RecentTurns(sessionID, 50)
	if err != nil {
		return flow.Decision{}, err
	}

	flowTurns := session.FlowTurns(turns)
	_, machine := e.components()
	metrics := machine.ComputeMetrics(sess.CurrentPhase, flowTurns)
	progress := machine.AssessProgress(sess.CurrentPhase, metrics, flow.AnalysisInput{
		CurrentPhase:        sess.CurrentPhase,
		Turns:               flowTurns,
		Depth:               sess.Depth,
		TurnCount:           sess.TurnCount,
		ObjectivesTotal:     sess.ObjectivesTotal,
		ObjectivesCompleted: sess.ObjectivesCompleted,
	})
	return machine.ShouldTransition(sess.CurrentPhase, metrics, progress.ReadinessForTransition), nil
}

// selectionContext rebuilds the per-turn selection input from session state.
func (e *Engine) selectionContext(sess *session.DialogueSession) *selection.Context {
	return &selection.Context{
		SessionID:      sess.ID,
		Category:       sess.Category,
		Expertise:      sess.Expertise,
		Depth:          sess.Depth,
		TurnCount:      sess.TurnCount,
		Phase:          sess.CurrentPhase,
		Concepts:       sess.Concepts,
		Assumptions:    sess.Assumptions,
		Definitions:    sess.Definitions,
		Focus:          sess.Focus,
		RecentPatterns: sess.RecentPatterns,
	}
}

func mergeStrings(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range incoming {
		if !seen[s] {
			seen[s] = true
			existing = append(existing, s)
		}
	}
	return existing
}
