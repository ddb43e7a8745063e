package flow

import (
	"fmt"
	"math"
	"sort"

	"inquisit/internal/config"
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

// turnsInPhaseCap bounds the backward scan over recent turns. The counter is
// an approximation over recent history, not phase-entry timestamps; the cap
// keeps a long uninterrupted phase from skewing every downstream ratio.
const turnsInPhaseCap = 20

// recentWindow is the number of trailing turns used for variety scoring.
const recentWindow = 10

// classifyWindow is the number of trailing turns used for phase classification.
const classifyWindow = 5

// Machine is the flow state machine. It is stateless across calls: per-session
// data (turn history, phase log) is passed in by the caller.
type Machine struct {
	catalog   *pattern.Catalog
	phases    map[Phase]PhaseSettings
	rules     map[Phase]map[Phase]Rule
	allowBack bool
}

// NewMachine builds a machine from the flow configuration tables.
func NewMachine(catalog *pattern.Catalog, cfg config.FlowConfig) (*Machine, error) {
	m := &Machine{
		catalog:   catalog,
		phases:    make(map[Phase]PhaseSettings, len(cfg.Phases)),
		rules:     make(map[Phase]map[Phase]Rule),
		allowBack: cfg.AllowBackTransitions,
	}

	for name, pc := range cfg.Phases {
		phase, ok := ParsePhase(name)
		if !ok {
			return nil, fmt.Errorf("unknown phase in config: %q", name)
		}
		settings := PhaseSettings{
			MaxTurns:        pc.MaxTurns,
			MinInsights:     pc.MinInsights,
			SuccessCriteria: pc.SuccessCriteria,
		}
		for _, id := range pc.PreferredPatterns {
			settings.Preferred = append(settings.Preferred, pattern.ID(id))
		}
		m.phases[phase] = settings
	}

	for _, rc := range cfg.Transitions {
		from, ok := ParsePhase(rc.From)
		if !ok {
			return nil, fmt.Errorf("unknown source phase in transition rule: %q", rc.From)
		}
		to, ok := ParsePhase(rc.To)
		if !ok {
			return nil, fmt.Errorf("unknown target phase in transition rule: %q", rc.To)
		}
		if from == PhaseConcluding && to != PhaseConcluding {
			return nil, fmt.Errorf("concluding is absorbing; rule %s -> %s is not allowed", from, to)
		}
		rule := Rule{
			From:           from,
			To:             to,
			MinTurns:       rc.MinTurns,
			MaxTurns:       rc.MaxTurns,
			BaseConfidence: rc.BaseConfidence,
		}
		for _, id := range rc.TriggerPatterns {
			rule.TriggerPatterns = append(rule.TriggerPatterns, pattern.ID(id))
		}
		if m.rules[from] == nil {
			m.rules[from] = make(map[Phase]Rule)
		}
		m.rules[from][to] = rule
	}

	return m, nil
}

// Settings returns the configuration for a phase.
func (m *Machine) Settings(p Phase) PhaseSettings { return m.phases[p] }

// ClassifyPhase infers the phase from the last few used patterns.
// With a dominant affinity (>=2 of the last 5) the affinity wins; otherwise
// depth and turn-count heuristics decide. Returns the phase and a confidence.
func (m *Machine) ClassifyPhase(turns []Turn, depth, turnCount int) (Phase, float64) {
	recent := tail(turns, classifyWindow)
	if len(recent) == 0 {
		return m.fallbackPhase(depth, turnCount), 0.5
	}

	counts := make(map[Phase]int)
	for _, t := range recent {
		if p, err := m.catalog.Get(t.Pattern); err == nil {
			if affinity, ok := ParsePhase(p.PhaseAffinity); ok {
				counts[affinity]++
			}
		}
	}

	dominant, dominantCount := Phase(""), 0
	for _, phase := range canonicalOrder { // deterministic tie-break by canonical order
		if counts[phase] > dominantCount {
			dominant, dominantCount = phase, counts[phase]
		}
	}

	var classified Phase
	if dominantCount >= 2 {
		classified = dominant
	} else {
		classified = m.fallbackPhase(depth, turnCount)
	}

	confidence := m.classificationConfidence(classified, recent)
	logging.FlowDebug("phase classified: %s (confidence=%.2f, dominant=%s x%d, depth=%d, turns=%d)",
		classified, confidence, dominant, dominantCount, depth, turnCount)
	return classified, confidence
}

// fallbackPhase applies the depth/turn heuristics when pattern affinity
// gives no clear signal.
func (m *Machine) fallbackPhase(depth, turnCount int) Phase {
	switch {
	case depth <= 2:
		return PhaseExploring
	case depth <= 4:
		return PhaseDeepening
	case depth <= 6:
		return PhaseClarifying
	case turnCount > 15:
		return PhaseConcluding
	default:
		return PhaseSynthesizing
	}
}

// classificationConfidence scores how well recent patterns align with the
// classified phase: alignment*0.8 + 0.2, plus a data-volume bonus, capped at 1.
func (m *Machine) classificationConfidence(classified Phase, recent []Turn) float64 {
	if len(recent) == 0 {
		return 0.5
	}
	matches := 0
	for _, t := range recent {
		if p, err := m.catalog.Get(t.Pattern); err == nil && Phase(p.PhaseAffinity) == classified {
			matches++
		}
	}
	alignment := float64(matches) / float64(len(recent))
	volumeBonus := math.Min(float64(len(recent))/float64(classifyWindow), 1.0) * 0.1
	return math.Min(alignment*0.8+0.2+volumeBonus, 1.0)
}

// TurnsInPhase counts backward through recent turns while they stayed in the
// given phase, capped for safety. Known approximation: this is not derived
// from phase-entry timestamps.
func TurnsInPhase(turns []Turn, phase Phase) int {
	count := 0
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Phase != phase {
			break
		}
		count++
		if count >= turnsInPhaseCap {
			break
		}
	}
	return count
}

// ComputeMetrics summarizes activity in the current phase plus variety over
// the trailing window.
func (m *Machine) ComputeMetrics(phase Phase, turns []Turn) PhaseMetrics {
	metrics := PhaseMetrics{
		PatternCounts: make(map[pattern.ID]int),
		Effectiveness: 0.5, // neutral until ratings arrive
	}

	metrics.TurnsInPhase = TurnsInPhase(turns, phase)
	inPhase := tail(turns, metrics.TurnsInPhase)

	depthSum := 0
	satisfactionSum, satisfactionN := 0.0, 0
	for _, t := range inPhase {
		metrics.PatternCounts[t.Pattern]++
		metrics.InsightsGenerated += t.Insights
		depthSum += t.Depth
		if t.Satisfaction != nil {
			satisfactionSum += *t.Satisfaction
			satisfactionN++
		}
	}
	if len(inPhase) > 0 {
		metrics.AvgDepth = float64(depthSum) / float64(len(inPhase))
	}
	if satisfactionN > 0 {
		metrics.Effectiveness = clamp01(satisfactionSum / float64(satisfactionN) / 5.0)
	}

	metrics.VarietyScore = varietyScore(turns)
	return metrics
}

// varietyScore is unique patterns over the trailing window divided by the
// window's turn count. All-same history scores 1/n.
func varietyScore(turns []Turn) float64 {
	window := tail(turns, recentWindow)
	if len(window) == 0 {
		return 0
	}
	unique := make(map[pattern.ID]bool, len(window))
	for _, t := range window {
		unique[t.Pattern] = true
	}
	return float64(len(unique)) / float64(len(window))
}

// AssessProgress computes the five progress sub-scores and the overall score.
func (m *Machine) AssessProgress(phase Phase, metrics PhaseMetrics, in AnalysisInput) ProgressAssessment {
	var p ProgressAssessment

	if in.ObjectivesTotal > 0 {
		p.ObjectiveAlignment = clamp01(float64(in.ObjectivesCompleted) / float64(in.ObjectivesTotal))
	} else {
		p.ObjectiveAlignment = 0.5 // no objectives defined
	}

	if in.TurnCount > 0 {
		p.InsightQuality = math.Min(float64(metrics.InsightsGenerated)/float64(in.TurnCount), 1.0)
	} else {
		p.InsightQuality = 0.5
	}

	p.ParticipantEngagement = metrics.Effectiveness

	minInsights := m.phases[phase].MinInsights
	if minInsights <= 0 {
		minInsights = 1
	}
	insightRatio := math.Min(float64(metrics.InsightsGenerated)/float64(minInsights), 1.0)
	p.ReadinessForTransition = clamp01(insightRatio*0.4 + metrics.VarietyScore*0.3 + metrics.Effectiveness*0.3)

	p.OverallProgress = clamp01(p.ObjectiveAlignment*0.3 + p.InsightQuality*0.25 +
		p.ParticipantEngagement*0.25 + metrics.VarietyScore*0.2)
	p.CompletionLikelihood = math.Min(p.OverallProgress*1.2, 1.0)

	return p
}

// Analyze runs the full flow analysis: classification, metrics, progress,
// transition suggestion, and textual recommendations.
func (m *Machine) Analyze(in AnalysisInput) *AnalysisResult {
	timer := logging.StartTimer(logging.CategoryFlow, "Analyze")
	defer timer.Stop()

	phase := in.CurrentPhase
	confidence := 0.5
	if !phase.Valid() {
		phase, confidence = m.ClassifyPhase(in.Turns, in.Depth, in.TurnCount)
	} else {
		confidence = m.classificationConfidence(phase, tail(in.Turns, classifyWindow))
	}

	metrics := m.ComputeMetrics(phase, in.Turns)
	progress := m.AssessProgress(phase, metrics, in)

	result := &AnalysisResult{
		CurrentPhase: phase,
		Confidence:   confidence,
		Metrics:      metrics,
		Progress:     progress,
	}

	result.SuggestedNext = m.suggestTransition(phase, metrics, progress)
	result.Recommendations = m.recommendations(phase, metrics, progress, result.SuggestedNext)
	return result
}

// suggestTransition proposes (never applies) the next phase. When the current
// phase is working well and readiness is low, stay put.
func (m *Machine) suggestTransition(phase Phase, metrics PhaseMetrics, progress ProgressAssessment) *PhaseSuggestion {
	if metrics.Effectiveness > 0.7 && progress.ReadinessForTransition < 0.6 {
		return nil // working well; no reason to move
	}

	var target Phase
	var reason string
	switch phase {
	case PhaseExploring:
		if metrics.VarietyScore > 0.6 || metrics.TurnsInPhase > 8 {
			target, reason = PhaseDeepening, "exploration has covered enough ground"
		}
	case PhaseDeepening:
		if metrics.InsightsGenerated > 3 || progress.InsightQuality > 0.7 {
			target, reason = PhaseClarifying, "enough material surfaced to pin down"
		}
	case PhaseClarifying:
		if progress.ObjectiveAlignment > 0.6 {
			target, reason = PhaseSynthesizing, "clarified threads are ready to combine"
		}
	case PhaseSynthesizing:
		if progress.OverallProgress > 0.8 {
			target, reason = PhaseConcluding, "the dialogue is ready to close"
		}
	case PhaseConcluding:
		return nil // absorbing state
	}

	if target == "" {
		return nil
	}

	confidence := 0.6
	if rule, ok := m.rules[phase][target]; ok {
		confidence = rule.BaseConfidence
	}
	return &PhaseSuggestion{Phase: target, Confidence: confidence, Reason: reason}
}

// recommendations produces the host-facing advice strings.
func (m *Machine) recommendations(phase Phase, metrics PhaseMetrics, progress ProgressAssessment, next *PhaseSuggestion) []string {
	var recs []string

	if metrics.VarietyScore < 0.3 && metrics.TurnsInPhase >= 3 {
		recs = append(recs, "question patterns are repeating; vary the approach")
	}
	if metrics.Effectiveness < 0.4 && metrics.TurnsInPhase > 5 {
		recs = append(recs, fmt.Sprintf("the %s phase is not landing; consider stepping back to %s", phase, phase.Previous()))
	}
	if settings, ok := m.phases[phase]; ok && settings.MaxTurns > 0 && metrics.TurnsInPhase >= settings.MaxTurns {
		recs = append(recs, fmt.Sprintf("the %s phase has run %d turns, past its budget of %d", phase, metrics.TurnsInPhase, settings.MaxTurns))
	}
	if next != nil {
		recs = append(recs, fmt.Sprintf("consider moving to %s: %s", next.Phase, next.Reason))
	}
	if progress.InsightQuality < 0.2 && metrics.TurnsInPhase > 3 {
		recs = append(recs, "few insights per turn; ask for concrete examples")
	}

	sort.Strings(recs)
	return recs
}

// ShouldTransition is the shorthand check used between full analyses.
// Forces a move when the phase is exhausted, ripe, or failing.
func (m *Machine) ShouldTransition(phase Phase, metrics PhaseMetrics, readiness float64) Decision {
	settings := m.phases[phase]

	if settings.MaxTurns > 0 && metrics.TurnsInPhase >= settings.MaxTurns {
		return Decision{
			ShouldTransition: true,
			Reason:           fmt.Sprintf("phase %s hit its turn budget (%d)", phase, settings.MaxTurns),
			SuggestedPhase:   phase.Next(),
		}
	}

	if settings.MinInsights > 0 && metrics.InsightsGenerated >= settings.MinInsights && readiness > 0.7 {
		return Decision{
			ShouldTransition: true,
			Reason:           fmt.Sprintf("phase %s produced %d insights and readiness is %.2f", phase, metrics.InsightsGenerated, readiness),
			SuggestedPhase:   phase.Next(),
		}
	}

	// Recovery: a failing phase routes one step backward in the canonical
	// ordering (self if already at exploring).
	if metrics.Effectiveness < 0.4 && metrics.TurnsInPhase > 5 {
		return Decision{
			ShouldTransition: true,
			Reason:           fmt.Sprintf("phase %s effectiveness %.2f after %d turns; recovering", phase, metrics.Effectiveness, metrics.TurnsInPhase),
			SuggestedPhase:   phase.Previous(),
		}
	}

	return Decision{Reason: fmt.Sprintf("phase %s is progressing", phase)}
}

func tail(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
