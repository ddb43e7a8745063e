package selection

import (
	"fmt"
	"strings"

	"inquisit/internal/config"
	"inquisit/internal/flow"
	"inquisit/internal/learning"
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

// Per-use freshness penalties. The generic novelty factor decays gently and
// is blended toward neutral; the selection-time freshness factor penalizes
// repeats harder and is used raw.
const (
	noveltyPenaltyPerUse   = 0.2
	freshnessPenaltyPerUse = 0.3
	freshnessFloor         = 0.1
)

// Scorer computes the six sub-scores and the two weighted totals.
// It is read-only over its inputs and safe for concurrent use.
type Scorer struct {
	cfg       config.ScoringConfig
	learner   *learning.Learner
	preferred map[flow.Phase]map[pattern.ID]bool
}

// NewScorer builds a scorer from the scoring tables and the per-phase
// preferred-pattern sets.
func NewScorer(cfg config.ScoringConfig, flowCfg config.FlowConfig, learner *learning.Learner) *Scorer {
	preferred := make(map[flow.Phase]map[pattern.ID]bool, len(flowCfg.Phases))
	for name, pc := range flowCfg.Phases {
		phase, ok := flow.ParsePhase(name)
		if !ok {
			continue
		}
		set := make(map[pattern.ID]bool, len(pc.PreferredPatterns))
		for _, id := range pc.PreferredPatterns {
			set[pattern.ID(id)] = true
		}
		preferred[phase] = set
	}
	return &Scorer{cfg: cfg, learner: learner, preferred: preferred}
}

// Score computes the generic six-factor total for one pattern.
func (s *Scorer) Score(p *pattern.Pattern, ctx *Context) ScoredPattern {
	factors, reasoning := s.factors(p, ctx)

	w := s.cfg.GenericWeights
	total := clamp01(factors.ContextRelevance*w.ContextRelevance +
		factors.ExpertiseMatch*w.ExpertiseMatch +
		factors.FlowAppropriate*w.FlowAppropriate +
		s.blendedNovelty(factors.Freshness)*w.Novelty +
		factors.Effectiveness*w.Effectiveness +
		factors.StrategicValue*w.StrategicValue)

	return ScoredPattern{ID: p.ID, Factors: factors, Total: total, Reasoning: reasoning}
}

// ScoreForSelection computes the selection-time total: five weighted factors
// plus the prefer-list bonus, capped at 1.
func (s *Scorer) ScoreForSelection(p *pattern.Pattern, ctx *Context, constraints *Constraints) ScoredPattern {
	factors, reasoning := s.factors(p, ctx)
	factors.Freshness = s.selectionFreshness(p.ID, ctx)

	w := s.cfg.SelectionWeights
	total := factors.ContextRelevance*w.ContextRelevance +
		factors.ExpertiseMatch*w.ExpertiseMatch +
		factors.FlowAppropriate*w.FlowAppropriate +
		factors.Effectiveness*w.Effectiveness +
		factors.Freshness*w.Freshness

	if constraints.preferred(p.ID) {
		total += s.cfg.PreferBonus
		reasoning = append(reasoning, "caller prefers this pattern")
	}
	total = clamp01(total)

	logging.SelectionDebug("scored %s: total=%.3f relevance=%.2f expertise=%.2f flow=%.2f fresh=%.2f effective=%.2f",
		p.ID, total, factors.ContextRelevance, factors.ExpertiseMatch,
		factors.FlowAppropriate, factors.Freshness, factors.Effectiveness)
	return ScoredPattern{ID: p.ID, Factors: factors, Total: total, Reasoning: reasoning}
}

// ContextRelevance exposes the relevance sub-score for follow-up ranking.
func (s *Scorer) ContextRelevance(p *pattern.Pattern, ctx *Context) float64 {
	relevance, _ := s.contextRelevance(p, ctx)
	return relevance
}

func (s *Scorer) factors(p *pattern.Pattern, ctx *Context) (Factors, []string) {
	var reasoning []string

	relevance, why := s.contextRelevance(p, ctx)
	reasoning = append(reasoning, why...)

	expertise := s.expertiseMatch(p, ctx)
	if expertise == 1.0 {
		reasoning = append(reasoning, fmt.Sprintf("matches %s expertise exactly", ctx.Expertise))
	}

	flowScore := s.flowAppropriateness(p, ctx)
	if s.preferred[ctx.Phase][p.ID] {
		reasoning = append(reasoning, fmt.Sprintf("preferred during the %s phase", ctx.Phase))
	}

	freshness := rawFreshness(ctx.RecentUsageCount(p.ID), noveltyPenaltyPerUse)
	if freshness < 1.0 {
		reasoning = append(reasoning, "used recently in this session")
	}

	effectiveness := s.learner.Effectiveness(p.ID, learning.Context{
		Category:  ctx.Category,
		Expertise: ctx.Expertise,
	})
	if effectiveness > 0.7 {
		reasoning = append(reasoning, "has worked well in similar contexts")
	}

	strategic := s.strategicValue(p, ctx)

	return Factors{
		ContextRelevance: relevance,
		ExpertiseMatch:   expertise,
		FlowAppropriate:  flowScore,
		Freshness:        freshness,
		Effectiveness:    effectiveness,
		StrategicValue:   strategic,
	}, reasoning
}

// contextRelevance: 0.8 base on a category match (0.2 otherwise), plus the
// per-category and per-project-phase bonus tables, plus the focus keyword
// overlap bonus, capped at 1.
func (s *Scorer) contextRelevance(p *pattern.Pattern, ctx *Context) (float64, []string) {
	var reasoning []string

	score := 0.2
	if p.AppliesTo(ctx.Category) {
		score = 0.8
		reasoning = append(reasoning, fmt.Sprintf("applies to %s contexts", ctx.Category))
	}

	if bonus := s.cfg.ContextBonuses[string(ctx.Category)][string(p.ID)]; bonus > 0 {
		score += bonus
	}
	if bonus := s.cfg.ProjectPhaseBonuses[string(ctx.ProjectPhase)][string(p.ID)]; bonus > 0 {
		score += bonus
	}

	if overlap := keywordOverlap(p.Keywords, ctx.Focus); overlap > 0 {
		score += overlap
		reasoning = append(reasoning, "keywords overlap the current focus")
	}

	return clamp01(score), reasoning
}

// keywordOverlap awards 0.05 per keyword found in the focus string, capped
// at 0.1.
func keywordOverlap(keywords []string, focus string) float64 {
	if focus == "" {
		return 0
	}
	focus = strings.ToLower(focus)
	bonus := 0.0
	for _, kw := range keywords {
		if strings.Contains(focus, strings.ToLower(kw)) {
			bonus += 0.05
			if bonus >= 0.1 {
				return 0.1
			}
		}
	}
	return bonus
}

// expertiseMatch: 1.0 at zero distance, a gentle ramp within tolerance,
// a steep ramp beyond it.
func (s *Scorer) expertiseMatch(p *pattern.Pattern, ctx *Context) float64 {
	distance := ctx.Expertise.Distance(p.MinExpertise)
	if distance == 0 {
		return 1.0
	}
	tolerance := s.cfg.ExpertiseTolerance
	if distance <= tolerance {
		return max64(1.0-float64(distance)*0.2, 0.2)
	}
	return max64(0.3-float64(distance-tolerance)*0.1, 0.1)
}

// flowAppropriateness: 0.9 when preferred in the current phase, 0.4
// otherwise, nudged by depth and turn-count heuristics.
func (s *Scorer) flowAppropriateness(p *pattern.Pattern, ctx *Context) float64 {
	score := 0.4
	if s.preferred[ctx.Phase][p.ID] {
		score = 0.9
	}

	affinity, _ := flow.ParsePhase(p.PhaseAffinity)
	switch {
	case ctx.Depth <= 2:
		if affinity == flow.PhaseExploring {
			score += 0.05
		} else if affinity == flow.PhaseSynthesizing || affinity == flow.PhaseConcluding {
			score -= 0.05
		}
	case ctx.Depth >= 6:
		if affinity == flow.PhaseSynthesizing {
			score += 0.05
		} else if affinity == flow.PhaseExploring {
			score -= 0.05
		}
	}

	if ctx.TurnCount > 20 {
		if affinity == flow.PhaseConcluding {
			score += 0.1
		} else {
			score -= 0.05
		}
	}

	return clamp01(score)
}

// rawFreshness decays linearly with recent usage, floored at 0.1.
func rawFreshness(recentUses int, penaltyPerUse float64) float64 {
	return max64(1.0-float64(recentUses)*penaltyPerUse, freshnessFloor)
}

// blendedNovelty mixes the raw freshness signal with a neutral 0.5 by the
// configured novelty importance.
func (s *Scorer) blendedNovelty(raw float64) float64 {
	imp := s.cfg.NoveltyImportance
	return clamp01(raw*imp + 0.5*(1.0-imp))
}

func (s *Scorer) selectionFreshness(id pattern.ID, ctx *Context) float64 {
	return rawFreshness(ctx.RecentUsageCount(id), freshnessPenaltyPerUse)
}

// strategicValue: 0.5 base plus the per-pattern bonus table, plus a gap
// bonus when nothing foundational has surfaced yet and the pattern is built
// to surface it.
func (s *Scorer) strategicValue(p *pattern.Pattern, ctx *Context) float64 {
	score := 0.5 + s.cfg.StrategicBonuses[string(p.ID)]
	if len(ctx.Concepts) == 0 && len(ctx.Assumptions) == 0 && p.SurfacesFoundations {
		score += 0.1
	}
	return clamp01(score)
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

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
