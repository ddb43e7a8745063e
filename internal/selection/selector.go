package selection

import (
	"fmt"
	"sort"

	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

// followUpPriorityCutoff gates catalog-declared follow-ups.
const followUpPriorityCutoff = 0.6

// maxAlternatives and maxFollowUps bound the result lists.
const (
	maxAlternatives = 3
	maxFollowUps    = 3
)

// progressions maps a just-used pattern to the follow-ups that logically
// continue it. Conditional rows (definition-dependent) are handled in
// SuggestFollowUps.
var progressions = map[pattern.ID][]pattern.ID{
	pattern.ClarificationProbing:  {pattern.DefinitionSeeking, pattern.AssumptionExcavation},
	pattern.DefinitionSeeking:     {pattern.ConsistencyTesting, pattern.ConcreteInstantiation},
	pattern.AssumptionExcavation:  {pattern.EvidenceProbing, pattern.ConsistencyTesting},
	pattern.EvidenceProbing:       {pattern.ImplicationTracing, pattern.ConcreteInstantiation},
	pattern.ConsistencyTesting:    {pattern.PerspectiveShifting, pattern.SynthesisBuilding},
	pattern.ConcreteInstantiation: {pattern.ImplicationTracing},
	pattern.PerspectiveShifting:   {pattern.ConstraintSurfacing, pattern.PriorityProbing},
	pattern.ImplicationTracing:    {pattern.SynthesisBuilding},
	pattern.ConstraintSurfacing:   {pattern.PriorityProbing, pattern.EvidenceProbing},
	pattern.PriorityProbing:       {pattern.SynthesisBuilding},
	pattern.SynthesisBuilding:     {pattern.ReflectiveSummary},
}

// Selector ties the filter and scorer together into the selectBest operation.
type Selector struct {
	catalog *pattern.Catalog
	scorer  *Scorer
}

// NewSelector builds a selector over the given catalog and scorer.
func NewSelector(catalog *pattern.Catalog, scorer *Scorer) *Selector {
	return &Selector{catalog: catalog, scorer: scorer}
}

// SelectBest filters and scores the catalog, returning the top pattern, up
// to three runners-up, and follow-up suggestions. The caller records the
// selection into its session's recent-pattern log; the selector holds no
// per-session state.
func (s *Selector) SelectBest(ctx *Context, constraints *Constraints) (*Result, error) {
	timer := logging.StartTimer(logging.CategorySelection, "SelectBest")
	defer timer.Stop()

	eligible := Eligible(s.catalog, ctx, constraints)
	if len(eligible) == 0 {
		logging.Get(logging.CategorySelection).Warn(
			"no eligible patterns: session=%s category=%s expertise=%s depth=%d",
			ctx.SessionID, ctx.Category, ctx.Expertise, ctx.Depth)
		return nil, fmt.Errorf("%w: category=%s expertise=%s", ErrNoEligiblePatterns, ctx.Category, ctx.Expertise)
	}

	scored := make([]ScoredPattern, 0, len(eligible))
	for _, p := range eligible {
		scored = append(scored, s.scorer.ScoreForSelection(p, ctx, constraints))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Total != scored[j].Total {
			return scored[i].Total > scored[j].Total
		}
		return scored[i].ID < scored[j].ID
	})

	result := &Result{
		Selected:   scored[0],
		Confidence: scored[0].Total,
	}
	for _, alt := range scored[1:] {
		if len(result.Alternatives) == maxAlternatives {
			break
		}
		result.Alternatives = append(result.Alternatives, alt)
	}
	result.FollowUps = s.SuggestFollowUps(result.Selected.ID, ctx)

	logging.Get(logging.CategorySelection).Info(
		"selected %s (confidence=%.3f, alternatives=%d) for session=%s",
		result.Selected.ID, result.Confidence, len(result.Alternatives), ctx.SessionID)
	return result, nil
}

// SuggestFollowUps merges catalog-declared follow-ups (priority above the
// cutoff) with the logical-progression table, deduplicates, ranks, and
// returns at most three pattern identifiers.
func (s *Selector) SuggestFollowUps(selected pattern.ID, ctx *Context) []pattern.ID {
	seen := make(map[pattern.ID]bool)
	var candidates []pattern.ID

	add := func(id pattern.ID) {
		if id == selected || seen[id] {
			return
		}
		seen[id] = true
		candidates = append(candidates, id)
	}

	if p, err := s.catalog.Get(selected); err == nil {
		for _, fu := range p.FollowUps {
			if fu.Priority > followUpPriorityCutoff {
				add(fu.Pattern)
			}
		}
	}
	for _, id := range s.progressionsFor(selected, ctx) {
		add(id)
	}

	type ranked struct {
		id    pattern.ID
		score float64
	}
	rankedCandidates := make([]ranked, 0, len(candidates))
	progression := make(map[pattern.ID]bool)
	for _, id := range s.progressionsFor(selected, ctx) {
		progression[id] = true
	}

	for _, id := range candidates {
		p, err := s.catalog.Get(id)
		if err != nil {
			continue
		}
		score := 0.5
		if progression[id] {
			score += 0.3
		}
		score += s.scorer.ContextRelevance(p, ctx) * 0.2
		rankedCandidates = append(rankedCandidates, ranked{id: id, score: score})
	}
	sort.SliceStable(rankedCandidates, func(i, j int) bool {
		if rankedCandidates[i].score != rankedCandidates[j].score {
			return rankedCandidates[i].score > rankedCandidates[j].score
		}
		return rankedCandidates[i].id < rankedCandidates[j].id
	})

	var followUps []pattern.ID
	for _, rc := range rankedCandidates {
		if len(followUps) == maxFollowUps {
			break
		}
		followUps = append(followUps, rc.id)
	}

	logging.SelectionDebug("follow-ups for %s: %v", selected, followUps)
	return followUps
}

// progressionsFor applies the progression table with its context-sensitive
// rows: after definition-seeking the consistency/instantiation pair only
// makes sense once at least one definition is on record.
func (s *Selector) progressionsFor(selected pattern.ID, ctx *Context) []pattern.ID {
	if selected == pattern.DefinitionSeeking && len(ctx.Definitions) == 0 {
		return []pattern.ID{pattern.ClarificationProbing}
	}
	return progressions[selected]
}
