package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquisit/internal/config"
	"inquisit/internal/flow"
	"inquisit/internal/learning"
	"inquisit/internal/pattern"
)

func newTestScorer() *Scorer {
	cfg := config.DefaultConfig()
	learner := learning.NewLearner(learning.Config{
		Alpha:               cfg.Learning.Alpha,
		InsightTarget:       cfg.Learning.InsightTarget,
		DefaultSatisfaction: cfg.Learning.DefaultSatisfaction,
	})
	return NewScorer(cfg.Scoring, cfg.Flow, learner)
}

func mustGet(t *testing.T, id pattern.ID) *pattern.Pattern {
	t.Helper()
	p, err := pattern.NewCatalog().Get(id)
	require.NoError(t, err)
	return p
}

func TestScoreBoundsAcrossAllInputs(t *testing.T) {
	scorer := newTestScorer()
	catalog := pattern.NewCatalog()

	categories := []pattern.Category{
		pattern.CategoryProblemSolving, pattern.CategoryArchitecture, pattern.CategoryDebugging,
		pattern.CategoryRequirements, pattern.CategoryCodeReview, pattern.CategoryLearning,
	}
	phases := []flow.Phase{
		flow.PhaseExploring, flow.PhaseDeepening, flow.PhaseClarifying,
		flow.PhaseSynthesizing, flow.PhaseConcluding,
	}

	checkBounds := func(t *testing.T, sp ScoredPattern) {
		t.Helper()
		for name, v := range map[string]float64{
			"contextRelevance": sp.Factors.ContextRelevance,
			"expertiseMatch":   sp.Factors.ExpertiseMatch,
			"flowAppropriate":  sp.Factors.FlowAppropriate,
			"freshness":        sp.Factors.Freshness,
			"effectiveness":    sp.Factors.Effectiveness,
			"strategicValue":   sp.Factors.StrategicValue,
			"total":            sp.Total,
		} {
			assert.GreaterOrEqual(t, v, 0.0, "%s for %s", name, sp.ID)
			assert.LessOrEqual(t, v, 1.0, "%s for %s", name, sp.ID)
		}
	}

	for _, category := range categories {
		for tier := pattern.TierBeginner; tier <= pattern.TierExpert; tier++ {
			for _, phase := range phases {
				for _, depth := range []int{0, 2, 6, 11} {
					ctx := &Context{
						Category: category, Expertise: tier, Phase: phase,
						Depth: depth, TurnCount: depth * 4, Focus: "why does the cache miss",
						RecentPatterns: []pattern.ID{pattern.EvidenceProbing, pattern.EvidenceProbing, pattern.EvidenceProbing, pattern.EvidenceProbing, pattern.EvidenceProbing, pattern.EvidenceProbing},
					}
					for _, p := range catalog.All() {
						checkBounds(t, scorer.Score(p, ctx))
						checkBounds(t, scorer.ScoreForSelection(p, ctx, &Constraints{Prefer: []pattern.ID{p.ID}}))
					}
				}
			}
		}
	}
}

func TestContextRelevance(t *testing.T) {
	scorer := newTestScorer()

	t.Run("category match gets the 0.8 base", func(t *testing.T) {
		ctx := debugContext()
		p := mustGet(t, pattern.ClarificationProbing) // no debugging bonus entry
		relevance, _ := scorer.contextRelevance(p, ctx)
		assert.InDelta(t, 0.8, relevance, 1e-9)
	})

	t.Run("mismatch gets the 0.2 base", func(t *testing.T) {
		ctx := debugContext()
		ctx.Category = pattern.CategoryLearning
		p := mustGet(t, pattern.ConsistencyTesting)
		relevance, _ := scorer.contextRelevance(p, ctx)
		assert.InDelta(t, 0.2, relevance, 1e-9)
	})

	t.Run("context bonus table adds on top", func(t *testing.T) {
		ctx := debugContext()
		p := mustGet(t, pattern.EvidenceProbing) // debugging bonus 0.20
		relevance, _ := scorer.contextRelevance(p, ctx)
		assert.InDelta(t, 1.0, relevance, 1e-9, "0.8 base + 0.2 bonus capped at 1")
	})

	t.Run("focus keyword overlap is capped at 0.1", func(t *testing.T) {
		ctx := debugContext()
		ctx.Category = pattern.CategoryLearning
		ctx.Focus = "what evidence and observation and symptom support this"
		p := mustGet(t, pattern.EvidenceProbing)
		relevance, _ := scorer.contextRelevance(p, ctx)
		assert.InDelta(t, 0.2+0.1, relevance, 1e-9)
	})
}

func TestExpertiseMatch(t *testing.T) {
	scorer := newTestScorer()
	advanced := mustGet(t, pattern.ImplicationTracing) // min tier: advanced

	cases := []struct {
		tier pattern.ExpertiseTier
		want float64
	}{
		{pattern.TierAdvanced, 1.0},     // distance 0
		{pattern.TierExpert, 0.8},       // distance 1, in tolerance
		{pattern.TierIntermediate, 0.8}, // distance 1 the other way
		{pattern.TierBeginner, 0.2},     // distance 2: 0.3 - 0.1
	}
	for _, tc := range cases {
		ctx := debugContext()
		ctx.Expertise = tc.tier
		assert.InDelta(t, tc.want, scorer.expertiseMatch(advanced, ctx), 1e-9, "tier %s", tc.tier)
	}
}

func TestFlowAppropriateness(t *testing.T) {
	scorer := newTestScorer()

	t.Run("preferred pattern in phase", func(t *testing.T) {
		ctx := debugContext()
		ctx.Phase = flow.PhaseDeepening
		ctx.Depth = 4
		p := mustGet(t, pattern.EvidenceProbing)
		assert.InDelta(t, 0.9, scorer.flowAppropriateness(p, ctx), 1e-9)
	})

	t.Run("shallow depth nudges exploration patterns up", func(t *testing.T) {
		ctx := debugContext()
		ctx.Phase = flow.PhaseDeepening
		ctx.Depth = 1
		p := mustGet(t, pattern.PerspectiveShifting) // exploring affinity, not preferred in deepening
		assert.InDelta(t, 0.45, scorer.flowAppropriateness(p, ctx), 1e-9)
	})

	t.Run("late dialogue favors concluding patterns", func(t *testing.T) {
		ctx := debugContext()
		ctx.Phase = flow.PhaseConcluding
		ctx.Depth = 4
		ctx.TurnCount = 25
		p := mustGet(t, pattern.ReflectiveSummary)
		assert.InDelta(t, 1.0, scorer.flowAppropriateness(p, ctx), 1e-9, "0.9 preferred + 0.1 capped")
	})
}

func TestFreshnessDecreasesWithUsage(t *testing.T) {
	scorer := newTestScorer()

	previous := 2.0
	for uses := 0; uses <= 6; uses++ {
		ctx := debugContext()
		for i := 0; i < uses; i++ {
			ctx.RecentPatterns = append(ctx.RecentPatterns, pattern.EvidenceProbing)
		}
		fresh := scorer.selectionFreshness(pattern.EvidenceProbing, ctx)
		assert.LessOrEqual(t, fresh, previous, "freshness must not rise with usage")
		assert.GreaterOrEqual(t, fresh, 0.1, "floor holds")
		previous = fresh
	}

	t.Run("exact penalty steps", func(t *testing.T) {
		assert.InDelta(t, 1.0, rawFreshness(0, freshnessPenaltyPerUse), 1e-9)
		assert.InDelta(t, 0.7, rawFreshness(1, freshnessPenaltyPerUse), 1e-9)
		assert.InDelta(t, 0.1, rawFreshness(3, freshnessPenaltyPerUse), 1e-9)
		assert.InDelta(t, 0.1, rawFreshness(10, freshnessPenaltyPerUse), 1e-9, "floored")
		assert.InDelta(t, 0.8, rawFreshness(1, noveltyPenaltyPerUse), 1e-9)
	})
}

func TestBlendedNovelty(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scoring.NoveltyImportance = 0
	scorer := NewScorer(cfg.Scoring, cfg.Flow, learning.NewLearner(learning.Config{}))
	assert.InDelta(t, 0.5, scorer.blendedNovelty(0.1), 1e-9, "zero importance means neutral")

	cfg.Scoring.NoveltyImportance = 1
	scorer = NewScorer(cfg.Scoring, cfg.Flow, learning.NewLearner(learning.Config{}))
	assert.InDelta(t, 0.1, scorer.blendedNovelty(0.1), 1e-9, "full importance passes raw signal")
}

func TestStrategicValue(t *testing.T) {
	scorer := newTestScorer()

	t.Run("per-pattern bonus table", func(t *testing.T) {
		ctx := debugContext()
		ctx.Concepts = []string{"cache"}
		p := mustGet(t, pattern.AssumptionExcavation)
		assert.InDelta(t, 0.7, scorer.strategicValue(p, ctx), 1e-9, "0.5 base + 0.2 bonus")
	})

	t.Run("gap bonus when nothing surfaced yet", func(t *testing.T) {
		ctx := debugContext()
		p := mustGet(t, pattern.AssumptionExcavation)
		require.True(t, p.SurfacesFoundations)
		assert.InDelta(t, 0.8, scorer.strategicValue(p, ctx), 1e-9, "0.5 + 0.2 + 0.1 gap")
	})
}

func TestPreferBonus(t *testing.T) {
	scorer := newTestScorer()
	ctx := debugContext()
	p := mustGet(t, pattern.PriorityProbing)

	plain := scorer.ScoreForSelection(p, ctx, nil)
	preferred := scorer.ScoreForSelection(p, ctx, &Constraints{Prefer: []pattern.ID{pattern.PriorityProbing}})

	assert.InDelta(t, plain.Total+0.20, preferred.Total, 1e-9)
	assert.LessOrEqual(t, preferred.Total, 1.0)
}

func TestEffectivenessFactorReflectsLearning(t *testing.T) {
	cfg := config.DefaultConfig()
	learner := learning.NewLearner(learning.Config{})
	scorer := NewScorer(cfg.Scoring, cfg.Flow, learner)
	ctx := debugContext()
	p := mustGet(t, pattern.EvidenceProbing)

	before := scorer.Score(p, ctx).Factors.Effectiveness
	assert.Equal(t, 0.5, before, "neutral default with no records")

	for i := 0; i < 5; i++ {
		learner.RecordOutcome(pattern.EvidenceProbing,
			learning.Context{Category: ctx.Category, Expertise: ctx.Expertise},
			learning.Outcome{InsightsGenerated: 5})
	}
	after := scorer.Score(p, ctx).Factors.Effectiveness
	assert.Greater(t, after, before, "strong outcomes raise the effectiveness factor")
}
