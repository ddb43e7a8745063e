package learning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquisit/internal/pattern"
)

func newTestLearner() *Learner {
	return NewLearner(Config{Alpha: 0.2, InsightTarget: 3, DefaultSatisfaction: 3})
}

func testCtx() Context {
	return Context{Category: pattern.CategoryDebugging, Expertise: pattern.TierIntermediate}
}

func satisfied(v float64) *float64 { return &v }

func TestEffectiveness_NoRecordIsNeutral(t *testing.T) {
	l := newTestLearner()
	assert.Equal(t, 0.5, l.Effectiveness(pattern.EvidenceProbing, testCtx()))
	assert.Equal(t, 0, l.RecordCount())
}

func TestRecordOutcome_CreatesRecordLazily(t *testing.T) {
	l := newTestLearner()
	l.RecordOutcome(pattern.EvidenceProbing, testCtx(), Outcome{InsightsGenerated: 3})

	rec := l.Snapshot(pattern.EvidenceProbing, testCtx())
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.TimesUsed)
	// First sample fully replaces the seed in the incremental mean.
	assert.InDelta(t, 1.0, rec.AvgInsightQuality, 1e-9)
	assert.InDelta(t, 3.0, rec.AvgSatisfaction, 1e-9)
}

func TestRecordOutcome_InsightScoreCapped(t *testing.T) {
	l := newTestLearner()
	l.RecordOutcome(pattern.EvidenceProbing, testCtx(), Outcome{InsightsGenerated: 30})

	rec := l.Snapshot(pattern.EvidenceProbing, testCtx())
	require.NotNil(t, rec)
	assert.InDelta(t, 1.0, rec.AvgInsightQuality, 1e-9, "insight score must cap at 1")
}

func TestRecordOutcome_EMAFromNeutralSeed(t *testing.T) {
	l := newTestLearner()
	ctx := testCtx()
	// insightScore = min(3/3, 1) = 1.0; EMA: 0.5*0.8 + 1.0*0.2 = 0.6
	l.RecordOutcome(pattern.EvidenceProbing, ctx, Outcome{InsightsGenerated: 3})

	rec := l.Snapshot(pattern.EvidenceProbing, ctx)
	require.NotNil(t, rec)
	assert.InDelta(t, 0.6, rec.CategorySuccess[ctx.Category], 1e-9)
	assert.InDelta(t, 0.6, rec.ExpertiseSuccess[ctx.Expertise], 1e-9)
}

func TestRecordOutcome_DefaultSatisfaction(t *testing.T) {
	l := newTestLearner()
	ctx := testCtx()
	l.RecordOutcome(pattern.EvidenceProbing, ctx, Outcome{InsightsGenerated: 1})
	l.RecordOutcome(pattern.EvidenceProbing, ctx, Outcome{InsightsGenerated: 1, Satisfaction: satisfied(5)})

	rec := l.Snapshot(pattern.EvidenceProbing, ctx)
	require.NotNil(t, rec)
	// Mean of default 3 and explicit 5.
	assert.InDelta(t, 4.0, rec.AvgSatisfaction, 1e-9)
}

func TestEffectiveness_BlendedRead(t *testing.T) {
	l := newTestLearner()
	ctx := testCtx()
	l.RecordOutcome(pattern.EvidenceProbing, ctx, Outcome{InsightsGenerated: 3})

	// category EMA = 0.6, expertise EMA = 0.6, avg insight quality = 1.0
	got := l.Effectiveness(pattern.EvidenceProbing, ctx)
	assert.InDelta(t, (0.6+0.6+1.0)/3, got, 1e-9)
}

func TestLearning_BoundedAfterAnySequence(t *testing.T) {
	l := newTestLearner()
	ctx := testCtx()

	outcomes := []Outcome{
		{InsightsGenerated: 0},
		{InsightsGenerated: 100, Satisfaction: satisfied(5)},
		{InsightsGenerated: 0, Satisfaction: satisfied(1)},
		{InsightsGenerated: 2, FollowUpUsed: true},
		{InsightsGenerated: 7},
	}
	for i := 0; i < 50; i++ {
		l.RecordOutcome(pattern.AssumptionExcavation, ctx, outcomes[i%len(outcomes)])
	}

	rec := l.Snapshot(pattern.AssumptionExcavation, ctx)
	require.NotNil(t, rec)
	assert.GreaterOrEqual(t, rec.AvgInsightQuality, 0.0)
	assert.LessOrEqual(t, rec.AvgInsightQuality, 1.0)
	for _, v := range rec.CategorySuccess {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	for _, v := range rec.ExpertiseSuccess {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	eff := l.Effectiveness(pattern.AssumptionExcavation, ctx)
	assert.GreaterOrEqual(t, eff, 0.0)
	assert.LessOrEqual(t, eff, 1.0)
}

func TestRecordOutcome_KeysAreIndependent(t *testing.T) {
	l := newTestLearner()
	debugCtx := Context{Category: pattern.CategoryDebugging, Expertise: pattern.TierExpert}
	archCtx := Context{Category: pattern.CategoryArchitecture, Expertise: pattern.TierExpert}

	l.RecordOutcome(pattern.EvidenceProbing, debugCtx, Outcome{InsightsGenerated: 3})

	assert.NotEqual(t, 0.5, l.Effectiveness(pattern.EvidenceProbing, debugCtx))
	assert.Equal(t, 0.5, l.Effectiveness(pattern.EvidenceProbing, archCtx),
		"a different category key must stay neutral")
	assert.Equal(t, 1, l.RecordCount())
}

func TestRecordOutcome_ConcurrentUpdatesLoseNothing(t *testing.T) {
	l := newTestLearner()
	ctx := testCtx()

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				l.RecordOutcome(pattern.DefinitionSeeking, ctx, Outcome{InsightsGenerated: 2, FollowUpUsed: true})
			}
		}()
	}
	wg.Wait()

	rec := l.Snapshot(pattern.DefinitionSeeking, ctx)
	require.NotNil(t, rec)
	assert.Equal(t, goroutines*perGoroutine, rec.TimesUsed)
	assert.Equal(t, goroutines*perGoroutine, rec.SuccessfulFollowUps)
}

func TestSnapshot_IsACopy(t *testing.T) {
	l := newTestLearner()
	ctx := testCtx()
	l.RecordOutcome(pattern.DefinitionSeeking, ctx, Outcome{InsightsGenerated: 3})

	snap := l.Snapshot(pattern.DefinitionSeeking, ctx)
	require.NotNil(t, snap)
	snap.CategorySuccess[ctx.Category] = -99

	fresh := l.Snapshot(pattern.DefinitionSeeking, ctx)
	assert.NotEqual(t, -99.0, fresh.CategorySuccess[ctx.Category])
}
