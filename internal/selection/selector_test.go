package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquisit/internal/pattern"
)

func newTestSelector() *Selector {
	return NewSelector(pattern.NewCatalog(), newTestScorer())
}

func TestSelectBest(t *testing.T) {
	selector := newTestSelector()

	t.Run("returns the top pattern with at most three alternatives", func(t *testing.T) {
		result, err := selector.SelectBest(debugContext(), nil)
		require.NoError(t, err)

		assert.NotEmpty(t, result.Selected.ID)
		assert.Equal(t, result.Selected.Total, result.Confidence)
		assert.LessOrEqual(t, len(result.Alternatives), maxAlternatives)
		assert.LessOrEqual(t, len(result.FollowUps), maxFollowUps)

		previous := result.Selected.Total
		for _, alt := range result.Alternatives {
			assert.LessOrEqual(t, alt.Total, previous, "alternatives sorted descending")
			assert.NotEqual(t, result.Selected.ID, alt.ID)
			previous = alt.Total
		}
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		first, err := selector.SelectBest(debugContext(), nil)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := selector.SelectBest(debugContext(), nil)
			require.NoError(t, err)
			assert.Equal(t, first.Selected.ID, again.Selected.ID)
		}
	})

	t.Run("prefer list can override the natural winner", func(t *testing.T) {
		baseline, err := selector.SelectBest(debugContext(), nil)
		require.NoError(t, err)

		var runnerUp pattern.ID
		for _, alt := range baseline.Alternatives {
			runnerUp = alt.ID
			break
		}
		require.NotEmpty(t, runnerUp)

		boosted, err := selector.SelectBest(debugContext(), &Constraints{Prefer: []pattern.ID{runnerUp}})
		require.NoError(t, err)
		assert.Equal(t, runnerUp, boosted.Selected.ID)
	})

	t.Run("excluding the whole catalog fails loudly", func(t *testing.T) {
		var all []pattern.ID
		for _, p := range pattern.NewCatalog().All() {
			all = append(all, p.ID)
		}
		result, err := selector.SelectBest(debugContext(), &Constraints{Exclude: all})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNoEligiblePatterns)
	})

	t.Run("selection does not mutate the context", func(t *testing.T) {
		ctx := debugContext()
		ctx.RecentPatterns = []pattern.ID{pattern.EvidenceProbing}
		_, err := selector.SelectBest(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []pattern.ID{pattern.EvidenceProbing}, ctx.RecentPatterns,
			"recording into the session log is the caller's job")
	})
}

func TestSuggestFollowUps(t *testing.T) {
	selector := newTestSelector()

	t.Run("merges catalog follow-ups with the progression table", func(t *testing.T) {
		ctx := debugContext()
		followUps := selector.SuggestFollowUps(pattern.AssumptionExcavation, ctx)

		require.NotEmpty(t, followUps)
		assert.LessOrEqual(t, len(followUps), maxFollowUps)
		assert.Contains(t, followUps, pattern.EvidenceProbing,
			"high-priority catalog follow-up that also continues the progression")
		assert.NotContains(t, followUps, pattern.PerspectiveShifting,
			"0.4 priority is below the cutoff and not a progression")
	})

	t.Run("never suggests the pattern itself", func(t *testing.T) {
		for _, p := range pattern.NewCatalog().All() {
			assert.NotContains(t, selector.SuggestFollowUps(p.ID, debugContext()), p.ID)
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		for _, p := range pattern.NewCatalog().All() {
			followUps := selector.SuggestFollowUps(p.ID, debugContext())
			seen := make(map[pattern.ID]bool)
			for _, id := range followUps {
				assert.False(t, seen[id], "%s suggested twice after %s", id, p.ID)
				seen[id] = true
			}
		}
	})

	t.Run("definition seeking branches on known definitions", func(t *testing.T) {
		ctx := debugContext()
		bare := selector.SuggestFollowUps(pattern.DefinitionSeeking, ctx)
		assert.Contains(t, bare, pattern.ClarificationProbing,
			"without definitions on record, circle back to clarification")

		ctx.Definitions = []string{"latency budget: p99 under 200ms"}
		informed := selector.SuggestFollowUps(pattern.DefinitionSeeking, ctx)
		assert.Contains(t, informed, pattern.ConsistencyTesting)
		assert.Contains(t, informed, pattern.ConcreteInstantiation)
	})
}
