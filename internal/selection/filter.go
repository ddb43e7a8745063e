package selection

import (
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

// Eligible applies the four eligibility rules (plus the optional freshness
// constraint) to the full catalog. An empty result is returned as-is; the
// selector turns it into ErrNoEligiblePatterns.
func Eligible(catalog *pattern.Catalog, ctx *Context, constraints *Constraints) []*pattern.Pattern {
	var eligible []*pattern.Pattern

	for _, p := range catalog.All() {
		if ctx.Expertise < p.MinExpertise {
			continue
		}
		if !p.AppliesTo(ctx.Category) {
			continue
		}
		if constraints != nil && constraints.MaxDepth > 0 && ctx.Depth >= constraints.MaxDepth && p.MaxDepth > constraints.MaxDepth {
			continue
		}
		if constraints.excluded(p.ID) {
			continue
		}
		if constraints != nil && constraints.RequireFresh && ctx.RecentUsageCount(p.ID) > 0 {
			continue
		}
		eligible = append(eligible, p)
	}

	logging.SelectionDebug("eligibility: %d of %d patterns pass (category=%s, expertise=%s, depth=%d)",
		len(eligible), catalog.Len(), ctx.Category, ctx.Expertise, ctx.Depth)
	return eligible
}
