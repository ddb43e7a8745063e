// Package learning maintains per-(pattern, category, expertise) outcome
// statistics that feed the scoring engine's effectiveness factor.
//
// The learning loop:
// Select -> Ask -> Observe outcome -> RecordOutcome -> better future scores
//
// This is deliberately not model training. Every estimate is a bounded moving
// average over [0,1], updated by atomic single-record read-modify-write under
// one lock, so concurrent sessions never lose increments.
package learning

import (
	"math"
	"sync"

	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

// Key is the composite key for effectiveness records. The learner map is the
// only structure shared across sessions; it is keyed by pattern and context,
// never by session.
type Key struct {
	Pattern   pattern.ID
	Category  pattern.Category
	Expertise pattern.ExpertiseTier
}

// Record holds the learned statistics for one key. Created lazily with
// neutral defaults on first use; lives for the process lifetime.
type Record struct {
	TimesUsed           int                               `json:"times_used"`
	AvgInsightQuality   float64                           `json:"avg_insight_quality"`
	AvgSatisfaction     float64                           `json:"avg_satisfaction"`
	SuccessfulFollowUps int                               `json:"successful_follow_ups"`
	CategorySuccess     map[pattern.Category]float64      `json:"category_success"`
	ExpertiseSuccess    map[pattern.ExpertiseTier]float64 `json:"expertise_success"`
}

// Outcome describes what happened after a selected question was asked.
type Outcome struct {
	// Satisfaction is the user's 1-5 rating; nil when not supplied.
	Satisfaction *float64

	// InsightsGenerated is the number of insights the turn produced.
	InsightsGenerated int

	// FollowUpUsed reports whether a suggested follow-up was actually asked.
	FollowUpUsed bool
}

// Context is the slice of selection context the learner keys on.
type Context struct {
	Category  pattern.Category
	Expertise pattern.ExpertiseTier
}

// neutralScore is the default for every estimate before any data arrives.
const neutralScore = 0.5

// Learner owns the shared effectiveness map.
type Learner struct {
	mu      sync.RWMutex
	records map[Key]*Record

	alpha               float64 // EMA smoothing rate
	insightTarget       float64 // insights treated as a full-quality turn
	defaultSatisfaction float64 // substituted when a rating is absent
}

// Config carries the learner's tunables.
type Config struct {
	Alpha               float64
	InsightTarget       int
	DefaultSatisfaction float64
}

// NewLearner creates a learner with the given tunables.
// Zero values fall back to alpha=0.2, target=3, satisfaction=3.
func NewLearner(cfg Config) *Learner {
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = 0.2
	}
	if cfg.InsightTarget <= 0 {
		cfg.InsightTarget = 3
	}
	if cfg.DefaultSatisfaction <= 0 {
		cfg.DefaultSatisfaction = 3
	}
	return &Learner{
		records:             make(map[Key]*Record),
		alpha:               cfg.Alpha,
		insightTarget:       float64(cfg.InsightTarget),
		defaultSatisfaction: cfg.DefaultSatisfaction,
	}
}

// RecordOutcome folds one turn outcome into the record for (pattern, context).
// The whole update happens under the write lock: it is a single atomic
// read-modify-write, so a request-level cancellation can never observe a
// half-applied update.
func (l *Learner) RecordOutcome(id pattern.ID, ctx Context, outcome Outcome) {
	insightScore := math.Min(float64(outcome.InsightsGenerated)/l.insightTarget, 1.0)
	satisfaction := l.defaultSatisfaction
	if outcome.Satisfaction != nil {
		satisfaction = clamp(*outcome.Satisfaction, 1, 5)
	}

	key := Key{Pattern: id, Category: ctx.Category, Expertise: ctx.Expertise}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		rec = l.newNeutralRecord()
		l.records[key] = rec
		logging.LearningDebug("new effectiveness record: pattern=%s category=%s expertise=%s",
			id, ctx.Category, ctx.Expertise)
	}

	rec.TimesUsed++
	n := float64(rec.TimesUsed)

	// Incremental means over times-used.
	rec.AvgInsightQuality = (rec.AvgInsightQuality*(n-1) + insightScore) / n
	rec.AvgSatisfaction = (rec.AvgSatisfaction*(n-1) + satisfaction) / n

	if outcome.FollowUpUsed {
		rec.SuccessfulFollowUps++
	}

	// Exponential smoothing of the context-specific success estimates,
	// seeding absent entries from the neutral default.
	rec.CategorySuccess[ctx.Category] = l.ema(lookupOr(rec.CategorySuccess, ctx.Category, neutralScore), insightScore)
	rec.ExpertiseSuccess[ctx.Expertise] = l.ema(lookupTierOr(rec.ExpertiseSuccess, ctx.Expertise, neutralScore), insightScore)

	logging.LearningDebug("outcome recorded: pattern=%s uses=%d insightScore=%.2f avgQuality=%.2f avgSatisfaction=%.2f",
		id, rec.TimesUsed, insightScore, rec.AvgInsightQuality, rec.AvgSatisfaction)
}

// Effectiveness returns the blended estimate for (pattern, context):
// the mean of category-specific success, expertise-specific success, and
// overall average insight quality. Pure read; 0.5 when no record exists.
func (l *Learner) Effectiveness(id pattern.ID, ctx Context) float64 {
	key := Key{Pattern: id, Category: ctx.Category, Expertise: ctx.Expertise}

	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[key]
	if !ok {
		return neutralScore
	}

	catScore := lookupOr(rec.CategorySuccess, ctx.Category, neutralScore)
	expScore := lookupTierOr(rec.ExpertiseSuccess, ctx.Expertise, neutralScore)

	return clamp((catScore+expScore+rec.AvgInsightQuality)/3, 0, 1)
}

// Snapshot returns a copy of the record for inspection, or nil if absent.
func (l *Learner) Snapshot(id pattern.ID, ctx Context) *Record {
	key := Key{Pattern: id, Category: ctx.Category, Expertise: ctx.Expertise}

	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[key]
	if !ok {
		return nil
	}

	cp := *rec
	cp.CategorySuccess = make(map[pattern.Category]float64, len(rec.CategorySuccess))
	for k, v := range rec.CategorySuccess {
		cp.CategorySuccess[k] = v
	}
	cp.ExpertiseSuccess = make(map[pattern.ExpertiseTier]float64, len(rec.ExpertiseSuccess))
	for k, v := range rec.ExpertiseSuccess {
		cp.ExpertiseSuccess[k] = v
	}
	return &cp
}

// RecordCount returns the number of distinct keys learned so far.
func (l *Learner) RecordCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// ema applies new = old*(1-alpha) + sample*alpha.
func (l *Learner) ema(old, sample float64) float64 {
	return clamp(old*(1-l.alpha)+sample*l.alpha, 0, 1)
}

// newNeutralRecord seeds a record with neutral estimates. The running means
// overwrite these on the first sample (n=1), so the seeds only matter for
// reads that happen before any outcome lands.
func (l *Learner) newNeutralRecord() *Record {
	return &Record{
		AvgInsightQuality: neutralScore,
		AvgSatisfaction:   l.defaultSatisfaction,
		CategorySuccess:   make(map[pattern.Category]float64),
		ExpertiseSuccess:  make(map[pattern.ExpertiseTier]float64),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lookupOr(m map[pattern.Category]float64, k pattern.Category, def float64) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}

func lookupTierOr(m map[pattern.ExpertiseTier]float64, k pattern.ExpertiseTier, def float64) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}
