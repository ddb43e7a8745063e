// Package pattern defines the read-only catalog of Socratic question patterns.
// Patterns are immutable once loaded; all selection logic lives in internal/selection.
package pattern

// ID identifies a question pattern in the catalog.
type ID string

// Built-in pattern identifiers.
const (
	DefinitionSeeking     ID = "definition_seeking"
	AssumptionExcavation  ID = "assumption_excavation"
	EvidenceProbing       ID = "evidence_probing"
	ConsistencyTesting    ID = "consistency_testing"
	ConcreteInstantiation ID = "concrete_instantiation"
	PerspectiveShifting   ID = "perspective_shifting"
	ImplicationTracing    ID = "implication_tracing"
	ClarificationProbing  ID = "clarification_probing"
	SynthesisBuilding     ID = "synthesis_building"
	PriorityProbing       ID = "priority_probing"
	ConstraintSurfacing   ID = "constraint_surfacing"
	ReflectiveSummary     ID = "reflective_summary"
)

// Category is the conversational context a pattern applies to.
type Category string

const (
	CategoryProblemSolving Category = "problem_solving"
	CategoryArchitecture   Category = "architecture"
	CategoryDebugging      Category = "debugging"
	CategoryRequirements   Category = "requirements"
	CategoryCodeReview     Category = "code_review"
	CategoryLearning       Category = "learning"
)

// ExpertiseTier is the ordinal user expertise level. Comparisons are a total order.
type ExpertiseTier int

const (
	TierBeginner ExpertiseTier = iota
	TierIntermediate
	TierAdvanced
	TierExpert
)

var tierNames = map[ExpertiseTier]string{
	TierBeginner:     "beginner",
	TierIntermediate: "intermediate",
	TierAdvanced:     "advanced",
	TierExpert:       "expert",
}

// String returns the lowercase tier name.
func (t ExpertiseTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTier maps a tier name to its ordinal. Unknown names default to beginner,
// which is the most restrictive eligibility gate.
func ParseTier(name string) ExpertiseTier {
	for tier, n := range tierNames {
		if n == name {
			return tier
		}
	}
	return TierBeginner
}

// Distance returns the absolute ordinal distance between two tiers.
func (t ExpertiseTier) Distance(other ExpertiseTier) int {
	d := int(t) - int(other)
	if d < 0 {
		return -d
	}
	return d
}

// ProjectPhase is the coarse phase of the project the dialogue is about,
// distinct from the conversational flow phase.
type ProjectPhase string

const (
	ProjectInception      ProjectPhase = "inception"
	ProjectDesign         ProjectPhase = "design"
	ProjectImplementation ProjectPhase = "implementation"
	ProjectReview         ProjectPhase = "review"
)

// FollowUp is a candidate follow-up pattern declared by the catalog,
// weighted by priority in [0,1].
type FollowUp struct {
	Pattern  ID
	Priority float64
}

// Pattern is a reusable question strategy with eligibility metadata
// and follow-up suggestions. Immutable once loaded.
type Pattern struct {
	ID          ID
	Name        string
	Template    string
	Description string

	// Eligibility
	Categories   []Category
	MinExpertise ExpertiseTier
	MaxDepth     int

	// Selection hints
	PhaseAffinity       string // flow phase this pattern naturally belongs to
	Keywords            []string
	FollowUps           []FollowUp
	SurfacesFoundations bool // suited to surfacing initial concepts/assumptions
}

// AppliesTo reports whether the pattern's category set contains c.
func (p *Pattern) AppliesTo(c Category) bool {
	for _, pc := range p.Categories {
		if pc == c {
			return true
		}
	}
	return false
}
