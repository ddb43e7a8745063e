package pattern

// builtinPatterns returns the predefined Socratic question patterns.
// Phase affinity strings match the flow package's phase names; the catalog
// stays decoupled from internal/flow to avoid an import cycle.
func builtinPatterns() []Pattern {
	return []Pattern{
		{
			ID:          DefinitionSeeking,
			Name:        "Definition Seeking",
			Template:    "When you say %q, what exactly do you mean by that?",
			Description: "Pins down the meaning of a key term before building on it",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryRequirements, CategoryLearning,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      3,
			PhaseAffinity: "clarifying",
			Keywords:      []string{"definition", "meaning", "term", "concept"},
			FollowUps: []FollowUp{
				{Pattern: ConsistencyTesting, Priority: 0.8},
				{Pattern: ConcreteInstantiation, Priority: 0.7},
				{Pattern: AssumptionExcavation, Priority: 0.5},
			},
			SurfacesFoundations: true,
		},
		{
			ID:          AssumptionExcavation,
			Name:        "Assumption Excavation",
			Template:    "What are you taking for granted when you claim %q?",
			Description: "Surfaces the unstated premises behind a position",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryDebugging, CategoryRequirements,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      5,
			PhaseAffinity: "deepening",
			Keywords:      []string{"assumption", "premise", "granted", "implicit"},
			FollowUps: []FollowUp{
				{Pattern: EvidenceProbing, Priority: 0.9},
				{Pattern: ImplicationTracing, Priority: 0.6},
				{Pattern: PerspectiveShifting, Priority: 0.4},
			},
			SurfacesFoundations: true,
		},
		{
			ID:          EvidenceProbing,
			Name:        "Evidence Probing",
			Template:    "What evidence supports %s, and how strong is it?",
			Description: "Tests whether a claim rests on observation or conjecture",
			Categories: []Category{
				CategoryProblemSolving, CategoryDebugging, CategoryCodeReview,
			},
			MinExpertise:  TierIntermediate,
			MaxDepth:      6,
			PhaseAffinity: "deepening",
			Keywords:      []string{"evidence", "data", "proof", "observation", "measure"},
			FollowUps: []FollowUp{
				{Pattern: ConsistencyTesting, Priority: 0.7},
				{Pattern: ImplicationTracing, Priority: 0.65},
			},
		},
		{
			ID:          ConsistencyTesting,
			Name:        "Consistency Testing",
			Template:    "Earlier you said %s. How does that square with %s?",
			Description: "Holds two statements side by side and asks whether both can stand",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryCodeReview, CategoryRequirements,
			},
			MinExpertise:  TierIntermediate,
			MaxDepth:      6,
			PhaseAffinity: "clarifying",
			Keywords:      []string{"consistency", "contradiction", "conflict", "square"},
			FollowUps: []FollowUp{
				{Pattern: DefinitionSeeking, Priority: 0.65},
				{Pattern: SynthesisBuilding, Priority: 0.6},
			},
		},
		{
			ID:          ConcreteInstantiation,
			Name:        "Concrete Instantiation",
			Template:    "Can you walk me through a specific example of %s?",
			Description: "Grounds an abstraction in a concrete case",
			Categories: []Category{
				CategoryProblemSolving, CategoryDebugging, CategoryLearning, CategoryRequirements,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      4,
			PhaseAffinity: "clarifying",
			Keywords:      []string{"example", "concrete", "instance", "specific", "walkthrough"},
			FollowUps: []FollowUp{
				{Pattern: EvidenceProbing, Priority: 0.7},
				{Pattern: ConsistencyTesting, Priority: 0.5},
			},
		},
		{
			ID:          PerspectiveShifting,
			Name:        "Perspective Shifting",
			Template:    "How would %s look from the standpoint of %s?",
			Description: "Re-frames the question from another stakeholder's viewpoint",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryRequirements, CategoryLearning,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      4,
			PhaseAffinity: "exploring",
			Keywords:      []string{"perspective", "viewpoint", "stakeholder", "angle"},
			FollowUps: []FollowUp{
				{Pattern: AssumptionExcavation, Priority: 0.75},
				{Pattern: PriorityProbing, Priority: 0.55},
			},
			SurfacesFoundations: true,
		},
		{
			ID:          ImplicationTracing,
			Name:        "Implication Tracing",
			Template:    "If %s holds, what follows from it?",
			Description: "Chases a position to its downstream consequences",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryCodeReview,
			},
			MinExpertise:  TierAdvanced,
			MaxDepth:      8,
			PhaseAffinity: "synthesizing",
			Keywords:      []string{"implication", "consequence", "follows", "downstream"},
			FollowUps: []FollowUp{
				{Pattern: SynthesisBuilding, Priority: 0.8},
				{Pattern: ConsistencyTesting, Priority: 0.6},
			},
		},
		{
			ID:          ClarificationProbing,
			Name:        "Clarification Probing",
			Template:    "Tell me more about %s. What is the part that matters most?",
			Description: "Opens up a vague statement before committing to a direction",
			Categories: []Category{
				CategoryProblemSolving, CategoryDebugging, CategoryLearning,
				CategoryRequirements, CategoryArchitecture, CategoryCodeReview,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      2,
			PhaseAffinity: "exploring",
			Keywords:      []string{"clarify", "elaborate", "vague", "detail"},
			FollowUps: []FollowUp{
				{Pattern: DefinitionSeeking, Priority: 0.8},
				{Pattern: ConcreteInstantiation, Priority: 0.7},
			},
			SurfacesFoundations: true,
		},
		{
			ID:          SynthesisBuilding,
			Name:        "Synthesis Building",
			Template:    "Putting together %s and %s, what picture emerges?",
			Description: "Combines established threads into a coherent position",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryRequirements,
			},
			MinExpertise:  TierAdvanced,
			MaxDepth:      10,
			PhaseAffinity: "synthesizing",
			Keywords:      []string{"synthesis", "combine", "together", "coherent"},
			FollowUps: []FollowUp{
				{Pattern: ReflectiveSummary, Priority: 0.85},
				{Pattern: ImplicationTracing, Priority: 0.5},
			},
		},
		{
			ID:          PriorityProbing,
			Name:        "Priority Probing",
			Template:    "Of everything we have touched on, what matters most and why?",
			Description: "Forces an explicit ordering of competing concerns",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryRequirements,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      3,
			PhaseAffinity: "exploring",
			Keywords:      []string{"priority", "matters", "ranking", "tradeoff"},
			FollowUps: []FollowUp{
				{Pattern: ConstraintSurfacing, Priority: 0.7},
				{Pattern: ImplicationTracing, Priority: 0.5},
			},
		},
		{
			ID:          ConstraintSurfacing,
			Name:        "Constraint Surfacing",
			Template:    "What constraints are you operating under that we have not named yet?",
			Description: "Brings hidden limits (time, budget, compatibility) into view",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryDebugging, CategoryRequirements,
			},
			MinExpertise:  TierIntermediate,
			MaxDepth:      5,
			PhaseAffinity: "deepening",
			Keywords:      []string{"constraint", "limit", "budget", "deadline", "compatibility"},
			FollowUps: []FollowUp{
				{Pattern: PriorityProbing, Priority: 0.75},
				{Pattern: ConsistencyTesting, Priority: 0.55},
			},
		},
		{
			ID:          ReflectiveSummary,
			Name:        "Reflective Summary",
			Template:    "Here is what I heard: %s. What would you correct or add?",
			Description: "Plays the dialogue back and invites correction before closing",
			Categories: []Category{
				CategoryProblemSolving, CategoryArchitecture, CategoryDebugging,
				CategoryRequirements, CategoryCodeReview, CategoryLearning,
			},
			MinExpertise:  TierBeginner,
			MaxDepth:      12,
			PhaseAffinity: "concluding",
			Keywords:      []string{"summary", "recap", "correct", "closing"},
			FollowUps: []FollowUp{
				{Pattern: SynthesisBuilding, Priority: 0.4},
			},
		},
	}
}
