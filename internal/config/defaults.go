package config

// DefaultConfig returns the full default configuration, including the static
// scoring tables and the flow transition rule table.
func DefaultConfig() *Config {
	return &Config{
		Name:      "inquisit",
		Version:   "0.3.0",
		Workspace: ".",
		Scoring: ScoringConfig{
			GenericWeights: GenericWeights{
				ContextRelevance: 0.30,
				ExpertiseMatch:   0.20,
				FlowAppropriate:  0.25,
				Novelty:          0.10,
				Effectiveness:    0.10,
				StrategicValue:   0.05,
			},
			SelectionWeights: SelectionWeights{
				ContextRelevance: 0.30,
				ExpertiseMatch:   0.20,
				FlowAppropriate:  0.25,
				Effectiveness:    0.15,
				Freshness:        0.10,
			},
			PreferBonus:        0.20,
			ExpertiseTolerance: 1,
			NoveltyImportance:  0.8,
			StrategicBonuses: map[string]float64{
				"assumption_excavation": 0.20,
				"synthesis_building":    0.15,
				"definition_seeking":    0.10,
				"reflective_summary":    0.05,
			},
			ContextBonuses: map[string]map[string]float64{
				"debugging": {
					"evidence_probing":       0.20,
					"concrete_instantiation": 0.15,
					"assumption_excavation":  0.10,
				},
				"architecture": {
					"implication_tracing":  0.20,
					"constraint_surfacing": 0.15,
					"perspective_shifting": 0.10,
				},
				"requirements": {
					"definition_seeking":    0.20,
					"priority_probing":      0.15,
					"clarification_probing": 0.10,
				},
				"code_review": {
					"consistency_testing": 0.20,
					"evidence_probing":    0.10,
				},
				"problem_solving": {
					"assumption_excavation": 0.15,
					"priority_probing":      0.05,
				},
				"learning": {
					"concrete_instantiation": 0.20,
					"definition_seeking":     0.10,
				},
			},
			ProjectPhaseBonuses: map[string]map[string]float64{
				"inception": {
					"clarification_probing": 0.10,
					"perspective_shifting":  0.08,
				},
				"design": {
					"implication_tracing":  0.10,
					"constraint_surfacing": 0.08,
				},
				"implementation": {
					"concrete_instantiation": 0.10,
					"evidence_probing":       0.06,
				},
				"review": {
					"consistency_testing": 0.10,
					"reflective_summary":  0.08,
				},
			},
		},
		Learning: LearningConfig{
			Alpha:               0.2,
			InsightTarget:       3,
			DefaultSatisfaction: 3,
		},
		Flow: FlowConfig{
			AllowBackTransitions: true,
			Phases: map[string]PhaseConfig{
				"exploring": {
					PreferredPatterns: []string{"clarification_probing", "perspective_shifting", "priority_probing"},
					MaxTurns:          8,
					MinInsights:       2,
					SuccessCriteria:   []string{"problem space mapped", "key stakeholders named"},
				},
				"deepening": {
					PreferredPatterns: []string{"assumption_excavation", "evidence_probing", "constraint_surfacing"},
					MaxTurns:          10,
					MinInsights:       3,
					SuccessCriteria:   []string{"hidden assumptions surfaced", "evidence quality assessed"},
				},
				"clarifying": {
					PreferredPatterns: []string{"definition_seeking", "consistency_testing", "concrete_instantiation"},
					MaxTurns:          8,
					MinInsights:       3,
					SuccessCriteria:   []string{"key terms defined", "contradictions resolved"},
				},
				"synthesizing": {
					PreferredPatterns: []string{"synthesis_building", "implication_tracing"},
					MaxTurns:          6,
					MinInsights:       2,
					SuccessCriteria:   []string{"threads combined into a position"},
				},
				"concluding": {
					PreferredPatterns: []string{"reflective_summary"},
					MaxTurns:          4,
					MinInsights:       1,
					SuccessCriteria:   []string{"summary accepted by participant"},
				},
			},
			Transitions: []TransitionRule{
				{From: "exploring", To: "deepening", MinTurns: 2, MaxTurns: 10, BaseConfidence: 0.8,
					TriggerPatterns: []string{"assumption_excavation", "evidence_probing"}},
				{From: "exploring", To: "clarifying", MinTurns: 3, MaxTurns: 12, BaseConfidence: 0.6,
					TriggerPatterns: []string{"definition_seeking"}},
				{From: "deepening", To: "clarifying", MinTurns: 2, MaxTurns: 12, BaseConfidence: 0.75,
					TriggerPatterns: []string{"definition_seeking", "consistency_testing"}},
				{From: "deepening", To: "exploring", MinTurns: 1, BaseConfidence: 0.5,
					TriggerPatterns: []string{"clarification_probing"}},
				{From: "clarifying", To: "synthesizing", MinTurns: 2, MaxTurns: 10, BaseConfidence: 0.75,
					TriggerPatterns: []string{"synthesis_building", "implication_tracing"}},
				{From: "clarifying", To: "deepening", MinTurns: 1, BaseConfidence: 0.5,
					TriggerPatterns: []string{"assumption_excavation"}},
				{From: "synthesizing", To: "concluding", MinTurns: 2, MaxTurns: 8, BaseConfidence: 0.8,
					TriggerPatterns: []string{"reflective_summary"}},
				{From: "synthesizing", To: "clarifying", MinTurns: 1, BaseConfidence: 0.5,
					TriggerPatterns: []string{"consistency_testing"}},
			},
		},
		Store: StoreConfig{},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}
