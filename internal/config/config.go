// Package config holds all inquisit configuration.
// Static lookup tables (scoring weights, phase preferences, transition rules)
// load once here and are passed into component constructors as immutable data.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all inquisit configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Workspace root for logs and the session database
	Workspace string `yaml:"workspace"`

	Scoring  ScoringConfig  `yaml:"scoring"`
	Learning LearningConfig `yaml:"learning"`
	Flow     FlowConfig     `yaml:"flow"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ScoringConfig configures the pattern scoring engine.
// Both weight sets must be overridable without touching the algorithm.
type ScoringConfig struct {
	// GenericWeights applies to the six-factor scorer.
	GenericWeights GenericWeights `yaml:"generic_weights"`

	// SelectionWeights applies to the selection-time formula.
	SelectionWeights SelectionWeights `yaml:"selection_weights"`

	// PreferBonus is added when a pattern is in the caller's prefer list.
	PreferBonus float64 `yaml:"prefer_bonus"`

	// ExpertiseTolerance is the ordinal distance still considered in-tolerance.
	ExpertiseTolerance int `yaml:"expertise_tolerance"`

	// NoveltyImportance blends the raw freshness score with a neutral 0.5.
	// 1.0 means full freshness signal, 0.0 means freshness is ignored.
	NoveltyImportance float64 `yaml:"novelty_importance"`

	// StrategicBonuses maps pattern ID to an additive strategic-value bonus.
	StrategicBonuses map[string]float64 `yaml:"strategic_bonuses"`

	// ContextBonuses maps category -> pattern ID -> additive relevance bonus (0.05-0.2).
	ContextBonuses map[string]map[string]float64 `yaml:"context_bonuses"`

	// ProjectPhaseBonuses maps project phase -> pattern ID -> additive bonus (0.06-0.1).
	ProjectPhaseBonuses map[string]map[string]float64 `yaml:"project_phase_bonuses"`
}

// GenericWeights are the six-factor weights. They should sum to 1.0.
type GenericWeights struct {
	ContextRelevance float64 `yaml:"context_relevance"`
	ExpertiseMatch   float64 `yaml:"expertise_match"`
	FlowAppropriate  float64 `yaml:"flow_appropriate"`
	Novelty          float64 `yaml:"novelty"`
	Effectiveness    float64 `yaml:"effectiveness"`
	StrategicValue   float64 `yaml:"strategic_value"`
}

// SelectionWeights are the selection-time weights. They should sum to 1.0.
type SelectionWeights struct {
	ContextRelevance float64 `yaml:"context_relevance"`
	ExpertiseMatch   float64 `yaml:"expertise_match"`
	FlowAppropriate  float64 `yaml:"flow_appropriate"`
	Effectiveness    float64 `yaml:"effectiveness"`
	Freshness        float64 `yaml:"freshness"`
}

// LearningConfig configures the effectiveness learner.
type LearningConfig struct {
	// Alpha is the exponential smoothing rate for category/expertise averages.
	Alpha float64 `yaml:"alpha"`

	// InsightTarget is the insight count treated as a full-quality turn.
	InsightTarget int `yaml:"insight_target"`

	// DefaultSatisfaction substitutes for an absent satisfaction rating (1-5 scale).
	DefaultSatisfaction float64 `yaml:"default_satisfaction"`
}

// PhaseConfig configures one conversational flow phase.
type PhaseConfig struct {
	PreferredPatterns []string `yaml:"preferred_patterns"`
	MaxTurns          int      `yaml:"max_turns"`
	MinInsights       int      `yaml:"min_insights"`
	SuccessCriteria   []string `yaml:"success_criteria"` // descriptive only, not enforced
}

// TransitionRule describes one allowed cross-phase transition.
type TransitionRule struct {
	From            string   `yaml:"from"`
	To              string   `yaml:"to"`
	MinTurns        int      `yaml:"min_turns"`
	MaxTurns        int      `yaml:"max_turns"` // 0 means no upper bound
	BaseConfidence  float64  `yaml:"base_confidence"`
	TriggerPatterns []string `yaml:"trigger_patterns"`
}

// FlowConfig configures the flow state machine.
type FlowConfig struct {
	Phases               map[string]PhaseConfig `yaml:"phases"`
	Transitions          []TransitionRule       `yaml:"transitions"`
	AllowBackTransitions bool                   `yaml:"allow_back_transitions"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// Load reads configuration from path, fills unset fields with defaults,
// and applies environment overrides. A missing file yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	return cfg, nil
}

// applyEnvOverrides applies INQUISIT_* environment variables on top of file values.
func (c *Config) applyEnvOverrides() {
	if ws := os.Getenv("INQUISIT_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if db := os.Getenv("INQUISIT_DB_PATH"); db != "" {
		c.Store.DatabasePath = db
	}
	if lvl := os.Getenv("INQUISIT_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if os.Getenv("INQUISIT_DEBUG") == "true" {
		c.Logging.DebugMode = true
	}
}

// fillDefaults repairs zero values that would break scoring or flow analysis.
// A config file that sets only some fields gets defaults for the rest.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Scoring.ExpertiseTolerance <= 0 {
		c.Scoring.ExpertiseTolerance = d.Scoring.ExpertiseTolerance
	}
	if c.Scoring.NoveltyImportance <= 0 {
		c.Scoring.NoveltyImportance = d.Scoring.NoveltyImportance
	}
	if c.Scoring.PreferBonus <= 0 {
		c.Scoring.PreferBonus = d.Scoring.PreferBonus
	}
	if c.Scoring.GenericWeights == (GenericWeights{}) {
		c.Scoring.GenericWeights = d.Scoring.GenericWeights
	}
	if c.Scoring.SelectionWeights == (SelectionWeights{}) {
		c.Scoring.SelectionWeights = d.Scoring.SelectionWeights
	}
	if c.Scoring.StrategicBonuses == nil {
		c.Scoring.StrategicBonuses = d.Scoring.StrategicBonuses
	}
	if c.Scoring.ContextBonuses == nil {
		c.Scoring.ContextBonuses = d.Scoring.ContextBonuses
	}
	if c.Scoring.ProjectPhaseBonuses == nil {
		c.Scoring.ProjectPhaseBonuses = d.Scoring.ProjectPhaseBonuses
	}
	if c.Learning.Alpha <= 0 || c.Learning.Alpha > 1 {
		c.Learning.Alpha = d.Learning.Alpha
	}
	if c.Learning.InsightTarget <= 0 {
		c.Learning.InsightTarget = d.Learning.InsightTarget
	}
	if c.Learning.DefaultSatisfaction <= 0 {
		c.Learning.DefaultSatisfaction = d.Learning.DefaultSatisfaction
	}
	if len(c.Flow.Phases) == 0 {
		c.Flow.Phases = d.Flow.Phases
	}
	if len(c.Flow.Transitions) == 0 {
		c.Flow.Transitions = d.Flow.Transitions
	}
	if c.Workspace == "" {
		c.Workspace = d.Workspace
	}
	if c.Store.DatabasePath == "" {
		c.Store.DatabasePath = filepath.Join(c.Workspace, ".inquisit", "sessions.db")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}
