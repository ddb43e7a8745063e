// Package insight extracts lightweight dialogue insights from raw user text.
// Extraction is regex-based on purpose: it runs on every turn and must stay
// deterministic and dependency-free. It feeds the selection context's
// concept/assumption/definition sets and the per-turn insight counts consumed
// by the effectiveness learner and the flow analyzer.
package insight

import (
	"regexp"
	"strings"

	"inquisit/internal/logging"
)

// Kind classifies an extracted insight.
type Kind string

const (
	KindConcept       Kind = "concept"
	KindAssumption    Kind = "assumption"
	KindDefinition    Kind = "definition"
	KindContradiction Kind = "contradiction"
)

// Insight is one extracted item with the text evidence it came from.
type Insight struct {
	Kind     Kind   `json:"kind"`
	Value    string `json:"value"`
	Evidence string `json:"evidence"`
}

// Result groups the insights extracted from one response.
type Result struct {
	Concepts       []string  `json:"concepts"`
	Assumptions    []string  `json:"assumptions"`
	Definitions    []string  `json:"definitions"`
	Contradictions []string  `json:"contradictions"`
	All            []Insight `json:"all"`
}

// Count returns the total number of extracted insights.
func (r *Result) Count() int { return len(r.All) }

// Extractor matches insight cues in free text.
type Extractor struct {
	definitionRe    []*regexp.Regexp
	assumptionRe    []*regexp.Regexp
	contradictionRe []*regexp.Regexp
	conceptRe       *regexp.Regexp
	stopwords       map[string]bool
}

// NewExtractor compiles the cue patterns.
func NewExtractor() *Extractor {
	return &Extractor{
		definitionRe: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b([A-Za-z][\w\s-]{2,40}?)\s+(?:is defined as|means|refers to)\s+([^.!?]{3,120})`),
			regexp.MustCompile(`(?i)\bby\s+"?([\w\s-]{2,40}?)"?\s+I mean\s+([^.!?]{3,120})`),
		},
		assumptionRe: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:I assume|assuming|presumably|I suppose|taking for granted)(?:\s+that)?\s+([^.!?]{3,120})`),
			regexp.MustCompile(`(?i)\b(?:obviously|clearly|of course)\s+([^.!?]{3,120})`),
		},
		contradictionRe: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:but earlier|on the other hand|that contradicts|however I said)\s+([^.!?]{3,120})`),
			regexp.MustCompile(`(?i)\b(?:actually,? no|wait,? that's wrong)[,:]?\s*([^.!?]{0,120})`),
		},
		// Capitalized multi-word phrases and quoted terms read as domain concepts.
		conceptRe: regexp.MustCompile(`"([^"]{3,40})"|\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\b`),
		stopwords: map[string]bool{
			"i": true, "the": true, "a": true, "an": true, "this": true, "that": true,
			"it": true, "we": true, "you": true, "they": true, "my": true, "our": true,
		},
	}
}

// Extract runs all cue patterns over text and returns deduplicated insights.
// Empty input yields an empty result, never an error.
func (e *Extractor) Extract(text string) *Result {
	res := &Result{}
	if strings.TrimSpace(text) == "" {
		return res
	}

	seen := make(map[string]bool)
	add := func(kind Kind, value, evidence string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		key := string(kind) + "|" + strings.ToLower(value)
		if seen[key] {
			return
		}
		seen[key] = true
		res.All = append(res.All, Insight{Kind: kind, Value: value, Evidence: evidence})
		switch kind {
		case KindConcept:
			res.Concepts = append(res.Concepts, value)
		case KindAssumption:
			res.Assumptions = append(res.Assumptions, value)
		case KindDefinition:
			res.Definitions = append(res.Definitions, value)
		case KindContradiction:
			res.Contradictions = append(res.Contradictions, value)
		}
	}

	for _, re := range e.definitionRe {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(KindDefinition, m[1], m[0])
		}
	}
	for _, re := range e.assumptionRe {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(KindAssumption, m[1], m[0])
		}
	}
	for _, re := range e.contradictionRe {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			value := m[1]
			if strings.TrimSpace(value) == "" {
				value = m[0]
			}
			add(KindContradiction, value, m[0])
		}
	}
	for _, m := range e.conceptRe.FindAllStringSubmatch(text, -1) {
		term := m[1]
		if term == "" {
			term = m[2]
		}
		if e.stopwords[strings.ToLower(term)] {
			continue
		}
		// Single short lowercase-looking captures are noise.
		if len(term) < 3 {
			continue
		}
		add(KindConcept, term, m[0])
	}

	logging.Get(logging.CategoryInsight).Debug("extracted %d insights (%d concepts, %d assumptions, %d definitions, %d contradictions)",
		res.Count(), len(res.Concepts), len(res.Assumptions), len(res.Definitions), len(res.Contradictions))
	return res
}
