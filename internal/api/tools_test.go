package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquisit/internal/config"
	"inquisit/internal/engine"
	"inquisit/internal/pattern"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Workspace = t.TempDir()
	eng, err := engine.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return NewServer(cfg.Name, cfg.Version, eng, false)
}

func call(t *testing.T, h toolHandler, args map[string]interface{}) string {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results are text content")
	return text.Text
}

func callJSON(t *testing.T, h toolHandler, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	text := call(t, h, args)
	require.False(t, strings.HasPrefix(text, "error:"), "unexpected tool error: %s", text)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func TestToolRoundTrip(t *testing.T) {
	s := newTestServer(t)

	started := callJSON(t, s.startSessionHandler(), map[string]interface{}{
		"category":   "debugging",
		"expertise":  "intermediate",
		"focus":      "goroutine leak in the ingest worker",
		"objectives": "find the leaking goroutine; decide on a fix",
	})
	sessionID, _ := started["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, float64(2), started["objectives"])

	selected := callJSON(t, s.selectQuestionHandler(), map[string]interface{}{
		"sessionId": sessionID,
	})
	patternID, _ := selected["selected"].(string)
	require.NotEmpty(t, patternID)
	assert.NotEmpty(t, selected["template"])

	recorded := callJSON(t, s.recordOutcomeHandler(), map[string]interface{}{
		"sessionId":    sessionID,
		"pattern":      patternID,
		"response":     "I assume the worker always drains its channel before exit.",
		"satisfaction": 4.0,
		"depth":        1.0,
	})
	assert.Equal(t, true, recorded["recorded"])
	assert.Equal(t, float64(1), recorded["turnCount"])

	state := callJSON(t, s.sessionStateHandler(), map[string]interface{}{
		"sessionId": sessionID,
	})
	assert.Equal(t, "exploring", state["phase"])
	assert.Equal(t, float64(2), state["objectivesTotal"])

	analysis := callJSON(t, s.analyzeFlowHandler(), map[string]interface{}{
		"sessionId": sessionID,
	})
	assert.NotEmpty(t, analysis["current_phase"])

	decision := callJSON(t, s.shouldTransitionHandler(), map[string]interface{}{
		"sessionId": sessionID,
	})
	assert.NotEmpty(t, decision["reason"])

	completed := callJSON(t, s.completeObjectiveHandler(), map[string]interface{}{
		"sessionId": sessionID,
		"objective": "find the leaking goroutine",
	})
	assert.Equal(t, "find the leaking goroutine", completed["completed"])
}

func TestToolParameterValidation(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing session id", func(t *testing.T) {
		text := call(t, s.selectQuestionHandler(), map[string]interface{}{})
		assert.True(t, strings.HasPrefix(text, "error:"), "got: %s", text)
	})

	t.Run("unknown session id", func(t *testing.T) {
		text := call(t, s.analyzeFlowHandler(), map[string]interface{}{"sessionId": "nope"})
		assert.Contains(t, text, "error:")
	})

	t.Run("bad phase name", func(t *testing.T) {
		text := call(t, s.transitionPhaseHandler(), map[string]interface{}{
			"sessionId": "s", "from": "wandering", "to": "deepening",
		})
		assert.Contains(t, text, "unknown phase")
	})
}

func TestParsePatternList(t *testing.T) {
	assert.Nil(t, parsePatternList(""))
	assert.Equal(t,
		[]pattern.ID{pattern.EvidenceProbing, pattern.DefinitionSeeking},
		parsePatternList(" evidence_probing , definition_seeking ,"))
}
