package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"inquisit/internal/engine"
	"inquisit/internal/flow"
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
	"inquisit/internal/selection"
)

func (s *Server) registerTools() {
	startSessionTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a guided-questioning session for a topic"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Context category: problem_solving, architecture, debugging, requirements, code_review, or learning"),
		),
		mcp.WithString("expertise",
			mcp.Required(),
			mcp.Description("Participant expertise: beginner, intermediate, advanced, or expert"),
		),
		mcp.WithString("focus",
			mcp.Description("What the dialogue is about, in a sentence"),
		),
		mcp.WithString("objectives",
			mcp.Description("Session objectives, separated by semicolons"),
		),
	)
	s.mcp.AddTool(startSessionTool, s.startSessionHandler())

	selectQuestionTool := mcp.NewTool("select_question",
		mcp.WithDescription("Pick the best question pattern for the session's next turn"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID from start_session"),
		),
		mcp.WithString("exclude",
			mcp.Description("Pattern IDs to skip, separated by commas"),
		),
		mcp.WithString("prefer",
			mcp.Description("Pattern IDs to favor, separated by commas"),
		),
		mcp.WithNumber("maxDepth",
			mcp.Description("Cap on pattern traversal depth once the dialogue reaches it"),
		),
		mcp.WithBoolean("requireFresh",
			mcp.Description("Skip patterns already used in the last ten turns"),
		),
	)
	s.mcp.AddTool(selectQuestionTool, s.selectQuestionHandler())

	recordOutcomeTool := mcp.NewTool("record_outcome",
		mcp.WithDescription("Record the participant's answer to the last question"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID"),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Pattern ID the question was built from"),
		),
		mcp.WithString("response",
			mcp.Required(),
			mcp.Description("The participant's answer text"),
		),
		mcp.WithNumber("satisfaction",
			mcp.Description("Participant satisfaction rating, 1-5"),
		),
		mcp.WithBoolean("followUpUsed",
			mcp.Description("Whether a suggested follow-up was used"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Conversational depth after this turn"),
		),
	)
	s.mcp.AddTool(recordOutcomeTool, s.recordOutcomeHandler())

	analyzeFlowTool := mcp.NewTool("analyze_flow",
		mcp.WithDescription("Analyze the session's conversational flow: phase, metrics, progress, recommendations"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID"),
		),
	)
	s.mcp.AddTool(analyzeFlowTool, s.analyzeFlowHandler())

	transitionPhaseTool := mcp.NewTool("transition_phase",
		mcp.WithDescription("Move the session to another flow phase, validated against the transition rules"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID"),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Current phase: exploring, deepening, clarifying, synthesizing, or concluding"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Target phase"),
		),
	)
	s.mcp.AddTool(transitionPhaseTool, s.transitionPhaseHandler())

	shouldTransitionTool := mcp.NewTool("should_transition",
		mcp.WithDescription("Quick check whether the session should change phase now"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID"),
		),
	)
	s.mcp.AddTool(shouldTransitionTool, s.shouldTransitionHandler())

	sessionStateTool := mcp.NewTool("session_state",
		mcp.WithDescription("Dump the session's current state: phase, discoveries, objectives, recent patterns"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID"),
		),
	)
	s.mcp.AddTool(sessionStateTool, s.sessionStateHandler())

	completeObjectiveTool := mcp.NewTool("complete_objective",
		mcp.WithDescription("Mark a session objective as achieved"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session ID"),
		),
		mcp.WithString("objective",
			mcp.Required(),
			mcp.Description("The objective text exactly as registered"),
		),
	)
	s.mcp.AddTool(completeObjectiveTool, s.completeObjectiveHandler())
}

type toolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) startSessionHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		category, ok := request.Params.Arguments["category"].(string)
		if !ok || category == "" {
			return errorResult("category must be a non-empty string"), nil
		}
		expertise, ok := request.Params.Arguments["expertise"].(string)
		if !ok || expertise == "" {
			return errorResult("expertise must be a non-empty string"), nil
		}
		focus, _ := request.Params.Arguments["focus"].(string)

		var objectives []string
		if raw, _ := request.Params.Arguments["objectives"].(string); raw != "" {
			for _, obj := range strings.Split(raw, ";") {
				if obj = strings.TrimSpace(obj); obj != "" {
					objectives = append(objectives, obj)
				}
			}
		}

		sess, err := s.engine.StartSession(pattern.Category(category), pattern.ParseTier(expertise), focus, objectives)
		if err != nil {
			return errorResult("failed to start session: %v", err), nil
		}

		logging.Get(logging.CategoryAPI).Info("start_session: id=%s category=%s took=%s",
			sess.ID, category, time.Since(start))
		return jsonResult(map[string]interface{}{
			"sessionId":  sess.ID,
			"category":   sess.Category,
			"expertise":  sess.Expertise.String(),
			"phase":      sess.CurrentPhase,
			"objectives": len(objectives),
		})
	}
}

func (s *Server) selectQuestionHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}

		constraints := &selection.Constraints{}
		if raw, _ := request.Params.Arguments["exclude"].(string); raw != "" {
			constraints.Exclude = parsePatternList(raw)
		}
		if raw, _ := request.Params.Arguments["prefer"].(string); raw != "" {
			constraints.Prefer = parsePatternList(raw)
		}
		if v, ok := request.Params.Arguments["maxDepth"].(float64); ok {
			constraints.MaxDepth = int(v)
		}
		if v, ok := request.Params.Arguments["requireFresh"].(bool); ok {
			constraints.RequireFresh = v
		}

		result, err := s.engine.Select(sessionID, constraints)
		if err != nil {
			return errorResult("selection failed: %v", err), nil
		}

		p, err := s.engine.Catalog().Get(result.Selected.ID)
		if err != nil {
			return errorResult("selected pattern missing from catalog: %v", err), nil
		}

		alternatives := make([]map[string]interface{}, 0, len(result.Alternatives))
		for _, alt := range result.Alternatives {
			alternatives = append(alternatives, map[string]interface{}{
				"pattern": alt.ID,
				"score":   alt.Total,
			})
		}
		return jsonResult(map[string]interface{}{
			"selected":     result.Selected.ID,
			"template":     p.Template,
			"confidence":   result.Confidence,
			"reasoning":    result.Selected.Reasoning,
			"alternatives": alternatives,
			"followUps":    result.FollowUps,
		})
	}
}

func (s *Server) recordOutcomeHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}
		patternID, ok := request.Params.Arguments["pattern"].(string)
		if !ok || patternID == "" {
			return errorResult("pattern must be a non-empty string"), nil
		}
		response, ok := request.Params.Arguments["response"].(string)
		if !ok {
			return errorResult("response must be a string"), nil
		}

		outcome := engine.Outcome{Response: response}
		if v, ok := request.Params.Arguments["satisfaction"].(float64); ok {
			outcome.Satisfaction = &v
		}
		if v, ok := request.Params.Arguments["followUpUsed"].(bool); ok {
			outcome.FollowUpUsed = v
		}
		if v, ok := request.Params.Arguments["depth"].(float64); ok {
			outcome.Depth = int(v)
		}

		if err := s.engine.RecordOutcome(sessionID, pattern.ID(patternID), outcome); err != nil {
			return errorResult("failed to record outcome: %v", err), nil
		}

		sess, err := s.engine.Session(sessionID)
		if err != nil {
			return errorResult("failed to reload session: %v", err), nil
		}
		return jsonResult(map[string]interface{}{
			"recorded":    true,
			"turnCount":   sess.TurnCount,
			"concepts":    len(sess.Concepts),
			"assumptions": len(sess.Assumptions),
			"definitions": len(sess.Definitions),
		})
	}
}

func (s *Server) analyzeFlowHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}

		analysis, err := s.engine.AnalyzeFlow(sessionID)
		if err != nil {
			return errorResult("flow analysis failed: %v", err), nil
		}
		return jsonResult(analysis)
	}
}

func (s *Server) transitionPhaseHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}
		fromRaw, _ := request.Params.Arguments["from"].(string)
		from, ok := flow.ParsePhase(fromRaw)
		if !ok {
			return errorResult("unknown phase: %q", fromRaw), nil
		}
		toRaw, _ := request.Params.Arguments["to"].(string)
		to, ok := flow.ParsePhase(toRaw)
		if !ok {
			return errorResult("unknown phase: %q", toRaw), nil
		}

		outcome, err := s.engine.Transition(sessionID, from, to)
		if err != nil {
			return errorResult("transition failed: %v", err), nil
		}
		return jsonResult(outcome)
	}
}

func (s *Server) shouldTransitionHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}

		decision, err := s.engine.ShouldTransition(sessionID)
		if err != nil {
			return errorResult("check failed: %v", err), nil
		}
		return jsonResult(decision)
	}
}

func (s *Server) sessionStateHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}

		sess, err := s.engine.Session(sessionID)
		if err != nil {
			return errorResult("failed to load session: %v", err), nil
		}
		return jsonResult(map[string]interface{}{
			"sessionId":           sess.ID,
			"category":            sess.Category,
			"expertise":           sess.Expertise.String(),
			"focus":               sess.Focus,
			"phase":               sess.CurrentPhase,
			"depth":               sess.Depth,
			"turnCount":           sess.TurnCount,
			"concepts":            sess.Concepts,
			"assumptions":         sess.Assumptions,
			"definitions":         sess.Definitions,
			"recentPatterns":      sess.RecentPatterns,
			"objectivesTotal":     sess.ObjectivesTotal,
			"objectivesCompleted": sess.ObjectivesCompleted,
		})
	}
}

func (s *Server) completeObjectiveHandler() toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			return errorResult("sessionId must be a non-empty string"), nil
		}
		objective, ok := request.Params.Arguments["objective"].(string)
		if !ok || objective == "" {
			return errorResult("objective must be a non-empty string"), nil
		}

		if err := s.engine.CompleteObjective(sessionID, objective); err != nil {
			return errorResult("failed to complete objective: %v", err), nil
		}
		return jsonResult(map[string]interface{}{"completed": objective})
	}
}

func parsePatternList(raw string) []pattern.ID {
	var out []pattern.ID
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, pattern.ID(part))
		}
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to encode result: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, args...)
	logging.Get(logging.CategoryAPI).Warn("%s", msg)
	return mcp.NewToolResultText("error: " + msg)
}
