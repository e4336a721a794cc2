package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/workmatch/workmatch/internal/conversation"
	"github.com/workmatch/workmatch/internal/profile"
	"github.com/workmatch/workmatch/internal/ranking"
	"github.com/workmatch/workmatch/internal/retrieval"
	"github.com/workmatch/workmatch/internal/session"
)

// MCPRetriever abstracts laddered retrieval for the MCP layer.
// Implemented by retrieval.Retriever.
type MCPRetriever = conversation.Retriever

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Orchestrator *conversation.Orchestrator
	Retriever    MCPRetriever
	Ranker       *ranking.Ranker
	Profile      *profile.Provider
}

// NewMCPServer creates an MCP server exposing the matching engine as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"workmatch",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("workmatch — conversational job and candidate matching."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("match_jobs",
			mcp.WithDescription("Search published job postings with relaxing filters and return ranked matches."),
			mcp.WithString("title", mcp.Description("Desired job title")),
			mcp.WithString("location", mcp.Description("Preferred location")),
			mcp.WithNumber("salary_min", mcp.Description("Minimum yearly salary; small values are read as 万円")),
			mcp.WithArray("keywords", mcp.Description("Skills or terms to boost in ranking")),
		),
		mcpMatchJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("search_candidates",
			mcp.WithDescription("Search active candidate profiles and return ranked matches."),
			mcp.WithString("title", mcp.Description("Role being hired for")),
			mcp.WithArray("skills", mcp.Description("Required skills")),
			mcp.WithNumber("min_experience", mcp.Description("Minimum years of experience")),
		),
		mcpSearchCandidates(deps),
	)

	s.AddTool(
		mcp.NewTool("chat_turn",
			mcp.WithDescription("Send one conversational turn to the matching engine."),
			mcp.WithString("subject_id", mcp.Description("Stable id of the person"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("seeker or employer")),
			mcp.WithString("session_id", mcp.Description("Existing session id; omit to start a new session")),
			mcp.WithString("message", mcp.Description("The message text")),
		),
		mcpChatTurn(deps),
	)

	s.AddTool(
		mcp.NewTool("get_session",
			mcp.WithDescription("Inspect a conversation session: turns, scores, preferences."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpGetSession(deps),
	)

	s.AddTool(
		mcp.NewTool("set_preference",
			mcp.WithDescription("Store a known preference for a subject (job_title, location, salary_min, remote, skills)."),
			mcp.WithString("subject_id", mcp.Description("Stable id of the person"), mcp.Required()),
			mcp.WithString("key", mcp.Description("Preference key"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Preference value"), mcp.Required()),
		),
		mcpSetPreference(deps),
	)

	return s
}

func mcpMatchJobs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		criteria := retrieval.JobCriteria{
			Title:       req.GetString("title", ""),
			Location:    req.GetString("location", ""),
			SalaryFloor: req.GetFloat("salary_min", 0),
		}

		pool, err := deps.Retriever.FindJobs(ctx, criteria)
		if err != nil {
			return mcpError(fmt.Sprintf("job search failed: %v", err)), nil
		}

		ranked, err := deps.Ranker.RankJobs(ctx, ranking.SeekerNeeds{
			Title:     criteria.Title,
			Location:  criteria.Location,
			SalaryMin: retrieval.NormalizeSalary(criteria.SalaryFloor),
			Keywords:  req.GetStringSlice("keywords", nil),
		}, pool)
		if err != nil {
			return mcpError(fmt.Sprintf("ranking failed: %v", err)), nil
		}

		type jobResult struct {
			ID      string  `json:"id"`
			Title   string  `json:"title"`
			Company string  `json:"company,omitempty"`
			Score   float64 `json:"score"`
			Reason  string  `json:"reason"`
		}
		results := make([]jobResult, len(ranked))
		for i, r := range ranked {
			results[i] = jobResult{
				ID:      r.Job.ID,
				Title:   r.Job.Title,
				Company: r.Job.Company,
				Score:   r.Score,
				Reason:  r.Reason,
			}
		}
		return mcpJSON(results)
	}
}

func mcpSearchCandidates(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		criteria := retrieval.CandidateCriteria{
			Title:         req.GetString("title", ""),
			Skills:        req.GetStringSlice("skills", nil),
			MinExperience: req.GetInt("min_experience", 0),
		}

		pool, err := deps.Retriever.FindCandidates(ctx, criteria)
		if err != nil {
			return mcpError(fmt.Sprintf("candidate search failed: %v", err)), nil
		}

		ranked, err := deps.Ranker.RankCandidates(ctx, ranking.EmployerNeeds{
			Title:         criteria.Title,
			Skills:        criteria.Skills,
			MinExperience: criteria.MinExperience,
		}, pool)
		if err != nil {
			return mcpError(fmt.Sprintf("ranking failed: %v", err)), nil
		}

		type candidateResult struct {
			ID     string  `json:"id"`
			Name   string  `json:"name"`
			Title  string  `json:"title,omitempty"`
			Score  float64 `json:"score"`
			Reason string  `json:"reason"`
		}
		results := make([]candidateResult, len(ranked))
		for i, r := range ranked {
			results[i] = candidateResult{
				ID:     r.Candidate.ID,
				Name:   r.Candidate.Name,
				Title:  r.Candidate.Title,
				Score:  r.Score,
				Reason: r.Reason,
			}
		}
		return mcpJSON(results)
	}
}

func mcpChatTurn(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subjectID, err := req.RequireString("subject_id")
		if err != nil {
			return mcpError("subject_id is required"), nil
		}

		kind := session.SubjectKind(req.GetString("kind", string(session.KindSeeker)))
		if kind != session.KindSeeker && kind != session.KindEmployer {
			return mcpError("kind must be seeker or employer"), nil
		}

		resp, err := deps.Orchestrator.ProcessTurn(ctx, conversation.TurnRequest{
			SessionID: req.GetString("session_id", ""),
			SubjectID: subjectID,
			Kind:      kind,
			Message:   req.GetString("message", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("turn failed: %v", err)), nil
		}
		return mcpJSON(resp)
	}
}

func mcpGetSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		sess, err := deps.Orchestrator.Session(id)
		if err != nil {
			return mcpError(fmt.Sprintf("loading session: %v", err)), nil
		}
		return mcpJSON(sess)
	}
}

func mcpSetPreference(deps MCPDeps) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subjectID, err := req.RequireString("subject_id")
		if err != nil {
			return mcpError("subject_id is required"), nil
		}
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		if err := deps.Profile.SetPreference(subjectID, key, value); err != nil {
			return mcpError(fmt.Sprintf("failed to set preference: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Set %s = %s for %s", key, value, subjectID)), nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
