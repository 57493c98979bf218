package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/altirag/prism-rag/feedback"
	"github.com/altirag/prism-rag/pipeline"
)

// registerIngestionTools wires the knowledge-base management tools
// that operate directly on RAGClient: segmenting raw text into chunks,
// listing them, deleting them, and running a bare vector search. Each
// mutation also keeps the pipeline's local BM25 index in sync so
// chat's hybrid retrieval sees the change immediately.
func registerIngestionTools(s *server.MCPServer, ragClient *RAGClient, p *pipeline.Pipeline) {
	createTool := mcp.NewTool("create-chunks-from-text",
		mcp.WithDescription("Process and segment input text into semantic chunks for knowledge base ingestion"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw text to split and index")),
		mcp.WithString("title", mcp.Description("Human-readable title stored on every chunk produced from this text")),
	)
	s.AddTool(createTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title := req.GetString("title", "")

		docs, err := ragClient.CreateChunkFromText(text, title)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create-chunks-from-text failed: %v", err)), nil
		}
		for _, d := range docs {
			p.IndexDocument(d)
		}
		return mcp.NewToolResultText(fmt.Sprintf("created %d chunks", len(docs))), nil
	})

	listTool := mcp.NewTool("list-chunks",
		mcp.WithDescription("Retrieve and display all knowledge chunks in the database"),
	)
	s.AddTool(listTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := ragClient.ListChunks()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list-chunks failed: %v", err)), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d chunks:\n", len(docs))
		for _, d := range docs {
			fmt.Fprintf(&b, "- %s: %s\n", d.ID, truncate(d.Content, 120))
		}
		return mcp.NewToolResultText(b.String()), nil
	})

	deleteTool := mcp.NewTool("delete-chunk",
		mcp.WithDescription("Remove a specific knowledge chunk from the database using its unique identifier"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chunk id to delete")),
	)
	s.AddTool(deleteTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := ragClient.DeleteChunk(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete-chunk failed: %v", err)), nil
		}
		p.RemoveDocument(id)
		return mcp.NewToolResultText(fmt.Sprintf("deleted chunk %s", id)), nil
	})

	searchTool := mcp.NewTool("search-chunks",
		mcp.WithDescription("Perform semantic search across knowledge chunks using natural language query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language search query")),
		mcp.WithNumber("top_k", mcp.Description("Maximum number of results to return, default 10")),
		mcp.WithNumber("threshold", mcp.Description("Minimum similarity score to keep, default 0.5")),
	)
	s.AddTool(searchTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		topK := int(req.GetFloat("top_k", 10))
		threshold := req.GetFloat("threshold", 0.5)

		results, err := ragClient.SearchChunks(query, topK, threshold)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search-chunks failed: %v", err)), nil
		}
		var b strings.Builder
		for i, r := range results {
			fmt.Fprintf(&b, "[%d] score=%.4f %s: %s\n", i+1, r.Score, r.Document.ID, truncate(r.Document.Content, 200))
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

// registerQueryTools wires the pipeline-backed tools: the primary
// chat/query tool and the feedback sink for rating past answers.
func registerQueryTools(s *server.MCPServer, ragClient *RAGClient, p *pipeline.Pipeline) {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Answer a wealth-management question by retrieving, grading and generating from the knowledge base"),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user's question")),
		mcp.WithString("domain", mcp.Description("Caller-defined domain partition used for cache fingerprinting")),
		mcp.WithString("prompt_name", mcp.Description("Explicit generation template name; the pipeline otherwise picks one from the detected intent")),
		mcp.WithString("thread_id", mcp.Description("Conversation thread id, for session-scoped callers")),
		mcp.WithObject("app_context", mcp.Description("Dashboard data the caller is viewing; when present the cache is bypassed and the context is woven into the prompt")),
	)
	s.AddTool(chatTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		q := pipeline.Query{
			Text:       query,
			Domain:     req.GetString("domain", ""),
			PromptName: req.GetString("prompt_name", ""),
			ThreadID:   req.GetString("thread_id", ""),
		}
		if args := req.GetArguments(); args != nil {
			if raw, ok := args["app_context"].(map[string]any); ok {
				q.AppContext = raw
			}
		}

		if q.ThreadID != "" {
			ragClient.Sessions().Ensure(q.ThreadID)
			ragClient.Sessions().AddMessage(q.ThreadID, ChatMessage{Role: "user", Content: q.Text, Timestamp: time.Now()})
		}

		res := p.Run(ctx, q)

		if q.ThreadID != "" {
			ragClient.Sessions().AddMessage(q.ThreadID, ChatMessage{Role: "assistant", Content: res.Answer, Timestamp: time.Now()})
		}

		return mcp.NewToolResultText(formatResult(res)), nil
	})

	feedbackTool := mcp.NewTool("feedback",
		mcp.WithDescription("Record a rating for a previously returned answer, identified by its query id"),
		mcp.WithString("query_id", mcp.Required(), mcp.Description("The id returned alongside the answer being rated")),
		mcp.WithNumber("rating", mcp.Required(), mcp.Description("Rating, -1 (bad), 0 (neutral) or 1 (good)")),
		mcp.WithString("detail", mcp.Description("Optional free-text detail")),
	)
	s.AddTool(feedbackTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		queryID, err := req.RequireString("query_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rating := int(req.GetFloat("rating", 0))
		p.Feedback().Record(feedback.Entry{
			QueryID: queryID,
			Rating:  rating,
			Detail:  req.GetString("detail", ""),
		})
		return mcp.NewToolResultText(fmt.Sprintf("recorded feedback for query %s", queryID)), nil
	})
}

func formatResult(res pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", res.Answer)
	if len(res.Citations) > 0 {
		b.WriteString("Sources:\n")
		for i, c := range res.Citations {
			fmt.Fprintf(&b, "[%d] %s (chunk %d, score=%.4f)\n", i+1, c.SourcePath, c.ChunkIndex, c.Score)
		}
	}
	fmt.Fprintf(&b, "\nquery_id=%s intent=%s quality=%s endpoint=%s", res.ID, res.Intent, res.Quality, res.Endpoint)
	if res.Error != "" {
		fmt.Fprintf(&b, " error=%s", res.Error)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
