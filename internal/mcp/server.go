package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/terraria-rag/wikiclean/internal/tools"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with the cleaning engine
type Server struct {
	mcp    *mcp.Server
	engine *tools.Engine
	logger *zap.Logger
}

// NewServer creates a new MCP server
func NewServer(engine *tools.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		logger: logger,
	}

	// Create MCP server
	impl := &mcp.Implementation{
		Name:    "wikiclean",
		Version: Version,
	}

	s.mcp = mcp.NewServer(impl, nil)

	// Register tools
	s.registerTools()

	return s
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *mcp.Server {
	return s.mcp
}

// Handler serves the MCP endpoint over streamable HTTP together with a
// health check.
func (s *Server) Handler() http.Handler {
	// Stateless JSON responses: no session validation, application/json
	// instead of text/event-stream.
	handler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server {
			return s.mcp
		},
		&mcp.StreamableHTTPOptions{
			Stateless:    true,
			JSONResponse: true,
		},
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "wikiclean MCP server v%s\n", Version)
		fmt.Fprintf(w, "MCP endpoint: /mcp\n")
		fmt.Fprintf(w, "Health check: /health\n")
	})

	return mux
}

// RunStdio serves a single client over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

const textSchema = `{
	"type": "object",
	"properties": {
		"text": {
			"type": "string",
			"description": "Wikitext to process"
		}
	},
	"required": ["text"]
}`

// registerTools registers all tools with the MCP server
func (s *Server) registerTools() {
	// clean_wikitext
	s.mcp.AddTool(&mcp.Tool{
		Name:        "clean_wikitext",
		Description: "Run the full cleaning pipeline over one wiki page and return plain retrieval text. Malformed markup is cleaned as far as possible and reported in warnings",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {
					"type": "string",
					"description": "Page title, substituted for the first bold span and self-reference templates"
				},
				"content": {
					"type": "string",
					"description": "Raw page wikitext, or rendered HTML when format is 'html'"
				},
				"format": {
					"type": "string",
					"enum": ["wikitext", "html"],
					"description": "Content format (default: wikitext)",
					"default": "wikitext"
				}
			},
			"required": ["content"]
		}`),
	}, s.handleCleanWikitext)

	// resolve_wikilinks
	s.mcp.AddTool(&mcp.Tool{
		Name:        "resolve_wikilinks",
		Description: "Replace every [[target|display]] link with its display text, innermost first",
		InputSchema: json.RawMessage(textSchema),
	}, s.textTool(tools.ResolveWikilinks))

	// strip_raw_parameters
	s.mcp.AddTool(&mcp.Tool{
		Name:        "strip_raw_parameters",
		Description: "Remove {{{...}}} template parameter slots, including nested ones",
		InputSchema: json.RawMessage(textSchema),
	}, s.textTool(tools.StripRawParameters))

	// convert_tables
	s.mcp.AddTool(&mcp.Tool{
		Name:        "convert_tables",
		Description: "Flatten {| ... |} tables into one 'Header: value | Header: value' line per data row",
		InputSchema: json.RawMessage(textSchema),
	}, s.textTool(tools.ConvertTables))

	// expand_templates
	s.mcp.AddTool(&mcp.Tool{
		Name:        "expand_templates",
		Description: "Render {{...}} template calls with the loaded template rules. Unknown templates are dropped",
		InputSchema: json.RawMessage(textSchema),
	}, s.textTool(tools.ExpandTemplates))

	// extract_templates
	s.mcp.AddTool(&mcp.Tool{
		Name:        "extract_templates",
		Description: "List the outermost template calls in wikitext with positional and named arguments, e.g. to read an infobox",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {
					"type": "string",
					"description": "Wikitext to inspect"
				},
				"name": {
					"type": "string",
					"description": "Only return calls of this template (case-insensitive)"
				}
			},
			"required": ["text"]
		}`),
	}, s.handleExtractTemplates)

	// clean_sections
	s.mcp.AddTool(&mcp.Tool{
		Name:        "clean_sections",
		Description: "Remove HTML tags and comments, delete useless sections and cut the page at the truncation heading",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {
					"type": "string",
					"description": "Wikitext to process"
				},
				"useless_sections": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Section titles to delete with their subsections (default: server configuration)"
				},
				"truncate_after": {
					"type": "string",
					"description": "Section title where the page is cut off; empty keeps the whole page (default: server configuration)"
				}
			},
			"required": ["text"]
		}`),
	}, s.handleCleanSections)
}

// Tool handlers

func (s *Server) handleCleanWikitext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Format  string `json:"format"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return s.argumentsResult(err), nil
	}

	result, err := tools.CleanWikitext(ctx, s.engine, args.Title, args.Content, args.Format)
	if err != nil {
		return s.errorResult(req, err), nil
	}

	return s.successResult(req, result)
}

// textTool adapts a tool that takes only text.
func (s *Server) textTool(fn func(context.Context, *tools.Engine, string) (*tools.TextResult, error)) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Text string `json:"text"`
		}
		if err := decodeArgs(req, &args); err != nil {
			return s.argumentsResult(err), nil
		}

		result, err := fn(ctx, s.engine, args.Text)
		if err != nil {
			return s.errorResult(req, err), nil
		}

		return s.successResult(req, result)
	}
}

func (s *Server) handleExtractTemplates(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text string `json:"text"`
		Name string `json:"name"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return s.argumentsResult(err), nil
	}

	result, err := tools.ExtractTemplates(ctx, s.engine, args.Text, args.Name)
	if err != nil {
		return s.errorResult(req, err), nil
	}

	return s.successResult(req, result)
}

func (s *Server) handleCleanSections(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text            string   `json:"text"`
		UselessSections []string `json:"useless_sections"`
		TruncateAfter   *string  `json:"truncate_after"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return s.argumentsResult(err), nil
	}

	result, err := tools.CleanSections(ctx, s.engine, args.Text, args.UselessSections, args.TruncateAfter)
	if err != nil {
		return s.errorResult(req, err), nil
	}

	return s.successResult(req, result)
}

// Helper methods

// decodeArgs reads the call arguments into v. A call without arguments
// decodes as an empty object.
func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

func (s *Server) successResult(req *mcp.CallToolRequest, data any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tool call", zap.String("tool", req.Params.Name), zap.Int("bytes", len(jsonData)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonData)},
		},
	}, nil
}

func (s *Server) errorResult(req *mcp.CallToolRequest, err error) *mcp.CallToolResult {
	errResp := FormatError(err)
	s.logger.Warn("tool call failed",
		zap.String("tool", req.Params.Name),
		zap.String("code", errResp.Error),
		zap.Error(err))

	return toolError(errResp)
}

func (s *Server) argumentsResult(err error) *mcp.CallToolResult {
	return toolError(FormatErrorString(CodeInvalidArguments, "decode arguments: "+err.Error()))
}

func toolError(errResp *ErrorResponse) *mcp.CallToolResult {
	errJSON, _ := json.Marshal(errResp)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(errJSON)},
		},
		IsError: true,
	}
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// ListenAndServe serves Handler on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
