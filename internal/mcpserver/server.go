// Package mcpserver exposes the translator as Model Context Protocol tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/cyphergremlin/internal/facade"
	"github.com/roach88/cyphergremlin/internal/procedures"
)

// Version is reported in the MCP handshake.
var Version = "0.1.0"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp        *mcp.Server
	translator *facade.Translator
	registry   *procedures.Registry
	flavor     string
	logger     *slog.Logger
}

// NewServer creates an MCP server with all tools registered. flavor is the
// default for requests that do not name one.
func NewServer(tr *facade.Translator, registry *procedures.Registry, flavor string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		translator: tr,
		registry:   registry,
		flavor:     flavor,
		logger:     logger,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "cyphergremlin",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves over stdin and stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "version", Version)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "translate_cypher",
		Description: "Translate a Cypher query into a Gremlin traversal. Returns the Gremlin text (or GraphSON bytecode), the return columns with their types, and the statement options.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Cypher query text, e.g. 'MATCH (n:person) RETURN n.name'"
				},
				"params": {
					"type": "object",
					"description": "Query parameters referenced as $name"
				},
				"flavor": {
					"type": "string",
					"description": "Target engine profile",
					"enum": ["gremlin", "gremlin-plain", "cosmosdb"]
				},
				"encoding": {
					"type": "string",
					"description": "Output encoding",
					"enum": ["text", "bytecode"]
				}
			},
			"required": ["query"]
		}`),
	}, s.handleTranslate)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "explain_cypher",
		Description: "Show the Gremlin text a Cypher query translates to together with its statement options. Nothing is executed.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Cypher query text"
				},
				"params": {
					"type": "object",
					"description": "Query parameters referenced as $name"
				},
				"flavor": {
					"type": "string",
					"description": "Target engine profile",
					"enum": ["gremlin", "gremlin-plain", "cosmosdb"]
				}
			},
			"required": ["query"]
		}`),
	}, s.handleExplain)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_procedures",
		Description: "List the procedure signatures CALL clauses are checked against.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProcedures)
}

func (s *Server) handleTranslate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.request(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	resp, err := s.translator.Translate(ctx, r)
	if err != nil {
		return errResult(fmt.Sprintf("translate error: %v", err)), nil
	}
	return jsonResult(resp), nil
}

func (s *Server) handleExplain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.request(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	exp, err := s.translator.Explain(ctx, r)
	if err != nil {
		return errResult(fmt.Sprintf("explain error: %v", err)), nil
	}
	return jsonResult(exp), nil
}

func (s *Server) handleListProcedures(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sigs := s.registry.Snapshot().Signatures()
	out := make([]map[string]any, len(sigs))
	for i, sig := range sigs {
		out[i] = map[string]any{
			"name":      sig.Name,
			"signature": sig.String(),
		}
	}
	return jsonResult(map[string]any{"procedures": out, "total": len(out)}), nil
}

// request decodes tool arguments into a facade request.
func (s *Server) request(req *mcp.CallToolRequest) (facade.Request, error) {
	args, err := parseArgs(req)
	if err != nil {
		return facade.Request{}, err
	}
	query := getStringArg(args, "query")
	if query == "" {
		return facade.Request{}, fmt.Errorf("missing required 'query' parameter")
	}
	r := facade.Request{
		Query:    query,
		Flavor:   getStringArg(args, "flavor"),
		Encoding: getStringArg(args, "encoding"),
	}
	if r.Flavor == "" {
		r.Flavor = s.flavor
	}
	if p, ok := args["params"].(map[string]any); ok {
		r.Params = normalize(p).(map[string]any)
	}
	return r, nil
}

// jsonResult marshals data as an indented text result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// normalize turns whole JSON numbers into int64 so parameters keep the
// integer type the query expects.
func normalize(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	}
	return v
}
