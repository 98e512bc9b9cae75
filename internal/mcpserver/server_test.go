package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/cache"
	"github.com/roach88/cyphergremlin/internal/facade"
	"github.com/roach88/cyphergremlin/internal/procedures"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	reg, err := procedures.NewRegistry()
	require.NoError(t, err)
	tr, err := facade.New(reg, facade.WithCache(cache.NewMemory(10, 0)))
	require.NoError(t, err)
	return NewServer(tr, reg, "gremlin", nil)
}

func call(args string) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleTranslate(t *testing.T) {
	srv := newServer(t)
	res, err := srv.handleTranslate(context.Background(), call(`{"query": "MATCH (n:person) RETURN n"}`))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var resp facade.Response
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &resp))
	assert.Equal(t, "g.V().as('n').where(__.select('n').hasLabel('person')).project('n').by(__.select('n'))", resp.Translation)
	require.Len(t, resp.Columns, 1)
	assert.Equal(t, "n", resp.Columns[0].Name)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHandleTranslate_IntegerParams(t *testing.T) {
	srv := newServer(t)
	res, err := srv.handleTranslate(context.Background(), call(`{"query": "MATCH (n) RETURN n LIMIT $n", "params": {"n": 2}}`))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), ".limit(2)")
}

func TestHandleTranslate_Errors(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name string
		args string
		want string
	}{
		{"missing query", `{}`, "missing required 'query'"},
		{"bad json", `{"query": `, "invalid arguments"},
		{"syntax", `{"query": "MATCH (n RETURN n"}`, "translate error"},
		{"unknown flavor", `{"query": "RETURN 1 AS x", "flavor": "neo4j"}`, "unknown flavor"},
		{"unsupported", `{"query": "MATCH (n) WHERE n.name =~ 'a.*' RETURN n", "flavor": "gremlin-plain"}`, "translate error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleTranslate(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestHandleExplain(t *testing.T) {
	srv := newServer(t)
	res, err := srv.handleExplain(context.Background(), call(`{"query": "EXPLAIN MATCH (n) RETURN n"}`))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var exp facade.Explanation
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &exp))
	assert.Equal(t, []string{"EXPLAIN"}, exp.Options)
	assert.Contains(t, exp.Translation, "g.V()")
}

func TestHandleListProcedures(t *testing.T) {
	srv := newServer(t)
	res, err := srv.handleListProcedures(context.Background(), call(`{}`))
	require.NoError(t, err)

	var out struct {
		Procedures []map[string]string `json:"procedures"`
		Total      int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, len(procedures.Builtins), out.Total)
	assert.Equal(t, "db.labels", out.Procedures[0]["name"])
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"n":    float64(3),
		"f":    1.5,
		"list": []any{float64(1), "a"},
		"m":    map[string]any{"k": float64(-2)},
	}
	got := normalize(in)
	assert.Equal(t, map[string]any{
		"n":    int64(3),
		"f":    1.5,
		"list": []any{int64(1), "a"},
		"m":    map[string]any{"k": int64(-2)},
	}, got)
}

func TestNewServer(t *testing.T) {
	srv := newServer(t)
	assert.NotNil(t, srv.MCPServer())
}
