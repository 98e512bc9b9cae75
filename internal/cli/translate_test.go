package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and the
// command error.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTranslateText(t *testing.T) {
	out, err := execute(t, "", "translate", "MATCH (n:person) RETURN n")
	require.NoError(t, err)
	assert.Equal(t, "g.V().as('n').where(__.select('n').hasLabel('person')).project('n').by(__.select('n'))\n", out)
}

func TestTranslateJSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "translate", "UNWIND [1, 2] AS x RETURN x")
	require.NoError(t, err)

	var resp struct {
		Status    string          `json:"status"`
		RequestID string          `json:"request_id"`
		Data      TranslateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, resp.Data.RequestID)
	assert.Equal(t, "g.inject(1, 2).as('x').project('x').by(__.select('x'))", resp.Data.Translation)
	require.Len(t, resp.Data.Columns, 1)
	assert.Equal(t, "x", resp.Data.Columns[0].Name)
}

func TestTranslateStdin(t *testing.T) {
	out, err := execute(t, "MATCH (n) RETURN n\n", "translate", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "g.V()"), out)
}

func TestTranslateFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.cyp", "MATCH (n) RETURN n")
	out, err := execute(t, "", "translate", "-f", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "g.V()"), out)
}

func TestTranslateParams(t *testing.T) {
	out, err := execute(t, "", "translate", "-p", "max=5", "MATCH (n) RETURN n LIMIT $max")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), ".limit(5)"), out)
}

func TestTranslateBytecode(t *testing.T) {
	out, err := execute(t, "", "translate", "--encoding", "bytecode", "RETURN 1 AS x")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "g:Bytecode", doc["@type"])
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		errCode  string
	}{
		{"syntax", []string{"translate", "MATCH (n RETURN n"}, ExitFailure, ErrCodeSyntax},
		{"undefined variable", []string{"translate", "MATCH (n) RETURN m"}, ExitFailure, ErrCodeTranslation},
		{"unsupported on flavor", []string{"translate", "--flavor", "gremlin-plain", "MATCH (n) WHERE n.name =~ 'a.*' RETURN n"}, ExitFailure, ErrCodeUnsupported},
		{"no query", []string{"translate"}, ExitCommandError, ErrCodeNoQuery},
		{"bad param", []string{"translate", "-p", "novalue", "RETURN 1 AS x"}, ExitCommandError, ErrCodeInvalidArgs},
		{"missing query file", []string{"translate", "-f", "/nonexistent/q.cyp"}, ExitCommandError, ErrCodeNotFound},
		{"missing config", []string{"--config", "/nonexistent/config.yaml", "translate", "RETURN 1 AS x"}, ExitCommandError, ErrCodeNotFound},
		{"unknown flavor", []string{"translate", "--flavor", "neo4j", "RETURN 1 AS x"}, ExitCommandError, ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.errCode, resp.Error.Code)
		})
	}
}

func TestTranslateTextError(t *testing.T) {
	out, err := execute(t, "", "translate", "RETURN foo(1) AS x")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E102]")
	assert.Contains(t, out, "UNKNOWN_FUNCTION")
}

func TestTranslateWithConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "procs/test.yaml", `procedures:
  - name: test.echo
    params:
      - {name: value, type: STRING}
    results:
      - {name: out, type: STRING}
`)
	cfg := writeFile(t, dir, "config.yaml", "procedures: "+filepath.Join(dir, "procs")+"\ncache:\n  backend: sqlite\n  path: "+filepath.Join(dir, "cache.db")+"\n")

	out, err := execute(t, "", "--config", cfg, "translate", "CALL test.echo('a') YIELD out RETURN out")
	require.NoError(t, err)
	assert.Contains(t, out, "cypherProcedureCall('test.echo')")

	// Second run is served from the SQLite cache.
	out, err = execute(t, "", "--format", "json", "--config", cfg, "translate", "CALL test.echo('a') YIELD out RETURN out")
	require.NoError(t, err)
	var resp struct {
		Data TranslateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Cached)
}

func TestTranslateInvalidConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "config.yaml", "flavour: gremlin\n")
	out, err := execute(t, "", "--format", "json", "--config", cfg, "translate", "RETURN 1 AS x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeConfig)
}

func TestExplainCommand(t *testing.T) {
	out, err := execute(t, "", "explain", "EXPLAIN MATCH (n) RETURN n")
	require.NoError(t, err)
	assert.Contains(t, out, "Options: EXPLAIN")
	assert.Contains(t, out, "Translation:\n  g.V()")

	out, err = execute(t, "", "explain", "RETURN 1 AS x")
	require.NoError(t, err)
	assert.Contains(t, out, "Options: none")
}

func TestExplainJSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "explain", "EXPLAIN RETURN 1 AS x")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Translation string   `json:"translation"`
			Options     []string `json:"options"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"EXPLAIN"}, resp.Data.Options)
	assert.NotEmpty(t, resp.Data.Translation)
}
