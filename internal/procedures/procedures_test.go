package procedures

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cyphergremlin/internal/ast"
)

func TestRegistryStartsWithBuiltins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Equal(t, 3, snap.Len())
	sig, ok := snap.Lookup("db.labels")
	require.True(t, ok)
	assert.Equal(t, "db.labels() :: (label :: STRING)", sig.String())
}

func TestSnapshotIsImmutable(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	before := r.Snapshot()

	require.NoError(t, r.Register(Signature{Name: "x.y", Results: []Field{{Name: "v"}}}))

	_, ok := before.Lookup("x.y")
	assert.False(t, ok, "a taken snapshot never sees later registrations")
	sig, ok := r.Snapshot().Lookup("x.y")
	require.True(t, ok)
	assert.Equal(t, ast.TypeAny, sig.Results[0].Type)
}

func TestSnapshotDigest(t *testing.T) {
	a := Signature{Name: "x.a", Results: []Field{{Name: "v", Type: ast.TypeString}}}
	b := Signature{Name: "x.b", Params: []Field{{Name: "n", Type: ast.TypeInteger}}}

	ab, err := NewSnapshot(a, b)
	require.NoError(t, err)
	ba, err := NewSnapshot(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab.Digest(), ba.Digest())

	r, err := NewRegistry()
	require.NoError(t, err)
	builtins := r.Snapshot().Digest()
	assert.NotZero(t, builtins)

	require.NoError(t, r.Register(a))
	registered := r.Snapshot().Digest()
	assert.NotEqual(t, builtins, registered)

	a.Results[0].Type = ast.TypeInteger
	require.NoError(t, r.Register(a))
	assert.NotEqual(t, registered, r.Snapshot().Digest(), "a changed result type changes the digest")

	require.NoError(t, r.Replace(nil))
	assert.Equal(t, builtins, r.Snapshot().Digest())

	var empty *Snapshot
	assert.Zero(t, empty.Digest())
}

func TestRegisterRejectsMalformedSignatures(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		name string
		sig  Signature
		want string
	}{
		{"no name", Signature{Results: []Field{{Name: "a"}}}, "no name"},
		{"no results", Signature{Name: "a.b"}, "declares no results"},
		{"bad type", Signature{Name: "a.b", Results: []Field{{Name: "a", Type: "WIDGET"}}}, "unknown type"},
		{"duplicate", Signature{Name: "a.b", Results: []Field{{Name: "a"}, {Name: "a"}}}, "duplicate result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.sig)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Equal(t, 3, r.Snapshot().Len())
}

func TestCheckArgs(t *testing.T) {
	sig, err := validate(Signature{
		Name:    "test.inc",
		Params:  []Field{{Name: "a", Type: "NUMBER"}},
		Results: []Field{{Name: "r", Type: "INTEGER"}},
	})
	require.NoError(t, err)

	assert.NoError(t, sig.CheckArgs([]ast.Type{ast.TypeInteger}))
	assert.NoError(t, sig.CheckArgs([]ast.Type{ast.TypeAny}))
	assert.NoError(t, sig.CheckArgs([]ast.Type{ast.TypeNull}))

	err = sig.CheckArgs([]ast.Type{ast.TypeString})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `argument "a" expects NUMBER, got STRING`)

	err = sig.CheckArgs(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 1 argument(s), got 0")
}

func TestLoadCUE(t *testing.T) {
	sigs, err := LoadFile(filepath.Join("testdata", "graph.cue"))
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	snap, err := NewSnapshot(sigs...)
	require.NoError(t, err)
	sig, ok := snap.Lookup("test.getName")
	require.True(t, ok)
	assert.Equal(t, "test.getName(id :: INTEGER) :: (name :: STRING)", sig.String())
}

func TestLoadCUEReportsPosition(t *testing.T) {
	_, err := LoadCUE("bad.cue", []byte("procedure: {\n\t\"a.b\": {results: [\n}"))
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "bad.cue", le.File)
}

func TestLoadYAML(t *testing.T) {
	sigs, err := LoadFile(filepath.Join("testdata", "more.yaml"))
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	snap, err := NewSnapshot(sigs...)
	require.NoError(t, err)
	sig, _ := snap.Lookup("test.multi")
	assert.Equal(t, ast.TypeList, sig.Results[1].Type)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	_, err := LoadYAML("x.yaml", strings.NewReader("procedures:\n  - name: a.b\n    yields: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yields")
}

func TestLoadDir(t *testing.T) {
	sigs, err := LoadDir("testdata")
	require.NoError(t, err)

	var names []string
	for _, s := range sigs {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"test.getName", "test.inc", "test.multi"}, names)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "procs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("procedures:\n  - name: a.one\n    results: [{name: x}]\n"), 0o644))

	r, err := NewRegistry()
	require.NoError(t, err)

	var reloads atomic.Int32
	w, err := NewWatcher(dir, r, nil,
		WithDebounceDelay(10*time.Millisecond),
		WithOnReload(func(int) { reloads.Add(1) }))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	_, ok := r.Snapshot().Lookup("a.one")
	require.True(t, ok, "Start loads the directory")

	require.NoError(t, os.WriteFile(path, []byte("procedures:\n  - name: a.two\n    results: [{name: x}]\n"), 0o644))

	require.Eventually(t, func() bool {
		_, ok := r.Snapshot().Lookup("a.two")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	_, ok = r.Snapshot().Lookup("a.one")
	assert.False(t, ok, "a reload replaces the directory contents")
	_, ok = r.Snapshot().Lookup("db.labels")
	assert.True(t, ok, "builtins survive reloads")
	assert.GreaterOrEqual(t, reloads.Load(), int32(2))
}
