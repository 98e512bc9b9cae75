// Package procedures holds the signatures of the external procedures a
// query may CALL.
//
// Signatures are resolved at translation time: an unknown name, a wrong
// argument count or an argument whose static type cannot satisfy the
// declared parameter type fails the translation. The registry publishes
// immutable snapshots; a translation takes one snapshot up front and never
// observes registrations made while it runs.
package procedures

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/roach88/cyphergremlin/internal/ast"
)

// Field is one named, typed parameter or result column.
type Field struct {
	Name string   `yaml:"name" json:"name"`
	Type ast.Type `yaml:"type" json:"type"`
}

// Signature describes one callable procedure.
type Signature struct {
	Name    string  `yaml:"name" json:"name"`
	Params  []Field `yaml:"params" json:"params"`
	Results []Field `yaml:"results" json:"results"`
}

// Result returns the result field named name.
func (s Signature) Result(name string) (Field, bool) {
	for _, f := range s.Results {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CheckArgs validates the static types of call arguments against the
// declared parameters.
func (s Signature) CheckArgs(args []ast.Type) error {
	if len(args) != len(s.Params) {
		return fmt.Errorf("procedure %s expects %d argument(s), got %d", s.Name, len(s.Params), len(args))
	}
	for i, p := range s.Params {
		if !args[i].AssignableTo(p.Type) {
			return fmt.Errorf("procedure %s argument %q expects %s, got %s", s.Name, p.Name, p.Type, args[i])
		}
	}
	return nil
}

func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteString("(")
	writeFields(&sb, s.Params)
	sb.WriteString(") :: (")
	writeFields(&sb, s.Results)
	sb.WriteString(")")
	return sb.String()
}

func writeFields(sb *strings.Builder, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s :: %s", f.Name, f.Type)
	}
}

// validate normalizes field types and rejects malformed signatures.
func validate(s Signature) (Signature, error) {
	if s.Name == "" {
		return s, fmt.Errorf("procedure signature has no name")
	}
	if len(s.Results) == 0 {
		return s, fmt.Errorf("procedure %s declares no results", s.Name)
	}
	out := Signature{Name: s.Name}
	fix := func(kind string, fields []Field) ([]Field, error) {
		seen := map[string]bool{}
		res := make([]Field, len(fields))
		for i, f := range fields {
			if f.Name == "" {
				return nil, fmt.Errorf("procedure %s: %s %d has no name", s.Name, kind, i)
			}
			if seen[f.Name] {
				return nil, fmt.Errorf("procedure %s: duplicate %s %q", s.Name, kind, f.Name)
			}
			seen[f.Name] = true
			t := ast.TypeAny
			if f.Type != "" {
				var ok bool
				if t, ok = ast.ParseType(string(f.Type)); !ok {
					return nil, fmt.Errorf("procedure %s: %s %q has unknown type %q", s.Name, kind, f.Name, f.Type)
				}
			}
			res[i] = Field{Name: f.Name, Type: t}
		}
		return res, nil
	}
	var err error
	if out.Params, err = fix("param", s.Params); err != nil {
		return s, err
	}
	if out.Results, err = fix("result", s.Results); err != nil {
		return s, err
	}
	return out, nil
}

// Snapshot is an immutable set of signatures.
type Snapshot struct {
	byName map[string]Signature
	digest uint64
}

// NewSnapshot validates sigs and builds a snapshot. Later duplicates
// replace earlier ones.
func NewSnapshot(sigs ...Signature) (*Snapshot, error) {
	s := &Snapshot{byName: make(map[string]Signature, len(sigs))}
	for _, sig := range sigs {
		v, err := validate(sig)
		if err != nil {
			return nil, err
		}
		s.byName[v.Name] = v
	}
	h := xxh3.New()
	for _, sig := range s.Signatures() {
		h.WriteString(sig.String())
		h.Write([]byte{0})
	}
	s.digest = h.Sum64()
	return s, nil
}

// Digest identifies the signature set by content. Equal sets built in any
// order, or in another process, have equal digests.
func (s *Snapshot) Digest() uint64 {
	if s == nil {
		return 0
	}
	return s.digest
}

// Lookup returns the signature registered under name.
func (s *Snapshot) Lookup(name string) (Signature, bool) {
	if s == nil {
		return Signature{}, false
	}
	sig, ok := s.byName[name]
	return sig, ok
}

// Len returns the number of signatures.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byName)
}

// Signatures returns every signature sorted by name.
func (s *Snapshot) Signatures() []Signature {
	if s == nil {
		return nil
	}
	out := make([]Signature, 0, len(s.byName))
	for _, sig := range s.byName {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Builtins are the schema procedures every registry starts with.
var Builtins = []Signature{
	{Name: "db.labels", Results: []Field{{Name: "label", Type: ast.TypeString}}},
	{Name: "db.relationshipTypes", Results: []Field{{Name: "relationshipType", Type: ast.TypeString}}},
	{Name: "db.propertyKeys", Results: []Field{{Name: "propertyKey", Type: ast.TypeString}}},
}

// Registry publishes signature snapshots. Readers never block; writers
// serialize among themselves and swap in a new snapshot.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry holding Builtins plus sigs.
func NewRegistry(sigs ...Signature) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(sigs); err != nil {
		return nil, err
	}
	return r, nil
}

// Snapshot returns the current signature set.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Register adds or replaces signatures.
func (r *Registry) Register(sigs ...Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.current.Load().Signatures()
	next, err := NewSnapshot(append(all, sigs...)...)
	if err != nil {
		return err
	}
	r.current.Store(next)
	return nil
}

// Replace swaps the whole set for Builtins plus sigs.
func (r *Registry) Replace(sigs []Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Signature, 0, len(Builtins)+len(sigs))
	all = append(all, Builtins...)
	next, err := NewSnapshot(append(all, sigs...)...)
	if err != nil {
		return err
	}
	r.current.Store(next)
	return nil
}
