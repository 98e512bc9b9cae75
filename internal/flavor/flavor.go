// Package flavor selects the decorator chain that adapts emitted steps to
// a particular Gremlin engine.
//
// A decorator wraps a steps.Steps and intercepts the primitives its engine
// cannot run, substituting an equivalent sequence or recording an error.
// Everything else passes through unchanged. The chain is fixed per flavor
// and built once per translation.
package flavor

import (
	"fmt"
	"sort"

	"github.com/roach88/cyphergremlin/internal/steps"
)

// Decorator wraps a builder.
type Decorator func(steps.Steps) steps.Steps

// Flavor is a named target engine profile.
type Flavor struct {
	Name string

	// Decorators apply innermost first.
	Decorators []Decorator

	// CustomFunctions reports whether the engine has the runtime
	// extension installed.
	CustomFunctions bool
}

var (
	// Gremlin targets Gremlin Server with the runtime extension.
	Gremlin = Flavor{Name: "gremlin", CustomFunctions: true}

	// GremlinPlain targets a Gremlin Server without the runtime extension.
	GremlinPlain = Flavor{
		Name:       "gremlin-plain",
		Decorators: []Decorator{NewNoCustomFunctions},
	}

	// CosmosDBFlavor targets Azure Cosmos DB.
	CosmosDBFlavor = Flavor{
		Name:       "cosmosdb",
		Decorators: []Decorator{NewCosmosDB, NewNoCustomFunctions},
	}
)

var flavors = map[string]Flavor{
	Gremlin.Name:        Gremlin,
	GremlinPlain.Name:   GremlinPlain,
	CosmosDBFlavor.Name: CosmosDBFlavor,
}

// Default is the flavor used when none is selected.
const Default = "gremlin"

// Lookup returns the flavor registered under name. The empty name selects
// Default.
func Lookup(name string) (Flavor, error) {
	if name == "" {
		name = Default
	}
	f, ok := flavors[name]
	if !ok {
		return Flavor{}, fmt.Errorf("unknown flavor %q (known: %v)", name, Names())
	}
	return f, nil
}

// Names returns the sorted flavor names.
func Names() []string {
	names := make([]string, 0, len(flavors))
	for n := range flavors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Decorate wraps b with the flavor's decorators.
func (f Flavor) Decorate(b steps.Steps) steps.Steps {
	for _, d := range f.Decorators {
		b = d(b)
	}
	return b
}
