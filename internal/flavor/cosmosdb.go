package flavor

import (
	"github.com/roach88/cyphergremlin/internal/steps"
)

// CosmosDB patches the steps Azure Cosmos DB cannot evaluate:
//
//	values(k)           -> properties(k).value()
//	choose(P, t, f)     -> choose(__.is(P), t, f)
type CosmosDB struct {
	*steps.Forward
}

// NewCosmosDB wraps inner.
func NewCosmosDB(inner steps.Steps) steps.Steps {
	d := &CosmosDB{}
	d.Forward = steps.NewForward(inner, d, NewCosmosDB)
	return d
}

func (d *CosmosDB) Values(keys ...string) steps.Steps {
	if len(keys) == 0 {
		d.Inner.Properties().Value()
		return d.Self
	}
	d.Inner.Properties().HasKey(keys...).Value()
	return d.Self
}

func (d *CosmosDB) ChoosePredicate(p steps.P, trueChoice, falseChoice steps.Steps) steps.Steps {
	if falseChoice == nil {
		falseChoice = d.Self.Start().Identity()
	}
	d.Inner.Choose(d.Self.Start().Is(p), trueChoice, falseChoice)
	return d.Self
}
