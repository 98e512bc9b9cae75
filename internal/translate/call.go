package translate

import (
	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// call lowers a procedure call. The procedure receives its arguments as
// one list and returns a list of result rows:
//
//	flatMap(<args>.map(cypherProcedureCall('name')).unfold()).as(row)
//
// and every yielded field is rebound from the row.
func (t *translator) call(c *ast.Call) ReturnTable {
	sig, ok := t.ctx.Procedures.Lookup(c.Procedure)
	if !ok {
		t.fail(ErrCodeUnknownProcedure, "There is no procedure with the name `%s` registered for this database instance", c.Procedure)
		return nil
	}
	types := make([]ast.Type, len(c.Args))
	for i, a := range c.Args {
		types[i] = t.typeOf(a)
	}
	if err := sig.CheckArgs(types); err != nil {
		t.fail(ErrCodeProcedureArguments, "%s", err.Error())
		return nil
	}

	yields := c.Yields
	if c.Implicit || len(yields) == 0 {
		yields = make([]*ast.YieldItem, len(sig.Results))
		for i, r := range sig.Results {
			yields[i] = &ast.YieldItem{Field: r.Name}
		}
	}
	cols := make(ReturnTable, len(yields))
	for i, y := range yields {
		f, ok := sig.Result(y.Field)
		if !ok {
			t.fail(ErrCodeUnknownYield, "Unknown procedure output: `%s`", y.Field)
			return nil
		}
		cols[i] = Column{Name: y.Name(), Type: f.Type}
	}

	t.source()
	args := t.list(c.Args)
	row := t.env.Fresh(steps.Generated)
	t.main.FlatMap(args.MapFunction(steps.ProcedureCall(sig.Name)).Unfold()).As(row)
	for i, y := range yields {
		name := y.Name()
		t.main.Select(row).Select(y.Field).As(name)
		t.bind(name, &binding{label: name, typ: cols[i].Type, nullable: true})
	}
	t.logger.Debug("lowered procedure call", "procedure", sig.Name, "yields", len(yields))
	return cols
}
