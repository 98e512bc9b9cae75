// Package ast defines the query tree produced by the parser and consumed by
// the normalizer and the translator.
//
// Every node family is a sealed interface: only types in this package
// implement Query, Clause, Expr, SetItem and RemoveItem. The marker method
// pattern prevents external implementations and lets consumers write
// exhaustive type switches.
//
// Trees are treated as immutable once built. Passes that rewrite a tree
// (see package normalize) copy the nodes they change and share the rest.
//
// Node families:
//   - Statement: one submitted query plus its options (EXPLAIN)
//   - Query: SingleQuery or Union
//   - Clause: MATCH, CREATE, MERGE, DELETE, SET, REMOVE, WITH/RETURN, UNWIND, CALL
//   - PatternPart / NodePattern / RelPattern: pattern graphs
//   - Expr: scalar expression trees
package ast
