// Package mapping provides the mapping tree, the intermediate representation
// of a transformation from source documents to a target document.
//
// A Tree is owned by one target document. Its children are Items, a closed
// set of kinds discriminated by Item.Kind:
//
//	fieldItem      binds a target field at this position
//	valueSelector  emits a value or a whole node selected by an expression
//	if             conditional inclusion
//	choose         multi-branch conditional holding when* otherwise?
//	when           guarded branch of a choose
//	otherwise      fallback branch of a choose
//	forEach        iterates a source node-set
//
// Children are owned by their parent in insertion order; that order is the
// output document order. The parent back-reference is non-owning, reset on
// every attach and never serialized. Item paths are derived from the current
// position, never stored.
//
// Operations that rewrite a tree work on a Clone and leave the input
// untouched, so a caller can swap the new tree in atomically.
package mapping
