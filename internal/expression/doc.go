// Package expression finds location paths inside mapping expressions and
// resolves them structurally against the source documents.
//
// Expressions stay opaque strings everywhere else. This package does not
// evaluate anything: it recognises $param roots, absolute and relative
// steps, attribute steps, prefixed names, "." and "..", and skips string
// literals, numbers, function names, operators and predicates. A reference
// resolves to zero or one node.
package expression
