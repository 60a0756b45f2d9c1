// Package links derives the source-to-target pairs a mapping tree implies,
// for display.
package links

import (
	"iter"

	"github.com/roach88/xsltmap/internal/expression"
	"github.com/roach88/xsltmap/internal/mapping"
	"github.com/roach88/xsltmap/internal/nodepath"
)

// Link connects a source node to the mapping item that reads it.
type Link struct {
	Source nodepath.Path `json:"source"`
	Target nodepath.Path `json:"target"`
}

// Extract yields one link per resolved reference of every item carrying an
// expression. The target is the item path. References that do not resolve
// against sources are left out. Each range walks the tree again.
func Extract(tree *mapping.Tree, sources expression.Sources) iter.Seq[Link] {
	if sources.Namespaces == nil {
		sources.Namespaces = tree.Namespaces
	}
	return func(yield func(Link) bool) {
		walk(tree, sources, nil, true, yield)
	}
}

// Collect returns the links of tree as a slice.
func Collect(tree *mapping.Tree, sources expression.Sources) []Link {
	var out []Link
	for l := range Extract(tree, sources) {
		out = append(out, l)
	}
	return out
}

// walk reports false once yield asked to stop. resolved is false below a
// for-each that does not resolve, where relative references are skipped.
func walk(parent mapping.Parent, sources expression.Sources, context *expression.Node, resolved bool, yield func(Link) bool) bool {
	for _, item := range parent.Children() {
		if item.HasExpression() {
			for _, ref := range expression.References(item.Expression) {
				if ref.IsRelative() && !resolved {
					continue
				}
				n, ok := expression.Resolve(ref, sources, context)
				if !ok {
					continue
				}
				if !yield(Link{Source: n.Path(), Target: item.NodePath()}) {
					return false
				}
			}
		}

		childContext, childResolved := context, resolved
		if item.Kind == mapping.KindForEach && resolved {
			childContext, childResolved = expression.ChildContext(item, sources, context)
		}
		if !walk(item, sources, childContext, childResolved, yield) {
			return false
		}
	}
	return true
}
