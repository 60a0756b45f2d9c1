package consistency

import (
	"github.com/roach88/xsltmap/internal/expression"
	"github.com/roach88/xsltmap/internal/mapping"
)

// scope is the for-each context of an item, resolved against the documents
// before (old) and after (new) the change. A lost context sits below a
// for-each that does not resolve.
type scope struct {
	old, new         *expression.Node
	oldLost, newLost bool
}

// pruner rebuilds a tree, asking keep for a childless copy of each item.
// Dropping an item drops its subtree.
type pruner struct {
	old, new expression.Sources
	keep     func(item *mapping.Item, s scope) (*mapping.Item, bool)
}

func (p *pruner) rebuild(tree *mapping.Tree) *mapping.Tree {
	out := emptyLike(tree)
	p.copyChildren(out, tree, scope{})
	return out
}

// emptyLike returns a tree with the identity and namespaces of tree and no
// items.
func emptyLike(tree *mapping.Tree) *mapping.Tree {
	out := mapping.NewTree(tree.DocumentType, tree.DocumentID)
	for prefix, uri := range tree.Namespaces {
		out.Namespaces[prefix] = uri
	}
	return out
}

func (p *pruner) copyChildren(dst, src mapping.Parent, s scope) {
	for _, item := range src.Children() {
		out, ok := p.keep(item, s)
		if !ok {
			continue
		}
		mapping.Append(dst, out)
		p.copyChildren(out, item, p.enter(item, s))
	}
}

func (p *pruner) enter(item *mapping.Item, s scope) scope {
	if item.Kind != mapping.KindForEach {
		return s
	}
	next := s
	var ok bool
	if !s.oldLost {
		next.old, ok = expression.ChildContext(item, p.old, s.old)
		next.oldLost = !ok
	}
	if !s.newLost {
		next.new, ok = expression.ChildContext(item, p.new, s.new)
		next.newLost = !ok
	}
	return next
}
