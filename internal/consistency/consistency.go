package consistency

import (
	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/expression"
	"github.com/roach88/xsltmap/internal/mapping"
)

// Policy names the rewrite applied when a document changes.
type Policy int

const (
	// PolicyNone leaves the tree as it is.
	PolicyNone Policy = iota
	PolicyRemoveAll
	PolicyRemoveStale
)

func (p Policy) String() string {
	switch p {
	case PolicyRemoveAll:
		return "remove-all"
	case PolicyRemoveStale:
		return "remove-stale"
	default:
		return "none"
	}
}

// SelectPolicy picks the policy for replacing oldDoc with newDoc. A nil
// oldDoc is an addition, which nothing can reference yet.
func SelectPolicy(oldDoc, newDoc document.Document) Policy {
	switch {
	case oldDoc == nil:
		return PolicyNone
	case newDoc == nil, oldDoc.IsPrimitive(), newDoc.IsPrimitive():
		return PolicyRemoveAll
	default:
		return PolicyRemoveStale
	}
}

// ReplaceDocument rewrites tree for oldDoc being replaced by newDoc.
// sources describes the documents before the replacement.
func ReplaceDocument(tree *mapping.Tree, oldDoc, newDoc document.Document, sources expression.Sources) *mapping.Tree {
	switch SelectPolicy(oldDoc, newDoc) {
	case PolicyRemoveAll:
		return RemoveAllForDocument(tree, oldDoc.DocumentType(), oldDoc.DocumentID(), sources)
	case PolicyRemoveStale:
		return RemoveStaleForDocument(tree, newDoc, sources)
	default:
		return mapping.Clone(tree)
	}
}

// DeleteDocument rewrites tree for the document being removed outright.
func DeleteDocument(tree *mapping.Tree, documentType document.Type, documentID string, sources expression.Sources) *mapping.Tree {
	return RemoveAllForDocument(tree, documentType, documentID, sources)
}

// RemoveAllForDocument drops every item that references the document. For
// the target body that is every item; namespaces are kept.
func RemoveAllForDocument(tree *mapping.Tree, documentType document.Type, documentID string, sources expression.Sources) *mapping.Tree {
	if documentType == document.TargetBody {
		return emptyLike(tree)
	}

	sources = withNamespaces(sources, tree)
	p := &pruner{
		old: sources,
		new: sources,
		keep: func(item *mapping.Item, s scope) (*mapping.Item, bool) {
			if !item.HasExpression() {
				return copyItem(item), true
			}
			for _, ref := range expression.References(item.Expression) {
				if ref.IsRelative() && s.oldLost {
					continue
				}
				if expression.Refers(ref, s.old, documentType, documentID) {
					return nil, false
				}
			}
			return copyItem(item), true
		},
	}
	return p.rebuild(tree)
}

// RemoveStaleForDocument drops the items bound to parts of the document that
// have no equivalent in newDoc, matching fields by their name and namespace
// chain. Target field items that survive are rebound to the fields of
// newDoc. sources describes the documents before the replacement.
func RemoveStaleForDocument(tree *mapping.Tree, newDoc document.Document, sources expression.Sources) *mapping.Tree {
	if newDoc.DocumentType() == document.TargetBody {
		root := document.AsContainer(newDoc)
		p := &pruner{
			keep: func(item *mapping.Item, _ scope) (*mapping.Item, bool) {
				if item.Kind != mapping.KindField {
					return copyItem(item), true
				}
				f := document.Equivalent(root, item.Field)
				if f == nil {
					return nil, false
				}
				out := copyItem(item)
				out.ID = f.ID
				out.Field = f
				return out, true
			},
		}
		out := p.rebuild(tree)
		out.DocumentID = newDoc.DocumentID()
		return out
	}

	sources = withNamespaces(sources, tree)
	newSources := sources.With(newDoc)
	documentType, documentID := newDoc.DocumentType(), newDoc.DocumentID()
	p := &pruner{
		old: sources,
		new: newSources,
		keep: func(item *mapping.Item, s scope) (*mapping.Item, bool) {
			if !item.HasExpression() {
				return copyItem(item), true
			}
			for _, ref := range expression.References(item.Expression) {
				if ref.IsRelative() && s.oldLost {
					continue
				}
				if !expression.Refers(ref, s.old, documentType, documentID) {
					continue
				}
				if _, ok := expression.Resolve(ref, sources, s.old); !ok {
					continue
				}
				if ref.IsRelative() && s.newLost {
					return nil, false
				}
				if _, ok := expression.Resolve(ref, newSources, s.new); !ok {
					return nil, false
				}
			}
			return copyItem(item), true
		},
	}
	return p.rebuild(tree)
}

func withNamespaces(sources expression.Sources, tree *mapping.Tree) expression.Sources {
	if sources.Namespaces == nil {
		sources.Namespaces = tree.Namespaces
	}
	return sources
}

// copyItem copies item without its children.
func copyItem(item *mapping.Item) *mapping.Item {
	return &mapping.Item{
		Kind:       item.Kind,
		ID:         item.ID,
		Expression: item.Expression,
		ValueType:  item.ValueType,
		Field:      item.Field,
	}
}
