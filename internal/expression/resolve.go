package expression

import (
	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/mapping"
	"github.com/roach88/xsltmap/internal/nodepath"
)

// Sources is the explicit context references are resolved against.
type Sources struct {
	Body   document.Document
	Params *document.Registry
	// Namespaces maps expression prefixes to URIs, normally the mapping
	// tree's namespace map.
	Namespaces map[string]string
}

// With returns a copy of s in which doc replaces the document with the same
// identity. The parameter registry is copied, never mutated.
func (s Sources) With(doc document.Document) Sources {
	out := s
	switch doc.DocumentType() {
	case document.SourceBody:
		out.Body = doc
	case document.Param:
		params := document.NewRegistry()
		if s.Params != nil {
			for name, d := range s.Params.All() {
				params.Set(name, d)
			}
		}
		params.Set(doc.DocumentID(), doc)
		out.Params = params
	}
	return out
}

// Node is a resolved position: a document root or one of its fields.
type Node struct {
	Document document.Document
	Field    *document.Field
}

// Path returns the node address.
func (n Node) Path() nodepath.Path {
	if n.Field != nil {
		return n.Field.NodePath()
	}
	return n.Document.NodePath()
}

func (n Node) container() document.Container {
	if n.Field != nil {
		return n.Field
	}
	return document.AsContainer(n.Document)
}

// Target reports the identity of the document ref addresses. A relative
// reference addresses the context's document, or the source body when there
// is no context.
func Target(ref Ref, context *Node) (document.Type, string) {
	switch {
	case ref.Param != "":
		return document.Param, ref.Param
	case ref.IsRelative() && context != nil:
		return context.Document.DocumentType(), context.Document.DocumentID()
	default:
		return document.SourceBody, document.BodyID
	}
}

// Refers reports whether ref addresses the document with the given identity.
func Refers(ref Ref, context *Node, documentType document.Type, documentID string) bool {
	t, id := Target(ref, context)
	return t == documentType && id == documentID
}

// Resolve resolves ref to zero or one node. Relative references start at
// context, or at the source body root when context is nil.
func Resolve(ref Ref, sources Sources, context *Node) (Node, bool) {
	var cur Node
	switch {
	case ref.Param != "":
		if sources.Params == nil {
			return Node{}, false
		}
		doc, ok := sources.Params.Get(ref.Param)
		if !ok {
			return Node{}, false
		}
		cur = Node{Document: doc}
	case ref.IsRelative() && context != nil:
		cur = *context
	default:
		if sources.Body == nil {
			return Node{}, false
		}
		cur = Node{Document: sources.Body}
	}

	for _, step := range ref.Steps {
		next, ok := resolveStep(cur, step, sources.Namespaces)
		if !ok {
			return Node{}, false
		}
		cur = next
	}
	return cur, true
}

func resolveStep(cur Node, step Step, namespaces map[string]string) (Node, bool) {
	switch step.Kind {
	case StepSelf:
		return cur, true
	case StepParent:
		if cur.Field == nil {
			return Node{}, false
		}
		if parent, ok := cur.Field.Parent().(*document.Field); ok {
			return Node{Document: cur.Document, Field: parent}, true
		}
		return Node{Document: cur.Document}, true
	case StepName:
		c := cur.container()
		if c == nil {
			return Node{}, false
		}
		f := matchField(c, step, namespaces)
		if f == nil {
			return Node{}, false
		}
		return Node{Document: cur.Document, Field: f}, true
	default:
		return Node{}, false
	}
}

// matchField finds the child named by step. A prefixed step needs a declared
// prefix and an exact namespace match. An unprefixed step prefers a field
// without namespace and falls back to the first field with that local name.
func matchField(c document.Container, step Step, namespaces map[string]string) *document.Field {
	if step.Prefix != "" {
		uri, ok := namespaces[step.Prefix]
		if !ok {
			return nil
		}
		return c.Field(step.Name, uri, step.Attribute)
	}
	if f := c.Field(step.Name, "", step.Attribute); f != nil {
		return f
	}
	for _, f := range c.Fields() {
		if f.Name == step.Name && f.IsAttribute == step.Attribute {
			return f
		}
	}
	return nil
}

// ChildContext returns the context children of item are resolved against.
func ChildContext(item *mapping.Item, sources Sources, context *Node) (*Node, bool) {
	if item.Kind != mapping.KindForEach {
		return context, true
	}
	n, ok := resolveFirst(item.Expression, sources, context)
	if !ok {
		return nil, false
	}
	return &n, true
}

func resolveFirst(expr string, sources Sources, context *Node) (Node, bool) {
	for _, ref := range References(expr) {
		if n, ok := Resolve(ref, sources, context); ok {
			return n, true
		}
	}
	return Node{}, false
}
