package document

import (
	"strconv"

	"github.com/roach88/xsltmap/internal/nodepath"
)

// Field is one node of a structured document.
type Field struct {
	// ID is unique among siblings. It is derived from the name, prefixed
	// with "@" for attributes and suffixed with "-N" on collision.
	ID           string
	Name         string
	NamespaceURI string
	IsAttribute  bool

	parent Container
	owner  *StructuredDocument
	fields []*Field
}

func (f *Field) Fields() []*Field                   { return f.fields }
func (f *Field) Parent() Container                  { return f.parent }
func (f *Field) OwnerDocument() *StructuredDocument { return f.owner }

func (f *Field) NodePath() nodepath.Path {
	return nodepath.ChildOf(f.parent.NodePath(), f.ID)
}

func (f *Field) Field(name, namespaceURI string, isAttribute bool) *Field {
	return findField(f.fields, name, namespaceURI, isAttribute)
}

func (f *Field) appendField(child *Field) {
	child.ID = uniqueID(f.fields, child.baseID())
	f.fields = append(f.fields, child)
}

// Matches reports whether the field has the given name, namespace and kind.
// An absent namespace equals the empty namespace.
func (f *Field) Matches(name, namespaceURI string, isAttribute bool) bool {
	return f.Name == name && f.NamespaceURI == namespaceURI && f.IsAttribute == isAttribute
}

func (f *Field) baseID() string {
	if f.IsAttribute {
		return "@" + f.Name
	}
	return f.Name
}

// AddField creates a field and appends it to parent unconditionally.
func AddField(parent Container, name, namespaceURI string, isAttribute bool) *Field {
	f := &Field{
		Name:         name,
		NamespaceURI: namespaceURI,
		IsAttribute:  isAttribute,
		parent:       parent,
		owner:        parent.OwnerDocument(),
	}
	parent.appendField(f)
	return f
}

// FindOrCreateField returns the child of parent matching name, namespace and
// kind, creating and appending it when missing. Calling it twice with the
// same arguments never produces two fields.
func FindOrCreateField(parent Container, name, namespaceURI string, isAttribute bool) (*Field, bool) {
	if existing := parent.Field(name, namespaceURI, isAttribute); existing != nil {
		return existing, false
	}
	return AddField(parent, name, namespaceURI, isAttribute), true
}

// Ancestry returns the chain of fields from the document's top-level field
// down to f, inclusive.
func Ancestry(f *Field) []*Field {
	var chain []*Field
	cur := f
	for {
		chain = append(chain, cur)
		parent, ok := cur.parent.(*Field)
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Equivalent finds the field in root's tree that sits at the same
// name/namespace chain as f. It returns nil when the chain is broken.
func Equivalent(root Container, f *Field) *Field {
	if root == nil || f == nil {
		return nil
	}
	var cur Container = root
	var found *Field
	for _, step := range Ancestry(f) {
		found = cur.Field(step.Name, step.NamespaceURI, step.IsAttribute)
		if found == nil {
			return nil
		}
		cur = found
	}
	return found
}

// Walk visits every field below c depth first, parents before children.
// Returning false from fn stops the descent into that field's children.
func Walk(c Container, fn func(*Field) bool) {
	for _, f := range c.Fields() {
		if fn(f) {
			Walk(f, fn)
		}
	}
}

func findField(fields []*Field, name, namespaceURI string, isAttribute bool) *Field {
	for _, f := range fields {
		if f.Matches(name, namespaceURI, isAttribute) {
			return f
		}
	}
	return nil
}

func uniqueID(siblings []*Field, base string) string {
	taken := func(id string) bool {
		for _, s := range siblings {
			if s.ID == id {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}
