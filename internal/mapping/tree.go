package mapping

import (
	"errors"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/nodepath"
)

// ErrInvalidShape is returned when a when/otherwise branch would break the
// choose shape: when* followed by at most one otherwise.
var ErrInvalidShape = errors.New("invalid choose shape")

// Parent is a node that owns mapping items: the Tree or an Item.
type Parent interface {
	NodePath() nodepath.Path
	Children() []*Item
	setChildren(children []*Item)
}

// Tree is the root of the mapping IR, owned by one target document.
type Tree struct {
	DocumentType document.Type
	DocumentID   string
	// Namespaces maps prefixes to URIs. Declared once, at the root.
	Namespaces map[string]string

	children []*Item
}

// NewTree creates an empty tree for the given target document.
func NewTree(documentType document.Type, documentID string) *Tree {
	return &Tree{
		DocumentType: documentType,
		DocumentID:   documentID,
		Namespaces:   make(map[string]string),
	}
}

// NewTreeFor creates an empty tree owned by doc.
func NewTreeFor(doc document.Document) *Tree {
	return NewTree(doc.DocumentType(), doc.DocumentID())
}

func (t *Tree) NodePath() nodepath.Path {
	return nodepath.FromDocument(string(t.DocumentType), t.DocumentID)
}

func (t *Tree) Children() []*Item { return t.children }

func (t *Tree) setChildren(children []*Item) { t.children = children }

// Prefix returns the declared prefix for uri.
func (t *Tree) Prefix(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	for _, p := range t.Prefixes() {
		if t.Namespaces[p] == uri {
			return p, true
		}
	}
	return "", false
}

// Prefixes returns the declared prefixes in sorted order.
func (t *Tree) Prefixes() []string {
	out := make([]string, 0, len(t.Namespaces))
	for p := range t.Namespaces {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Item is one node of the mapping tree. Which fields are meaningful depends
// on Kind: Field for fieldItem, ValueType for valueSelector, Expression for
// valueSelector, if, when and forEach.
type Item struct {
	Kind       Kind
	ID         string
	Expression string
	ValueType  ValueType
	Field      *document.Field

	parent   Parent
	children []*Item
}

// NewItem creates a detached item of the given kind with a fresh id.
func NewItem(kind Kind) *Item {
	return &Item{Kind: kind, ID: kind.String() + "-" + uuid.Must(uuid.NewV7()).String()}
}

// NewFieldItem creates a detached item bound to field f. Its id is the
// field id, so the item path mirrors the target field path. Append suffixes
// it with "-N" when a sibling already uses it.
func NewFieldItem(f *document.Field) *Item {
	return &Item{Kind: KindField, ID: f.ID, Field: f}
}

func (i *Item) Parent() Parent     { return i.parent }
func (i *Item) Children() []*Item  { return i.children }
func (i *Item) HasExpression() bool { return i.Kind.HasExpression() }

func (i *Item) setChildren(children []*Item) { i.children = children }

// NodePath derives the item address from its current position. A detached
// item is addressed by its id alone.
func (i *Item) NodePath() nodepath.Path {
	if i.parent == nil {
		return nodepath.Path(i.ID)
	}
	return nodepath.ChildOf(i.parent.NodePath(), i.ID)
}

// Name is a display title: the field name for field items, the kind
// otherwise.
func (i *Item) Name() string {
	if i.Kind == KindField && i.Field != nil {
		return i.Field.Name
	}
	return i.Kind.String()
}

// Append attaches item as the last child of parent without shape checks.
// The decoder uses it to accept whatever shape the document carries. An id
// already taken by a sibling is suffixed with "-N".
func Append(parent Parent, item *Item) *Item {
	item.ID = siblingID(parent.Children(), item.ID)
	item.parent = parent
	parent.setChildren(append(parent.Children(), item))
	return item
}

func siblingID(siblings []*Item, base string) string {
	taken := func(id string) bool {
		return slices.ContainsFunc(siblings, func(s *Item) bool { return s.ID == id })
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

// Remove detaches child from parent and reports whether it was attached.
func Remove(parent Parent, child *Item) bool {
	children := parent.Children()
	idx := slices.Index(children, child)
	if idx == -1 {
		return false
	}
	parent.setChildren(slices.Delete(slices.Clone(children), idx, idx+1))
	child.parent = nil
	return true
}

// Children returns the ordered children of parent.
func Children(parent Parent) []*Item {
	return parent.Children()
}

// Walk visits every item below parent depth first, parents before children.
// Returning false from fn skips that item's subtree.
func Walk(parent Parent, fn func(*Item) bool) {
	for _, child := range parent.Children() {
		if fn(child) {
			Walk(child, fn)
		}
	}
}

// Ancestors returns the item's ancestors from the nearest up to, excluding,
// the tree.
func Ancestors(item *Item) []*Item {
	var out []*Item
	for p := item.parent; p != nil; {
		parentItem, ok := p.(*Item)
		if !ok {
			break
		}
		out = append(out, parentItem)
		p = parentItem.parent
	}
	return out
}

// Clone deep copies the tree. Items are copied; bound fields are shared.
func Clone(t *Tree) *Tree {
	out := &Tree{
		DocumentType: t.DocumentType,
		DocumentID:   t.DocumentID,
		Namespaces:   make(map[string]string, len(t.Namespaces)),
	}
	for p, uri := range t.Namespaces {
		out.Namespaces[p] = uri
	}
	for _, child := range t.children {
		Append(out, CloneItem(child))
	}
	return out
}

// CloneItem deep copies item and its subtree, detached from any parent.
func CloneItem(item *Item) *Item {
	out := &Item{
		Kind:       item.Kind,
		ID:         item.ID,
		Expression: item.Expression,
		ValueType:  item.ValueType,
		Field:      item.Field,
	}
	for _, child := range item.children {
		Append(out, CloneItem(child))
	}
	return out
}
