package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xsltmap/internal/nodepath"
)

func shipOrder() *StructuredDocument {
	doc := NewStructured(SourceBody, BodyID)
	order := AddField(doc, "ShipOrder", "", false)
	AddField(order, "OrderId", "", true)
	AddField(order, "OrderPerson", "", false)
	item := AddField(order, "Item", "", false)
	AddField(item, "Title", "", false)
	AddField(item, "Quantity", "", false)
	return doc
}

func TestFieldNodePath(t *testing.T) {
	doc := shipOrder()
	order := doc.Field("ShipOrder", "", false)
	require.NotNil(t, order)
	title := order.Field("Item", "", false).Field("Title", "", false)
	require.NotNil(t, title)

	assert.Equal(t, nodepath.Path("sourceBody:Body://ShipOrder/Item/Title"), title.NodePath())
	assert.Equal(t, nodepath.Path("sourceBody:Body://ShipOrder/@OrderId"), order.Field("OrderId", "", true).NodePath())
	assert.Same(t, doc, title.OwnerDocument())
}

func TestAddField_UniqueSiblingIDs(t *testing.T) {
	doc := NewStructured(TargetBody, BodyID)
	a := AddField(doc, "Name", "", false)
	b := AddField(doc, "Name", "urn:other", false)
	c := AddField(doc, "Name", "", true)
	d := AddField(doc, "Name", "urn:third", false)

	assert.Equal(t, "Name", a.ID)
	assert.Equal(t, "Name-2", b.ID)
	assert.Equal(t, "@Name", c.ID)
	assert.Equal(t, "Name-3", d.ID)
}

func TestFindOrCreateField(t *testing.T) {
	doc := NewStructured(TargetBody, BodyID)

	foo, created := FindOrCreateField(doc, "Foo", "", false)
	require.True(t, created)
	bar, created := FindOrCreateField(foo, "Bar", "urn:x", false)
	require.True(t, created)

	again, created := FindOrCreateField(doc, "Foo", "", false)
	assert.False(t, created)
	assert.Same(t, foo, again)

	barAgain, created := FindOrCreateField(foo, "Bar", "urn:x", false)
	assert.False(t, created)
	assert.Same(t, bar, barAgain)

	assert.Len(t, doc.Fields(), 1)
	assert.Len(t, foo.Fields(), 1)

	// Different namespace or kind is a different field.
	_, created = FindOrCreateField(foo, "Bar", "", false)
	assert.True(t, created)
	_, created = FindOrCreateField(foo, "Bar", "urn:x", true)
	assert.True(t, created)
	assert.Len(t, foo.Fields(), 3)
}

func TestEquivalent(t *testing.T) {
	oldDoc := shipOrder()
	newDoc := shipOrder()
	AddField(newDoc.Field("ShipOrder", "", false), "ShipTo", "", false)

	oldTitle := oldDoc.Field("ShipOrder", "", false).Field("Item", "", false).Field("Title", "", false)
	got := Equivalent(newDoc, oldTitle)
	require.NotNil(t, got)
	assert.NotSame(t, oldTitle, got)
	assert.Equal(t, oldTitle.NodePath(), got.NodePath())
	assert.Same(t, newDoc, got.OwnerDocument())

	trimmed := NewStructured(SourceBody, BodyID)
	order := AddField(trimmed, "ShipOrder", "", false)
	AddField(order, "Item", "", false)
	assert.Nil(t, Equivalent(trimmed, oldTitle))
	assert.Nil(t, Equivalent(nil, oldTitle))
}

func TestAncestry(t *testing.T) {
	doc := shipOrder()
	title := doc.Field("ShipOrder", "", false).Field("Item", "", false).Field("Title", "", false)

	var names []string
	for _, f := range Ancestry(title) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ShipOrder", "Item", "Title"}, names)
}

func TestWalk(t *testing.T) {
	doc := shipOrder()
	var visited []string
	Walk(doc, func(f *Field) bool {
		visited = append(visited, f.ID)
		return f.Name != "Item"
	})
	assert.Equal(t, []string{"ShipOrder", "@OrderId", "OrderPerson", "Item"}, visited)
}

func TestDocuments(t *testing.T) {
	p := NewPrimitive(Param, "orderId")
	assert.True(t, p.IsPrimitive())
	assert.Nil(t, AsContainer(p))
	assert.Equal(t, nodepath.Path("param:orderId://"), p.NodePath())
	assert.Equal(t, "param:orderId", Describe(p))

	s := NewStructured(Param, "orderId")
	assert.False(t, s.IsPrimitive())
	assert.NotNil(t, AsContainer(s))
	assert.True(t, SameIdentity(p, s))
	assert.False(t, SameIdentity(p, NewPrimitive(SourceBody, "orderId")))
}
