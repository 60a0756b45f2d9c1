package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/expression"
	"github.com/roach88/xsltmap/internal/mapping"
	"github.com/roach88/xsltmap/internal/nodepath"
)

const nsShip = "io.kaoto.datamapper.poc.test"

type fixture struct {
	sources  expression.Sources
	tree     *mapping.Tree
	title    *mapping.Item
	forEach  *mapping.Item
	name     *mapping.Item
	guard    *mapping.Item
	total    *mapping.Item
	orderID  *mapping.Item
	missing  *mapping.Item
	orphaned *mapping.Item
}

func newFixture() fixture {
	body := document.NewStructured(document.SourceBody, document.BodyID)
	order := document.AddField(body, "ShipOrder", nsShip, false)
	item := document.AddField(order, "Item", "", false)
	document.AddField(item, "Title", "", false)
	document.AddField(item, "Quantity", "", false)

	cart := document.NewStructured(document.Param, "cart")
	document.AddField(cart, "Total", "", false)
	params := document.NewRegistry()
	params.Set("cart", cart)
	params.Set("orderId", document.NewPrimitive(document.Param, "orderId"))

	target := document.NewStructured(document.TargetBody, document.BodyID)
	shipment := document.AddField(target, "Shipment", "", false)
	line := document.AddField(shipment, "Line", "", false)

	tree := mapping.NewTreeFor(target)
	tree.Namespaces["ns0"] = nsShip
	root := mapping.Must(mapping.AddField(tree, shipment))

	fx := fixture{
		sources: expression.Sources{Body: body, Params: params},
		tree:    tree,
	}
	fx.title = mapping.Must(mapping.AddValueSelector(mapping.Must(mapping.AddField(root, document.AddField(shipment, "Title", "", false))), mapping.ValueTypeValue, "/ns0:ShipOrder/Item/Title"))
	fx.forEach = mapping.Must(mapping.AddForEach(root, "/ns0:ShipOrder/Item"))
	lineItem := mapping.Must(mapping.AddField(fx.forEach, line))
	fx.guard = mapping.Must(mapping.AddIf(lineItem, "Quantity and $flag"))
	fx.name = mapping.Must(mapping.AddValueSelector(mapping.Must(mapping.AddField(fx.guard, document.AddField(line, "Name", "", false))), mapping.ValueTypeValue, "Title"))
	fx.total = mapping.Must(mapping.AddValueSelector(root, mapping.ValueTypeValue, "$cart/Total"))
	fx.orderID = mapping.Must(mapping.AddValueSelector(root, mapping.ValueTypeValue, "$orderId"))
	fx.missing = mapping.Must(mapping.AddValueSelector(root, mapping.ValueTypeValue, "/ns0:ShipOrder/Missing"))
	unresolved := mapping.Must(mapping.AddForEach(root, "/Nowhere"))
	fx.orphaned = mapping.Must(mapping.AddValueSelector(unresolved, mapping.ValueTypeValue, "Title"))
	return fx
}

func TestCollect(t *testing.T) {
	fx := newFixture()

	got := Collect(fx.tree, fx.sources)

	assert.Equal(t, []Link{
		{Source: "sourceBody:Body://ShipOrder/Item/Title", Target: fx.title.NodePath()},
		{Source: "sourceBody:Body://ShipOrder/Item", Target: fx.forEach.NodePath()},
		{Source: "sourceBody:Body://ShipOrder/Item/Quantity", Target: fx.guard.NodePath()},
		{Source: "sourceBody:Body://ShipOrder/Item/Title", Target: fx.name.NodePath()},
		{Source: "param:cart://Total", Target: fx.total.NodePath()},
		{Source: "param:orderId://", Target: fx.orderID.NodePath()},
	}, got)

	for _, l := range got {
		assert.NotEqual(t, fx.missing.NodePath(), l.Target)
		assert.NotEqual(t, fx.orphaned.NodePath(), l.Target)
	}
}

func TestExtract_TargetIsItemPath(t *testing.T) {
	fx := newFixture()

	for l := range Extract(fx.tree, fx.sources) {
		parent, ok := nodepath.Parent(l.Target)
		require.True(t, ok)
		assert.True(t, nodepath.Contains(fx.tree.NodePath(), parent), l.Target)
	}
}

func TestExtract_Restartable(t *testing.T) {
	fx := newFixture()
	seq := Extract(fx.tree, fx.sources)

	var first, second []Link
	for l := range seq {
		first = append(first, l)
	}
	for l := range seq {
		second = append(second, l)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 6)
}

func TestExtract_StopsEarly(t *testing.T) {
	fx := newFixture()

	var got []Link
	for l := range Extract(fx.tree, fx.sources) {
		got = append(got, l)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestExtract_NoSourceBody(t *testing.T) {
	fx := newFixture()
	fx.sources.Body = nil

	got := Collect(fx.tree, fx.sources)

	assert.Equal(t, []Link{
		{Source: "param:cart://Total", Target: fx.total.NodePath()},
		{Source: "param:orderId://", Target: fx.orderID.NodePath()},
	}, got)
}

func TestExtract_EmptyTree(t *testing.T) {
	tree := mapping.NewTree(document.TargetBody, document.BodyID)
	assert.Empty(t, Collect(tree, expression.Sources{}))
}
