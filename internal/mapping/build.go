package mapping

import (
	"errors"
	"fmt"

	"github.com/roach88/xsltmap/internal/document"
)

// AddField attaches a field item bound to f.
func AddField(parent Parent, f *document.Field) (*Item, error) {
	return attach(parent, NewFieldItem(f))
}

// AddValueSelector attaches a value selector.
func AddValueSelector(parent Parent, valueType ValueType, expression string) (*Item, error) {
	item := NewItem(KindValueSelector)
	item.ValueType = valueType
	item.Expression = expression
	return attach(parent, item)
}

// AddIf attaches a conditional guarded by expression.
func AddIf(parent Parent, expression string) (*Item, error) {
	item := NewItem(KindIf)
	item.Expression = expression
	return attach(parent, item)
}

// AddChoose attaches an empty multi-branch conditional.
func AddChoose(parent Parent) (*Item, error) {
	return attach(parent, NewItem(KindChoose))
}

// AddForEach attaches an iteration over the node-set selected by expression.
func AddForEach(parent Parent, expression string) (*Item, error) {
	item := NewItem(KindForEach)
	item.Expression = expression
	return attach(parent, item)
}

// AddWhen attaches a when branch. The parent must be a choose with no
// otherwise yet.
func AddWhen(parent Parent, expression string) (*Item, error) {
	item := NewItem(KindWhen)
	item.Expression = expression
	return attach(parent, item)
}

// AddOtherwise attaches the otherwise branch. The parent must be a choose
// with no otherwise yet.
func AddOtherwise(parent Parent) (*Item, error) {
	return attach(parent, NewItem(KindOtherwise))
}

// Must returns item, panicking when err is not nil. It suits trees built
// from literals.
func Must(item *Item, err error) *Item {
	if err != nil {
		panic(err)
	}
	return item
}

// attach appends item after checking that it keeps the choose shape of
// parent intact.
func attach(parent Parent, item *Item) (*Item, error) {
	if err := checkShape(parent, item.Kind); err != nil {
		return nil, err
	}
	return Append(parent, item), nil
}

func checkShape(parent Parent, kind Kind) error {
	choose, ok := parent.(*Item)
	isChoose := ok && choose.Kind == KindChoose
	branch := kind == KindWhen || kind == KindOtherwise
	switch {
	case branch && !isChoose:
		return fmt.Errorf("%w: %s must be attached to a choose", ErrInvalidShape, kind)
	case !branch && isChoose:
		return fmt.Errorf("%w: %s inside choose at %s", ErrInvalidShape, kind, choose.NodePath())
	case !branch:
		return nil
	}
	for _, c := range choose.children {
		if c.Kind == KindOtherwise {
			return fmt.Errorf("%w: %s after otherwise in %s", ErrInvalidShape, kind, choose.NodePath())
		}
	}
	return nil
}

// ValidateShape reports every choose-shape violation in the tree. It returns
// nil for a well formed tree.
func ValidateShape(t *Tree) error {
	var errs []error
	check := func(parent Parent, item *Item) {
		parentKind := Kind(0)
		if p, ok := parent.(*Item); ok {
			parentKind = p.Kind
		}
		if (item.Kind == KindWhen || item.Kind == KindOtherwise) && parentKind != KindChoose {
			errs = append(errs, fmt.Errorf("%w: %s outside choose at %s", ErrInvalidShape, item.Kind, item.NodePath()))
		}
		if item.Kind != KindChoose {
			return
		}
		seenOtherwise := false
		for _, c := range item.children {
			switch {
			case c.Kind != KindWhen && c.Kind != KindOtherwise:
				errs = append(errs, fmt.Errorf("%w: %s inside choose at %s", ErrInvalidShape, c.Kind, item.NodePath()))
			case seenOtherwise:
				errs = append(errs, fmt.Errorf("%w: %s after otherwise at %s", ErrInvalidShape, c.Kind, item.NodePath()))
			case c.Kind == KindOtherwise:
				seenOtherwise = true
			}
		}
	}
	var visit func(parent Parent)
	visit = func(parent Parent) {
		for _, item := range parent.Children() {
			check(parent, item)
			visit(item)
		}
	}
	visit(t)
	return errors.Join(errs...)
}
