package xslt

import (
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/mapping"
)

// Deserialize decodes text into a fresh mapping tree owned by target.
//
// Parameters declared in text but missing from params are registered as
// primitive parameter documents; the caller treats them as part of the
// result. Target fields named by the stylesheet but missing from target are
// created and appended to it. A stylesheet without a "/" template yields an
// empty tree, not an error.
func Deserialize(text string, target document.Document, params *document.Registry) (*mapping.Tree, error) {
	tree := mapping.NewTreeFor(target)

	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}

	template := rootTemplate(root)
	if template == nil {
		slog.Debug("no root template, returning empty mapping")
		return tree, nil
	}

	restoreNamespaces(root, tree)
	restoreParams(root, params)

	for _, el := range template.ChildElements() {
		restore(el, document.AsContainer(target), tree)
	}
	return tree, nil
}

// DeclaredParams returns the names of the parameters text declares, in
// declaration order and without duplicates.
func DeclaredParams(text string) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	params := document.NewRegistry()
	restoreParams(root, params)
	return params.Names(), nil
}

func restoreNamespaces(root *etree.Element, tree *mapping.Tree) {
	for _, a := range root.Attr {
		if a.Space != "xmlns" || a.Value == "" || a.Value == NamespaceXSL {
			continue
		}
		tree.Namespaces[a.Key] = a.Value
	}
}

func restoreParams(root *etree.Element, params *document.Registry) {
	if params == nil {
		return
	}
	for _, el := range root.ChildElements() {
		if !isXSL(el, instParam) {
			continue
		}
		name := el.SelectAttrValue("name", "")
		if name == "" || params.Has(name) {
			continue
		}
		params.Set(name, document.NewPrimitive(document.Param, name))
	}
}

// restore decodes el under parent. fields is the target container fields are
// looked up in and materialized under; nil means a primitive document, which
// cannot own fields.
func restore(el *etree.Element, fields document.Container, parent mapping.Parent) {
	var item *mapping.Item
	childFields := fields

	if namespaceOf(el) == NamespaceXSL {
		switch el.Tag {
		case instCopyOf:
			item = mapping.NewItem(mapping.KindValueSelector)
			item.ValueType = mapping.ValueTypeContainer
			item.Expression = el.SelectAttrValue("select", "")
		case instValueOf:
			item = mapping.NewItem(mapping.KindValueSelector)
			item.ValueType = mapping.ValueTypeValue
			if f, ok := fields.(*document.Field); ok && f.IsAttribute {
				item.ValueType = mapping.ValueTypeAttribute
			}
			item.Expression = el.SelectAttrValue("select", "")
		case instIf:
			item = mapping.NewItem(mapping.KindIf)
			item.Expression = el.SelectAttrValue("test", "")
		case instChoose:
			item = mapping.NewItem(mapping.KindChoose)
		case instWhen:
			item = mapping.NewItem(mapping.KindWhen)
			item.Expression = el.SelectAttrValue("test", "")
		case instOtherwise:
			item = mapping.NewItem(mapping.KindOtherwise)
		case instForEach:
			item = mapping.NewItem(mapping.KindForEach)
			item.Expression = el.SelectAttrValue("select", "")
		case instAttribute:
			if fields == nil {
				slog.Debug("skipping attribute under primitive document", "path", parent.NodePath())
				return
			}
			name := el.SelectAttrValue("name", "")
			if name == "" {
				slog.Debug("skipping attribute without name", "path", parent.NodePath())
				return
			}
			f, _ := document.FindOrCreateField(fields, name, el.SelectAttrValue("namespace", ""), true)
			item = mapping.NewFieldItem(f)
			childFields = f
		default:
			slog.Debug("skipping unsupported instruction", "instruction", el.Tag, "path", parent.NodePath())
			return
		}
	} else {
		if fields == nil {
			slog.Debug("skipping element under primitive document", "element", el.Tag, "path", parent.NodePath())
			return
		}
		f, _ := document.FindOrCreateField(fields, el.Tag, namespaceOf(el), false)
		item = mapping.NewFieldItem(f)
		childFields = f
	}

	mapping.Append(parent, item)
	for _, child := range el.ChildElements() {
		restore(child, childFields, item)
	}
}
