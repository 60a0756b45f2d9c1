package xslt

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/mapping"
)

// Serialize encodes tree as a stylesheet. Every entry of params becomes an
// xsl:param declaration, once per name. The output is a pure function of the
// tree and the parameter names.
func Serialize(tree *mapping.Tree, params *document.Registry) (string, error) {
	doc := newStylesheet(tree, params)
	template := rootTemplate(doc.Root())

	enc := &encoder{tree: tree}
	for _, item := range tree.Children() {
		if err := enc.encode(template, item, ""); err != nil {
			return "", err
		}
	}
	return write(doc)
}

// newStylesheet builds the stylesheet skeleton: namespace declarations,
// output settings, parameters and an empty root template.
func newStylesheet(tree *mapping.Tree, params *document.Registry) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(xslTag(instStylesheet))
	root.CreateAttr("xmlns:"+prefixXSL, NamespaceXSL)
	if tree != nil {
		for _, prefix := range tree.Prefixes() {
			uri := tree.Namespaces[prefix]
			if prefix == "" || uri == "" || prefix == prefixXSL {
				continue
			}
			root.CreateAttr("xmlns:"+prefix, uri)
		}
	}
	root.CreateAttr("version", "1.0")

	output := root.CreateElement(xslTag(instOutput))
	output.CreateAttr("method", "xml")
	output.CreateAttr("indent", "yes")

	if params != nil {
		for name := range params.All() {
			if hasParam(root, name) {
				continue
			}
			root.CreateElement(xslTag(instParam)).CreateAttr("name", name)
		}
	}

	template := root.CreateElement(xslTag(instTemplate))
	template.CreateAttr("match", "/")
	return doc
}

func hasParam(root *etree.Element, name string) bool {
	for _, el := range root.ChildElements() {
		if isXSL(el, instParam) && el.SelectAttrValue("name", "") == name {
			return true
		}
	}
	return false
}

// rootTemplate finds the xsl:template matching "/" directly under root.
func rootTemplate(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	for _, el := range root.ChildElements() {
		if isXSL(el, instTemplate) && el.SelectAttrValue("match", "") == "/" {
			return el
		}
	}
	return nil
}

type encoder struct {
	tree *mapping.Tree
}

// encode appends the element for item under parent, then its children.
// defaultNS is the default namespace in scope for literal elements.
func (e *encoder) encode(parent *etree.Element, item *mapping.Item, defaultNS string) error {
	var el *etree.Element
	switch item.Kind {
	case mapping.KindValueSelector:
		if item.ValueType == mapping.ValueTypeContainer {
			el = parent.CreateElement(xslTag(instCopyOf))
		} else {
			el = parent.CreateElement(xslTag(instValueOf))
		}
		el.CreateAttr("select", item.Expression)
	case mapping.KindField:
		if item.Field == nil {
			return fmt.Errorf("%w: field item %s has no field", ErrUnknownKind, item.ID)
		}
		el, defaultNS = e.encodeField(parent, item.Field, defaultNS)
	case mapping.KindIf:
		el = parent.CreateElement(xslTag(instIf))
		el.CreateAttr("test", item.Expression)
	case mapping.KindChoose:
		el = parent.CreateElement(xslTag(instChoose))
	case mapping.KindWhen:
		el = parent.CreateElement(xslTag(instWhen))
		el.CreateAttr("test", item.Expression)
	case mapping.KindOtherwise:
		el = parent.CreateElement(xslTag(instOtherwise))
	case mapping.KindForEach:
		el = parent.CreateElement(xslTag(instForEach))
		el.CreateAttr("select", item.Expression)
	default:
		return fmt.Errorf("%w: %s at %s", ErrUnknownKind, item.Kind, item.NodePath())
	}

	for _, child := range item.Children() {
		if err := e.encode(el, child, defaultNS); err != nil {
			return err
		}
	}
	return nil
}

// encodeField writes an xsl:attribute for attribute fields and a literal
// element otherwise. A namespaced literal element uses the tree's prefix
// for its URI when one is declared, else a default namespace declaration.
func (e *encoder) encodeField(parent *etree.Element, f *document.Field, defaultNS string) (*etree.Element, string) {
	if f.IsAttribute {
		el := parent.CreateElement(xslTag(instAttribute))
		el.CreateAttr("name", f.Name)
		if f.NamespaceURI != "" {
			el.CreateAttr("namespace", f.NamespaceURI)
		}
		return el, defaultNS
	}

	if f.NamespaceURI == "" {
		el := parent.CreateElement(f.Name)
		if defaultNS != "" {
			el.CreateAttr("xmlns", "")
		}
		return el, ""
	}
	if prefix, ok := e.tree.Prefix(f.NamespaceURI); ok && prefix != prefixXSL {
		return parent.CreateElement(prefix + ":" + f.Name), defaultNS
	}
	el := parent.CreateElement(f.Name)
	if defaultNS != f.NamespaceURI {
		el.CreateAttr("xmlns", f.NamespaceURI)
	}
	return el, f.NamespaceURI
}
