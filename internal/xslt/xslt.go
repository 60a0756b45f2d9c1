package xslt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// NamespaceXSL is the XSLT namespace URI.
const NamespaceXSL = "http://www.w3.org/1999/XSL/Transform"

const (
	prefixXSL = "xsl"
	indent    = 2
)

// Instruction names of the XSLT vocabulary the mapping tree uses.
const (
	instStylesheet = "stylesheet"
	instOutput     = "output"
	instParam      = "param"
	instTemplate   = "template"
	instCopyOf     = "copy-of"
	instValueOf    = "value-of"
	instIf         = "if"
	instChoose     = "choose"
	instWhen       = "when"
	instOtherwise  = "otherwise"
	instForEach    = "for-each"
	instAttribute  = "attribute"
)

var (
	// ErrMalformed is returned when the text is not a readable XML document.
	ErrMalformed = errors.New("malformed mapping document")
	// ErrUnknownKind is returned when a tree holds an item outside the
	// closed set of kinds. It signals a programming error.
	ErrUnknownKind = errors.New("unknown mapping item kind")
)

// NewEmpty returns the stylesheet of an empty mapping.
func NewEmpty() string {
	// Writing to memory does not fail.
	s, _ := write(newStylesheet(nil, nil))
	return s
}

func xslTag(name string) string {
	return prefixXSL + ":" + name
}

// isXSL reports whether el is the XSLT instruction name.
func isXSL(el *etree.Element, name string) bool {
	return el.Tag == name && namespaceOf(el) == NamespaceXSL
}

// namespaceOf resolves the namespace URI of el from the xmlns declarations
// in scope.
func namespaceOf(el *etree.Element) string {
	return lookupNamespace(el, el.Space)
}

func lookupNamespace(el *etree.Element, prefix string) string {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}

// write pretty prints doc and terminates it with exactly one newline.
// Tabs and line breaks inside attribute values are written as character
// references so readers do not normalize them to spaces.
func write(doc *etree.Document) (string, error) {
	doc.WriteSettings.CanonicalAttrVal = true
	doc.Indent(indent)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return strings.TrimRight(s, "\r\n") + "\n", nil
}
