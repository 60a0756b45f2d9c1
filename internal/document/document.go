package document

import (
	"fmt"

	"github.com/roach88/xsltmap/internal/nodepath"
)

// Type identifies which side of the mapping a document is bound to.
type Type string

const (
	SourceBody Type = "sourceBody"
	TargetBody Type = "targetBody"
	Param      Type = "param"
)

// BodyID is the document id used for both source and target bodies.
const BodyID = "Body"

// ValidTypes defines the allowed document types.
var ValidTypes = map[Type]bool{
	SourceBody: true,
	TargetBody: true,
	Param:      true,
}

// Document is the read contract shared by primitive and structured documents.
type Document interface {
	DocumentType() Type
	DocumentID() string
	NodePath() nodepath.Path
	IsPrimitive() bool
}

// Container is anything that owns fields: a structured document or a field.
type Container interface {
	Fields() []*Field
	// Field looks up a direct child by name, namespace and attribute flag.
	Field(name, namespaceURI string, isAttribute bool) *Field
	NodePath() nodepath.Path
	OwnerDocument() *StructuredDocument
	appendField(f *Field)
}

// PrimitiveDocument holds a single scalar value and owns no fields.
type PrimitiveDocument struct {
	documentType Type
	documentID   string
}

// NewPrimitive creates a primitive document.
func NewPrimitive(documentType Type, documentID string) *PrimitiveDocument {
	return &PrimitiveDocument{documentType: documentType, documentID: documentID}
}

func (d *PrimitiveDocument) DocumentType() Type { return d.documentType }
func (d *PrimitiveDocument) DocumentID() string { return d.documentID }
func (d *PrimitiveDocument) IsPrimitive() bool  { return true }

func (d *PrimitiveDocument) NodePath() nodepath.Path {
	return nodepath.FromDocument(string(d.documentType), d.documentID)
}

// StructuredDocument owns an ordered tree of fields.
type StructuredDocument struct {
	documentType Type
	documentID   string
	fields       []*Field
}

// NewStructured creates a structured document with no fields.
func NewStructured(documentType Type, documentID string) *StructuredDocument {
	return &StructuredDocument{documentType: documentType, documentID: documentID}
}

func (d *StructuredDocument) DocumentType() Type                 { return d.documentType }
func (d *StructuredDocument) DocumentID() string                 { return d.documentID }
func (d *StructuredDocument) IsPrimitive() bool                  { return false }
func (d *StructuredDocument) Fields() []*Field                   { return d.fields }
func (d *StructuredDocument) OwnerDocument() *StructuredDocument { return d }

func (d *StructuredDocument) NodePath() nodepath.Path {
	return nodepath.FromDocument(string(d.documentType), d.documentID)
}

func (d *StructuredDocument) Field(name, namespaceURI string, isAttribute bool) *Field {
	return findField(d.fields, name, namespaceURI, isAttribute)
}

func (d *StructuredDocument) appendField(f *Field) {
	f.ID = uniqueID(d.fields, f.baseID())
	d.fields = append(d.fields, f)
}

// AsContainer returns the document as a field container, or nil when the
// document is primitive.
func AsContainer(doc Document) Container {
	if sd, ok := doc.(*StructuredDocument); ok {
		return sd
	}
	return nil
}

// SameIdentity reports whether two documents share type and id.
func SameIdentity(a, b Document) bool {
	return a.DocumentType() == b.DocumentType() && a.DocumentID() == b.DocumentID()
}

// Describe returns a short human readable identity, e.g. "param:orderId".
func Describe(doc Document) string {
	return fmt.Sprintf("%s:%s", doc.DocumentType(), doc.DocumentID())
}
