package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned when a definition cannot describe a document.
var ErrInvalidDefinition = errors.New("invalid document definition")

// Definition describes a document shape. It stands in for the schema
// importers, which are outside this module.
type Definition struct {
	Type      Type              `yaml:"type" json:"type"`
	ID        string            `yaml:"id,omitempty" json:"id,omitempty"`
	Primitive bool              `yaml:"primitive,omitempty" json:"primitive,omitempty"`
	Fields    []FieldDefinition `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// FieldDefinition describes one field and its children.
type FieldDefinition struct {
	Name      string            `yaml:"name" json:"name"`
	Namespace string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Attribute bool              `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Fields    []FieldDefinition `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Format names a definition encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadDefinition reads and parses a definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}
	return ParseDefinition(data, FormatFromPath(path))
}

// ParseDefinition parses data in the given format and applies defaults.
func ParseDefinition(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatYAML:
		// Unknown keys are rejected so a typo like "namespce:" is not dropped.
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse definition YAML: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed to parse definition JSON: %w", err)
		}
	case FormatCUE:
		v := cuecontext.New().CompileBytes(data)
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("failed to compile definition CUE: %w", err)
		}
		if err := v.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed to decode definition CUE: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidDefinition, format)
	}

	if def.ID == "" && def.Type != Param {
		def.ID = BodyID
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition's identity and field names.
func (d *Definition) Validate() error {
	if !ValidTypes[d.Type] {
		return fmt.Errorf("%w: type %q must be one of sourceBody, targetBody, param", ErrInvalidDefinition, d.Type)
	}
	if d.ID == "" {
		return fmt.Errorf("%w: id is required for %s documents", ErrInvalidDefinition, d.Type)
	}
	if d.Primitive && len(d.Fields) > 0 {
		return fmt.Errorf("%w: primitive document %s cannot have fields", ErrInvalidDefinition, d.ID)
	}
	return validateFields(d.Fields, d.ID)
}

func validateFields(fields []FieldDefinition, parent string) error {
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%w: unnamed field under %s", ErrInvalidDefinition, parent)
		}
		if f.Attribute && len(f.Fields) > 0 {
			return fmt.Errorf("%w: attribute %s under %s cannot have fields", ErrInvalidDefinition, f.Name, parent)
		}
		if err := validateFields(f.Fields, parent+"/"+f.Name); err != nil {
			return err
		}
	}
	return nil
}

// Build creates the document described by d.
func (d *Definition) Build() (Document, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Primitive {
		return NewPrimitive(d.Type, d.ID), nil
	}
	doc := NewStructured(d.Type, d.ID)
	buildFields(doc, d.Fields)
	return doc, nil
}

func buildFields(parent Container, defs []FieldDefinition) {
	for _, fd := range defs {
		f := AddField(parent, fd.Name, fd.Namespace, fd.Attribute)
		buildFields(f, fd.Fields)
	}
}

// DefinitionOf captures the current shape of doc, including any fields
// materialized after it was built.
func DefinitionOf(doc Document) Definition {
	def := Definition{Type: doc.DocumentType(), ID: doc.DocumentID(), Primitive: doc.IsPrimitive()}
	if c := AsContainer(doc); c != nil {
		def.Fields = fieldDefinitions(c.Fields())
	}
	return def
}

func fieldDefinitions(fields []*Field) []FieldDefinition {
	if len(fields) == 0 {
		return nil
	}
	out := make([]FieldDefinition, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldDefinition{
			Name:      f.Name,
			Namespace: f.NamespaceURI,
			Attribute: f.IsAttribute,
			Fields:    fieldDefinitions(f.Fields()),
		})
	}
	return out
}
