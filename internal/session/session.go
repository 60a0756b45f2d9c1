package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/xsltmap/internal/consistency"
	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/expression"
	"github.com/roach88/xsltmap/internal/links"
	"github.com/roach88/xsltmap/internal/mapping"
	"github.com/roach88/xsltmap/internal/xslt"
)

var (
	// ErrParameterExists is returned when adding a parameter whose name is
	// taken.
	ErrParameterExists = errors.New("parameter already exists")
	// ErrParameterNotFound is returned when deleting an unknown parameter.
	ErrParameterNotFound = errors.New("parameter not found")
	// ErrInvalidDocument is returned for a nil document or an unknown type.
	ErrInvalidDocument = errors.New("invalid document")
)

// UpdateFunc receives the serialized mappings after a change.
type UpdateFunc func(xslt string)

// Option configures a Session.
type Option func(*Session)

// WithOnUpdate registers fn to be called after every change.
func WithOnUpdate(fn UpdateFunc) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// WithParameter registers a parameter document at construction.
func WithParameter(doc document.Document) Option {
	return func(s *Session) {
		s.params.Set(doc.DocumentID(), doc)
	}
}

// Session holds the source body, the target body, the parameters and the
// current mapping tree.
type Session struct {
	mu         sync.Mutex
	sourceBody document.Document
	targetBody document.Document
	params     *document.Registry
	tree       atomic.Pointer[mapping.Tree]
	onUpdate   UpdateFunc
}

// New creates a session. A nil body defaults to a primitive document.
func New(sourceBody, targetBody document.Document, opts ...Option) *Session {
	if sourceBody == nil {
		sourceBody = document.NewPrimitive(document.SourceBody, document.BodyID)
	}
	if targetBody == nil {
		targetBody = document.NewPrimitive(document.TargetBody, document.BodyID)
	}
	s := &Session{
		sourceBody: sourceBody,
		targetBody: targetBody,
		params:     document.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tree.Store(mapping.NewTreeFor(targetBody))
	return s
}

// Tree returns the current tree. Callers must not modify it; use SetTree
// with a modified Clone instead.
func (s *Session) Tree() *mapping.Tree {
	return s.tree.Load()
}

// SetTree publishes tree as the current tree.
func (s *Session) SetTree(tree *mapping.Tree) {
	_ = s.update(func() (*mapping.Tree, error) { return tree, nil })
}

func (s *Session) SourceBody() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceBody
}

func (s *Session) TargetBody() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetBody
}

// Parameter returns the parameter document registered under name.
func (s *Session) Parameter(name string) (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Get(name)
}

// ParameterNames returns the parameter names in registration order.
func (s *Session) ParameterNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Names()
}

// Sources returns the resolution context of the current documents.
func (s *Session) Sources() expression.Sources {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources()
}

func (s *Session) sources() expression.Sources {
	params := document.NewRegistry()
	for name, doc := range s.params.All() {
		params.Set(name, doc)
	}
	return expression.Sources{
		Body:       s.sourceBody,
		Params:     params,
		Namespaces: s.tree.Load().Namespaces,
	}
}

// UpdateDocument replaces the document with the identity of doc and
// rewrites the tree with the policy the change calls for. A parameter that
// did not exist yet is added.
func (s *Session) UpdateDocument(doc document.Document) (consistency.Policy, error) {
	if doc == nil {
		return consistency.PolicyNone, fmt.Errorf("%w: nil", ErrInvalidDocument)
	}

	policy := consistency.PolicyNone
	err := s.update(func() (*mapping.Tree, error) {
		var old document.Document
		switch doc.DocumentType() {
		case document.SourceBody:
			old = s.sourceBody
		case document.TargetBody:
			old = s.targetBody
		case document.Param:
			old, _ = s.params.Get(doc.DocumentID())
		default:
			return nil, fmt.Errorf("%w: type %q", ErrInvalidDocument, doc.DocumentType())
		}

		policy = consistency.SelectPolicy(old, doc)
		tree := consistency.ReplaceDocument(s.tree.Load(), old, doc, s.sources())
		if doc.DocumentType() == document.TargetBody && policy == consistency.PolicyRemoveAll {
			tree.DocumentID = doc.DocumentID()
		}

		switch doc.DocumentType() {
		case document.SourceBody:
			s.sourceBody = doc
		case document.TargetBody:
			s.targetBody = doc
		case document.Param:
			s.params.Set(doc.DocumentID(), doc)
		}

		slog.Info("document updated",
			"document", document.Describe(doc),
			"primitive", doc.IsPrimitive(),
			"policy", policy.String(),
		)
		return tree, nil
	})
	return policy, err
}

// AddParameter registers a new primitive parameter.
func (s *Session) AddParameter(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty parameter name", ErrInvalidDocument)
	}

	return s.update(func() (*mapping.Tree, error) {
		if s.params.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrParameterExists, name)
		}
		s.params.Set(name, document.NewPrimitive(document.Param, name))

		slog.Info("parameter added", "name", name)
		return mapping.Clone(s.tree.Load()), nil
	})
}

// DeleteParameter removes a parameter and every item that references it.
func (s *Session) DeleteParameter(name string) error {
	return s.update(func() (*mapping.Tree, error) {
		if !s.params.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrParameterNotFound, name)
		}
		tree := consistency.DeleteDocument(s.tree.Load(), document.Param, name, s.sources())
		s.params.Delete(name)

		slog.Info("parameter deleted", "name", name)
		return tree, nil
	})
}

// ImportMappings replaces the tree with the mappings decoded from text.
// Parameters declared in text are added; target fields it names are
// created.
func (s *Session) ImportMappings(text string) error {
	return s.update(func() (*mapping.Tree, error) {
		tree, err := xslt.Deserialize(text, s.targetBody, s.params)
		if err != nil {
			return nil, fmt.Errorf("import mappings: %w", err)
		}

		slog.Info("mappings imported",
			"items", len(tree.Children()),
			"params", s.params.Len(),
		)
		return tree, nil
	})
}

// ExportMappings serializes the current tree.
func (s *Session) ExportMappings() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return xslt.Serialize(s.tree.Load(), s.params)
}

// Links returns the source-to-target links of the current tree.
func (s *Session) Links() []links.Link {
	s.mu.Lock()
	tree := s.tree.Load()
	sources := s.sources()
	s.mu.Unlock()
	return links.Collect(tree, sources)
}

// update runs change under mu and publishes the tree it returns. The
// update callback runs after mu is released, so it may call back into the
// session. With concurrent writers, callbacks may arrive out of order.
func (s *Session) update(change func() (*mapping.Tree, error)) error {
	s.mu.Lock()
	tree, err := change()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.tree.Store(tree)
	onUpdate := s.onUpdate
	var text string
	if onUpdate != nil {
		text, err = xslt.Serialize(tree, s.params)
	}
	s.mu.Unlock()

	if onUpdate == nil {
		return nil
	}
	if err != nil {
		slog.Error("failed to serialize mappings for update", "error", err)
		return nil
	}
	onUpdate(text)
	return nil
}
