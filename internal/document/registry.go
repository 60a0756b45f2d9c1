package document

import "iter"

// Registry is the name-keyed collection of source parameter documents.
// Iteration follows insertion order. A Registry is owned by the session
// that created it and is not safe for concurrent mutation.
type Registry struct {
	names []string
	docs  map[string]Document
}

// NewRegistry creates an empty parameter registry.
func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]Document)}
}

// Set binds name to doc. Replacing an existing name keeps its position.
func (r *Registry) Set(name string, doc Document) {
	if _, ok := r.docs[name]; !ok {
		r.names = append(r.names, name)
	}
	r.docs[name] = doc
}

func (r *Registry) Get(name string) (Document, bool) {
	doc, ok := r.docs[name]
	return doc, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.docs[name]
	return ok
}

// Delete removes name and reports whether it was present.
func (r *Registry) Delete(name string) bool {
	if _, ok := r.docs[name]; !ok {
		return false
	}
	delete(r.docs, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns a copy of the parameter names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All iterates name/document pairs in insertion order.
func (r *Registry) All() iter.Seq2[string, Document] {
	return func(yield func(string, Document) bool) {
		for _, name := range r.names {
			if !yield(name, r.docs[name]) {
				return
			}
		}
	}
}
