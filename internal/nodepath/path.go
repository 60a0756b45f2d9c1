package nodepath

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	schemeMarker = "://"
	separator    = '/'
)

// Path is the canonical address of a node in a source or target tree.
type Path string

// FromDocument returns the root path of a document.
func FromDocument(documentType, documentID string) Path {
	return Path(documentType + ":" + documentID + schemeMarker)
}

// ChildOf appends a segment to parent. Segments are NFC normalized so that
// canonically equal names address the same node.
func ChildOf(parent Path, id string) Path {
	seg := norm.NFC.String(id)
	if parent.IsDocumentRoot() {
		return Path(string(parent) + seg)
	}
	return Path(string(parent) + string(separator) + seg)
}

// IsDocumentRoot reports whether p ends with the scheme marker.
func (p Path) IsDocumentRoot() bool {
	return strings.HasSuffix(string(p), schemeMarker)
}

// Parent strips the last segment of p. It returns false for a document
// root or for a string that carries no separator at all.
//
// When the separator found is the second half of "//" the separator is kept,
// so the parent of "t:id://a" is the root "t:id://" and not "t:id:/".
func Parent(p Path) (Path, bool) {
	s := string(p)
	if strings.HasSuffix(s, schemeMarker) {
		return "", false
	}
	last := strings.LastIndexByte(s, separator)
	if last == -1 {
		return "", false
	}
	end := last
	if last > 0 && s[last-1] == separator {
		end = last + 1
	}
	return Path(s[:end]), true
}

// Root walks parents until the document root is reached.
func Root(p Path) Path {
	cur := p
	for {
		parent, ok := Parent(cur)
		if !ok || parent == cur {
			return cur
		}
		cur = parent
	}
}

// Contains reports whether b is a or lies below a. Containment is checked at
// a segment boundary so "t:id://Item" does not contain "t:id://Items".
func Contains(a, b Path) bool {
	as, bs := string(a), string(b)
	if !strings.HasPrefix(bs, as) {
		return false
	}
	if len(bs) == len(as) || a.IsDocumentRoot() {
		return true
	}
	return bs[len(as)] == separator
}

// Document splits the document type and id out of p.
func Document(p Path) (documentType, documentID string, ok bool) {
	s := string(p)
	i := strings.Index(s, schemeMarker)
	if i == -1 {
		return "", "", false
	}
	head := s[:i]
	colon := strings.IndexByte(head, ':')
	if colon == -1 {
		return "", "", false
	}
	return head[:colon], head[colon+1:], true
}

// Segments returns the segments below the document root.
func Segments(p Path) []string {
	s := string(p)
	i := strings.Index(s, schemeMarker)
	if i == -1 {
		return nil
	}
	rest := s[i+len(schemeMarker):]
	if rest == "" {
		return nil
	}
	return strings.Split(rest, string(separator))
}

func (p Path) String() string {
	return string(p)
}
