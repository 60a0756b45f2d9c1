// Package session holds the documents and the current mapping tree of one
// editing session.
//
// The tree is swapped atomically after every change: every operation builds
// a new tree from the current one and publishes it, so Tree never observes a
// partial rewrite. Writers are serialized. The parameter registry is owned by
// the session and only changes through its methods.
//
// An optional update callback receives the serialized mappings after every
// change, the way an editor would persist them. It runs once the session
// lock is released and may read from or write to the session.
package session
