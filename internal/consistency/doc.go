// Package consistency keeps a mapping tree valid when a document bound into
// it is replaced or deleted.
//
// Two policies apply. Full removal drops every item that references the
// affected document; it is used when either the old or the new document is
// primitive and whenever a document is deleted. Stale pruning keeps the
// items whose fields still resolve in the new document, rebinding them, and
// drops the rest.
//
// Every function returns a new tree and never fails. The input tree is not
// modified.
package consistency
