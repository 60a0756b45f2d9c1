// Package nodepath provides the canonical string address of documents,
// fields and mapping items.
//
// A path is built from a document root and a sequence of segments:
//
//	sourceBody:Body://ShipOrder/Item/Title
//
// The trailing "://" of a document root acts as the scheme marker. It is
// the terminal root of every parent walk and is never split into segments.
// Paths are used for identity and tree navigation only, never for storage.
package nodepath
