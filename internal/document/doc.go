// Package document provides the field-tree model mapped from and to.
//
// A document is either primitive (a single scalar, no fields) or structured
// (an ordered tree of fields). Every document is identified by its type and
// id. Fields are namespace aware and know whether they are attributes.
//
// Schema ingestion is not done here. Documents are built programmatically or
// from a Definition loaded from YAML, CUE or JSON.
package document
