// Package domain holds the validated value types of the library system:
// authors, users, library items and loan records, plus the error taxonomy
// shared by every layer above the storage backends.
//
// Ownership rules matter here. Items and loan records are always handed
// around as independent copies; storage backends clone them on save and on
// load so callers can never mutate backend-internal state. Authors are the
// deliberate exception: the same *Author is shared by every item that cites
// it, so renaming an author is visible to all holders.
package domain
