// Package storage defines the contract every persistence backend of the
// library system implements, together with the observability interfaces the
// backends log through.
//
// Four backends satisfy the contract:
//   - memoryengine: lock-guarded keyed maps, clone-on-read
//   - fileengine: one delimited file per entity type, full rewrite per mutation
//   - cachingengine: write-back composite of the two above
//   - sqlengine: remote relational store via a connection/statement/result-set
//     protocol layer
//
// Contract guarantees, identical across backends:
//   - save is an upsert keyed by entity id
//   - load of an absent id returns the zero result and a nil error; absence
//     is never an error
//   - delete of an absent id is a no-op
//   - any I/O or protocol failure surfaces joined with domain.ErrOperationFailed
//   - items and loan records round-trip as independent copies; authors
//     round-trip as shared references
package storage
