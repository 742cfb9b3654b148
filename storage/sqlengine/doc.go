// Package sqlengine implements the storage contract against a remote
// relational store reached through the adapters protocol layer
// (connection / prepared statement / result set).
//
// The engine owns one lazily-established, cached connection and reconnects
// when the cached session reports disconnected. There is no pooling; a
// single coarse lock serializes every statement through that connection.
//
// Saves are single atomic upserts (merge-on-key: update when the id
// matches, insert otherwise). Reads are parameterized queries filtered by
// id or foreign key. BeginTransaction/Commit/Rollback are explicit and
// non-nested; single saves and loads never open one implicitly, and Close
// rolls back any transaction still open so none is ever leaked.
//
// Timestamps are stored textually with microsecond precision and truncated
// to whole seconds on the way back in, an accepted fidelity loss. Absent
// author references, ISBNs, years and return dates are stored as SQL NULL,
// never as empty strings.
//
// Expected schema:
//
//	CREATE TABLE "Authors" ("AuthorId" VARCHAR PRIMARY KEY, "Name" VARCHAR NOT NULL);
//	CREATE TABLE "Users" ("UserId" VARCHAR PRIMARY KEY, "Name" VARCHAR NOT NULL);
//	CREATE TABLE "LibraryItems" (
//	    "ItemId" VARCHAR PRIMARY KEY,
//	    "ItemType" VARCHAR NOT NULL,
//	    "Title" VARCHAR NOT NULL,
//	    "AuthorId" VARCHAR NULL REFERENCES "Authors" ("AuthorId"),
//	    "ISBN" VARCHAR NULL,
//	    "PublicationYear" INTEGER NULL,
//	    "AvailabilityStatus" INTEGER NOT NULL
//	);
//	CREATE TABLE "LoanRecords" (
//	    "LoanRecordId" VARCHAR PRIMARY KEY,
//	    "ItemId" VARCHAR NOT NULL REFERENCES "LibraryItems" ("ItemId"),
//	    "UserId" VARCHAR NOT NULL REFERENCES "Users" ("UserId"),
//	    "LoanDate" VARCHAR NOT NULL,
//	    "DueDate" VARCHAR NOT NULL,
//	    "ReturnDate" VARCHAR NULL
//	);
package sqlengine
