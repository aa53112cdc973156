// Package core implements the patient roster import and export pipeline.
//
// It holds all domain logic independent of transport: the HTTP server and
// the rosterctl CLI both drive it through [Service].
//
// # Import pipeline
//
// An import moves one way, from bytes to a report:
//
//  1. [Decode] strips a BOM and converts Windows-1252 input to UTF-8
//  2. [DetectDelimiter] picks comma, semicolon, tab or pipe
//  3. [ParseRows] splits the text into header-keyed [RawRow] values
//  4. [ResolveColumns] maps locale-specific headers onto a [CanonicalRecord]
//  5. [RowValidator] rejects unusable records with one reason each
//  6. [DuplicateResolver] looks for an existing patient in the tenant
//  7. The [Importer] creates the patient and fires the contact sync hook
//
// Steps 4 to 7 run per row, in file order, and a row failing never stops
// the run. The returned [ImportReport] accounts for every row exactly once.
//
// # Collaborators
//
// Storage, tenant lookup and contact sync are interfaces ([PatientStore],
// [TenantDirectory], [ContactNotifier]) implemented in internal/store and
// internal/contactsync.
//
// # Error Handling
//
// File-level failures ([FileError], [ParseError], [OptionError],
// [ErrTenantNotFound]) return an error instead of a report. [MapError] turns
// any error into a coded [UserMessage] for API clients:
//
//   - FILE001-FILE007: upload problems (size, format, encoding)
//   - TEN001-TEN002: tenant lookup
//   - EXP001-EXP002: export
//   - VAL, DB, UPL, RATE: validation, storage, request lifecycle
package core
