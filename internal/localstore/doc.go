// Package localstore persists the client's offline state in SQLite: the
// pending-submission queue, dead-lettered submissions, a cache of reports for
// offline viewing, and sync metadata.
//
// Each mutation is a single atomic statement; items are independent so no
// multi-row transactions are needed. The database is owned by the queue
// manager and sync manager, which treat this package purely as their
// persistence medium. Schema changes bump the version in schema.go; the
// store refuses to open a database with a mismatched version.
package localstore
