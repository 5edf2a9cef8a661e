// Package persist provides the storage backends a library is saved to.
//
// Every backend stores the same shape: a key mapped to an ordered list of
// snippet strings. Save replaces the whole list of one key and an empty list
// removes the key. Available backends:
//
//   - DirBackend: one <key>.json file per key inside a directory.
//   - SQLiteBackend: a single "snippets" table in a SQLite database.
//   - MemoryBackend: an in-process map for tests and ephemeral runs.
//   - HTTPBackend: a remote Anthology server reached over its /api/db route.
//
// A Watcher can observe a DirBackend directory and report external edits.
package persist
