// Package library couples an in-memory store with a persistence backend.
//
// Every mutation is confirmed then applied: the new values of a key are
// validated against the store schema, saved to the backend, and only after
// the save succeeds written to the store. A failed save leaves the store as
// it was and is reported as ErrPersistence. The library never retries.
//
// A *Library satisfies templating.Source, so an Engine built on it always
// expands against the latest confirmed content.
package library
