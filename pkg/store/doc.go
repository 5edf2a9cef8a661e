/*
Package store provides the in-memory, multi-valued key-value store that backs
Anthology's snippet lists and the template engine's key references.

Every key maps to an ordered list of values. A Store is created with a Schema
that can restrict the type of every value and can limit each key to a single
value. Mutations either succeed completely or leave the Store unchanged.

Persistence is not handled here; see the library and persist packages.
*/
package store
