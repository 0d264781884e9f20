// Package store implements the sectioned cache store: an in-memory map of
// named sections, each holding string-keyed JSON blobs, backed by a single
// on-disk file written atomically on change. A store is loaded once at
// startup (quarantining a corrupt file instead of crashing), lazily
// populated through GetOrFetch, and can be snapshotted and restored through
// Backup/Recover. Keys are lowercased before lookup or storage. Each store
// owns one mutex; all public operations serialize on it so the hosting
// server may dispatch requests concurrently.
package store
