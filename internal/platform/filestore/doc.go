// Package filestore implements store.RecordStore on the local filesystem.
//
// Each collection is a directory under the root and each record is a
// compact JSON file named <key>.json. Creates use exclusive opens, updates
// replace the file atomically through a rename, and every operation holds a
// per-record lock for its duration.
package filestore
