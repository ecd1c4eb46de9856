// Package memory provides in-process implementations of the store interfaces.
//
// Data lives in maps guarded by a single lock. Aggregates are copied on the way
// in and on the way out, so callers never share memory with the store. Units of
// work run through DB.RunInTx are serialized and rolled back by restoring a
// snapshot when they fail.
package memory
