// Package checkpoint persists batch queue state so interrupted batches can
// be resumed.
//
// Checkpoints are opaque JSON documents keyed by batch id. Each one is
// wrapped in an Entry envelope carrying the schema version it was written
// with and an optional expiry. Two backends are provided:
//   - FileStore writes one <batchId>.json file per batch under a directory
//     (default ~/.promptbatch/checkpoints/), using temp-file + rename.
//   - RedisStore keeps one key per batch under a prefix, with the retention
//     applied as the key TTL.
//
// Expired checkpoints are reported as ErrNotFound and removed lazily.
package checkpoint
