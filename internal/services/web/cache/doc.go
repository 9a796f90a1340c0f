// Package cache is the web process's keyed read-through request cache.
//
// A Registry maps one Key to one mutable entry and guarantees at most one
// outstanding fetch per key: callers that arrive while a fetch is in flight
// attach to the same flight instead of issuing a second read. Entries move
// Idle -> Pending -> Resolved|Failed and only re-enter Pending through an
// explicit trigger (mount of a stale entry, Revalidate, focus or reconnect
// signals, or a scheduled error retry).
//
// Cache data is always derived and can be discarded and rebuilt from the
// remote API; nothing here is persisted across restarts.
package cache
