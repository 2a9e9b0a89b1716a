// Package cache provides the in-memory, time-bounded stores used by the proxy.
//
// Two shapes are offered:
//
//   - TTLCache: a keyed store. Entries are readable while now-storedAt < TTL
//     and are treated as absent afterwards. Expired entries are not purged on
//     read; the next Put for the key overwrites them.
//   - Slot: a single shared cell with the same freshness rule.
//
// Every read and write is serialized by a mutex owned by the instance. The
// lock covers only the in-memory operation, so callers must not assume that
// a miss observed by one goroutine is not also observed by another.
//
// A Sweeper can optionally remove already expired entries on a cron schedule.
package cache
