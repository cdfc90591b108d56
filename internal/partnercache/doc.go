// Package partnercache provides an O(1) snapshot of the active partner set
// and O(1) lookup by id, isolating the broadcast orchestrator from the
// backing store.
//
// It is a bounded, TTL-expiring, cache-through layer over a Repository:
// reads that miss fall through to the repository; writes go to the
// repository first and then invalidate (or preload) the affected entries.
// Capacity and TTL default to the values in spec §4.1 (100 entries, 30
// minutes from write), generalizing the doubly-linked-list LRU design in
// tomtom215-cartographus's internal/cache package to partner records.
package partnercache
