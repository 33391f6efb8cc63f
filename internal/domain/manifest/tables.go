// Package manifest holds the static reference tables the normalizers resolve
// hashes against, and the loader that builds them at startup.
package manifest

import (
	"cmp"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/vigilance/vanguard/internal/domain/model"
)

// ReferenceMap is an immutable keyed collection. It is never mutated after
// construction, so concurrent readers need no locking.
type ReferenceMap[K cmp.Ordered, V any] struct {
	m map[K]V
}

// NewReferenceMap takes ownership of entries; the caller must not modify the
// map afterwards.
func NewReferenceMap[K cmp.Ordered, V any](entries map[K]V) ReferenceMap[K, V] {
	return ReferenceMap[K, V]{m: entries}
}

// Get looks up k.
func (r ReferenceMap[K, V]) Get(k K) (V, bool) {
	v, ok := r.m[k]
	return v, ok
}

// Len is the number of entries.
func (r ReferenceMap[K, V]) Len() int { return len(r.m) }

// Keys returns the keys in ascending order.
func (r ReferenceMap[K, V]) Keys() []K {
	return slices.Sorted(maps.Keys(r.m))
}

// ReferenceTables is the full set of resolved reference data.
type ReferenceTables struct {
	Buckets           ReferenceMap[uint32, model.Bucket]
	Perks             ReferenceMap[uint32, model.Perk]
	Stats             ReferenceMap[uint32, model.Stat]
	Items             ReferenceMap[uint32, model.ItemDefinition]
	ActivityTypes     ReferenceMap[uint32, model.ActivityType]
	ActivityModifiers ReferenceMap[uint32, model.Modifier]
	Activities        ReferenceMap[uint32, model.Activity]
	LiveActivities    ReferenceMap[uint32, model.Activity]
}

// ResolveActivity looks in the live table first, then the static one.
func (t *ReferenceTables) ResolveActivity(hash uint32) (model.Activity, bool) {
	if a, ok := t.LiveActivities.Get(hash); ok {
		return a, true
	}
	return t.Activities.Get(hash)
}

// SlotName resolves an item hash to its slot through the item definition.
func (t *ReferenceTables) SlotName(itemHash uint32) (string, bool) {
	def, ok := t.Items.Get(itemHash)
	if !ok {
		return "", false
	}
	b, ok := t.Buckets.Get(def.BucketHash)
	if !ok {
		return "", false
	}
	return b.Name, true
}

// Holder publishes the current tables and supports wholesale replacement.
type Holder struct {
	p atomic.Pointer[ReferenceTables]
}

// NewHolder creates a holder publishing t.
func NewHolder(t *ReferenceTables) *Holder {
	h := &Holder{}
	h.p.Store(t)
	return h
}

// Load returns the published tables, or nil before the first Store.
func (h *Holder) Load() *ReferenceTables { return h.p.Load() }

// Store replaces the published tables.
func (h *Holder) Store(t *ReferenceTables) { h.p.Store(t) }
