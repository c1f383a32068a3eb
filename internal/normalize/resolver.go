// Package normalize turns the unpacked raw extracts into the normalized
// warehouse model: dense surrogate ids for every dimension, a classified
// person table, and re-keyed, deduplicated link tables.
package normalize

import (
	"errors"
	"fmt"
)

// ErrDuplicateNaturalID reports one natural id carrying two different
// display names (or conflicting attribute values) within a single unpack
// pass. Fuzzy duplicates are not resolved here; that is the explicit
// equivalence dataset's job.
var ErrDuplicateNaturalID = errors.New("duplicate natural id")

// Resolver assigns dense surrogate ids 1..N to natural keys in
// first-sighting order and keeps the natural→surrogate lookup the link
// stage re-keys through. K is the natural key type: int64 for source ids,
// string for code- and name-keyed dimensions.
//
// Surrogates are stable within one build only; nothing may persist them
// across runs.
type Resolver[K comparable] struct {
	label string
	next  int64
	ids   map[K]int64
	names map[K]string
	keys  []K // live keys, in surrogate order
}

// NewResolver returns an empty resolver. label names the entity type in
// error messages ("genre", "company", ...).
func NewResolver[K comparable](label string) *Resolver[K] {
	return &Resolver[K]{
		label: label,
		ids:   make(map[K]int64),
		names: make(map[K]string),
	}
}

// Observe records one sighting of key and returns its surrogate, assigning
// the next dense id on first sight. An empty name is an id-only sighting; a
// non-empty name is adopted if the key has none yet. Two different non-empty
// names for one key fail with ErrDuplicateNaturalID.
func (r *Resolver[K]) Observe(key K, name string) (int64, error) {
	id, ok := r.ids[key]
	if !ok {
		r.next++
		id = r.next
		r.ids[key] = id
		r.keys = append(r.keys, key)
	}
	if name != "" {
		switch current := r.names[key]; current {
		case "", name:
			r.names[key] = name
		default:
			return 0, fmt.Errorf("%w: %s %v named both %q and %q", ErrDuplicateNaturalID, r.label, key, current, name)
		}
	}
	return id, nil
}

// ID returns the surrogate for key. After a fold, a superseded key reports
// its canonical surrogate.
func (r *Resolver[K]) ID(key K) (int64, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Name returns the display name adopted for key, "" if none arrived.
func (r *Resolver[K]) Name(key K) string { return r.names[key] }

// Len returns the live entity count.
func (r *Resolver[K]) Len() int { return len(r.keys) }

// Each walks live entities in surrogate order.
func (r *Resolver[K]) Each(fn func(id int64, key K, name string)) {
	for _, k := range r.keys {
		fn(r.ids[k], k, r.names[k])
	}
}

// Fold folds the superseded key's entity into the canonical one: lookups of
// superseded (and of any key folded into it earlier) now yield canonical's
// surrogate, and superseded's own row leaves the live set. Reports whether
// anything changed; folding an already-folded pair is a no-op, which is what
// makes re-applying an equivalence dataset safe.
//
// Both keys must be resolved; callers check with ID first.
func (r *Resolver[K]) Fold(superseded, canonical K) bool {
	supID := r.ids[superseded]
	canID := r.ids[canonical]
	if supID == canID {
		return false
	}

	for k, id := range r.ids {
		if id == supID {
			r.ids[k] = canID
		}
	}
	for i, k := range r.keys {
		if k == superseded {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// Compact reassigns dense surrogates 1..len(live) in live order, closing the
// holes folds leave behind. It returns the old→new mapping (identity entries
// included) so link rows can be re-keyed in one pass.
func (r *Resolver[K]) Compact() map[int64]int64 {
	remap := make(map[int64]int64, len(r.keys))
	for i, k := range r.keys {
		remap[r.ids[k]] = int64(i + 1)
	}
	for k, id := range r.ids {
		r.ids[k] = remap[id]
	}
	r.next = int64(len(r.keys))
	return remap
}
