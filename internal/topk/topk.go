// Package topk maintains the best-scoring verified deals seen so far,
// bounded to a fixed capacity.
package topk

import (
	"sort"

	"glitchfinder/internal/deal"
)

// ResultSet is a bounded, score-descending collection of enriched deals.
// While below capacity every insert is accepted; at capacity a new deal
// only enters by evicting the current minimum with a strictly greater
// score. Not safe for concurrent use; a session owns exactly one.
type ResultSet struct {
	capacity int
	items    []deal.EnrichedDeal
}

// New creates a result set with the given capacity
func New(capacity int) *ResultSet {
	if capacity < 1 {
		capacity = 1
	}
	return &ResultSet{
		capacity: capacity,
		items:    make([]deal.EnrichedDeal, 0, capacity),
	}
}

// Insert offers a deal to the set. Returns true when the deal was accepted,
// false when it was discarded for scoring below the current minimum.
func (r *ResultSet) Insert(d deal.EnrichedDeal) bool {
	if len(r.items) < r.capacity {
		r.items = append(r.items, d)
		r.sort()
		return true
	}

	min := r.items[len(r.items)-1]
	if d.Score <= min.Score {
		return false
	}

	r.items[len(r.items)-1] = d
	r.sort()
	return true
}

// IsFull reports whether the set reached capacity; the orchestrator uses it
// as its early-termination signal
func (r *ResultSet) IsFull() bool {
	return len(r.items) == r.capacity
}

// Len returns the current number of deals
func (r *ResultSet) Len() int {
	return len(r.items)
}

// Items returns a copy of the deals, score descending
func (r *ResultSet) Items() []deal.EnrichedDeal {
	out := make([]deal.EnrichedDeal, len(r.items))
	copy(out, r.items)
	return out
}

func (r *ResultSet) sort() {
	sort.SliceStable(r.items, func(i, j int) bool {
		return r.items[i].Score > r.items[j].Score
	})
}
