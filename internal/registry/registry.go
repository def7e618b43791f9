// Package registry holds the single source of truth mapping an order id
// to its Order. Every other component — the price-level index, the
// expiration heap — stores ids only and resolves through this registry,
// so there is exactly one place that owns order state.
package registry

import "github.com/rishav/order-matching-engine/internal/order"

// Registry is not safe for concurrent use by multiple goroutines; the
// matching engine is its sole writer and reader, consistent with the
// single-writer concurrency model the rest of the engine follows.
type Registry struct {
	orders map[uint64]*order.Order
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{orders: make(map[uint64]*order.Order)}
}

// Put stores o under its own ID, overwriting any previous entry.
func (r *Registry) Put(o *order.Order) {
	r.orders[o.ID] = o
}

// Get resolves an id to its Order, if it is currently known.
func (r *Registry) Get(id uint64) (*order.Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// Delete removes an id from the registry, typically once it is fully
// filled or cancelled.
func (r *Registry) Delete(id uint64) {
	delete(r.orders, id)
}

// Len returns the number of orders currently tracked.
func (r *Registry) Len() int {
	return len(r.orders)
}
