package client

import "github.com/jhleath/hft-simulator/market"

// Book is one locally projected order collection. Orders keep arrival order;
// no price or time priority is enforced here, that is the exchange's job.
// Identifiers are unique within a book at any instant.
type Book struct {
	orders []*market.Order
}

// Append adds an order to the end of the book.
func (b *Book) Append(o *market.Order) {
	b.orders = append(b.orders, o)
}

// Find returns the first order matching the predicate, or nil.
func (b *Book) Find(match func(*market.Order) bool) *market.Order {
	for _, o := range b.orders {
		if match(o) {
			return o
		}
	}
	return nil
}

// Get returns the order with the given id, or nil.
func (b *Book) Get(id string) *market.Order {
	return b.Find(func(o *market.Order) bool { return o.ID == id })
}

// Remove deletes the first order with the given id. Removal is by key, so it
// is safe regardless of any scan that located the order earlier.
func (b *Book) Remove(id string) bool {
	for i, o := range b.orders {
		if o.ID == id {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the number of resting orders.
func (b *Book) Len() int {
	return len(b.orders)
}

// Orders returns a copy of the book's contents.
func (b *Book) Orders() []market.Order {
	out := make([]market.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	return out
}
