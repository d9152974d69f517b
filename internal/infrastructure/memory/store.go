package memory

// Store groups the in-process repositories that share state.
type Store struct {
	Products  *InventoryRepository
	Customers *CustomerRepository
	Orders    *OrderRepository
	Payments  *PaymentRepository
}

func NewStore() *Store {
	orders := NewOrderRepository()
	return &Store{
		Products:  NewInventoryRepository(),
		Customers: NewCustomerRepository(),
		Orders:    orders,
		Payments:  NewPaymentRepository(orders),
	}
}

// window returns the offset/limit slice of items, which must already be sorted.
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
