package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/velocart/storefront-backend/internal/models"
)

// maxTxAttempts bounds conflict retries of a transaction body.
const maxTxAttempts = 5

// MemoryStore is an in-process Store with the same optimistic transaction
// semantics as the managed database: reads are versioned, writes are staged,
// and a commit fails if anything read since has been overwritten. It backs
// local runs and the service tests, where the concurrency guarantees need to
// be exercised without an emulator.
type MemoryStore struct {
	mu       sync.Mutex
	products map[string]*versionedProduct
	carts    map[string]models.Cart
	orders   map[string]models.Order
}

type versionedProduct struct {
	product models.Product
	version int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*versionedProduct),
		carts:    make(map[string]models.Cart),
		orders:   make(map[string]models.Order),
	}
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {

	for attempt := 0; attempt < maxTxAttempts; attempt++ {

		if err := ctx.Err(); err != nil {
			return err
		}

		tx := &memoryTx{
			store:       s,
			reads:       make(map[string]int64),
			stockWrites: make(map[string]int64),
		}

		if err := fn(ctx, tx); err != nil {
			// Rollback: staged writes are simply dropped.
			return err
		}

		if s.commit(tx) {
			return nil
		}
	}

	return ErrTxConflict
}

// commit validates every recorded read against the current version and, if
// all still hold, applies the staged writes as one unit.
func (s *MemoryStore) commit(tx *memoryTx) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, version := range tx.reads {
		entry, ok := s.products[id]
		if !ok || entry.version != version {
			return false
		}
	}

	for id, stock := range tx.stockWrites {
		entry := s.products[id]
		entry.product.Stock = stock
		entry.version++
	}

	for _, order := range tx.newOrders {
		s.orders[order.ID] = order
	}

	for _, userID := range tx.cartDeletes {
		delete(s.carts, userID)
	}

	return true
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// SeedProduct installs or replaces a product record outside any transaction.
func (s *MemoryStore) SeedProduct(product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.products[product.ID]
	if !ok {
		s.products[product.ID] = &versionedProduct{product: product}
		return
	}

	entry.product = product
	entry.version++
}

// PutCart installs a cart document for the given user.
func (s *MemoryStore) PutCart(userID string, cart models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[userID] = cart
}

// Product returns a copy of the current product record.
func (s *MemoryStore) Product(id string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.products[id]
	if !ok {
		return models.Product{}, false
	}

	return entry.product, true
}

// Cart returns a copy of the user's cart document.
func (s *MemoryStore) Cart(userID string) (models.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]

	return cart, ok
}

// Orders returns a copy of every committed order.
func (s *MemoryStore) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}

	return orders
}

type memoryTx struct {
	store       *MemoryStore
	reads       map[string]int64
	stockWrites map[string]int64
	newOrders   []models.Order
	cartDeletes []string
}

func (t *memoryTx) GetProduct(id string) (*models.Product, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	entry, ok := t.store.products[id]
	if !ok {
		return nil, ErrNotFound
	}

	t.reads[id] = entry.version
	product := entry.product

	return &product, nil
}

func (t *memoryTx) UpdateProductStock(id string, stock int64) error {
	t.stockWrites[id] = stock

	return nil
}

func (t *memoryTx) CreateOrder(order *models.Order) (string, error) {
	staged := *order
	staged.ID = uuid.NewString()
	t.newOrders = append(t.newOrders, staged)

	return staged.ID, nil
}

func (t *memoryTx) DeleteCart(userID string) error {
	t.cartDeletes = append(t.cartDeletes, userID)

	return nil
}
