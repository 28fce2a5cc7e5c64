package store

import (
	"context"
	"errors"

	"github.com/velocart/storefront-backend/internal/models"
)

// ErrNotFound is returned by Tx reads when the document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrTxConflict is returned when a transaction could not commit after
// exhausting its conflict retries.
var ErrTxConflict = errors.New("transaction aborted after repeated write conflicts")

// Store is the document database behind the storefront. RunTransaction
// executes fn inside a read-modify-write transaction: reads observe a
// consistent snapshot, writes are staged and become visible atomically at
// commit, and the store re-runs fn when a concurrent writer invalidates
// something it read. Any error returned by fn aborts the transaction with
// no partial state visible.
type Store interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Tx is the per-attempt view handed to a transaction body. All reads must
// happen before the first staged write; the body is re-run from scratch on
// conflict, so it must not cache state across attempts.
type Tx interface {
	// GetProduct reads the live product record, ErrNotFound if absent.
	GetProduct(id string) (*models.Product, error)

	// UpdateProductStock stages a write of the product's stock count.
	UpdateProductStock(id string, stock int64) error

	// CreateOrder stages creation of a new order document and returns its
	// generated id.
	CreateOrder(order *models.Order) (string, error)

	// DeleteCart stages deletion of the user's cart document.
	DeleteCart(userID string) error
}
