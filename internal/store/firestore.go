package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/velocart/storefront-backend/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	cartsCollection    = "carts"
)

type firestoreStore struct {
	client *firestore.Client
}

// NewFirestore connects to the managed document database. An empty
// credentialsFile falls back to application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (Store, error) {

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &firestoreStore{client: client}, nil
}

// RunTransaction delegates conflict detection and retry to Firestore: the
// body is re-invoked on contended commits and every staged write is dropped
// when the body errors.
func (s *firestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: s.client, tx: ft})
	})
}

func (s *firestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collections(ctx)

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore ping failed: %w", err)
	}

	return nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) GetProduct(id string) (*models.Product, error) {

	snap, err := t.tx.Get(t.client.Collection(productsCollection).Doc(id))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to read product %s: %w", id, err)
	}

	var product models.Product
	if err := snap.DataTo(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}

	product.ID = snap.Ref.ID

	return &product, nil
}

func (t *firestoreTx) UpdateProductStock(id string, stock int64) error {
	ref := t.client.Collection(productsCollection).Doc(id)

	return t.tx.Update(ref, []firestore.Update{{Path: "stock", Value: stock}})
}

func (t *firestoreTx) CreateOrder(order *models.Order) (string, error) {
	ref := t.client.Collection(ordersCollection).NewDoc()

	if err := t.tx.Set(ref, order); err != nil {
		return "", fmt.Errorf("failed to stage order creation: %w", err)
	}

	return ref.ID, nil
}

func (t *firestoreTx) DeleteCart(userID string) error {
	return t.tx.Delete(t.client.Collection(cartsCollection).Doc(userID))
}
