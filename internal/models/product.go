package models

// Product is the authoritative catalog record. Stock is only ever mutated
// through a store transaction; the catalog-management process owns the rest.
type Product struct {
	ID          string  `firestore:"-"           json:"id"`
	Name        string  `firestore:"name"        json:"name"`
	Description string  `firestore:"description" json:"description,omitempty"`
	Price       float64 `firestore:"price"       json:"price"`
	Stock       int64   `firestore:"stock"       json:"stock"`
	ImageURL    string  `firestore:"imageUrl"    json:"imageUrl,omitempty"`
}
