package models

// CartItem mirrors the cart document the storefront client maintains. Price
// and display fields here are hints only and are never trusted for pricing.
type CartItem struct {
	Quantity int64   `firestore:"quantity" json:"quantity"`
	Price    float64 `firestore:"price"    json:"price"`
	Name     string  `firestore:"name"     json:"name,omitempty"`
	ImageURL string  `firestore:"imageUrl" json:"imageUrl,omitempty"`
}

// Cart is keyed by the subject id. The only mutation this service performs
// on it is full deletion when an order commits.
type Cart struct {
	Items       map[string]CartItem `firestore:"items"       json:"items"`
	TotalAmount float64             `firestore:"totalAmount" json:"totalAmount"`
}
