package models

import "time"

type OrderStatus string

type PaymentStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderItem is a frozen snapshot of the product at transaction time. It never
// references the live product record again, so later price or name changes
// cannot rewrite order history.
type OrderItem struct {
	ProductID    string  `firestore:"productId"    json:"productId"`
	Name         string  `firestore:"name"         json:"name"`
	PriceAtOrder float64 `firestore:"priceAtOrder" json:"priceAtOrder"`
	ImageURL     string  `firestore:"imageUrl"     json:"imageUrl,omitempty"`
	Quantity     int64   `firestore:"quantity"     json:"quantity"`
}

type Order struct {
	ID              string        `firestore:"-"               json:"id"`
	UserID          string        `firestore:"userId"          json:"userId"`
	Items           []OrderItem   `firestore:"items"           json:"items"`
	TotalAmount     float64       `firestore:"totalAmount"     json:"totalAmount"`
	OrderDate       time.Time     `firestore:"orderDate"       json:"orderDate"`
	Status          OrderStatus   `firestore:"status"          json:"status"`
	PaymentStatus   PaymentStatus `firestore:"paymentStatus"   json:"paymentStatus"`
	PaymentIntentID string        `firestore:"paymentIntentId" json:"paymentIntentId"`
}

// CartLineRequest is a client-supplied order line. Only ID and Quantity are
// acted on; the rest are display hints the client happens to send along.
type CartLineRequest struct {
	ID       string  `json:"id" validate:"required"`
	Quantity int64   `json:"quantity" validate:"required,gt=0"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

type ShippingInfo struct {
	Name     string `json:"name" validate:"required"`
	Address1 string `json:"address1" validate:"required"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Zip      string `json:"zip" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

type PlaceOrderRequest struct {
	PaymentMethodID string            `json:"paymentMethodId" validate:"required"`
	CartItems       []CartLineRequest `json:"cartItems" validate:"required,min=1,dive"`
	ShippingInfo    ShippingInfo      `json:"shippingInfo" validate:"required"`
	TotalAmount     float64           `json:"totalAmount"`
}

type PlaceOrderResponse struct {
	Success       bool    `json:"success"`
	OrderID       string  `json:"orderId"`
	PaymentStatus string  `json:"paymentStatus"`
	TotalAmount   float64 `json:"totalAmount"`
}
