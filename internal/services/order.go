package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/velocart/storefront-backend/internal/api/middleware"
	"github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/models"
	"github.com/velocart/storefront-backend/internal/store"
	stripeGateway "github.com/velocart/storefront-backend/pkg/stripe"
)

// totalMismatchTolerance is how far the client-declared total may drift from
// the server-computed one before the discrepancy is logged. The server total
// is authoritative either way.
var totalMismatchTolerance = decimal.NewFromFloat(0.01)

type OrderService interface {
	PlaceOrder(ctx context.Context, subjectID string, req *models.PlaceOrderRequest) (*models.PlaceOrderResponse, error)
}

type orderService struct {
	store    store.Store
	gateway  stripeGateway.Gateway
	notifier NotificationService
	currency string
}

func NewOrderService(docStore store.Store, gateway stripeGateway.Gateway, notifier NotificationService, currency string) OrderService {
	return &orderService{store: docStore, gateway: gateway, notifier: notifier, currency: currency}
}

// PlaceOrder runs the whole order placement as one store transaction:
// validate every line against live stock, compute the server total, charge
// the payment method, then atomically decrement stock, create the order and
// delete the cart. Any failure aborts with no partial state visible.
func (s *orderService) PlaceOrder(ctx context.Context, subjectID string, req *models.PlaceOrderRequest) (*models.PlaceOrderResponse, error) {

	logger := middleware.LoggerFromContext(ctx)

	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	// One key per invocation: the store may re-run the transaction body
	// after the charge call, and the gateway dedupes on this key instead of
	// charging again.
	idempotencyKey := uuid.NewString()

	var (
		resp         *models.PlaceOrderResponse
		placedOrder  *models.Order
		charged      *stripeGateway.ChargeResult
		chargedMinor int64
	)

	txErr := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {

		// Retries re-read everything; nothing from a previous attempt
		// survives into this one except the idempotency key.
		serverTotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.CartItems))

		type stockUpdate struct {
			productID string
			newStock  int64
		}

		updates := make([]stockUpdate, 0, len(req.CartItems))

		for _, line := range req.CartItems {

			product, err := tx.GetProduct(line.ID)
			if err != nil {
				if err == store.ErrNotFound {
					return errors.ProductNotFoundError(lineLabel(line))
				}

				return errors.InternalError("Failed to read product").WithError(err)
			}

			if product.Stock < line.Quantity {
				return errors.InsufficientStockError(product.Name, line.Quantity, product.Stock)
			}

			// Price and name always come from the authoritative record,
			// never from the client-supplied display hints.
			serverTotal = serverTotal.Add(decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(line.Quantity)))

			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				Name:         product.Name,
				PriceAtOrder: product.Price,
				ImageURL:     product.ImageURL,
				Quantity:     line.Quantity,
			})

			updates = append(updates, stockUpdate{productID: product.ID, newStock: product.Stock - line.Quantity})
		}

		clientTotal := decimal.NewFromFloat(req.TotalAmount)
		if serverTotal.Sub(clientTotal).Abs().GreaterThan(totalMismatchTolerance) {
			logger.Warn("Client total differs from server calculated total, using server total",
				slog.String("clientTotal", clientTotal.StringFixed(2)),
				slog.String("serverTotal", serverTotal.StringFixed(2)))
		}

		amountMinor := serverTotal.Shift(2).Round(0).IntPart()

		result, err := s.gateway.Charge(ctx, stripeGateway.ChargeParams{
			PaymentMethodID:  req.PaymentMethodID,
			AmountMinorUnits: amountMinor,
			Currency:         s.currency,
			Description:      fmt.Sprintf("Storefront order for user %s", subjectID),
			IdempotencyKey:   idempotencyKey,
			Metadata: map[string]string{
				"userId":    subjectID,
				"cartTotal": serverTotal.StringFixed(2),
				"items":     compactItems(items),
			},
		})
		if err != nil {
			return mapGatewayError(err)
		}

		if !result.Succeeded {
			return errors.PaymentFailedError(fmt.Sprintf("Payment failed with status: %s", result.Status))
		}

		charged = result
		chargedMinor = amountMinor

		totalAmount, _ := serverTotal.Float64()

		order := &models.Order{
			UserID:          subjectID,
			Items:           items,
			TotalAmount:     totalAmount,
			OrderDate:       time.Now().UTC(),
			Status:          models.OrderStatusProcessing,
			PaymentStatus:   models.PaymentStatusPaid,
			PaymentIntentID: result.IntentID,
		}

		for _, update := range updates {
			if err := tx.UpdateProductStock(update.productID, update.newStock); err != nil {
				return errors.InternalError("Failed to stage stock update").WithError(err)
			}
		}

		orderID, err := tx.CreateOrder(order)
		if err != nil {
			return errors.InternalError("Failed to stage order creation").WithError(err)
		}

		if err := tx.DeleteCart(subjectID); err != nil {
			return errors.InternalError("Failed to stage cart deletion").WithError(err)
		}

		order.ID = orderID
		placedOrder = order
		resp = &models.PlaceOrderResponse{
			Success:       true,
			OrderID:       orderID,
			PaymentStatus: result.Status,
			TotalAmount:   totalAmount,
		}

		return nil
	})

	if txErr != nil {
		s.releaseCharge(ctx, logger, charged, chargedMinor)

		if _, ok := errors.IsAppError(txErr); ok {
			return nil, txErr
		}

		if txErr == store.ErrTxConflict {
			return nil, errors.TransactionAbortedError("Order could not be placed due to concurrent updates, please retry").WithError(txErr)
		}

		return nil, errors.InternalError("An unexpected error occurred during the order process").WithError(txErr)
	}

	logger.Info("Order placed",
		slog.String("orderId", resp.OrderID),
		slog.Float64("totalAmount", resp.TotalAmount),
		slog.String("paymentIntentId", placedOrder.PaymentIntentID))

	if s.notifier != nil {
		if err := s.notifier.SendOrderConfirmation(ctx, subjectID, placedOrder); err != nil {
			logger.Warn("Failed to send order confirmation email", slog.Any("error", err))
		}
	}

	return resp, nil
}

// releaseCharge refunds a charge left behind by a transaction that went on
// to fail, e.g. a commit conflict followed by stock running out on retry.
func (s *orderService) releaseCharge(ctx context.Context, logger *slog.Logger, charged *stripeGateway.ChargeResult, amountMinor int64) {
	if charged == nil || !charged.Succeeded {
		return
	}

	if err := s.gateway.Refund(ctx, charged.IntentID, amountMinor); err != nil {
		logger.Error("Failed to refund charge for aborted order",
			slog.String("paymentIntentId", charged.IntentID),
			slog.Any("error", err))
		return
	}

	logger.Warn("Refunded charge for aborted order", slog.String("paymentIntentId", charged.IntentID))
}

func validatePlaceOrder(req *models.PlaceOrderRequest) error {

	if req.PaymentMethodID == "" {
		return errors.ValidationError("Missing required payment or cart details.")
	}

	if len(req.CartItems) == 0 {
		return errors.ValidationError("Missing required payment or cart details.")
	}

	if req.ShippingInfo.Name == "" {
		return errors.ValidationError("Missing required payment or cart details.")
	}

	for _, line := range req.CartItems {
		if line.ID == "" || line.Quantity <= 0 {
			return errors.ValidationError(fmt.Sprintf("Invalid item in cart: %s", line.ID))
		}
	}

	return nil
}

func lineLabel(line models.CartLineRequest) string {
	if line.Name != "" {
		return line.Name
	}

	return line.ID
}

// compactItems renders the order lines as the short JSON the gateway keeps
// in charge metadata.
func compactItems(items []models.OrderItem) string {

	type entry struct {
		ID  string `json:"id"`
		Qty int64  `json:"qty"`
	}

	entries := make([]entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, entry{ID: item.ProductID, Qty: item.Quantity})
	}

	encoded, err := json.Marshal(entries)
	if err != nil {
		return ""
	}

	return string(encoded)
}

func mapGatewayError(err error) error {

	if gwErr, ok := err.(*stripeGateway.GatewayError); ok {
		switch gwErr.Kind {
		case stripeGateway.KindCardDeclined, stripeGateway.KindInvalidRequest:
			return errors.PaymentFailedError(gwErr.Message).WithDetail(gwErr.Raw).WithError(gwErr)
		default:
			return errors.ThirdPartyError("Payment gateway is unavailable, please retry later").WithDetail(gwErr.Raw).WithError(gwErr)
		}
	}

	return errors.ThirdPartyError("Payment gateway is unavailable, please retry later").WithError(err)
}
