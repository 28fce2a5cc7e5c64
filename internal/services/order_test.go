package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appErrors "github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/models"
	service "github.com/velocart/storefront-backend/internal/services"
	"github.com/velocart/storefront-backend/internal/store"
	stripeGateway "github.com/velocart/storefront-backend/pkg/stripe"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, params stripeGateway.ChargeParams) (*stripeGateway.ChargeResult, error) {
	args := m.Called(ctx, params)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*stripeGateway.ChargeResult), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, paymentIntentID string, amountMinorUnits int64) error {
	args := m.Called(ctx, paymentIntentID, amountMinorUnits)

	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, subjectID string, order *models.Order) error {
	args := m.Called(ctx, subjectID, order)

	return args.Error(0)
}

func seedCatalog(memStore *store.MemoryStore) {
	memStore.SeedProduct(models.Product{ID: "P1", Name: "Walnut Desk Lamp", Price: 25.00, Stock: 5, ImageURL: "https://img.example/p1.png"})
	memStore.SeedProduct(models.Product{ID: "P2", Name: "Brass Bookend", Price: 10.00, Stock: 2})
}

func validRequest() *models.PlaceOrderRequest {
	return &models.PlaceOrderRequest{
		PaymentMethodID: "pm_card_visa",
		CartItems: []models.CartLineRequest{
			{ID: "P1", Quantity: 2, Name: "Walnut Desk Lamp", Price: 25.00},
			{ID: "P2", Quantity: 1},
		},
		ShippingInfo: models.ShippingInfo{
			Name: "Ada Lovelace", Address1: "12 Byron Row", City: "London", State: "LDN", Zip: "NW1", Country: "GB",
		},
		TotalAmount: 60.00,
	}
}

func succeededCharge() *stripeGateway.ChargeResult {
	return &stripeGateway.ChargeResult{IntentID: "pi_123", Status: "succeeded", Succeeded: true}
}

func TestPlaceOrder_Success(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)
	memStore.PutCart("user-1", models.Cart{Items: map[string]models.CartItem{"P1": {Quantity: 2}}, TotalAmount: 60.00})

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.MatchedBy(func(params stripeGateway.ChargeParams) bool {
		return params.AmountMinorUnits == 6000 &&
			params.Currency == "usd" &&
			params.PaymentMethodID == "pm_card_visa" &&
			params.IdempotencyKey != "" &&
			params.Metadata["userId"] == "user-1"
	})).Return(succeededCharge(), nil).Once()

	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	resp, err := orderService.PlaceOrder(context.Background(), "user-1", validRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "succeeded", resp.PaymentStatus)
	assert.Equal(t, 60.00, resp.TotalAmount)

	p1, _ := memStore.Product("P1")
	p2, _ := memStore.Product("P2")
	assert.Equal(t, int64(3), p1.Stock)
	assert.Equal(t, int64(1), p2.Stock)

	orders := memStore.Orders()
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "pi_123", order.PaymentIntentID)
	assert.Equal(t, 60.00, order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 25.00, order.Items[0].PriceAtOrder)
	assert.Equal(t, "Walnut Desk Lamp", order.Items[0].Name)
	assert.Equal(t, "https://img.example/p1.png", order.Items[0].ImageURL)

	_, cartExists := memStore.Cart("user-1")
	assert.False(t, cartExists, "cart should be deleted after order placement")

	gateway.AssertExpectations(t)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)
	gateway := new(mockGateway)
	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	tests := []struct {
		name   string
		mutate func(req *models.PlaceOrderRequest)
	}{
		{"missing payment method", func(req *models.PlaceOrderRequest) { req.PaymentMethodID = "" }},
		{"empty cart", func(req *models.PlaceOrderRequest) { req.CartItems = nil }},
		{"missing recipient name", func(req *models.PlaceOrderRequest) { req.ShippingInfo.Name = "" }},
		{"zero quantity", func(req *models.PlaceOrderRequest) { req.CartItems[0].Quantity = 0 }},
		{"negative quantity", func(req *models.PlaceOrderRequest) { req.CartItems[0].Quantity = -1 }},
		{"missing product id", func(req *models.PlaceOrderRequest) { req.CartItems[0].ID = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)

			resp, err := orderService.PlaceOrder(context.Background(), "user-1", req)

			assert.Nil(t, resp)
			appErr, ok := appErrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, appErrors.ErrCodeValidation, appErr.Code)
		})
	}

	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)
	memStore.PutCart("user-1", models.Cart{})
	gateway := new(mockGateway)
	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	req := validRequest()
	req.CartItems = append(req.CartItems, models.CartLineRequest{ID: "P404", Quantity: 1})

	resp, err := orderService.PlaceOrder(context.Background(), "user-1", req)

	assert.Nil(t, resp)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeProductNotFound, appErr.Code)
	assert.Equal(t, 400, appErr.StatusCode)

	// Full rollback: nothing moved.
	p1, _ := memStore.Product("P1")
	assert.Equal(t, int64(5), p1.Stock)
	assert.Empty(t, memStore.Orders())
	_, cartExists := memStore.Cart("user-1")
	assert.True(t, cartExists)
	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)
	memStore.PutCart("user-1", models.Cart{})
	gateway := new(mockGateway)
	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	req := validRequest()
	req.CartItems[1].Quantity = 3 // P2 only has 2

	resp, err := orderService.PlaceOrder(context.Background(), "user-1", req)

	assert.Nil(t, resp)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)
	assert.Contains(t, appErr.Message, "Brass Bookend")

	p1, _ := memStore.Product("P1")
	p2, _ := memStore.Product("P2")
	assert.Equal(t, int64(5), p1.Stock)
	assert.Equal(t, int64(2), p2.Stock)
	assert.Empty(t, memStore.Orders())
	_, cartExists := memStore.Cart("user-1")
	assert.True(t, cartExists)
	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)

	// Retrying against an unchanged ledger fails identically.
	_, retryErr := orderService.PlaceOrder(context.Background(), "user-1", req)
	retryAppErr, ok := appErrors.IsAppError(retryErr)
	require.True(t, ok)
	assert.Equal(t, appErr.Code, retryAppErr.Code)
	assert.Equal(t, appErr.Message, retryAppErr.Message)
}

func TestPlaceOrder_PaymentDeclined(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)
	memStore.PutCart("user-1", models.Cart{})

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.Anything).
		Return(nil, &stripeGateway.GatewayError{Kind: stripeGateway.KindCardDeclined, Message: "Your card was declined.", Raw: "card_declined"}).Once()

	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	resp, err := orderService.PlaceOrder(context.Background(), "user-1", validRequest())

	assert.Nil(t, resp)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodePaymentFailed, appErr.Code)
	assert.Equal(t, 402, appErr.StatusCode)
	assert.Equal(t, "Your card was declined.", appErr.Message)

	p1, _ := memStore.Product("P1")
	assert.Equal(t, int64(5), p1.Stock)
	assert.Empty(t, memStore.Orders())
	_, cartExists := memStore.Cart("user-1")
	assert.True(t, cartExists)
	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_GatewayUnavailable(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.Anything).
		Return(nil, &stripeGateway.GatewayError{Kind: stripeGateway.KindUnavailable, Message: "gateway timeout", Raw: "timeout"}).Once()

	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	_, err := orderService.PlaceOrder(context.Background(), "user-1", validRequest())

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeThirdPartyError, appErr.Code)
	assert.Equal(t, 500, appErr.StatusCode)

	p1, _ := memStore.Product("P1")
	assert.Equal(t, int64(5), p1.Stock)
	assert.Empty(t, memStore.Orders())
}

func TestPlaceOrder_ChargeNotTerminalSuccess(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.Anything).
		Return(&stripeGateway.ChargeResult{IntentID: "pi_456", Status: "requires_action", Succeeded: false}, nil).Once()

	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	_, err := orderService.PlaceOrder(context.Background(), "user-1", validRequest())

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodePaymentFailed, appErr.Code)
	assert.Contains(t, appErr.Message, "requires_action")

	assert.Empty(t, memStore.Orders())
	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_TotalMismatchUsesServerTotal(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.MatchedBy(func(params stripeGateway.ChargeParams) bool {
		return params.AmountMinorUnits == 5000
	})).Return(succeededCharge(), nil).Once()

	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	req := &models.PlaceOrderRequest{
		PaymentMethodID: "pm_card_visa",
		CartItems:       []models.CartLineRequest{{ID: "P1", Quantity: 2}},
		ShippingInfo:    validRequest().ShippingInfo,
		TotalAmount:     49.99, // disagrees with server total by more than a cent
	}

	resp, err := orderService.PlaceOrder(context.Background(), "user-1", req)

	require.NoError(t, err)
	assert.Equal(t, 50.00, resp.TotalAmount)

	orders := memStore.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, 50.00, orders[0].TotalAmount)
	gateway.AssertExpectations(t)
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	memStore := store.NewMemory()
	memStore.SeedProduct(models.Product{ID: "P1", Name: "Walnut Desk Lamp", Price: 10.00, Stock: 1})

	// Barrier: both transactions read stock=1 and reach the gateway before
	// either commits, forcing a commit conflict for exactly one of them.
	var barrier sync.WaitGroup
	barrier.Add(2)

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			barrier.Done()
			barrier.Wait()
		}).
		Return(succeededCharge(), nil)
	gateway.On("Refund", mock.Anything, "pi_123", int64(1000)).Return(nil)

	orderService := service.NewOrderService(memStore, gateway, nil, "usd")

	req := func() *models.PlaceOrderRequest {
		return &models.PlaceOrderRequest{
			PaymentMethodID: "pm_card_visa",
			CartItems:       []models.CartLineRequest{{ID: "P1", Quantity: 1}},
			ShippingInfo:    validRequest().ShippingInfo,
			TotalAmount:     10.00,
		}
	}

	type outcome struct {
		resp *models.PlaceOrderResponse
		err  error
	}

	results := make(chan outcome, 2)

	for _, user := range []string{"user-a", "user-b"} {
		go func(userID string) {
			resp, err := orderService.PlaceOrder(context.Background(), userID, req())
			results <- outcome{resp: resp, err: err}
		}(user)
	}

	first, second := <-results, <-results

	var winner, loser outcome
	if first.err == nil {
		winner, loser = first, second
	} else {
		winner, loser = second, first
	}

	require.NoError(t, winner.err, "exactly one order should succeed")
	require.Error(t, loser.err, "the other order should fail")

	appErr, ok := appErrors.IsAppError(loser.err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)

	p1, _ := memStore.Product("P1")
	assert.Equal(t, int64(0), p1.Stock)
	assert.Len(t, memStore.Orders(), 1)

	// The loser charged before its conflict was detected; that charge must
	// have been released.
	gateway.AssertCalled(t, "Refund", mock.Anything, "pi_123", int64(1000))
}

func TestPlaceOrder_ConfirmationEmailFailureIsBestEffort(t *testing.T) {
	memStore := store.NewMemory()
	seedCatalog(memStore)

	gateway := new(mockGateway)
	gateway.On("Charge", mock.Anything, mock.Anything).Return(succeededCharge(), nil).Once()

	notifier := new(mockNotifier)
	notifier.On("SendOrderConfirmation", mock.Anything, "user-1", mock.AnythingOfType("*models.Order")).
		Return(assert.AnError).Once()

	orderService := service.NewOrderService(memStore, gateway, notifier, "usd")

	resp, err := orderService.PlaceOrder(context.Background(), "user-1", validRequest())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	notifier.AssertExpectations(t)
}
