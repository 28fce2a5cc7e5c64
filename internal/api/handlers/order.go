package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/velocart/storefront-backend/internal/api/middleware"
	"github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/models"
	service "github.com/velocart/storefront-backend/internal/services"
	"github.com/velocart/storefront-backend/internal/utils"
	"github.com/velocart/storefront-backend/internal/utils/response"
)

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

// ProcessPaymentAndCreateOrder godoc
//	@Summary		Charge the payment method and create the order
//	@Description	Validates the cart against live inventory, charges the payment method for the server-computed total, creates the order and clears the cart as one atomic unit. Requires authentication.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		models.PlaceOrderRequest	true	"Cart lines, shipping info and payment method"
//	@Success		200		{object}	models.PlaceOrderResponse	"Order placed"
//	@Failure		400		{object}	response.APIError			"Validation error, unknown product or insufficient stock"
//	@Failure		401		{object}	response.APIError			"Authentication required"
//	@Failure		402		{object}	response.APIError			"Payment declined"
//	@Failure		500		{object}	response.APIError			"Internal or gateway error"
//	@Security		BearerAuth
//	@Router			/processPaymentAndCreateOrder [post]
func (h *OrderHandler) ProcessPaymentAndCreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		subjectID, ok := middleware.SubjectFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order placement attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required."))

			return
		}

		var req models.PlaceOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid order placement input")

			return
		}

		resp, err := h.orderService.PlaceOrder(r.Context(), subjectID, &req)
		if err != nil {
			logger.Error("Failed to place order", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, resp)
	}
}
