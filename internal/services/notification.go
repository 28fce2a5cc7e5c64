package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/velocart/storefront-backend/internal/identity"
	"github.com/velocart/storefront-backend/internal/models"
	"github.com/velocart/storefront-backend/pkg/sendGrid"
)

type NotificationService interface {
	SendOrderConfirmation(ctx context.Context, subjectID string, order *models.Order) error
}

type notificationService struct {
	provider     identity.Provider
	emailService sendGrid.EmailService
}

func NewNotificationService(provider identity.Provider, emailService sendGrid.EmailService) NotificationService {
	return &notificationService{provider: provider, emailService: emailService}
}

// SendOrderConfirmation emails the order summary to the buyer. Callers treat
// failures as best-effort: the order has already committed.
func (n *notificationService) SendOrderConfirmation(ctx context.Context, subjectID string, order *models.Order) error {

	user, err := n.provider.User(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("failed to look up buyer: %w", err)
	}

	if user.Email == "" {
		return nil
	}

	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "%d x %s @ %.2f\n", item.Quantity, item.Name, item.PriceAtOrder)
	}

	fmt.Fprintf(&lines, "\nTotal: %.2f\n", order.TotalAmount)

	subject := fmt.Sprintf("Order confirmation %s", order.ID)
	content := fmt.Sprintf("Thanks for your order!\n\n%s", lines.String())

	return n.emailService.Send(ctx, user.Email, subject, content, "")
}
