package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"eshop-backend/internal/cart"
	"eshop-backend/internal/client"
	"eshop-backend/internal/model"
	"eshop-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutService interface {
	// Reconcile brings the payment intent and the persisted order into
	// agreement with the given cart snapshot. With no existing intent id it
	// creates a fresh intent/order pair; with one, it updates the same pair
	// in place as long as the intent is still modifiable.
	Reconcile(ctx context.Context, userID string, lines []cart.Line, existingIntentID string) (*model.PaymentIntent, error)
}

type checkoutServiceImpl struct {
	paymentClient client.PaymentClient
	orderRepo     repository.OrderRepository
	currency      string
	logger        *slog.Logger
}

func NewCheckoutService(
	paymentClient client.PaymentClient,
	orderRepo repository.OrderRepository,
	currency string,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		paymentClient: paymentClient,
		orderRepo:     orderRepo,
		currency:      currency,
		logger:        logger,
	}
}

func (s *checkoutServiceImpl) Reconcile(ctx context.Context, userID string, lines []cart.Line, existingIntentID string) (*model.PaymentIntent, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	amount, err := orderAmount(lines)
	if err != nil {
		return nil, err
	}

	if existingIntentID == "" {
		return s.createIntentAndOrder(ctx, userID, lines, amount)
	}
	return s.updateIntentAndOrder(ctx, userID, lines, existingIntentID, amount)
}

// orderAmount totals the cart in decimal and converts to integer minor
// units. Rounding happens once, on the final total, so per-line rounding
// can never drift.
func orderAmount(lines []cart.Line) (int64, error) {
	if len(lines) == 0 {
		return 0, ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity < cart.MinQuantity || l.Quantity > cart.MaxQuantity {
			return 0, fmt.Errorf("%w: quantity %d for product %s", ErrInvalidCartLine, l.Quantity, l.ProductID)
		}
		if !l.Price.IsPositive() {
			return 0, fmt.Errorf("%w: non-positive price for product %s", ErrInvalidCartLine, l.ProductID)
		}
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

func (s *checkoutServiceImpl) createIntentAndOrder(ctx context.Context, userID string, lines []cart.Line, amount int64) (*model.PaymentIntent, error) {
	intent, err := s.paymentClient.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		return nil, fmt.Errorf("gateway create payment intent: %w", err)
	}

	order := &model.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        s.currency,
		Status:          model.OrderStatusPending,
		DeliveryStatus:  model.DeliveryStatusPending,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, snapshotItems(order.ID, lines)); err != nil {
		// The gateway-side intent stays put; the next reconcile attempt can
		// pick it up by id instead of paying twice.
		s.logger.Error("order write failed after intent create",
			"payment_intent_id", intent.ID,
			"user_id", userID,
			"err", err,
		)
		return nil, fmt.Errorf("store order: %w", err)
	}

	s.logger.Info("payment intent created",
		"payment_intent_id", intent.ID,
		"order_id", order.ID,
		"amount", amount,
	)
	return intent, nil
}

func (s *checkoutServiceImpl) updateIntentAndOrder(ctx context.Context, userID string, lines []cart.Line, intentID string, amount int64) (*model.PaymentIntent, error) {
	intent, err := s.paymentClient.GetIntent(ctx, intentID)
	if err != nil {
		var gatewayErr *client.GatewayError
		if errors.As(err, &gatewayErr) && gatewayErr.StatusCode == http.StatusNotFound {
			// prior reference the gateway no longer knows
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, intentID)
		}
		return nil, fmt.Errorf("gateway retrieve payment intent: %w", err)
	}

	if !intent.IntentStatus().Modifiable() {
		return nil, fmt.Errorf("%w: status %s", ErrIntentNotModifiable, intent.Status)
	}

	updated, err := s.paymentClient.UpdateIntentAmount(ctx, intentID, amount)
	if err != nil {
		return nil, fmt.Errorf("gateway update payment intent: %w", err)
	}

	if err := s.orderRepo.UpdateAmountAndItems(ctx, intentID, amount, snapshotItems("", lines)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// a live gateway intent with no order row means an earlier
			// reconcile died between the gateway call and the order write;
			// create the missing row now so the intent is charged once
			if err := s.recoverOrphanedIntent(ctx, userID, lines, intentID, amount); err != nil {
				return nil, err
			}
			return updated, nil
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.logger.Info("payment intent updated",
		"payment_intent_id", intentID,
		"amount", amount,
	)
	return updated, nil
}

func (s *checkoutServiceImpl) recoverOrphanedIntent(ctx context.Context, userID string, lines []cart.Line, intentID string, amount int64) error {
	order := &model.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		PaymentIntentID: intentID,
		Amount:          amount,
		Currency:        s.currency,
		Status:          model.OrderStatusPending,
		DeliveryStatus:  model.DeliveryStatusPending,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, snapshotItems(order.ID, lines)); err != nil {
		return fmt.Errorf("store order for orphaned intent: %w", err)
	}

	s.logger.Info("order created for orphaned payment intent",
		"payment_intent_id", intentID,
		"order_id", order.ID,
		"amount", amount,
	)
	return nil
}

// snapshotItems freezes the cart lines into order items. The order id may
// be left empty when the repository resolves it from the intent id.
func snapshotItems(orderID string, lines []cart.Line) []*model.OrderItem {
	items := make([]*model.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = &model.OrderItem{
			OrderID:        orderID,
			ProductID:      l.ProductID,
			Name:           l.Name,
			Description:    l.Description,
			Category:       l.Category,
			Brand:          l.Brand,
			ImageColor:     l.SelectedImage.Color,
			ImageColorCode: l.SelectedImage.ColorCode,
			ImageURL:       l.SelectedImage.Image,
			UnitPrice:      l.Price,
			Quantity:       l.Quantity,
		}
	}
	return items
}
