package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"eshop-backend/internal/client"
	"eshop-backend/internal/model"
	"eshop-backend/internal/repository"

	"gorm.io/gorm"
)

const (
	declineReasonDefault        = "Payment failed"
	declineReasonRequiresAction = "Further action required"
)

type WebhookService interface {
	// HandleEvent verifies the raw payload against the signature header,
	// then applies the status change the event reports. A nil return means
	// the delivery can be acknowledged; wrapped ErrInvalidSignature or
	// ErrMalformedEvent means a permanent rejection, anything else is
	// transient and should prompt redelivery.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookServiceImpl struct {
	verifier  client.SignatureVerifier
	orderRepo repository.OrderRepository
	eventRepo repository.WebhookEventRepository
	logger    *slog.Logger
}

func NewWebhookService(
	verifier client.SignatureVerifier,
	orderRepo repository.OrderRepository,
	eventRepo repository.WebhookEventRepository,
	logger *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		verifier:  verifier,
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	// signature check needs the raw bytes, so parsing waits until after it
	if err := s.verifier.Verify(payload, sigHeader); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	var event model.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if event.ID != "" {
		processed, err := s.eventRepo.Exists(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("check processed events: %w", err)
		}
		if processed {
			s.logger.Info("skipping already processed event", "event_id", event.ID, "event_type", event.Type)
			return nil
		}
	}

	var err error
	switch event.Type {
	case "charge.succeeded":
		err = s.handleChargeSucceeded(ctx, &event)
	case "payment_intent.payment_failed":
		err = s.handlePaymentFailed(ctx, &event)
	case "payment_intent.requires_action":
		err = s.handleRequiresAction(ctx, &event)
	default:
		// forward-compatible: unknown events are acknowledged untouched
		s.logger.Info("ignoring webhook event", "event_id", event.ID, "event_type", event.Type)
		return nil
	}
	if err != nil {
		return err
	}

	if event.ID != "" {
		if markErr := s.eventRepo.MarkProcessed(ctx, event.ID, event.Type); markErr != nil {
			// redelivery re-applies an idempotent status write, so this is
			// worth a warning but not a retry request
			s.logger.Warn("record processed event failed", "event_id", event.ID, "err", markErr)
		}
	}
	return nil
}

func (s *webhookServiceImpl) handleChargeSucceeded(ctx context.Context, event *model.Event) error {
	var charge model.Charge
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		return fmt.Errorf("%w: decode charge: %v", ErrMalformedEvent, err)
	}
	if charge.PaymentIntent == "" {
		return fmt.Errorf("%w: charge has no payment intent reference", ErrMalformedEvent)
	}

	var addr *model.Address
	if charge.Shipping != nil && charge.Shipping.Address != nil {
		a := charge.Shipping.Address
		addr = &model.Address{
			City:       a.City,
			Country:    a.Country,
			Line1:      a.Line1,
			Line2:      a.Line2,
			PostalCode: a.PostalCode,
			State:      a.State,
		}
	}

	if err := s.orderRepo.MarkComplete(ctx, charge.PaymentIntent, addr); err != nil {
		return s.orderUpdateError(event, charge.PaymentIntent, err)
	}

	s.logger.Info("order completed", "payment_intent_id", charge.PaymentIntent, "event_id", event.ID)
	return nil
}

func (s *webhookServiceImpl) handlePaymentFailed(ctx context.Context, event *model.Event) error {
	intentID, reason, err := decodeIntentEvent(event)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = declineReasonDefault
	}

	if err := s.orderRepo.MarkFailed(ctx, intentID, reason); err != nil {
		return s.orderUpdateError(event, intentID, err)
	}

	s.logger.Info("order marked failed", "payment_intent_id", intentID, "event_id", event.ID)
	return nil
}

func (s *webhookServiceImpl) handleRequiresAction(ctx context.Context, event *model.Event) error {
	intentID, _, err := decodeIntentEvent(event)
	if err != nil {
		return err
	}

	if err := s.orderRepo.MarkRequiresAction(ctx, intentID, declineReasonRequiresAction); err != nil {
		return s.orderUpdateError(event, intentID, err)
	}

	s.logger.Info("order requires action", "payment_intent_id", intentID, "event_id", event.ID)
	return nil
}

// orderUpdateError translates a missing order row into the transient
// not-found error: the event may have raced order creation, so the provider
// should redeliver it later.
func (s *webhookServiceImpl) orderUpdateError(event *model.Event, intentID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("webhook for unknown order",
			"payment_intent_id", intentID,
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return fmt.Errorf("%w: %s", ErrOrderNotFound, intentID)
	}
	return fmt.Errorf("update order for intent %s: %w", intentID, err)
}

func decodeIntentEvent(event *model.Event) (intentID, errorMessage string, err error) {
	var intent model.PaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return "", "", fmt.Errorf("%w: decode payment intent: %v", ErrMalformedEvent, err)
	}
	if intent.ID == "" {
		return "", "", fmt.Errorf("%w: payment intent event has no id", ErrMalformedEvent)
	}
	if intent.LastPaymentError != nil {
		errorMessage = intent.LastPaymentError.Message
	}
	return intent.ID, errorMessage, nil
}
