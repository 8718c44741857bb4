package dto

import (
	"eshop-backend/internal/cart"
	"eshop-backend/internal/model"
)

type CheckoutRequest struct {
	Items           []cart.Line `json:"items"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
}

type CheckoutResponse struct {
	PaymentIntent *model.PaymentIntent `json:"paymentIntent"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
