package service

import "errors"

var (
	ErrUnauthenticated     = errors.New("no authenticated user for checkout")
	ErrEmptyCart           = errors.New("cart has no items to check out")
	ErrInvalidCartLine     = errors.New("cart line has invalid price or quantity")
	ErrIntentNotModifiable = errors.New("payment intent can no longer be modified")
	ErrOrderNotFound       = errors.New("no order found for payment intent")
	ErrMalformedEvent      = errors.New("webhook event payload is malformed")
)
