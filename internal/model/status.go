package model

// IntentStatus is the application-side view of a payment intent lifecycle.
// Gateway status strings are translated here once, at the boundary, so the
// rest of the code never branches on provider vocabulary.
type IntentStatus string

const (
	IntentStatusPendingMethod  IntentStatus = "pending_method"
	IntentStatusRequiresAction IntentStatus = "requires_action"
	IntentStatusProcessing     IntentStatus = "processing"
	IntentStatusSucceeded      IntentStatus = "succeeded"
	IntentStatusFailed         IntentStatus = "failed"
	IntentStatusCanceled       IntentStatus = "canceled"
	IntentStatusUnknown        IntentStatus = "unknown"
)

func ParseIntentStatus(raw string) IntentStatus {
	switch raw {
	case "requires_payment_method":
		return IntentStatusPendingMethod
	case "requires_action", "requires_confirmation", "requires_capture":
		return IntentStatusRequiresAction
	case "processing":
		return IntentStatusProcessing
	case "succeeded":
		return IntentStatusSucceeded
	case "failed":
		return IntentStatusFailed
	case "canceled":
		return IntentStatusCanceled
	default:
		return IntentStatusUnknown
	}
}

// Modifiable reports whether the gateway still accepts amount updates for an
// intent in this status. Only an intent that has not yet been handed a
// payment method can be edited in place.
func (s IntentStatus) Modifiable() bool {
	return s == IntentStatusPendingMethod
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusRequiresAction OrderStatus = "requires_action"
	OrderStatusComplete       OrderStatus = "complete"
	OrderStatusFailed         OrderStatus = "failed"
	OrderStatusCanceled       OrderStatus = "canceled"
)

type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "pending"
	DeliveryStatusDispatched DeliveryStatus = "dispatched"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
)
