package model

import "encoding/json"

// Gateway-side payload shapes. Only the fields the application reads are
// declared; everything else in the provider payload is ignored.

type PaymentIntent struct {
	ID               string        `json:"id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Status           string        `json:"status"`
	ClientSecret     string        `json:"client_secret,omitempty"`
	LastPaymentError *PaymentError `json:"last_payment_error,omitempty"`
}

func (p *PaymentIntent) IntentStatus() IntentStatus {
	return ParseIntentStatus(p.Status)
}

type PaymentError struct {
	Message string `json:"message"`
}

type Charge struct {
	ID            string    `json:"id"`
	PaymentIntent string    `json:"payment_intent"`
	Shipping      *Shipping `json:"shipping,omitempty"`
}

type Shipping struct {
	Name    string           `json:"name"`
	Address *ShippingAddress `json:"address,omitempty"`
}

type ShippingAddress struct {
	City       string `json:"city"`
	Country    string `json:"country"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
}

// Event is the envelope of a webhook delivery. Data.Object is decoded into
// a Charge or PaymentIntent depending on Type.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}
