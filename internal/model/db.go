package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID     string `gorm:"primaryKey;size:64;not null"`
	UserID string `gorm:"size:64;index;not null"`
	// one order per payment intent, enforced by the datastore
	PaymentIntentID string      `gorm:"size:128;uniqueIndex;not null"`
	Amount          int64       `gorm:"not null"` // minor currency units
	Currency        string      `gorm:"size:8;not null"`
	Status          OrderStatus `gorm:"size:32;index;not null"`

	DeliveryStatus DeliveryStatus `gorm:"size:32;not null"`
	DeclineReason  string         `gorm:"size:255"`
	Address        Address        `gorm:"embedded;embeddedPrefix:address_"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is filled in from the charge's shipping data once a payment
// succeeds. Empty until then.
type Address struct {
	City       string `gorm:"size:128"`
	Country    string `gorm:"size:128"`
	Line1      string `gorm:"size:255"`
	Line2      string `gorm:"size:255"`
	PostalCode string `gorm:"size:32"`
	State      string `gorm:"size:128"`
}

// OrderItem is a snapshot of one cart line at order creation or last
// reconciliation, never a live reference to the cart.
type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.id
	OrderID   string `gorm:"size:64;index;not null"`
	ProductID string `gorm:"size:64;index;not null"`

	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"size:1024"`
	Category    string `gorm:"size:128"`
	Brand       string `gorm:"size:128"`

	ImageColor     string `gorm:"size:64"`
	ImageColorCode string `gorm:"size:16"`
	ImageURL       string `gorm:"size:512"`

	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`

	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
