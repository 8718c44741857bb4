package service

import (
	"context"
	"fmt"

	"eshop-backend/internal/model"

	"gorm.io/gorm"
)

// hand-rolled mocks, one per collaborator

type mockPaymentClient struct {
	createFn func(ctx context.Context, amount int64, currency string) (*model.PaymentIntent, error)
	getFn    func(ctx context.Context, intentID string) (*model.PaymentIntent, error)
	updateFn func(ctx context.Context, intentID string, amount int64) (*model.PaymentIntent, error)

	createCalls int
	updateCalls int
}

func (m *mockPaymentClient) CreateIntent(ctx context.Context, amount int64, currency string) (*model.PaymentIntent, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, amount, currency)
	}
	return &model.PaymentIntent{
		ID:       fmt.Sprintf("pi_test_%d", m.createCalls),
		Amount:   amount,
		Currency: currency,
		Status:   "requires_payment_method",
	}, nil
}

func (m *mockPaymentClient) GetIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	if m.getFn != nil {
		return m.getFn(ctx, intentID)
	}
	return &model.PaymentIntent{ID: intentID, Status: "requires_payment_method"}, nil
}

func (m *mockPaymentClient) UpdateIntentAmount(ctx context.Context, intentID string, amount int64) (*model.PaymentIntent, error) {
	m.updateCalls++
	if m.updateFn != nil {
		return m.updateFn(ctx, intentID, amount)
	}
	return &model.PaymentIntent{ID: intentID, Amount: amount, Status: "requires_payment_method"}, nil
}

func (m *mockPaymentClient) CancelIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	return &model.PaymentIntent{ID: intentID, Status: "canceled"}, nil
}

// mockOrderRepo keeps orders in memory keyed by payment intent id; items by
// order id, mirroring the datastore's one-order-per-intent constraint.
type mockOrderRepo struct {
	orders map[string]*model.Order
	items  map[string][]*model.OrderItem

	createErr error
	updateErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[string]*model.Order),
		items:  make(map[string][]*model.OrderItem),
	}
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, order *model.Order, items []*model.OrderItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.orders[order.PaymentIntentID]; exists {
		return gorm.ErrDuplicatedKey
	}
	cp := *order
	m.orders[order.PaymentIntentID] = &cp
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderRepo) FindByIntentID(_ context.Context, intentID string) (*model.Order, error) {
	order, ok := m.orders[intentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *mockOrderRepo) UpdateAmountAndItems(_ context.Context, intentID string, amount int64, items []*model.OrderItem) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	order, ok := m.orders[intentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Amount = amount
	for _, item := range items {
		item.OrderID = order.ID
	}
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderRepo) MarkComplete(_ context.Context, intentID string, addr *model.Address) error {
	order, ok := m.orders[intentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = model.OrderStatusComplete
	if addr != nil {
		order.Address = *addr
	}
	return nil
}

func (m *mockOrderRepo) MarkFailed(_ context.Context, intentID string, declineReason string) error {
	order, ok := m.orders[intentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = model.OrderStatusFailed
	order.DeclineReason = declineReason
	return nil
}

func (m *mockOrderRepo) MarkRequiresAction(_ context.Context, intentID string, declineReason string) error {
	order, ok := m.orders[intentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = model.OrderStatusRequiresAction
	order.DeclineReason = declineReason
	return nil
}

type mockEventRepo struct {
	processed map[string]string
	existsErr error
	markErr   error
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{processed: make(map[string]string)}
}

func (m *mockEventRepo) Exists(_ context.Context, eventID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.processed[eventID]
	return ok, nil
}

func (m *mockEventRepo) MarkProcessed(_ context.Context, eventID, eventType string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.processed[eventID] = eventType
	return nil
}

type mockVerifier struct {
	err error
}

func (m *mockVerifier) Verify(payload []byte, sigHeader string) error {
	return m.err
}
