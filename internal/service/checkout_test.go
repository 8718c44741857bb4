package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"eshop-backend/internal/cart"
	"eshop-backend/internal/client"
	"eshop-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cartLine(productID, price string, qty int) cart.Line {
	return cart.Line{
		ProductID: productID,
		Name:      "Product " + productID,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func newCheckoutFixture() (*mockPaymentClient, *mockOrderRepo, CheckoutService) {
	pc := &mockPaymentClient{}
	repo := newMockOrderRepo()
	svc := NewCheckoutService(pc, repo, "zar", discardLogger())
	return pc, repo, svc
}

func TestReconcileRequiresUser(t *testing.T) {
	_, _, svc := newCheckoutFixture()

	_, err := svc.Reconcile(context.Background(), "", []cart.Line{cartLine("p1", "10.00", 1)}, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestReconcileRejectsEmptyCart(t *testing.T) {
	pc, _, svc := newCheckoutFixture()

	_, err := svc.Reconcile(context.Background(), "user-1", nil, "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, pc.createCalls)
}

func TestReconcileRejectsInvalidLines(t *testing.T) {
	_, _, svc := newCheckoutFixture()

	_, err := svc.Reconcile(context.Background(), "user-1", []cart.Line{cartLine("p1", "10.00", 0)}, "")
	assert.ErrorIs(t, err, ErrInvalidCartLine)

	_, err = svc.Reconcile(context.Background(), "user-1", []cart.Line{cartLine("p1", "10.00", 100)}, "")
	assert.ErrorIs(t, err, ErrInvalidCartLine)

	_, err = svc.Reconcile(context.Background(), "user-1", []cart.Line{cartLine("p1", "0", 1)}, "")
	assert.ErrorIs(t, err, ErrInvalidCartLine)
}

func TestReconcileCreatesIntentAndOrder(t *testing.T) {
	_, repo, svc := newCheckoutFixture()

	intent, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "100.00", 2)}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(20000), intent.Amount)

	order, err := repo.FindByIntentID(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, int64(20000), order.Amount)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.DeliveryStatusPending, order.DeliveryStatus)
	assert.Equal(t, "zar", order.Currency)

	items := repo.items[order.ID]
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("100.00")))
}

func TestReconcileRoundsOnceOnTotal(t *testing.T) {
	pc, _, svc := newCheckoutFixture()

	var gotAmount int64
	pc.createFn = func(_ context.Context, amount int64, currency string) (*model.PaymentIntent, error) {
		gotAmount = amount
		return &model.PaymentIntent{ID: "pi_round", Amount: amount, Currency: currency, Status: "requires_payment_method"}, nil
	}

	// 3 × 33.335 = 100.005 → 10000.5 cents → 10001 once rounded.
	// Per-line rounding would give 3334 × 3 = 10002.
	lines := []cart.Line{
		cartLine("p1", "33.335", 1),
		cartLine("p2", "33.335", 1),
		cartLine("p3", "33.335", 1),
	}
	_, err := svc.Reconcile(context.Background(), "user-1", lines, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10001), gotAmount)
}

func TestReconcileGatewayFailureWritesNoOrder(t *testing.T) {
	pc, repo, svc := newCheckoutFixture()
	pc.createFn = func(context.Context, int64, string) (*model.PaymentIntent, error) {
		return nil, assert.AnError
	}

	_, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "10.00", 1)}, "")
	require.Error(t, err)
	assert.Empty(t, repo.orders)
}

func TestReconcileOrderWriteFailureSurfaces(t *testing.T) {
	_, repo, svc := newCheckoutFixture()
	repo.createErr = assert.AnError

	_, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "10.00", 1)}, "")
	assert.Error(t, err)
}

func TestReconcileRecoversIntentWhoseOrderWriteFailed(t *testing.T) {
	pc, repo, svc := newCheckoutFixture()

	// gateway call succeeds, order write dies: the intent is now orphaned
	repo.createErr = assert.AnError
	_, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "100.00", 2)}, "")
	require.Error(t, err)
	require.Equal(t, 1, pc.createCalls)
	require.Empty(t, repo.orders)

	// the retry carries the orphaned intent id and must end with exactly
	// one intent and one order, not a 400 or a second charge
	repo.createErr = nil
	intent, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "100.00", 3)}, "pi_test_1")
	require.NoError(t, err)

	assert.Equal(t, "pi_test_1", intent.ID)
	assert.Equal(t, int64(30000), intent.Amount)
	assert.Equal(t, 1, pc.createCalls, "no second intent created")

	order, err := repo.FindByIntentID(context.Background(), "pi_test_1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, int64(30000), order.Amount)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	items := repo.items[order.ID]
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestReconcileUpdatesExistingIntentAndOrder(t *testing.T) {
	pc, repo, svc := newCheckoutFixture()

	first, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "100.00", 2)}, "")
	require.NoError(t, err)

	// quantity bumped to 3 and re-checked-out against the same intent
	second, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "100.00", 3)}, first.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(30000), second.Amount)
	assert.Equal(t, 1, pc.createCalls, "no second intent created")

	require.Len(t, repo.orders, 1, "still a single order row")
	order, err := repo.FindByIntentID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), order.Amount)

	items := repo.items[order.ID]
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestReconcileSameCartTwiceIsIdempotent(t *testing.T) {
	pc, repo, svc := newCheckoutFixture()

	lines := []cart.Line{cartLine("p1", "100.00", 2)}
	first, err := svc.Reconcile(context.Background(), "user-1", lines, "")
	require.NoError(t, err)

	second, err := svc.Reconcile(context.Background(), "user-1", lines, first.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Amount, second.Amount)
	assert.Len(t, repo.orders, 1)
	assert.Equal(t, 1, pc.createCalls)
}

func TestReconcileRejectsFinalizedIntent(t *testing.T) {
	pc, repo, svc := newCheckoutFixture()

	first, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "100.00", 2)}, "")
	require.NoError(t, err)

	for _, status := range []string{"processing", "succeeded", "canceled", "requires_action"} {
		pc.getFn = func(_ context.Context, intentID string) (*model.PaymentIntent, error) {
			return &model.PaymentIntent{ID: intentID, Status: status}, nil
		}

		_, err = svc.Reconcile(context.Background(), "user-1",
			[]cart.Line{cartLine("p1", "100.00", 3)}, first.ID)
		assert.ErrorIs(t, err, ErrIntentNotModifiable, "status %s", status)
	}

	// nothing mutated on either side
	assert.Equal(t, 0, pc.updateCalls)
	order, err := repo.FindByIntentID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), order.Amount)
}

func TestReconcileGatewayUnknownIntentReference(t *testing.T) {
	pc, _, svc := newCheckoutFixture()
	pc.getFn = func(context.Context, string) (*model.PaymentIntent, error) {
		return nil, &client.GatewayError{StatusCode: http.StatusNotFound, Body: "no such payment_intent"}
	}

	_, err := svc.Reconcile(context.Background(), "user-1",
		[]cart.Line{cartLine("p1", "10.00", 1)}, "pi_expired")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
