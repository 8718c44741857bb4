package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"eshop-backend/internal/client"
	"eshop-backend/internal/dto"
	"eshop-backend/internal/middleware"
	"eshop-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	webhookService  service.WebhookService
	logger          *slog.Logger
}

func NewCheckoutHandler(checkoutService service.CheckoutService, webhookService service.WebhookService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
		logger:          logger,
	}
}

func (h *CheckoutHandler) CreatePaymentIntent(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	intent, err := h.checkoutService.Reconcile(ctx, userID, req.Items, req.PaymentIntentID)
	if err != nil {
		return h.mapCheckoutError(c, req.PaymentIntentID, err)
	}

	return c.JSON(http.StatusOK, &dto.CheckoutResponse{PaymentIntent: intent})
}

func (h *CheckoutHandler) mapCheckoutError(c echo.Context, intentID string, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidCartLine):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment_intent_id")
	case errors.Is(err, service.ErrIntentNotModifiable):
		return echo.NewHTTPError(http.StatusConflict, "payment intent can no longer be modified")
	}

	var gatewayErr *client.GatewayError
	if errors.As(err, &gatewayErr) {
		h.logger.Error("gateway rejected checkout",
			"payment_intent_id", intentID,
			"gateway_status", gatewayErr.StatusCode,
		)
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	h.logger.Error("checkout failed", "payment_intent_id", intentID, "err", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "error processing order")
}

func (h *CheckoutHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	if sig == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing stripe signature")
	}

	if err := h.webhookService.HandleEvent(ctx, body, sig); err != nil {
		switch {
		case errors.Is(err, client.ErrInvalidSignature):
			return echo.NewHTTPError(http.StatusBadRequest, "webhook signature verification failed")
		case errors.Is(err, service.ErrMalformedEvent):
			return echo.NewHTTPError(http.StatusBadRequest, "malformed event payload")
		}
		// transient: a 5xx asks the provider to redeliver
		h.logger.Error("webhook processing failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "event processing failed")
	}

	return c.JSON(http.StatusOK, &dto.WebhookAck{Received: true})
}
