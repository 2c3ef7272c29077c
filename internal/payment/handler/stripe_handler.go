package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"
	"ms-booking/internal/payment/storage"
	"ms-booking/internal/utils"
)

// StripeHandler is the standalone payment-service surface. It fronts the
// same payment orchestration the gateway uses, for deployments that run
// payments as their own process.
type StripeHandler struct {
	paymentService *payment.Service
	paymentStore   storage.Store
	logger         *logger.Logger
}

func NewStripeHandler(paymentService *payment.Service, paymentStore storage.Store, log *logger.Logger) *StripeHandler {
	return &StripeHandler{
		paymentService: paymentService,
		paymentStore:   paymentStore,
		logger:         log,
	}
}

// tokenEmail returns the email claim from the request's bearer token. This
// service runs behind the gateway, which already verified the signature;
// here only the claim is needed to pin requests to the caller's identity.
func tokenEmail(c *gin.Context) (string, bool) {
	token, err := auth.ExtractTokenFromRequest(c.Request)
	if err != nil {
		return "", false
	}
	email, err := auth.ExtractEmailFromJWT(token)
	if err != nil {
		return "", false
	}
	return email, true
}

// CreateCheckoutSession opens a Stripe checkout session for a booking.
func (h *StripeHandler) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	if req.BookingID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "buyerTicketId is required"))
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", "email is required"))
		return
	}
	if email, ok := tokenEmail(c); ok && email != req.Email {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Forbidden", "token identity does not match request email"))
		return
	}

	url, err := h.paymentService.CreateCheckoutSession(c.Request.Context(), req.BookingID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrPaymentNotAllowed), errors.Is(err, payment.ErrNotAccepted):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment not allowed", err.Error()))
		case errors.Is(err, payment.ErrCheckoutInFlight):
			c.JSON(http.StatusTooManyRequests, utils.ErrorResponse("Checkout already in progress", err.Error()))
		case errors.Is(err, payment.ErrNotBuyer):
			c.JSON(http.StatusForbidden, utils.ErrorResponse("Forbidden", err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create checkout session", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Checkout session created", models.CheckoutSessionResponse{URL: url}))
}

// ConfirmPayment finalizes a checkout session after the success redirect.
func (h *StripeHandler) ConfirmPayment(c *gin.Context) {
	sessionID := c.Query("session_id")

	confirmation, err := h.paymentService.ConfirmBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		var confirmErr *payment.ConfirmError
		if errors.As(err, &confirmErr) {
			h.logger.Error("PAYMENT", fmt.Sprintf("ConfirmPayment [%s]: %s", confirmErr.Category, confirmErr.InternalError))
			c.JSON(confirmErr.StatusCode, utils.ErrorResponse("Payment confirmation failed", confirmErr.PublicError))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment confirmation failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment confirmed", confirmation))
}

// GetPaymentByBooking returns the latest payment record for a booking.
func (h *StripeHandler) GetPaymentByBooking(c *gin.Context) {
	bookingID := c.Param("bookingId")

	record, err := h.paymentStore.GetPaymentByBookingID(bookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment record", record))
}

// PaymentHistory lists a buyer's payment records.
func (h *StripeHandler) PaymentHistory(c *gin.Context) {
	email := c.Query("email")
	if fromToken, ok := tokenEmail(c); ok {
		email = fromToken
	}
	if email == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "email query parameter is required"))
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	payments, err := h.paymentService.History(email, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch payment history", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment history", payments))
}

// HealthCheck reports storage connectivity.
func (h *StripeHandler) HealthCheck(c *gin.Context) {
	if err := h.paymentStore.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Storage unavailable", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("OK", nil))
}
