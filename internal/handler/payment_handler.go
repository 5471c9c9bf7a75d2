package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type paymentService interface {
	CreateCheckout(ctx context.Context, claims *models.JWTClaims, req models.CreateCheckoutRequest) (*models.CheckoutResponse, error)
	VerifyPayment(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.Outcome, error)
}

type couponService interface {
	Redeem(ctx context.Context, userID string, req models.RedeemCouponRequest) (*models.Outcome, error)
}

// PaymentHandler unlocks attempts through checkout or coupons.
type PaymentHandler struct {
	payments paymentService
	coupons  couponService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments paymentService, coupons couponService) *PaymentHandler {
	return &PaymentHandler{payments: payments, coupons: coupons}
}

// CreateCheckout godoc
// @Summary Open a Stripe checkout for an attempt
// @Description Every failure after authentication is reported as 500 with a descriptive message.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCheckoutRequest true "Attempt"
// @Success 200 {object} models.CheckoutResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /functions/create-checkout [post]
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.AsInternal(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")))
		return
	}
	res, err := h.payments.CreateCheckout(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, appErrors.AsInternal(err))
		return
	}
	response.OK(c, res)
}

// VerifyPayment godoc
// @Summary Confirm a checkout session and unlock the attempt
// @Description An unpaid session answers 200 with success false.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.VerifyPaymentRequest true "Session and attempt"
// @Success 200 {object} response.Outcome
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /functions/verify-payment [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.AsInternal(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")))
		return
	}
	out, err := h.payments.VerifyPayment(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, appErrors.AsInternal(err))
		return
	}
	writeOutcome(c, out)
}

// RedeemCoupon godoc
// @Summary Apply a coupon to an attempt
// @Description Coupon rule failures answer 200 with success false and a message.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RedeemCouponRequest true "Code and attempt"
// @Success 200 {object} response.Outcome
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /functions/redeem-coupon [post]
func (h *PaymentHandler) RedeemCoupon(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.RedeemCouponRequest
	if !bindJSON(c, &req, "invalid coupon payload") {
		return
	}
	out, err := h.coupons.Redeem(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeOutcome(c, out)
}
