package models

// CreateCheckoutRequest starts a hosted checkout for an attempt.
type CreateCheckoutRequest struct {
	AttemptID string `json:"attemptId" validate:"required"`
}

// CheckoutResponse carries the payment redirect.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// VerifyPaymentRequest confirms a checkout session.
type VerifyPaymentRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	AttemptID string `json:"attemptId" validate:"required"`
}

// Outcome is the result of a business rule the client branches on.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
