package transport

import "github.com/google/uuid"

type CreateIntentRequest struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	Amount   int64     `json:"amount"   validate:"required,gte=1"`
	Currency string    `json:"currency" validate:"omitempty,len=3"`
	Receipt  string    `json:"receipt"  validate:"omitempty,max=40"`
}

// VerifyRequest uses the field names of the gateway checkout callback.
type VerifyRequest struct {
	OrderID           uuid.UUID `json:"order_id"            validate:"required"`
	RazorpayOrderID   string    `json:"razorpay_order_id"   validate:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string    `json:"razorpay_signature"  validate:"required"`
}
