package domain

import "time"

// PaymentStatus represents the current status of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentMethod represents how the customer paid.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// PaymentAttempt records the outcome of one payment-gateway transaction
// against a reservation. ExternalTxnID is globally unique; a Succeeded
// attempt is immutable.
type PaymentAttempt struct {
	ID            string
	ReservationID string
	ExternalTxnID string
	Method        PaymentMethod
	Status        PaymentStatus
	Amount        float64
	FailureReason string
	CreatedAt     time.Time
	SettledAt     time.Time
}
