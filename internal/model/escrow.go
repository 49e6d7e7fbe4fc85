package model

import (
	"time"

	"github.com/google/uuid"
)

// EscrowPayment is one applied payment credit against a contract's escrow
// account. The account balance only grows through credits; release rules live
// outside this service. The payment reference is the durable idempotency key:
// redelivery of the same reference changes nothing.
type EscrowPayment struct {
	PaymentReference string
	ContractID       uuid.UUID
	Amount           float64
	CreatedAt        time.Time
}
