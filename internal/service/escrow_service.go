package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
)

type EscrowStore interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	// CreditEscrow applies one payment to the contract's escrow account,
	// creating the account on first credit. It reports false without error
	// when the payment reference was already applied.
	CreditEscrow(ctx context.Context, contractID uuid.UUID, amount float64, paymentReference string) (bool, error)
	GetEscrowBalance(ctx context.Context, contractID uuid.UUID) (float64, error)
	ListEscrowPayments(ctx context.Context, contractID uuid.UUID) ([]model.EscrowPayment, error)
}

type EscrowService struct {
	store EscrowStore
	log   zerolog.Logger
}

func NewEscrowService(store EscrowStore, log zerolog.Logger) *EscrowService {
	return &EscrowService{store: store, log: log}
}

type PaymentNotificationInput struct {
	ContractID       uuid.UUID
	PaymentReference string
	Amount           float64
	ResultCode       int
}

// HandlePaymentNotification processes one webhook delivery from the payment
// gateway. The channel is at-least-once: a reference seen before is
// acknowledged without touching the balance, and a non-zero result code is
// acknowledged without crediting.
func (s *EscrowService) HandlePaymentNotification(ctx context.Context, input PaymentNotificationInput) error {
	reference := strings.TrimSpace(input.PaymentReference)
	if reference == "" {
		return fmt.Errorf("%w: payment reference is required", ErrInvalidInput)
	}
	if input.ResultCode != 0 {
		s.log.Info().
			Str("payment_reference", reference).
			Int("result_code", input.ResultCode).
			Msg("payment not successful, skipping credit")
		return nil
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	if _, err := s.store.GetContract(ctx, input.ContractID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	applied, err := s.store.CreditEscrow(ctx, input.ContractID, input.Amount, reference)
	if err != nil {
		return err
	}
	if !applied {
		s.log.Info().
			Str("payment_reference", reference).
			Str("contract_id", input.ContractID.String()).
			Msg("duplicate payment reference, already credited")
	}
	return nil
}

// Balance returns the escrow balance for a contract, zero when no payment has
// been credited yet.
func (s *EscrowService) Balance(ctx context.Context, contractID uuid.UUID, principal model.Principal) (float64, error) {
	if err := s.authorizeView(ctx, contractID, principal); err != nil {
		return 0, err
	}
	return s.store.GetEscrowBalance(ctx, contractID)
}

// Payments lists the credits applied against the contract, oldest first. A
// redelivered reference appears once.
func (s *EscrowService) Payments(ctx context.Context, contractID uuid.UUID, principal model.Principal) ([]model.EscrowPayment, error) {
	if err := s.authorizeView(ctx, contractID, principal); err != nil {
		return nil, err
	}
	return s.store.ListEscrowPayments(ctx, contractID)
}

func (s *EscrowService) authorizeView(ctx context.Context, contractID uuid.UUID, principal model.Principal) error {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	switch {
	case principal.IsAdmin(), principal.IsSupervisor():
	case principal.IsHomeowner() && contract.HomeownerID == principal.UserID:
	case principal.IsContractor() && contract.ContractorID == principal.UserID:
	default:
		return ErrPermissionDenied
	}
	return nil
}
