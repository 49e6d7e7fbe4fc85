package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
)

type EscrowRepository struct {
	db *gorm.DB
	*ContractRepository
}

func NewEscrowRepository(db *gorm.DB) *EscrowRepository {
	return &EscrowRepository{db: db, ContractRepository: NewContractRepository(db)}
}

// CreditEscrow records one payment and bumps the account balance. The payment
// row is the durable idempotency key: a reference inserted before leaves the
// transaction a no-op and reports applied=false.
func (r *EscrowRepository) CreditEscrow(ctx context.Context, contractID uuid.UUID, amount float64, paymentReference string) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			INSERT INTO escrow_payments (payment_reference, contract_id, amount)
			VALUES (?, ?, ?)
			ON CONFLICT (payment_reference) DO NOTHING
		`, paymentReference, contractID, amount)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Exec(`
			INSERT INTO escrow_accounts (contract_id, balance)
			VALUES (?, ?)
			ON CONFLICT (contract_id)
			DO UPDATE SET balance = escrow_accounts.balance + EXCLUDED.balance, updated_at = NOW()
		`, contractID, amount).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// GetEscrowBalance returns the balance, zero when the account has not been
// created by a first credit yet.
func (r *EscrowRepository) GetEscrowBalance(ctx context.Context, contractID uuid.UUID) (float64, error) {
	var balance float64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(balance), 0)
		FROM escrow_accounts
		WHERE contract_id = ?
	`, contractID).Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ListEscrowPayments returns the applied credits for a contract, oldest first.
// Rejected duplicates never reach this table.
func (r *EscrowRepository) ListEscrowPayments(ctx context.Context, contractID uuid.UUID) ([]model.EscrowPayment, error) {
	var payments []model.EscrowPayment
	err := r.db.WithContext(ctx).Raw(`
		SELECT payment_reference, contract_id, amount, created_at
		FROM escrow_payments
		WHERE contract_id = ?
		ORDER BY created_at ASC
	`, contractID).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
