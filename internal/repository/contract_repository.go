package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, proposal_id, quote_request_id, homeowner_id, contractor_id,
			total_amount, duration_days, status, homeowner_signed_at, contractor_signed_at,
			created_at, updated_at
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	items, err := loadContractItems(r.db.WithContext(ctx), contract.ID)
	if err != nil {
		return nil, err
	}
	contract.Items = items
	return &contract, nil
}

// SignContract stamps one party's signature and activates the contract once
// both are present, all in a single guarded statement.
func (r *ContractRepository) SignContract(ctx context.Context, id uuid.UUID, party model.SignatureParty) error {
	var res *gorm.DB
	switch party {
	case model.PartyHomeowner:
		res = r.db.WithContext(ctx).Exec(`
			UPDATE contracts
			SET homeowner_signed_at = COALESCE(homeowner_signed_at, NOW()),
				status = CASE WHEN contractor_signed_at IS NOT NULL THEN ? ELSE status END,
				updated_at = NOW()
			WHERE id = ? AND status = ?
		`, model.ContractStatusActive, id, model.ContractStatusPendingSignatures)
	case model.PartyContractor:
		res = r.db.WithContext(ctx).Exec(`
			UPDATE contracts
			SET contractor_signed_at = COALESCE(contractor_signed_at, NOW()),
				status = CASE WHEN homeowner_signed_at IS NOT NULL THEN ? ELSE status END,
				updated_at = NOW()
			WHERE id = ? AND status = ?
		`, model.ContractStatusActive, id, model.ContractStatusPendingSignatures)
	default:
		return fmt.Errorf("unsupported signature party %q", party)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *ContractRepository) UpdateContractStatus(ctx context.Context, id uuid.UUID, from, to model.ContractStatus) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE contracts
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?
	`, to, id, from)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *ContractRepository) CreateSupervisorContract(ctx context.Context, sc *model.SupervisorContract) (*model.SupervisorContract, error) {
	var saved model.SupervisorContract
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO supervisor_contracts (supervisor_id, project_id, registration_fee, status)
		VALUES (?, ?, ?, ?)
		RETURNING id, supervisor_id, project_id, registration_fee, status,
			supervisor_signed_at, homeowner_signed_at, created_at, updated_at
	`, sc.SupervisorID, sc.ProjectID, sc.RegistrationFee, sc.Status).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ContractRepository) GetSupervisorContract(ctx context.Context, id uuid.UUID) (*model.SupervisorContract, error) {
	var sc model.SupervisorContract
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, supervisor_id, project_id, registration_fee, status,
			supervisor_signed_at, homeowner_signed_at, created_at, updated_at
		FROM supervisor_contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&sc).Error
	if err != nil {
		return nil, err
	}
	if sc.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &sc, nil
}

func (r *ContractRepository) SignSupervisorContract(ctx context.Context, id uuid.UUID, party model.SignatureParty) error {
	var res *gorm.DB
	switch party {
	case model.PartySupervisor:
		res = r.db.WithContext(ctx).Exec(`
			UPDATE supervisor_contracts
			SET supervisor_signed_at = COALESCE(supervisor_signed_at, NOW()),
				status = CASE WHEN homeowner_signed_at IS NOT NULL THEN ? ELSE status END,
				updated_at = NOW()
			WHERE id = ? AND status = ?
		`, model.ContractStatusActive, id, model.ContractStatusPendingSignatures)
	case model.PartyHomeowner:
		res = r.db.WithContext(ctx).Exec(`
			UPDATE supervisor_contracts
			SET homeowner_signed_at = COALESCE(homeowner_signed_at, NOW()),
				status = CASE WHEN supervisor_signed_at IS NOT NULL THEN ? ELSE status END,
				updated_at = NOW()
			WHERE id = ? AND status = ?
		`, model.ContractStatusActive, id, model.ContractStatusPendingSignatures)
	default:
		return fmt.Errorf("unsupported signature party %q", party)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
