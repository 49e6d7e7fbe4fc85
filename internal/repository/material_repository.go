package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) CreateMaterialRequest(ctx context.Context, m *model.MaterialRequest) (*model.MaterialRequest, error) {
	var saved model.MaterialRequest
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO material_requests (project_id, contractor_id, status)
		VALUES (?, ?, ?)
		RETURNING id, project_id, contractor_id, status,
			homeowner_approved, homeowner_approved_by, homeowner_approved_at,
			supervisor_approved, supervisor_approved_by, supervisor_approved_at,
			rejection_reason, rejected_by, rejected_at, created_at, updated_at
	`, m.ProjectID, m.ContractorID, m.Status).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *MaterialRepository) GetMaterialRequest(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error) {
	var request model.MaterialRequest
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, project_id, contractor_id, status,
			homeowner_approved, homeowner_approved_by, homeowner_approved_at,
			supervisor_approved, supervisor_approved_by, supervisor_approved_at,
			rejection_reason, rejected_by, rejected_at, created_at, updated_at
		FROM material_requests
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var materials []model.Material
	err = r.db.WithContext(ctx).Raw(`
		SELECT id, material_request_id, position, code, name, unit, unit_price,
			contract_quantity, actual_quantity, variance_percent
		FROM materials
		WHERE material_request_id = ?
		ORDER BY position ASC
	`, id).Scan(&materials).Error
	if err != nil {
		return nil, err
	}
	request.Materials = materials
	return &request, nil
}

func (r *MaterialRepository) GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var material model.Material
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, material_request_id, position, code, name, unit, unit_price,
			contract_quantity, actual_quantity, variance_percent
		FROM materials
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&material).Error
	if err != nil {
		return nil, err
	}
	if material.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &material, nil
}

// ReplaceMaterials swaps the material list wholesale, guarded on the request
// still being editable. The request returns to PENDING with the approval and
// rejection fields wiped, so a corrected reimport restarts the approval cycle.
func (r *MaterialRepository) ReplaceMaterials(ctx context.Context, requestID uuid.UUID, rows []model.MaterialRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEditableRequest(tx, requestID); err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM materials WHERE material_request_id = ?`, requestID).Error; err != nil {
			return err
		}
		for i, row := range rows {
			if err := tx.Exec(`
				INSERT INTO materials (material_request_id, position, code, name, unit, unit_price, contract_quantity)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, requestID, i+1, row.Code, row.Name, row.Unit, row.UnitPrice, row.ContractQuantity).Error; err != nil {
				return err
			}
		}
		return tx.Exec(`
			UPDATE material_requests
			SET status = ?,
				homeowner_approved = FALSE, homeowner_approved_by = NULL, homeowner_approved_at = NULL,
				supervisor_approved = FALSE, supervisor_approved_by = NULL, supervisor_approved_at = NULL,
				rejection_reason = NULL, rejected_by = NULL, rejected_at = NULL,
				updated_at = NOW()
			WHERE id = ?
		`, model.MaterialRequestStatusPending, requestID).Error
	})
}

func (r *MaterialRepository) ClearMaterials(ctx context.Context, requestID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEditableRequest(tx, requestID); err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM materials WHERE material_request_id = ?`, requestID).Error; err != nil {
			return err
		}
		return tx.Exec(`
			UPDATE material_requests SET updated_at = NOW() WHERE id = ?
		`, requestID).Error
	})
}

// ApproveMaterialRequest sets one role's approval flag and derives the status
// from both flags in the same statement. First approval wins the actor and
// timestamp columns; re-approval by the same role changes nothing.
func (r *MaterialRepository) ApproveMaterialRequest(ctx context.Context, requestID uuid.UUID, role model.Role, actorID uuid.UUID) error {
	var res *gorm.DB
	switch role {
	case model.RoleHomeowner:
		res = r.db.WithContext(ctx).Exec(`
			UPDATE material_requests
			SET homeowner_approved = TRUE,
				homeowner_approved_by = COALESCE(homeowner_approved_by, ?),
				homeowner_approved_at = COALESCE(homeowner_approved_at, NOW()),
				status = CASE WHEN supervisor_approved THEN ? ELSE ? END,
				updated_at = NOW()
			WHERE id = ? AND status IN (?, ?)
		`, actorID,
			model.MaterialRequestStatusApproved, model.MaterialRequestStatusPartiallyApproved,
			requestID, model.MaterialRequestStatusPending, model.MaterialRequestStatusPartiallyApproved)
	case model.RoleSupervisor:
		res = r.db.WithContext(ctx).Exec(`
			UPDATE material_requests
			SET supervisor_approved = TRUE,
				supervisor_approved_by = COALESCE(supervisor_approved_by, ?),
				supervisor_approved_at = COALESCE(supervisor_approved_at, NOW()),
				status = CASE WHEN homeowner_approved THEN ? ELSE ? END,
				updated_at = NOW()
			WHERE id = ? AND status IN (?, ?)
		`, actorID,
			model.MaterialRequestStatusApproved, model.MaterialRequestStatusPartiallyApproved,
			requestID, model.MaterialRequestStatusPending, model.MaterialRequestStatusPartiallyApproved)
	default:
		return fmt.Errorf("role %q cannot approve material requests", role)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *MaterialRepository) RejectMaterialRequest(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID, reason string) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE material_requests
		SET status = ?, rejection_reason = ?, rejected_by = ?, rejected_at = NOW(), updated_at = NOW()
		WHERE id = ? AND status IN (?, ?)
	`, model.MaterialRequestStatusRejected, reason, actorID, requestID,
		model.MaterialRequestStatusPending, model.MaterialRequestStatusPartiallyApproved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// RecordActualQuantity persists the actual quantity and precomputed variance,
// guarded on the parent request being approved.
func (r *MaterialRepository) RecordActualQuantity(ctx context.Context, materialID uuid.UUID, quantity float64, variance *float64) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE materials m
		SET actual_quantity = ?, variance_percent = ?
		FROM material_requests mr
		WHERE m.id = ? AND mr.id = m.material_request_id AND mr.status = ?
	`, quantity, variance, materialID, model.MaterialRequestStatusApproved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func lockEditableRequest(tx *gorm.DB, requestID uuid.UUID) error {
	var status model.MaterialRequestStatus
	err := tx.Raw(`
		SELECT status FROM material_requests WHERE id = ? FOR UPDATE
	`, requestID).Scan(&status).Error
	if err != nil {
		return err
	}
	if !status.Mutable() {
		return ErrStaleStatus
	}
	return nil
}
