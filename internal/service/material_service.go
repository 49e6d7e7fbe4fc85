package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
	"github.com/qurylys/procurement/internal/repository"
)

type MaterialStore interface {
	CreateMaterialRequest(ctx context.Context, m *model.MaterialRequest) (*model.MaterialRequest, error)
	GetMaterialRequest(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error)
	GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error)
	ReplaceMaterials(ctx context.Context, requestID uuid.UUID, rows []model.MaterialRow) error
	ClearMaterials(ctx context.Context, requestID uuid.UUID) error
	// ApproveMaterialRequest sets the flag for the role and derives the new
	// status in one guarded statement, so two racing approvers converge.
	ApproveMaterialRequest(ctx context.Context, requestID uuid.UUID, role model.Role, actorID uuid.UUID) error
	RejectMaterialRequest(ctx context.Context, requestID uuid.UUID, actorID uuid.UUID, reason string) error
	RecordActualQuantity(ctx context.Context, materialID uuid.UUID, quantity float64, variance *float64) error
}

// VarianceExporter renders the contract-vs-actual report for a request.
type VarianceExporter interface {
	Generate(request *model.MaterialRequest) ([]byte, error)
}

type MaterialService struct {
	store    MaterialStore
	excel    VarianceExporter
	notifier Notifier
}

func NewMaterialService(store MaterialStore, excel VarianceExporter, notifier Notifier) *MaterialService {
	return &MaterialService{store: store, excel: excel, notifier: notifier}
}

type CreateMaterialRequestInput struct {
	ProjectID uuid.UUID
	Principal model.Principal
}

func (s *MaterialService) Create(ctx context.Context, input CreateMaterialRequestInput) (*model.MaterialRequest, error) {
	if !Allowed(input.Principal, TransitionMaterialCreate) {
		return nil, ErrPermissionDenied
	}
	if input.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	return s.store.CreateMaterialRequest(ctx, &model.MaterialRequest{
		ProjectID:    input.ProjectID,
		ContractorID: input.Principal.UserID,
		Status:       model.MaterialRequestStatusPending,
	})
}

type ImportMaterialsInput struct {
	RequestID uuid.UUID
	Rows      []model.MaterialRow
	Principal model.Principal
}

// Import replaces the material list wholesale with rows already parsed by the
// upload collaborator. An approved request is immutable.
func (s *MaterialService) Import(ctx context.Context, input ImportMaterialsInput) (*model.MaterialRequest, error) {
	if !Allowed(input.Principal, TransitionMaterialImport) {
		return nil, ErrPermissionDenied
	}
	if len(input.Rows) == 0 {
		return nil, fmt.Errorf("%w: at least one material row is required", ErrInvalidInput)
	}
	for i, row := range input.Rows {
		if strings.TrimSpace(row.Name) == "" {
			return nil, fmt.Errorf("%w: row %d has no name", ErrInvalidInput, i+1)
		}
		if row.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: row %d has a negative unit price", ErrInvalidInput, i+1)
		}
		if row.ContractQuantity < 0 {
			return nil, fmt.Errorf("%w: row %d has a negative contract quantity", ErrInvalidInput, i+1)
		}
	}

	request, err := s.getOwned(ctx, input.RequestID, input.Principal)
	if err != nil {
		return nil, err
	}
	if !request.Status.Mutable() {
		return nil, fmt.Errorf("%w: material request is %s", ErrInvalidTransition, request.Status)
	}

	if err := s.store.ReplaceMaterials(ctx, input.RequestID, input.Rows); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: material request is no longer editable", ErrInvalidTransition)
		}
		return nil, err
	}
	return s.store.GetMaterialRequest(ctx, input.RequestID)
}

type MaterialRequestActionInput struct {
	RequestID uuid.UUID
	Principal model.Principal
}

// Clear empties the material list while keeping the request itself, so a
// rejected request can be corrected and reimported.
func (s *MaterialService) Clear(ctx context.Context, input MaterialRequestActionInput) (*model.MaterialRequest, error) {
	if !Allowed(input.Principal, TransitionMaterialClear) {
		return nil, ErrPermissionDenied
	}
	request, err := s.getOwned(ctx, input.RequestID, input.Principal)
	if err != nil {
		return nil, err
	}
	if !request.Status.Mutable() {
		return nil, fmt.Errorf("%w: material request is %s", ErrInvalidTransition, request.Status)
	}

	if err := s.store.ClearMaterials(ctx, input.RequestID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: material request is no longer editable", ErrInvalidTransition)
		}
		return nil, err
	}
	return s.store.GetMaterialRequest(ctx, input.RequestID)
}

// Approve records the caller's role's approval flag. Approval order does not
// matter and approving twice with the same role is a no-op.
func (s *MaterialService) Approve(ctx context.Context, input MaterialRequestActionInput) (*model.MaterialRequest, error) {
	if !Allowed(input.Principal, TransitionMaterialApprove) {
		return nil, ErrPermissionDenied
	}
	err := s.store.ApproveMaterialRequest(ctx, input.RequestID, input.Principal.Role, input.Principal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// The guard excludes terminal requests. Re-approving a fully
			// approved one with an already-set flag is still a no-op.
			current, getErr := s.get(ctx, input.RequestID)
			if getErr != nil {
				return nil, getErr
			}
			if current.Status == model.MaterialRequestStatusApproved && flagSet(current, input.Principal.Role) {
				return current, nil
			}
			return nil, fmt.Errorf("%w: material request is %s", ErrInvalidTransition, current.Status)
		}
		return nil, err
	}

	updated, err := s.get(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if updated.Status == model.MaterialRequestStatusApproved {
		s.notifier.Notify(ctx, "material_request.approved", updated.ID, []uuid.UUID{updated.ContractorID})
	}
	return updated, nil
}

type RejectMaterialRequestInput struct {
	RequestID uuid.UUID
	Reason    string
	Principal model.Principal
}

// Reject terminates the request regardless of the other approver's flag.
func (s *MaterialService) Reject(ctx context.Context, input RejectMaterialRequestInput) (*model.MaterialRequest, error) {
	if !Allowed(input.Principal, TransitionMaterialReject) {
		return nil, ErrPermissionDenied
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}
	request, err := s.get(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, fmt.Errorf("%w: material request is %s", ErrInvalidTransition, request.Status)
	}

	err = s.store.RejectMaterialRequest(ctx, input.RequestID, input.Principal.UserID, reason)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: material request is already terminal", ErrInvalidTransition)
		}
		return nil, err
	}

	updated, err := s.get(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, "material_request.rejected", updated.ID, []uuid.UUID{updated.ContractorID})
	return updated, nil
}

type RecordActualInput struct {
	MaterialID uuid.UUID
	Quantity   float64
	Principal  model.Principal
}

// RecordActual stores the actually used quantity for a material of an approved
// request and persists the derived variance. A zero contract quantity leaves
// the variance undefined.
func (s *MaterialService) RecordActual(ctx context.Context, input RecordActualInput) (*model.Material, error) {
	if !Allowed(input.Principal, TransitionMaterialRecordActual) {
		return nil, ErrPermissionDenied
	}
	if input.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	material, err := s.store.GetMaterial(ctx, input.MaterialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	request, err := s.get(ctx, material.MaterialRequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.MaterialRequestStatusApproved {
		return nil, fmt.Errorf("%w: material request is not approved", ErrPreconditionFailed)
	}

	quantity := input.Quantity
	variance := model.VariancePercent(material.ContractQuantity, &quantity)
	err = s.store.RecordActualQuantity(ctx, input.MaterialID, quantity, variance)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: material request is not approved", ErrPreconditionFailed)
		}
		return nil, err
	}
	return s.store.GetMaterial(ctx, input.MaterialID)
}

func (s *MaterialService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.MaterialRequest, error) {
	request, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsContractor() && request.ContractorID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return request, nil
}

type VarianceReportResult struct {
	FileName string
	Content  []byte
}

// VarianceReport exports the approved material list with contract vs actual
// quantities as a spreadsheet.
func (s *MaterialService) VarianceReport(ctx context.Context, id uuid.UUID, principal model.Principal) (*VarianceReportResult, error) {
	request, err := s.Get(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if request.Status != model.MaterialRequestStatusApproved {
		return nil, fmt.Errorf("%w: material request is not approved", ErrPreconditionFailed)
	}
	content, err := s.excel.Generate(request)
	if err != nil {
		return nil, err
	}
	return &VarianceReportResult{
		FileName: fmt.Sprintf("materials-variance-%s.xlsx", request.ID),
		Content:  content,
	}, nil
}

func (s *MaterialService) get(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error) {
	request, err := s.store.GetMaterialRequest(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *MaterialService) getOwned(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.MaterialRequest, error) {
	request, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.ContractorID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return request, nil
}

func flagSet(request *model.MaterialRequest, role model.Role) bool {
	switch role {
	case model.RoleHomeowner:
		return request.HomeownerApproved
	case model.RoleSupervisor:
		return request.SupervisorApproved
	}
	return false
}
