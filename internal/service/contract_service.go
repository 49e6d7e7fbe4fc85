package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
	"github.com/qurylys/procurement/internal/repository"
)

type ContractStore interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	SignContract(ctx context.Context, id uuid.UUID, party model.SignatureParty) error
	UpdateContractStatus(ctx context.Context, id uuid.UUID, from, to model.ContractStatus) error
	CreateSupervisorContract(ctx context.Context, sc *model.SupervisorContract) (*model.SupervisorContract, error)
	GetSupervisorContract(ctx context.Context, id uuid.UUID) (*model.SupervisorContract, error)
	SignSupervisorContract(ctx context.Context, id uuid.UUID, party model.SignatureParty) error
}

// DocumentGenerator renders a printable document for a formed contract.
type DocumentGenerator interface {
	Generate(contract *model.Contract) ([]byte, error)
}

type ContractService struct {
	store    ContractStore
	pdf      DocumentGenerator
	notifier Notifier
}

func NewContractService(store ContractStore, pdf DocumentGenerator, notifier Notifier) *ContractService {
	return &ContractService{store: store, pdf: pdf, notifier: notifier}
}

type SignContractInput struct {
	ContractID uuid.UUID
	Principal  model.Principal
}

// Sign records the caller's signature. Signing twice by the same party is a
// no-op; once both parties have signed the contract becomes active.
func (s *ContractService) Sign(ctx context.Context, input SignContractInput) (*model.Contract, error) {
	if !Allowed(input.Principal, TransitionContractSign) {
		return nil, ErrPermissionDenied
	}
	contract, err := s.getContract(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}

	var party model.SignatureParty
	switch {
	case input.Principal.IsHomeowner() && contract.HomeownerID == input.Principal.UserID:
		party = model.PartyHomeowner
		if contract.HomeownerSignedAt != nil {
			return contract, nil
		}
	case input.Principal.IsContractor() && contract.ContractorID == input.Principal.UserID:
		party = model.PartyContractor
		if contract.ContractorSignedAt != nil {
			return contract, nil
		}
	default:
		return nil, ErrPermissionDenied
	}

	if err := s.store.SignContract(ctx, input.ContractID, party); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: contract is not awaiting signatures", ErrInvalidTransition)
		}
		return nil, err
	}

	signed, err := s.getContract(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	if signed.Status == model.ContractStatusActive {
		s.notifier.Notify(ctx, "contract.active", signed.ID,
			[]uuid.UUID{signed.HomeownerID, signed.ContractorID})
	}
	return signed, nil
}

type UpdateContractStatusInput struct {
	ContractID uuid.UUID
	NewStatus  model.ContractStatus
	Principal  model.Principal
}

// UpdateStatus performs an administrative transition, validating that the new
// status is reachable from the current one.
func (s *ContractService) UpdateStatus(ctx context.Context, input UpdateContractStatusInput) (*model.Contract, error) {
	if !Allowed(input.Principal, TransitionContractUpdateStatus) {
		return nil, ErrPermissionDenied
	}
	contract, err := s.getContract(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	if !contract.Status.CanTransitionTo(input.NewStatus) {
		return nil, fmt.Errorf("%w: cannot move contract from %s to %s",
			ErrInvalidTransition, contract.Status, input.NewStatus)
	}

	if err := s.store.UpdateContractStatus(ctx, input.ContractID, contract.Status, input.NewStatus); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: contract status changed concurrently", ErrInvalidTransition)
		}
		return nil, err
	}

	updated, err := s.getContract(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, "contract."+string(updated.Status), updated.ID,
		[]uuid.UUID{updated.HomeownerID, updated.ContractorID})
	return updated, nil
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	contract, err := s.getContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(contract, principal); err != nil {
		return nil, err
	}
	return contract, nil
}

type ContractDocumentResult struct {
	FileName string
	Content  []byte
}

// Document renders the contract as a pdf for printing and wet signatures.
func (s *ContractService) Document(ctx context.Context, id uuid.UUID, principal model.Principal) (*ContractDocumentResult, error) {
	contract, err := s.Get(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(contract)
	if err != nil {
		return nil, err
	}
	return &ContractDocumentResult{
		FileName: fmt.Sprintf("contract-%s.pdf", contract.ID),
		Content:  content,
	}, nil
}

type CreateSupervisorContractInput struct {
	ProjectID       uuid.UUID
	RegistrationFee float64
	Principal       model.Principal
}

func (s *ContractService) CreateSupervisorContract(ctx context.Context, input CreateSupervisorContractInput) (*model.SupervisorContract, error) {
	if !Allowed(input.Principal, TransitionSupervisorContractCreate) {
		return nil, ErrPermissionDenied
	}
	if input.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if input.RegistrationFee <= 0 {
		return nil, fmt.Errorf("%w: registration_fee must be positive", ErrInvalidInput)
	}

	return s.store.CreateSupervisorContract(ctx, &model.SupervisorContract{
		SupervisorID:    input.Principal.UserID,
		ProjectID:       input.ProjectID,
		RegistrationFee: input.RegistrationFee,
		Status:          model.ContractStatusPendingSignatures,
	})
}

type SignSupervisorContractInput struct {
	ContractID uuid.UUID
	Principal  model.Principal
}

func (s *ContractService) SignSupervisorContract(ctx context.Context, input SignSupervisorContractInput) (*model.SupervisorContract, error) {
	if !Allowed(input.Principal, TransitionSupervisorContractSign) {
		return nil, ErrPermissionDenied
	}
	sc, err := s.store.GetSupervisorContract(ctx, input.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var party model.SignatureParty
	switch {
	case input.Principal.IsSupervisor() && sc.SupervisorID == input.Principal.UserID:
		party = model.PartySupervisor
		if sc.SupervisorSignedAt != nil {
			return sc, nil
		}
	case input.Principal.IsHomeowner():
		party = model.PartyHomeowner
		if sc.HomeownerSignedAt != nil {
			return sc, nil
		}
	default:
		return nil, ErrPermissionDenied
	}

	if err := s.store.SignSupervisorContract(ctx, input.ContractID, party); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: supervisor contract is not awaiting signatures", ErrInvalidTransition)
		}
		return nil, err
	}
	return s.store.GetSupervisorContract(ctx, input.ContractID)
}

func (s *ContractService) getContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) authorizeView(contract *model.Contract, principal model.Principal) error {
	switch {
	case principal.IsAdmin(), principal.IsSupervisor():
		return nil
	case principal.IsHomeowner() && contract.HomeownerID == principal.UserID:
		return nil
	case principal.IsContractor() && contract.ContractorID == principal.UserID:
		return nil
	}
	return ErrPermissionDenied
}
