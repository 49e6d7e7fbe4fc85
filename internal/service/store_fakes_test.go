package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qurylys/procurement/internal/model"
	"github.com/qurylys/procurement/internal/repository"
)

// memStore mimics the repository layer in memory, including its guard
// semantics: stale-status errors for guarded updates, record-not-found for
// missing rows and "duplicate key" errors for unique-index violations.
type memStore struct {
	mu sync.Mutex

	quotes              map[uuid.UUID]*model.QuoteRequest
	proposals           map[uuid.UUID]*model.Proposal
	contracts           map[uuid.UUID]*model.Contract
	contractsByProposal map[uuid.UUID]uuid.UUID
	supervisorContracts map[uuid.UUID]*model.SupervisorContract
	requests            map[uuid.UUID]*model.MaterialRequest
	materials           map[uuid.UUID]*model.Material
	balances            map[uuid.UUID]float64
	payments            map[string]model.EscrowPayment

	// failContractCreate makes the acceptance unit fail after the proposal
	// flip, as a broken contract insert would; nothing may be left applied.
	failContractCreate error
}

func newMemStore() *memStore {
	return &memStore{
		quotes:              make(map[uuid.UUID]*model.QuoteRequest),
		proposals:           make(map[uuid.UUID]*model.Proposal),
		contracts:           make(map[uuid.UUID]*model.Contract),
		contractsByProposal: make(map[uuid.UUID]uuid.UUID),
		supervisorContracts: make(map[uuid.UUID]*model.SupervisorContract),
		requests:            make(map[uuid.UUID]*model.MaterialRequest),
		materials:           make(map[uuid.UUID]*model.Material),
		balances:            make(map[uuid.UUID]float64),
		payments:            make(map[string]model.EscrowPayment),
	}
}

var errDuplicateKey = errors.New(`ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)`)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, uuid.UUID, []uuid.UUID) {}

func homeowner() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleHomeowner}
}

func contractor() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleContractor}
}

func supervisor() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleSupervisor}
}

func (s *memStore) CreateQuoteRequest(_ context.Context, q *model.QuoteRequest) (*model.QuoteRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *q
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	s.quotes[saved.ID] = &saved
	return copyQuote(&saved), nil
}

func (s *memStore) GetQuoteRequest(_ context.Context, id uuid.UUID) (*model.QuoteRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyQuote(quote), nil
}

func (s *memStore) AddInvitee(_ context.Context, quoteID, contractorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.quotes[quoteID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !quote.Status.AcceptsInvitees() {
		return repository.ErrStaleStatus
	}
	for _, id := range quote.Invitees {
		if id == contractorID {
			return nil
		}
	}
	quote.Invitees = append(quote.Invitees, contractorID)
	return nil
}

func (s *memStore) UpdateQuoteStatus(_ context.Context, id uuid.UUID, from []model.QuoteStatus, to model.QuoteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateQuoteStatusLocked(id, from, to)
}

func (s *memStore) updateQuoteStatusLocked(id uuid.UUID, from []model.QuoteStatus, to model.QuoteStatus) error {
	quote, ok := s.quotes[id]
	if !ok {
		return repository.ErrStaleStatus
	}
	for _, status := range from {
		if quote.Status == status {
			quote.Status = to
			quote.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrStaleStatus
}

func (s *memStore) CreateProposal(_ context.Context, p *model.Proposal) (*model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.proposals {
		if existing.QuoteRequestID == p.QuoteRequestID &&
			existing.ContractorID == p.ContractorID &&
			existing.Status != model.ProposalStatusRejected {
			return nil, errDuplicateKey
		}
	}

	saved := *p
	saved.ID = uuid.New()
	saved.Items = copyProposalItems(p.Items)
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	s.proposals[saved.ID] = &saved
	return copyProposal(&saved), nil
}

func (s *memStore) GetProposal(_ context.Context, id uuid.UUID) (*model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyProposal(proposal), nil
}

func (s *memStore) MarkRevisionRequested(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[id]
	if !ok || !proposal.Status.Acceptable() {
		return repository.ErrStaleStatus
	}
	proposal.Status = model.ProposalStatusRevisionRequested
	proposal.RevisionCount++
	proposal.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) ResubmitProposal(_ context.Context, id uuid.UUID, items []model.ProposalItem, total float64, durationDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[id]
	if !ok || proposal.Status != model.ProposalStatusRevisionRequested {
		return repository.ErrStaleStatus
	}
	proposal.Status = model.ProposalStatusResubmitted
	proposal.TotalAmount = total
	proposal.DurationDays = durationDays
	proposal.Items = copyProposalItems(items)
	proposal.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) MarkProposalRejected(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[id]
	if !ok || proposal.Status.Terminal() {
		return repository.ErrStaleStatus
	}
	proposal.Status = model.ProposalStatusRejected
	proposal.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) AcceptProposal(_ context.Context, proposalID, homeownerID uuid.UUID) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.proposals[proposalID]
	if !ok || !proposal.Status.Acceptable() {
		return nil, repository.ErrStaleStatus
	}
	if s.failContractCreate != nil {
		// Transaction rollback: the proposal flip never becomes visible.
		return nil, s.failContractCreate
	}
	if _, exists := s.contractsByProposal[proposalID]; exists {
		return nil, errDuplicateKey
	}
	quote, ok := s.quotes[proposal.QuoteRequestID]
	if !ok || quote.Status != model.QuoteStatusSent {
		return nil, repository.ErrStaleStatus
	}

	proposal.Status = model.ProposalStatusAccepted
	proposal.UpdatedAt = time.Now()

	contract := model.ContractFromProposal(proposal, homeownerID)
	contract.ID = uuid.New()
	contract.CreatedAt = time.Now()
	contract.UpdatedAt = contract.CreatedAt
	s.contracts[contract.ID] = contract
	s.contractsByProposal[proposalID] = contract.ID

	quote.Status = model.QuoteStatusClosed
	quote.UpdatedAt = time.Now()

	return copyContract(contract), nil
}

func (s *memStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract, ok := s.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyContract(contract), nil
}

func (s *memStore) SignContract(_ context.Context, id uuid.UUID, party model.SignatureParty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract, ok := s.contracts[id]
	if !ok || contract.Status != model.ContractStatusPendingSignatures {
		return repository.ErrStaleStatus
	}
	now := time.Now()
	switch party {
	case model.PartyHomeowner:
		if contract.HomeownerSignedAt == nil {
			contract.HomeownerSignedAt = &now
		}
	case model.PartyContractor:
		if contract.ContractorSignedAt == nil {
			contract.ContractorSignedAt = &now
		}
	}
	if contract.FullySigned() {
		contract.Status = model.ContractStatusActive
	}
	contract.UpdatedAt = now
	return nil
}

func (s *memStore) UpdateContractStatus(_ context.Context, id uuid.UUID, from, to model.ContractStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract, ok := s.contracts[id]
	if !ok || contract.Status != from {
		return repository.ErrStaleStatus
	}
	contract.Status = to
	contract.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) CreateSupervisorContract(_ context.Context, sc *model.SupervisorContract) (*model.SupervisorContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *sc
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	s.supervisorContracts[saved.ID] = &saved
	copied := saved
	return &copied, nil
}

func (s *memStore) GetSupervisorContract(_ context.Context, id uuid.UUID) (*model.SupervisorContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.supervisorContracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sc
	return &copied, nil
}

func (s *memStore) SignSupervisorContract(_ context.Context, id uuid.UUID, party model.SignatureParty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.supervisorContracts[id]
	if !ok || sc.Status != model.ContractStatusPendingSignatures {
		return repository.ErrStaleStatus
	}
	now := time.Now()
	switch party {
	case model.PartySupervisor:
		if sc.SupervisorSignedAt == nil {
			sc.SupervisorSignedAt = &now
		}
	case model.PartyHomeowner:
		if sc.HomeownerSignedAt == nil {
			sc.HomeownerSignedAt = &now
		}
	}
	if sc.SupervisorSignedAt != nil && sc.HomeownerSignedAt != nil {
		sc.Status = model.ContractStatusActive
	}
	sc.UpdatedAt = now
	return nil
}

func (s *memStore) CreditEscrow(_ context.Context, contractID uuid.UUID, amount float64, paymentReference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.payments[paymentReference]; seen {
		return false, nil
	}
	s.payments[paymentReference] = model.EscrowPayment{
		PaymentReference: paymentReference,
		ContractID:       contractID,
		Amount:           amount,
		CreatedAt:        time.Now(),
	}
	s.balances[contractID] += amount
	return true, nil
}

func (s *memStore) GetEscrowBalance(_ context.Context, contractID uuid.UUID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[contractID], nil
}

func (s *memStore) ListEscrowPayments(_ context.Context, contractID uuid.UUID) ([]model.EscrowPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payments []model.EscrowPayment
	for _, p := range s.payments {
		if p.ContractID == contractID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].PaymentReference < payments[j].PaymentReference
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments, nil
}

func (s *memStore) CreateMaterialRequest(_ context.Context, m *model.MaterialRequest) (*model.MaterialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *m
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	s.requests[saved.ID] = &saved
	return copyRequest(&saved), nil
}

func (s *memStore) GetMaterialRequest(_ context.Context, id uuid.UUID) (*model.MaterialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := copyRequest(request)
	for _, material := range s.materials {
		if material.MaterialRequestID == id {
			result.Materials = append(result.Materials, *material)
		}
	}
	sortMaterials(result.Materials)
	return result, nil
}

func (s *memStore) GetMaterial(_ context.Context, id uuid.UUID) (*model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *material
	return &copied, nil
}

func (s *memStore) ReplaceMaterials(_ context.Context, requestID uuid.UUID, rows []model.MaterialRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !request.Status.Mutable() {
		return repository.ErrStaleStatus
	}
	s.clearMaterialsLocked(requestID)
	for i, row := range rows {
		material := &model.Material{
			ID:                uuid.New(),
			MaterialRequestID: requestID,
			Position:          i + 1,
			Code:              row.Code,
			Name:              row.Name,
			Unit:              row.Unit,
			UnitPrice:         row.UnitPrice,
			ContractQuantity:  row.ContractQuantity,
		}
		s.materials[material.ID] = material
	}

	// A reimport restarts the approval cycle.
	request.Status = model.MaterialRequestStatusPending
	request.HomeownerApproved = false
	request.HomeownerApprovedBy = nil
	request.HomeownerApprovedAt = nil
	request.SupervisorApproved = false
	request.SupervisorApprovedBy = nil
	request.SupervisorApprovedAt = nil
	request.RejectionReason = nil
	request.RejectedBy = nil
	request.RejectedAt = nil
	request.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) ClearMaterials(_ context.Context, requestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !request.Status.Mutable() {
		return repository.ErrStaleStatus
	}
	s.clearMaterialsLocked(requestID)
	request.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) ApproveMaterialRequest(_ context.Context, requestID uuid.UUID, role model.Role, actorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok || request.Status.Terminal() {
		return repository.ErrStaleStatus
	}
	now := time.Now()
	switch role {
	case model.RoleHomeowner:
		request.HomeownerApproved = true
		if request.HomeownerApprovedBy == nil {
			request.HomeownerApprovedBy = &actorID
			request.HomeownerApprovedAt = &now
		}
	case model.RoleSupervisor:
		request.SupervisorApproved = true
		if request.SupervisorApprovedBy == nil {
			request.SupervisorApprovedBy = &actorID
			request.SupervisorApprovedAt = &now
		}
	}
	request.Status = model.DeriveStatus(request.HomeownerApproved, request.SupervisorApproved)
	request.UpdatedAt = now
	return nil
}

func (s *memStore) RejectMaterialRequest(_ context.Context, requestID uuid.UUID, actorID uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok || request.Status.Terminal() {
		return repository.ErrStaleStatus
	}
	now := time.Now()
	request.Status = model.MaterialRequestStatusRejected
	request.RejectionReason = &reason
	request.RejectedBy = &actorID
	request.RejectedAt = &now
	request.UpdatedAt = now
	return nil
}

func (s *memStore) RecordActualQuantity(_ context.Context, materialID uuid.UUID, quantity float64, variance *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[materialID]
	if !ok {
		return repository.ErrStaleStatus
	}
	request, ok := s.requests[material.MaterialRequestID]
	if !ok || request.Status != model.MaterialRequestStatusApproved {
		return repository.ErrStaleStatus
	}
	material.ActualQuantity = &quantity
	material.VariancePercent = variance
	return nil
}

func (s *memStore) clearMaterialsLocked(requestID uuid.UUID) {
	for id, material := range s.materials {
		if material.MaterialRequestID == requestID {
			delete(s.materials, id)
		}
	}
}

func copyQuote(q *model.QuoteRequest) *model.QuoteRequest {
	copied := *q
	copied.Invitees = append([]uuid.UUID(nil), q.Invitees...)
	return &copied
}

func copyProposal(p *model.Proposal) *model.Proposal {
	copied := *p
	copied.Items = copyProposalItems(p.Items)
	return &copied
}

func copyProposalItems(items []model.ProposalItem) []model.ProposalItem {
	return append([]model.ProposalItem(nil), items...)
}

func copyContract(c *model.Contract) *model.Contract {
	copied := *c
	copied.Items = append([]model.ContractItem(nil), c.Items...)
	return &copied
}

func copyRequest(r *model.MaterialRequest) *model.MaterialRequest {
	copied := *r
	copied.Materials = nil
	return &copied
}

func sortMaterials(materials []model.Material) {
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].Position < materials[j].Position
	})
}
