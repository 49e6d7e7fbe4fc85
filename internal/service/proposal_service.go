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

type ProposalStore interface {
	GetQuoteRequest(ctx context.Context, id uuid.UUID) (*model.QuoteRequest, error)
	CreateProposal(ctx context.Context, p *model.Proposal) (*model.Proposal, error)
	GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	MarkRevisionRequested(ctx context.Context, id uuid.UUID) error
	ResubmitProposal(ctx context.Context, id uuid.UUID, items []model.ProposalItem, total float64, durationDays int) error
	MarkProposalRejected(ctx context.Context, id uuid.UUID) error
	// AcceptProposal atomically accepts the proposal, freezes its terms into a
	// new contract and closes the parent quote request. It either fully
	// applies or leaves nothing behind.
	AcceptProposal(ctx context.Context, proposalID, homeownerID uuid.UUID) (*model.Contract, error)
}

type ProposalService struct {
	store        ProposalStore
	notifier     Notifier
	maxRevisions int
}

func NewProposalService(store ProposalStore, notifier Notifier, maxRevisions int) *ProposalService {
	return &ProposalService{store: store, notifier: notifier, maxRevisions: maxRevisions}
}

type ProposalItemInput struct {
	Name   string
	Amount float64
	Notes  string
}

type SubmitProposalInput struct {
	QuoteID        uuid.UUID
	Items          []ProposalItemInput
	TotalAmount    float64
	DurationDays   int
	SourceArtifact *string
	Principal      model.Principal
}

func (s *ProposalService) Submit(ctx context.Context, input SubmitProposalInput) (*model.Proposal, error) {
	if !Allowed(input.Principal, TransitionProposalSubmit) {
		return nil, ErrPermissionDenied
	}
	items, err := validateItems(input.Items)
	if err != nil {
		return nil, err
	}
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total_amount must be positive", ErrInvalidInput)
	}
	if input.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration_days must be positive", ErrInvalidInput)
	}

	quote, err := s.store.GetQuoteRequest(ctx, input.QuoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if quote.Status != model.QuoteStatusSent {
		return nil, fmt.Errorf("%w: quote request is not open for proposals", ErrPreconditionFailed)
	}
	if !quote.IsInvited(input.Principal.UserID) {
		return nil, ErrPermissionDenied
	}

	proposal, err := s.store.CreateProposal(ctx, &model.Proposal{
		QuoteRequestID: input.QuoteID,
		ContractorID:   input.Principal.UserID,
		TotalAmount:    input.TotalAmount,
		DurationDays:   input.DurationDays,
		Status:         model.ProposalStatusSubmitted,
		SourceArtifact: input.SourceArtifact,
		Items:          items,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: an active proposal already exists for this quote request", ErrConflict)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, "proposal.submitted", proposal.ID, []uuid.UUID{quote.HomeownerID})
	return proposal, nil
}

type ProposalActionInput struct {
	ProposalID uuid.UUID
	Principal  model.Principal
}

// RequestRevision sends a submitted proposal back to its contractor. Only the
// homeowner owning the parent quote request may do so, and only up to the
// configured revision limit.
func (s *ProposalService) RequestRevision(ctx context.Context, input ProposalActionInput) (*model.Proposal, error) {
	if !Allowed(input.Principal, TransitionProposalRequestRevision) {
		return nil, ErrPermissionDenied
	}
	proposal, quote, err := s.getWithQuote(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if quote.HomeownerID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}
	if !proposal.Status.Acceptable() {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidTransition, proposal.Status)
	}
	if s.maxRevisions > 0 && proposal.RevisionCount >= s.maxRevisions {
		return nil, fmt.Errorf("%w: revision limit of %d reached", ErrInvalidTransition, s.maxRevisions)
	}

	if err := s.store.MarkRevisionRequested(ctx, input.ProposalID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: proposal is no longer open for revision", ErrInvalidTransition)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, "proposal.revision_requested", proposal.ID, []uuid.UUID{proposal.ContractorID})
	return s.store.GetProposal(ctx, input.ProposalID)
}

type ResubmitProposalInput struct {
	ProposalID   uuid.UUID
	Items        []ProposalItemInput
	TotalAmount  float64
	DurationDays int
	Principal    model.Principal
}

// Resubmit replaces the proposal's terms after a revision request. Only the
// original contractor may resubmit.
func (s *ProposalService) Resubmit(ctx context.Context, input ResubmitProposalInput) (*model.Proposal, error) {
	if !Allowed(input.Principal, TransitionProposalResubmit) {
		return nil, ErrPermissionDenied
	}
	items, err := validateItems(input.Items)
	if err != nil {
		return nil, err
	}
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total_amount must be positive", ErrInvalidInput)
	}
	if input.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration_days must be positive", ErrInvalidInput)
	}

	proposal, quote, err := s.getWithQuote(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal.ContractorID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}
	if proposal.Status != model.ProposalStatusRevisionRequested {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidTransition, proposal.Status)
	}

	err = s.store.ResubmitProposal(ctx, input.ProposalID, items, input.TotalAmount, input.DurationDays)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: proposal is no longer awaiting resubmission", ErrInvalidTransition)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, "proposal.resubmitted", proposal.ID, []uuid.UUID{quote.HomeownerID})
	return s.store.GetProposal(ctx, input.ProposalID)
}

type AcceptProposalResult struct {
	Proposal *model.Proposal
	Contract *model.Contract
}

// Accept marks the proposal accepted, freezes a contract from it and closes
// the quote request as one unit. Sibling proposals are left untouched; the
// homeowner rejects them explicitly.
func (s *ProposalService) Accept(ctx context.Context, input ProposalActionInput) (*AcceptProposalResult, error) {
	if !Allowed(input.Principal, TransitionProposalAccept) {
		return nil, ErrPermissionDenied
	}
	proposal, quote, err := s.getWithQuote(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if quote.HomeownerID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}
	if !proposal.Status.Acceptable() {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidTransition, proposal.Status)
	}
	if quote.Status != model.QuoteStatusSent {
		return nil, fmt.Errorf("%w: quote request is %s", ErrPreconditionFailed, quote.Status)
	}

	contract, err := s.store.AcceptProposal(ctx, input.ProposalID, quote.HomeownerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, fmt.Errorf("%w: proposal is no longer acceptable", ErrInvalidTransition)
		case repository.IsUniqueViolation(err):
			return nil, fmt.Errorf("%w: a contract already exists for this proposal", ErrPreconditionFailed)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
		}
	}

	accepted, err := s.store.GetProposal(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, "proposal.accepted", accepted.ID,
		[]uuid.UUID{accepted.ContractorID, quote.HomeownerID})
	return &AcceptProposalResult{Proposal: accepted, Contract: contract}, nil
}

// Reject is available to the owning homeowner and to the submitting contractor
// (withdrawal) from any non-terminal state.
func (s *ProposalService) Reject(ctx context.Context, input ProposalActionInput) (*model.Proposal, error) {
	if !Allowed(input.Principal, TransitionProposalReject) {
		return nil, ErrPermissionDenied
	}
	proposal, quote, err := s.getWithQuote(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	isOwner := input.Principal.IsHomeowner() && quote.HomeownerID == input.Principal.UserID
	isAuthor := input.Principal.IsContractor() && proposal.ContractorID == input.Principal.UserID
	if !isOwner && !isAuthor {
		return nil, ErrPermissionDenied
	}
	if proposal.Status.Terminal() {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidTransition, proposal.Status)
	}

	if err := s.store.MarkProposalRejected(ctx, input.ProposalID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: proposal is already terminal", ErrInvalidTransition)
		}
		return nil, err
	}

	s.notifier.Notify(ctx, "proposal.rejected", proposal.ID,
		[]uuid.UUID{proposal.ContractorID, quote.HomeownerID})
	return s.store.GetProposal(ctx, input.ProposalID)
}

func (s *ProposalService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Proposal, error) {
	proposal, quote, err := s.getWithQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case principal.IsAdmin(), principal.IsSupervisor():
	case principal.IsHomeowner():
		if quote.HomeownerID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	case principal.IsContractor():
		if proposal.ContractorID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	default:
		return nil, ErrPermissionDenied
	}
	return proposal, nil
}

func (s *ProposalService) getWithQuote(ctx context.Context, id uuid.UUID) (*model.Proposal, *model.QuoteRequest, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	quote, err := s.store.GetQuoteRequest(ctx, proposal.QuoteRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return proposal, quote, nil
}

func validateItems(inputs []ProposalItemInput) ([]model.ProposalItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrInvalidInput)
	}
	items := make([]model.ProposalItem, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidInput, i+1)
		}
		if in.Amount < 0 {
			return nil, fmt.Errorf("%w: item %d has a negative amount", ErrInvalidInput, i+1)
		}
		items = append(items, model.ProposalItem{
			Position: i + 1,
			Name:     name,
			Amount:   in.Amount,
			Notes:    in.Notes,
		})
	}
	return items, nil
}
