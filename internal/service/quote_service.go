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

type QuoteStore interface {
	CreateQuoteRequest(ctx context.Context, q *model.QuoteRequest) (*model.QuoteRequest, error)
	GetQuoteRequest(ctx context.Context, id uuid.UUID) (*model.QuoteRequest, error)
	AddInvitee(ctx context.Context, quoteID, contractorID uuid.UUID) error
	UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from []model.QuoteStatus, to model.QuoteStatus) error
}

type QuoteService struct {
	store    QuoteStore
	notifier Notifier
}

func NewQuoteService(store QuoteStore, notifier Notifier) *QuoteService {
	return &QuoteService{store: store, notifier: notifier}
}

type CreateQuoteInput struct {
	ProjectID uuid.UUID
	Scope     string
	Principal model.Principal
}

func (s *QuoteService) Create(ctx context.Context, input CreateQuoteInput) (*model.QuoteRequest, error) {
	if !Allowed(input.Principal, TransitionQuoteCreate) {
		return nil, ErrPermissionDenied
	}
	if input.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	scope := strings.TrimSpace(input.Scope)
	if scope == "" {
		return nil, fmt.Errorf("%w: scope is required", ErrInvalidInput)
	}

	return s.store.CreateQuoteRequest(ctx, &model.QuoteRequest{
		ProjectID:   input.ProjectID,
		HomeownerID: input.Principal.UserID,
		Scope:       scope,
		Status:      model.QuoteStatusDraft,
	})
}

type InviteInput struct {
	QuoteID      uuid.UUID
	ContractorID uuid.UUID
	Principal    model.Principal
}

// Invite adds a contractor to the invitee set. Inviting an already-present
// contractor is a no-op.
func (s *QuoteService) Invite(ctx context.Context, input InviteInput) (*model.QuoteRequest, error) {
	if !Allowed(input.Principal, TransitionQuoteInvite) {
		return nil, ErrPermissionDenied
	}
	if input.ContractorID == uuid.Nil {
		return nil, fmt.Errorf("%w: contractor_id is required", ErrInvalidInput)
	}

	quote, err := s.getOwned(ctx, input.QuoteID, input.Principal)
	if err != nil {
		return nil, err
	}
	if !quote.Status.AcceptsInvitees() {
		return nil, fmt.Errorf("%w: quote request is %s", ErrInvalidTransition, quote.Status)
	}

	if err := s.store.AddInvitee(ctx, input.QuoteID, input.ContractorID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: quote request is no longer open", ErrInvalidTransition)
		}
		return nil, err
	}
	return s.Get(ctx, input.QuoteID, input.Principal)
}

type SendQuoteInput struct {
	QuoteID   uuid.UUID
	Principal model.Principal
}

// Send publishes a draft request to its invited contractors.
func (s *QuoteService) Send(ctx context.Context, input SendQuoteInput) (*model.QuoteRequest, error) {
	if !Allowed(input.Principal, TransitionQuoteSend) {
		return nil, ErrPermissionDenied
	}
	if _, err := s.getOwned(ctx, input.QuoteID, input.Principal); err != nil {
		return nil, err
	}

	err := s.store.UpdateQuoteStatus(ctx, input.QuoteID,
		[]model.QuoteStatus{model.QuoteStatusDraft}, model.QuoteStatusSent)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: only a draft quote request can be sent", ErrInvalidTransition)
		}
		return nil, err
	}

	quote, err := s.Get(ctx, input.QuoteID, input.Principal)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, "quote_request.sent", quote.ID, quote.Invitees)
	return quote, nil
}

// Cancel abandons a quote request that has not been closed by an acceptance.
func (s *QuoteService) Cancel(ctx context.Context, input SendQuoteInput) (*model.QuoteRequest, error) {
	if !Allowed(input.Principal, TransitionQuoteCancel) {
		return nil, ErrPermissionDenied
	}
	if _, err := s.getOwned(ctx, input.QuoteID, input.Principal); err != nil {
		return nil, err
	}

	err := s.store.UpdateQuoteStatus(ctx, input.QuoteID,
		[]model.QuoteStatus{model.QuoteStatusDraft, model.QuoteStatusSent}, model.QuoteStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: quote request is already closed", ErrInvalidTransition)
		}
		return nil, err
	}
	return s.Get(ctx, input.QuoteID, input.Principal)
}

func (s *QuoteService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.QuoteRequest, error) {
	quote, err := s.store.GetQuoteRequest(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	switch {
	case principal.IsAdmin(), principal.IsSupervisor():
	case principal.IsHomeowner():
		if quote.HomeownerID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	case principal.IsContractor():
		if !quote.IsInvited(principal.UserID) {
			return nil, ErrPermissionDenied
		}
	default:
		return nil, ErrPermissionDenied
	}
	return quote, nil
}

func (s *QuoteService) getOwned(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.QuoteRequest, error) {
	quote, err := s.store.GetQuoteRequest(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if quote.HomeownerID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return quote, nil
}
