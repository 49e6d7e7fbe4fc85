package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qurylys/procurement/internal/model"
)

func newQuoteService(store *memStore) *QuoteService {
	return NewQuoteService(store, nopNotifier{})
}

func createDraftQuote(t *testing.T, svc *QuoteService, owner model.Principal) *model.QuoteRequest {
	t.Helper()
	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		ProjectID: uuid.New(),
		Scope:     "Foundation work",
		Principal: owner,
	})
	require.NoError(t, err)
	return quote
}

func TestQuoteCreateValidation(t *testing.T) {
	svc := newQuoteService(newMemStore())
	owner := homeowner()

	_, err := svc.Create(context.Background(), CreateQuoteInput{
		ProjectID: uuid.New(),
		Scope:     "   ",
		Principal: owner,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), CreateQuoteInput{
		Scope:     "Foundation work",
		Principal: owner,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), CreateQuoteInput{
		ProjectID: uuid.New(),
		Scope:     "Foundation work",
		Principal: contractor(),
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestQuoteInviteIdempotent(t *testing.T) {
	svc := newQuoteService(newMemStore())
	owner := homeowner()
	quote := createDraftQuote(t, svc, owner)
	contractorID := uuid.New()

	invite := InviteInput{QuoteID: quote.ID, ContractorID: contractorID, Principal: owner}
	first, err := svc.Invite(context.Background(), invite)
	require.NoError(t, err)
	second, err := svc.Invite(context.Background(), invite)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{contractorID}, first.Invitees)
	assert.Equal(t, first.Invitees, second.Invitees)
}

func TestQuoteInviteOnlyByOwner(t *testing.T) {
	svc := newQuoteService(newMemStore())
	quote := createDraftQuote(t, svc, homeowner())

	_, err := svc.Invite(context.Background(), InviteInput{
		QuoteID:      quote.ID,
		ContractorID: uuid.New(),
		Principal:    homeowner(),
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestQuoteSend(t *testing.T) {
	svc := newQuoteService(newMemStore())
	owner := homeowner()
	quote := createDraftQuote(t, svc, owner)

	sent, err := svc.Send(context.Background(), SendQuoteInput{QuoteID: quote.ID, Principal: owner})
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusSent, sent.Status)

	// A sent quote request cannot be sent again.
	_, err = svc.Send(context.Background(), SendQuoteInput{QuoteID: quote.ID, Principal: owner})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQuoteCancel(t *testing.T) {
	svc := newQuoteService(newMemStore())
	owner := homeowner()

	draft := createDraftQuote(t, svc, owner)
	cancelled, err := svc.Cancel(context.Background(), SendQuoteInput{QuoteID: draft.ID, Principal: owner})
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusCancelled, cancelled.Status)

	// Invitations are closed once the request is cancelled.
	_, err = svc.Invite(context.Background(), InviteInput{
		QuoteID:      draft.ID,
		ContractorID: uuid.New(),
		Principal:    owner,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Cancel(context.Background(), SendQuoteInput{QuoteID: draft.ID, Principal: owner})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQuoteGetVisibility(t *testing.T) {
	store := newMemStore()
	svc := newQuoteService(store)
	owner := homeowner()
	invited := contractor()
	quote := createDraftQuote(t, svc, owner)

	_, err := svc.Invite(context.Background(), InviteInput{
		QuoteID:      quote.ID,
		ContractorID: invited.UserID,
		Principal:    owner,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), quote.ID, invited)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), quote.ID, supervisor())
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), quote.ID, contractor())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.Get(context.Background(), quote.ID, homeowner())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.Get(context.Background(), uuid.New(), owner)
	assert.ErrorIs(t, err, ErrNotFound)
}
