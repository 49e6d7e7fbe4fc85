package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qurylys/procurement/internal/model"
)

type proposalFixture struct {
	store      *memStore
	quotes     *QuoteService
	proposals  *ProposalService
	owner      model.Principal
	contractor model.Principal
	quote      *model.QuoteRequest
}

// newProposalFixture sets up a sent quote request with one invited contractor.
func newProposalFixture(t *testing.T) *proposalFixture {
	t.Helper()
	store := newMemStore()
	f := &proposalFixture{
		store:      store,
		quotes:     NewQuoteService(store, nopNotifier{}),
		proposals:  NewProposalService(store, nopNotifier{}, 10),
		owner:      homeowner(),
		contractor: contractor(),
	}
	f.quote = createDraftQuote(t, f.quotes, f.owner)

	_, err := f.quotes.Invite(context.Background(), InviteInput{
		QuoteID:      f.quote.ID,
		ContractorID: f.contractor.UserID,
		Principal:    f.owner,
	})
	require.NoError(t, err)
	_, err = f.quotes.Send(context.Background(), SendQuoteInput{QuoteID: f.quote.ID, Principal: f.owner})
	require.NoError(t, err)
	return f
}

func (f *proposalFixture) submit(t *testing.T, total float64, days int) *model.Proposal {
	t.Helper()
	proposal, err := f.proposals.Submit(context.Background(), SubmitProposalInput{
		QuoteID:      f.quote.ID,
		TotalAmount:  total,
		DurationDays: days,
		Items: []ProposalItemInput{
			{Name: "Excavation", Amount: total * 0.4},
			{Name: "Concrete and rebar", Amount: total * 0.6},
		},
		Principal: f.contractor,
	})
	require.NoError(t, err)
	return proposal
}

func TestProposalLifecycle(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	proposal := f.submit(t, 100_000_000, 30)
	assert.Equal(t, model.ProposalStatusSubmitted, proposal.Status)

	revised, err := f.proposals.RequestRevision(ctx, ProposalActionInput{
		ProposalID: proposal.ID,
		Principal:  f.owner,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusRevisionRequested, revised.Status)
	assert.Equal(t, 1, revised.RevisionCount)

	resubmitted, err := f.proposals.Resubmit(ctx, ResubmitProposalInput{
		ProposalID:   proposal.ID,
		TotalAmount:  95_000_000,
		DurationDays: 28,
		Items: []ProposalItemInput{
			{Name: "Excavation", Amount: 38_000_000},
			{Name: "Concrete and rebar", Amount: 57_000_000},
		},
		Principal: f.contractor,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusResubmitted, resubmitted.Status)
	assert.Equal(t, 95_000_000.0, resubmitted.TotalAmount)

	result, err := f.proposals.Accept(ctx, ProposalActionInput{
		ProposalID: proposal.ID,
		Principal:  f.owner,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusAccepted, result.Proposal.Status)

	contract := result.Contract
	require.NotNil(t, contract)
	assert.Equal(t, model.ContractStatusPendingSignatures, contract.Status)
	assert.Equal(t, 95_000_000.0, contract.TotalAmount)
	assert.Equal(t, 28, contract.DurationDays)
	assert.Equal(t, f.owner.UserID, contract.HomeownerID)
	assert.Equal(t, f.contractor.UserID, contract.ContractorID)
	require.Len(t, contract.Items, 2)
	assert.Equal(t, "Concrete and rebar", contract.Items[1].Name)

	quote, err := f.quotes.Get(ctx, f.quote.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusClosed, quote.Status)
}

func TestProposalSubmitRequiresSentQuote(t *testing.T) {
	store := newMemStore()
	quotes := NewQuoteService(store, nopNotifier{})
	proposals := NewProposalService(store, nopNotifier{}, 10)
	owner := homeowner()
	invited := contractor()
	quote := createDraftQuote(t, quotes, owner)

	_, err := quotes.Invite(context.Background(), InviteInput{
		QuoteID:      quote.ID,
		ContractorID: invited.UserID,
		Principal:    owner,
	})
	require.NoError(t, err)

	_, err = proposals.Submit(context.Background(), SubmitProposalInput{
		QuoteID:      quote.ID,
		TotalAmount:  1_000_000,
		DurationDays: 10,
		Items:        []ProposalItemInput{{Name: "Work", Amount: 1_000_000}},
		Principal:    invited,
	})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestProposalSubmitRequiresInvitation(t *testing.T) {
	f := newProposalFixture(t)

	_, err := f.proposals.Submit(context.Background(), SubmitProposalInput{
		QuoteID:      f.quote.ID,
		TotalAmount:  1_000_000,
		DurationDays: 10,
		Items:        []ProposalItemInput{{Name: "Work", Amount: 1_000_000}},
		Principal:    contractor(),
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestProposalSecondActiveSubmissionConflicts(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	first := f.submit(t, 100_000_000, 30)

	_, err := f.proposals.Submit(ctx, SubmitProposalInput{
		QuoteID:      f.quote.ID,
		TotalAmount:  90_000_000,
		DurationDays: 25,
		Items:        []ProposalItemInput{{Name: "Work", Amount: 90_000_000}},
		Principal:    f.contractor,
	})
	assert.ErrorIs(t, err, ErrConflict)

	// A rejected proposal frees the slot for a fresh submission.
	_, err = f.proposals.Reject(ctx, ProposalActionInput{ProposalID: first.ID, Principal: f.owner})
	require.NoError(t, err)
	_ = f.submit(t, 90_000_000, 25)
}

func TestProposalRevisionLimit(t *testing.T) {
	f := newProposalFixture(t)
	f.proposals = NewProposalService(f.store, nopNotifier{}, 1)
	ctx := context.Background()

	proposal := f.submit(t, 100_000_000, 30)

	_, err := f.proposals.RequestRevision(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	require.NoError(t, err)
	_, err = f.proposals.Resubmit(ctx, ResubmitProposalInput{
		ProposalID:   proposal.ID,
		TotalAmount:  99_000_000,
		DurationDays: 30,
		Items:        []ProposalItemInput{{Name: "Work", Amount: 99_000_000}},
		Principal:    f.contractor,
	})
	require.NoError(t, err)

	_, err = f.proposals.RequestRevision(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProposalResubmitGuards(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	proposal := f.submit(t, 100_000_000, 30)

	input := ResubmitProposalInput{
		ProposalID:   proposal.ID,
		TotalAmount:  95_000_000,
		DurationDays: 28,
		Items:        []ProposalItemInput{{Name: "Work", Amount: 95_000_000}},
		Principal:    f.contractor,
	}

	// No revision was requested yet.
	_, err := f.proposals.Resubmit(ctx, input)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.proposals.RequestRevision(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	require.NoError(t, err)

	stranger := input
	stranger.Principal = contractor()
	_, err = f.proposals.Resubmit(ctx, stranger)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.proposals.Resubmit(ctx, input)
	assert.NoError(t, err)
}

func TestProposalAcceptAuthorization(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	proposal := f.submit(t, 100_000_000, 30)

	_, err := f.proposals.Accept(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: homeowner()})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.proposals.Accept(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.contractor})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestProposalAcceptTerminalFails(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	proposal := f.submit(t, 100_000_000, 30)

	_, err := f.proposals.Reject(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	require.NoError(t, err)

	_, err = f.proposals.Accept(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProposalAcceptRollsBackOnFailure(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	proposal := f.submit(t, 100_000_000, 30)

	store := f.store
	store.failContractCreate = errors.New("insert contracts: connection reset")

	_, err := f.proposals.Accept(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	assert.ErrorIs(t, err, ErrTransactionFailed)

	// Nothing from the failed unit is visible.
	unchanged, err := f.proposals.Get(ctx, proposal.ID, f.contractor)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusSubmitted, unchanged.Status)
	quote, err := f.quotes.Get(ctx, f.quote.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusSent, quote.Status)
	assert.Empty(t, store.contracts)

	// The same acceptance succeeds once the fault clears.
	store.failContractCreate = nil
	result, err := f.proposals.Accept(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	require.NoError(t, err)
	assert.NotNil(t, result.Contract)
}

func TestProposalRejectByAuthorWithdraws(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	proposal := f.submit(t, 100_000_000, 30)

	withdrawn, err := f.proposals.Reject(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.contractor})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusRejected, withdrawn.Status)

	_, err = f.proposals.Reject(ctx, ProposalActionInput{ProposalID: proposal.ID, Principal: f.owner})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
