package model

import (
	"time"

	"github.com/google/uuid"
)

type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "DRAFT"
	QuoteStatusSent      QuoteStatus = "SENT"
	QuoteStatusClosed    QuoteStatus = "CLOSED"
	QuoteStatusCancelled QuoteStatus = "CANCELLED"
)

// QuoteRequest is a homeowner's solicitation for contractor pricing on a
// project scope. The invitee set is append-only while the request is open.
type QuoteRequest struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	HomeownerID uuid.UUID
	Scope       string
	Status      QuoteStatus
	Invitees    []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q QuoteStatus) Terminal() bool {
	return q == QuoteStatusClosed || q == QuoteStatusCancelled
}

// AcceptsInvitees reports whether contractors may still be invited.
func (q QuoteStatus) AcceptsInvitees() bool {
	return q == QuoteStatusDraft || q == QuoteStatusSent
}

func (q *QuoteRequest) IsInvited(contractorID uuid.UUID) bool {
	for _, id := range q.Invitees {
		if id == contractorID {
			return true
		}
	}
	return false
}
