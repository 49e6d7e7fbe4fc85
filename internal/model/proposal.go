package model

import (
	"time"

	"github.com/google/uuid"
)

type ProposalStatus string

const (
	ProposalStatusSubmitted         ProposalStatus = "SUBMITTED"
	ProposalStatusRevisionRequested ProposalStatus = "REVISION_REQUESTED"
	ProposalStatusResubmitted       ProposalStatus = "RESUBMITTED"
	ProposalStatusAccepted          ProposalStatus = "ACCEPTED"
	ProposalStatusRejected          ProposalStatus = "REJECTED"
)

// Proposal is a contractor's priced response to a QuoteRequest. At most one
// non-rejected proposal exists per (quote request, contractor) pair.
type Proposal struct {
	ID             uuid.UUID
	QuoteRequestID uuid.UUID
	ContractorID   uuid.UUID
	TotalAmount    float64
	DurationDays   int
	Status         ProposalStatus
	RevisionCount  int
	SourceArtifact *string
	Items          []ProposalItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ProposalItem struct {
	ID         uuid.UUID
	ProposalID uuid.UUID
	Position   int
	Name       string
	Amount     float64
	Notes      string
}

func (s ProposalStatus) Terminal() bool {
	return s == ProposalStatusAccepted || s == ProposalStatusRejected
}

// Acceptable reports whether the proposal may be accepted or sent back for
// revision from this status.
func (s ProposalStatus) Acceptable() bool {
	return s == ProposalStatusSubmitted || s == ProposalStatusResubmitted
}
