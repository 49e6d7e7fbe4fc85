package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusPendingSignatures ContractStatus = "PENDING_SIGNATURES"
	ContractStatusActive            ContractStatus = "ACTIVE"
	ContractStatusCompleted         ContractStatus = "COMPLETED"
	ContractStatusCancelled         ContractStatus = "CANCELLED"
)

type SignatureParty string

const (
	PartyHomeowner  SignatureParty = "HOMEOWNER"
	PartyContractor SignatureParty = "CONTRACTOR"
	PartySupervisor SignatureParty = "SUPERVISOR"
)

// Contract is the binding agreement derived from an accepted Proposal. Its
// terms are a snapshot of the proposal at acceptance time and never change
// afterwards, whatever happens to the proposal row.
type Contract struct {
	ID                 uuid.UUID
	ProposalID         uuid.UUID
	QuoteRequestID     uuid.UUID
	HomeownerID        uuid.UUID
	ContractorID       uuid.UUID
	TotalAmount        float64
	DurationDays       int
	Status             ContractStatus
	HomeownerSignedAt  *time.Time
	ContractorSignedAt *time.Time
	Items              []ContractItem
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ContractItem struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	Position   int
	Name       string
	Amount     float64
	Notes      string
}

// SupervisorContract mirrors Contract but binds a supervisor's registration
// fee for a project instead of an accepted proposal.
type SupervisorContract struct {
	ID                 uuid.UUID
	SupervisorID       uuid.UUID
	ProjectID          uuid.UUID
	RegistrationFee    float64
	Status             ContractStatus
	SupervisorSignedAt *time.Time
	HomeownerSignedAt  *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// contractTransitions lists the reachable administrative status moves.
// Signing, not an administrative update, is the only way to reach ACTIVE.
var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusPendingSignatures: {ContractStatusCancelled},
	ContractStatusActive:            {ContractStatusCompleted, ContractStatusCancelled},
}

func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	for _, allowed := range contractTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ContractStatus) Terminal() bool {
	return s == ContractStatusCompleted || s == ContractStatusCancelled
}

func (c *Contract) FullySigned() bool {
	return c.HomeownerSignedAt != nil && c.ContractorSignedAt != nil
}

// ContractFromProposal freezes an accepted proposal into a contract. Items are
// deep-copied so later mutation of the proposal cannot reach the contract.
func ContractFromProposal(p *Proposal, homeownerID uuid.UUID) *Contract {
	items := make([]ContractItem, len(p.Items))
	for i, item := range p.Items {
		items[i] = ContractItem{
			Position: item.Position,
			Name:     item.Name,
			Amount:   item.Amount,
			Notes:    item.Notes,
		}
	}
	return &Contract{
		ProposalID:     p.ID,
		QuoteRequestID: p.QuoteRequestID,
		HomeownerID:    homeownerID,
		ContractorID:   p.ContractorID,
		TotalAmount:    p.TotalAmount,
		DurationDays:   p.DurationDays,
		Status:         ContractStatusPendingSignatures,
		Items:          items,
	}
}
