package http

import (
	"time"

	"github.com/qurylys/procurement/internal/model"
)

type quoteResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	HomeownerID string    `json:"homeowner_id"`
	Scope       string    `json:"scope"`
	Status      string    `json:"status"`
	Invitees    []string  `json:"invitees"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func quoteResponseFrom(q *model.QuoteRequest) quoteResponse {
	invitees := make([]string, 0, len(q.Invitees))
	for _, id := range q.Invitees {
		invitees = append(invitees, id.String())
	}
	return quoteResponse{
		ID:          q.ID.String(),
		ProjectID:   q.ProjectID.String(),
		HomeownerID: q.HomeownerID.String(),
		Scope:       q.Scope,
		Status:      string(q.Status),
		Invitees:    invitees,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

type lineItemResponse struct {
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes,omitempty"`
}

type proposalResponse struct {
	ID             string             `json:"id"`
	QuoteRequestID string             `json:"quote_request_id"`
	ContractorID   string             `json:"contractor_id"`
	TotalAmount    float64            `json:"total_amount"`
	DurationDays   int                `json:"duration_days"`
	Status         string             `json:"status"`
	RevisionCount  int                `json:"revision_count"`
	SourceArtifact *string            `json:"source_artifact,omitempty"`
	Items          []lineItemResponse `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func proposalResponseFrom(p *model.Proposal) proposalResponse {
	items := make([]lineItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, lineItemResponse{
			Position: item.Position,
			Name:     item.Name,
			Amount:   item.Amount,
			Notes:    item.Notes,
		})
	}
	return proposalResponse{
		ID:             p.ID.String(),
		QuoteRequestID: p.QuoteRequestID.String(),
		ContractorID:   p.ContractorID.String(),
		TotalAmount:    p.TotalAmount,
		DurationDays:   p.DurationDays,
		Status:         string(p.Status),
		RevisionCount:  p.RevisionCount,
		SourceArtifact: p.SourceArtifact,
		Items:          items,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type contractResponse struct {
	ID                 string             `json:"id"`
	ProposalID         string             `json:"proposal_id"`
	QuoteRequestID     string             `json:"quote_request_id"`
	HomeownerID        string             `json:"homeowner_id"`
	ContractorID       string             `json:"contractor_id"`
	TotalAmount        float64            `json:"total_amount"`
	DurationDays       int                `json:"duration_days"`
	Status             string             `json:"status"`
	HomeownerSignedAt  *time.Time         `json:"homeowner_signed_at,omitempty"`
	ContractorSignedAt *time.Time         `json:"contractor_signed_at,omitempty"`
	Items              []lineItemResponse `json:"items"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func contractResponseFrom(c *model.Contract) contractResponse {
	items := make([]lineItemResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, lineItemResponse{
			Position: item.Position,
			Name:     item.Name,
			Amount:   item.Amount,
			Notes:    item.Notes,
		})
	}
	return contractResponse{
		ID:                 c.ID.String(),
		ProposalID:         c.ProposalID.String(),
		QuoteRequestID:     c.QuoteRequestID.String(),
		HomeownerID:        c.HomeownerID.String(),
		ContractorID:       c.ContractorID.String(),
		TotalAmount:        c.TotalAmount,
		DurationDays:       c.DurationDays,
		Status:             string(c.Status),
		HomeownerSignedAt:  c.HomeownerSignedAt,
		ContractorSignedAt: c.ContractorSignedAt,
		Items:              items,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

type supervisorContractResponse struct {
	ID                 string     `json:"id"`
	SupervisorID       string     `json:"supervisor_id"`
	ProjectID          string     `json:"project_id"`
	RegistrationFee    float64    `json:"registration_fee"`
	Status             string     `json:"status"`
	SupervisorSignedAt *time.Time `json:"supervisor_signed_at,omitempty"`
	HomeownerSignedAt  *time.Time `json:"homeowner_signed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func supervisorContractResponseFrom(sc *model.SupervisorContract) supervisorContractResponse {
	return supervisorContractResponse{
		ID:                 sc.ID.String(),
		SupervisorID:       sc.SupervisorID.String(),
		ProjectID:          sc.ProjectID.String(),
		RegistrationFee:    sc.RegistrationFee,
		Status:             string(sc.Status),
		SupervisorSignedAt: sc.SupervisorSignedAt,
		HomeownerSignedAt:  sc.HomeownerSignedAt,
		CreatedAt:          sc.CreatedAt,
		UpdatedAt:          sc.UpdatedAt,
	}
}

type materialResponse struct {
	ID               string   `json:"id"`
	Position         int      `json:"position"`
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Unit             string   `json:"unit"`
	UnitPrice        float64  `json:"unit_price"`
	ContractQuantity float64  `json:"contract_quantity"`
	ActualQuantity   *float64 `json:"actual_quantity"`
	VariancePercent  *float64 `json:"variance_percent"`
}

func materialResponseFrom(m *model.Material) materialResponse {
	return materialResponse{
		ID:               m.ID.String(),
		Position:         m.Position,
		Code:             m.Code,
		Name:             m.Name,
		Unit:             m.Unit,
		UnitPrice:        m.UnitPrice,
		ContractQuantity: m.ContractQuantity,
		ActualQuantity:   m.ActualQuantity,
		VariancePercent:  m.VariancePercent,
	}
}

type materialRequestResponse struct {
	ID                   string             `json:"id"`
	ProjectID            string             `json:"project_id"`
	ContractorID         string             `json:"contractor_id"`
	Status               string             `json:"status"`
	HomeownerApproved    bool               `json:"homeowner_approved"`
	HomeownerApprovedAt  *time.Time         `json:"homeowner_approved_at,omitempty"`
	SupervisorApproved   bool               `json:"supervisor_approved"`
	SupervisorApprovedAt *time.Time         `json:"supervisor_approved_at,omitempty"`
	RejectionReason      *string            `json:"rejection_reason,omitempty"`
	Materials            []materialResponse `json:"materials"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func materialRequestResponseFrom(r *model.MaterialRequest) materialRequestResponse {
	materials := make([]materialResponse, 0, len(r.Materials))
	for i := range r.Materials {
		materials = append(materials, materialResponseFrom(&r.Materials[i]))
	}
	return materialRequestResponse{
		ID:                   r.ID.String(),
		ProjectID:            r.ProjectID.String(),
		ContractorID:         r.ContractorID.String(),
		Status:               string(r.Status),
		HomeownerApproved:    r.HomeownerApproved,
		HomeownerApprovedAt:  r.HomeownerApprovedAt,
		SupervisorApproved:   r.SupervisorApproved,
		SupervisorApprovedAt: r.SupervisorApprovedAt,
		RejectionReason:      r.RejectionReason,
		Materials:            materials,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}
