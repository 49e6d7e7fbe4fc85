package model

import (
	"time"

	"github.com/google/uuid"
)

type MaterialRequestStatus string

const (
	MaterialRequestStatusPending           MaterialRequestStatus = "PENDING"
	MaterialRequestStatusPartiallyApproved MaterialRequestStatus = "PARTIALLY_APPROVED"
	MaterialRequestStatusApproved          MaterialRequestStatus = "APPROVED"
	MaterialRequestStatusRejected          MaterialRequestStatus = "REJECTED"
)

// MaterialRequest is a contractor's material list awaiting independent
// homeowner and supervisor sign-off. The status is fully derived from the two
// approval flags until a rejection makes it terminal.
type MaterialRequest struct {
	ID                   uuid.UUID
	ProjectID            uuid.UUID
	ContractorID         uuid.UUID
	Status               MaterialRequestStatus
	HomeownerApproved    bool
	HomeownerApprovedBy  *uuid.UUID
	HomeownerApprovedAt  *time.Time
	SupervisorApproved   bool
	SupervisorApprovedBy *uuid.UUID
	SupervisorApprovedAt *time.Time
	RejectionReason      *string
	RejectedBy           *uuid.UUID
	RejectedAt           *time.Time
	Materials            []Material
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Material struct {
	ID                uuid.UUID
	MaterialRequestID uuid.UUID
	Position          int
	Code              string
	Name              string
	Unit              string
	UnitPrice         float64
	ContractQuantity  float64
	ActualQuantity    *float64
	VariancePercent   *float64
}

// MaterialRow is one parsed spreadsheet row handed over by the import
// collaborator. The engine trusts it as-is.
type MaterialRow struct {
	Code             string
	Name             string
	Unit             string
	UnitPrice        float64
	ContractQuantity float64
}

func (s MaterialRequestStatus) Terminal() bool {
	return s == MaterialRequestStatusApproved || s == MaterialRequestStatusRejected
}

// Mutable reports whether the material list may still be replaced or cleared.
// Rejected requests stay mutable so the contractor can correct and reimport.
func (s MaterialRequestStatus) Mutable() bool {
	return s == MaterialRequestStatusPending || s == MaterialRequestStatusRejected
}

// DeriveStatus computes the request status from the two approval flags,
// independent of the order in which they were set.
func DeriveStatus(homeownerApproved, supervisorApproved bool) MaterialRequestStatus {
	switch {
	case homeownerApproved && supervisorApproved:
		return MaterialRequestStatusApproved
	case homeownerApproved || supervisorApproved:
		return MaterialRequestStatusPartiallyApproved
	default:
		return MaterialRequestStatusPending
	}
}

// VariancePercent returns (actual − contract) / contract × 100. Positive means
// the actual quantity exceeded the contracted one. A zero contract quantity
// makes the variance undefined and yields nil.
func VariancePercent(contractQty float64, actualQty *float64) *float64 {
	if actualQty == nil || contractQty == 0 {
		return nil
	}
	v := (*actualQty - contractQty) / contractQty * 100
	return &v
}
