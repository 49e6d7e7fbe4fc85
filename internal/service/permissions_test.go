package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qurylys/procurement/internal/model"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		transition Transition
		role       model.Role
		want       bool
	}{
		{TransitionQuoteCreate, model.RoleHomeowner, true},
		{TransitionQuoteCreate, model.RoleContractor, false},
		{TransitionProposalSubmit, model.RoleContractor, true},
		{TransitionProposalSubmit, model.RoleHomeowner, false},
		{TransitionProposalReject, model.RoleContractor, true},
		{TransitionProposalReject, model.RoleHomeowner, true},
		{TransitionProposalReject, model.RoleSupervisor, false},
		{TransitionContractUpdateStatus, model.RoleAdmin, true},
		{TransitionContractUpdateStatus, model.RoleHomeowner, false},
		{TransitionMaterialApprove, model.RoleSupervisor, true},
		{TransitionMaterialApprove, model.RoleContractor, false},
		{TransitionMaterialRecordActual, model.RoleContractor, true},
		{TransitionMaterialRecordActual, model.RoleHomeowner, false},
	}
	for _, tc := range cases {
		p := model.Principal{Role: tc.role}
		assert.Equal(t, tc.want, Allowed(p, tc.transition),
			"%s / %s", tc.transition, tc.role)
	}
}
