package service

import "github.com/qurylys/procurement/internal/model"

// Transition names every externally triggerable state change. Role checks are
// centralized here; ownership of the concrete entity is verified separately by
// each service once the row is loaded.
type Transition string

const (
	TransitionQuoteCreate Transition = "quote.create"
	TransitionQuoteInvite Transition = "quote.invite"
	TransitionQuoteSend   Transition = "quote.send"
	TransitionQuoteCancel Transition = "quote.cancel"

	TransitionProposalSubmit          Transition = "proposal.submit"
	TransitionProposalRequestRevision Transition = "proposal.request_revision"
	TransitionProposalResubmit        Transition = "proposal.resubmit"
	TransitionProposalAccept          Transition = "proposal.accept"
	TransitionProposalReject          Transition = "proposal.reject"

	TransitionContractSign         Transition = "contract.sign"
	TransitionContractUpdateStatus Transition = "contract.update_status"

	TransitionSupervisorContractCreate Transition = "supervisor_contract.create"
	TransitionSupervisorContractSign   Transition = "supervisor_contract.sign"

	TransitionMaterialCreate       Transition = "material_request.create"
	TransitionMaterialImport       Transition = "material_request.import"
	TransitionMaterialClear        Transition = "material_request.clear"
	TransitionMaterialApprove      Transition = "material_request.approve"
	TransitionMaterialReject       Transition = "material_request.reject"
	TransitionMaterialRecordActual Transition = "material_request.record_actual"
)

var capabilities = map[Transition][]model.Role{
	TransitionQuoteCreate: {model.RoleHomeowner},
	TransitionQuoteInvite: {model.RoleHomeowner},
	TransitionQuoteSend:   {model.RoleHomeowner},
	TransitionQuoteCancel: {model.RoleHomeowner},

	TransitionProposalSubmit:          {model.RoleContractor},
	TransitionProposalRequestRevision: {model.RoleHomeowner},
	TransitionProposalResubmit:        {model.RoleContractor},
	TransitionProposalAccept:          {model.RoleHomeowner},
	TransitionProposalReject:          {model.RoleHomeowner, model.RoleContractor},

	TransitionContractSign:         {model.RoleHomeowner, model.RoleContractor},
	TransitionContractUpdateStatus: {model.RoleAdmin},

	TransitionSupervisorContractCreate: {model.RoleSupervisor},
	TransitionSupervisorContractSign:   {model.RoleSupervisor, model.RoleHomeowner},

	TransitionMaterialCreate:       {model.RoleContractor},
	TransitionMaterialImport:       {model.RoleContractor},
	TransitionMaterialClear:        {model.RoleContractor},
	TransitionMaterialApprove:      {model.RoleHomeowner, model.RoleSupervisor},
	TransitionMaterialReject:       {model.RoleHomeowner, model.RoleSupervisor},
	TransitionMaterialRecordActual: {model.RoleContractor, model.RoleSupervisor},
}

// Allowed reports whether the principal's role may trigger the transition.
func Allowed(p model.Principal, t Transition) bool {
	for _, role := range capabilities[t] {
		if p.Role == role {
			return true
		}
	}
	return false
}
