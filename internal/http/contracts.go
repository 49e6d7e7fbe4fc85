package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qurylys/procurement/internal/model"
	"github.com/qurylys/procurement/internal/service"
)

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	contract, err := h.contracts.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractResponseFrom(contract))
}

func (h *Handler) signContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	contract, err := h.contracts.Sign(c.Request.Context(), service.SignContractInput{
		ContractID: id,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractResponseFrom(contract))
}

type updateContractStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateContractStatus(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateContractStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, valid := parseContractStatus(req.Status)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	contract, err := h.contracts.UpdateStatus(c.Request.Context(), service.UpdateContractStatusInput{
		ContractID: id,
		NewStatus:  status,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractResponseFrom(contract))
}

func (h *Handler) contractDocument(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.contracts.Document(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type createSupervisorContractRequest struct {
	ProjectID       string  `json:"project_id" binding:"required"`
	RegistrationFee float64 `json:"registration_fee" binding:"required"`
}

func (h *Handler) createSupervisorContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createSupervisorContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	sc, err := h.contracts.CreateSupervisorContract(c.Request.Context(), service.CreateSupervisorContractInput{
		ProjectID:       projectID,
		RegistrationFee: req.RegistrationFee,
		Principal:       principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supervisorContractResponseFrom(sc))
}

func (h *Handler) signSupervisorContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	sc, err := h.contracts.SignSupervisorContract(c.Request.Context(), service.SignSupervisorContractInput{
		ContractID: id,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, supervisorContractResponseFrom(sc))
}

func parseContractStatus(raw string) (model.ContractStatus, bool) {
	switch model.ContractStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case model.ContractStatusPendingSignatures:
		return model.ContractStatusPendingSignatures, true
	case model.ContractStatusActive:
		return model.ContractStatusActive, true
	case model.ContractStatusCompleted:
		return model.ContractStatusCompleted, true
	case model.ContractStatusCancelled:
		return model.ContractStatusCancelled, true
	default:
		return "", false
	}
}
