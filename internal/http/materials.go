package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qurylys/procurement/internal/model"
	"github.com/qurylys/procurement/internal/service"
)

type createMaterialRequestRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
}

func (h *Handler) createMaterialRequest(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createMaterialRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	request, err := h.materials.Create(c.Request.Context(), service.CreateMaterialRequestInput{
		ProjectID: projectID,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, materialRequestResponseFrom(request))
}

func (h *Handler) getMaterialRequest(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	request, err := h.materials.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialRequestResponseFrom(request))
}

type materialRowRequest struct {
	Code             string  `json:"code"`
	Name             string  `json:"name" binding:"required"`
	Unit             string  `json:"unit"`
	UnitPrice        float64 `json:"unit_price"`
	ContractQuantity float64 `json:"contract_quantity"`
}

type importMaterialsRequest struct {
	Rows []materialRowRequest `json:"rows" binding:"required"`
}

func (h *Handler) importMaterials(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req importMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := make([]model.MaterialRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, model.MaterialRow{
			Code:             row.Code,
			Name:             row.Name,
			Unit:             row.Unit,
			UnitPrice:        row.UnitPrice,
			ContractQuantity: row.ContractQuantity,
		})
	}

	request, err := h.materials.Import(c.Request.Context(), service.ImportMaterialsInput{
		RequestID: id,
		Rows:      rows,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialRequestResponseFrom(request))
}

func (h *Handler) clearMaterials(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	request, err := h.materials.Clear(c.Request.Context(), service.MaterialRequestActionInput{
		RequestID: id,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialRequestResponseFrom(request))
}

func (h *Handler) approveMaterialRequest(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	request, err := h.materials.Approve(c.Request.Context(), service.MaterialRequestActionInput{
		RequestID: id,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialRequestResponseFrom(request))
}

type rejectMaterialRequestRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) rejectMaterialRequest(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req rejectMaterialRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.materials.Reject(c.Request.Context(), service.RejectMaterialRequestInput{
		RequestID: id,
		Reason:    req.Reason,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialRequestResponseFrom(request))
}

type recordActualRequest struct {
	Quantity float64 `json:"quantity"`
}

func (h *Handler) recordActualQuantity(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req recordActualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	material, err := h.materials.RecordActual(c.Request.Context(), service.RecordActualInput{
		MaterialID: id,
		Quantity:   req.Quantity,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialResponseFrom(material))
}

func (h *Handler) varianceReport(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.materials.VarianceReport(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}
