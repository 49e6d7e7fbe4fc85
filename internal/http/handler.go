package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/qurylys/procurement/internal/http/middleware"
	"github.com/qurylys/procurement/internal/model"
	"github.com/qurylys/procurement/internal/service"
)

type Handler struct {
	quotes    *service.QuoteService
	proposals *service.ProposalService
	contracts *service.ContractService
	escrow    *service.EscrowService
	materials *service.MaterialService
	log       zerolog.Logger
}

func NewHandler(
	quotes *service.QuoteService,
	proposals *service.ProposalService,
	contracts *service.ContractService,
	escrow *service.EscrowService,
	materials *service.MaterialService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		quotes:    quotes,
		proposals: proposals,
		contracts: contracts,
		escrow:    escrow,
		materials: materials,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	// The payment gateway authenticates out of band, not with user tokens.
	router.POST("/payments/webhook", h.paymentWebhook)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/quotes", h.createQuote)
	protected.GET("/quotes/:id", h.getQuote)
	protected.POST("/quotes/:id/invitees", h.inviteContractor)
	protected.POST("/quotes/:id/send", h.sendQuote)
	protected.POST("/quotes/:id/cancel", h.cancelQuote)
	protected.POST("/quotes/:id/proposals", h.submitProposal)

	protected.GET("/proposals/:id", h.getProposal)
	protected.POST("/proposals/:id/revision-requests", h.requestRevision)
	protected.POST("/proposals/:id/resubmit", h.resubmitProposal)
	protected.POST("/proposals/:id/accept", h.acceptProposal)
	protected.POST("/proposals/:id/reject", h.rejectProposal)

	protected.GET("/contracts/:id", h.getContract)
	protected.POST("/contracts/:id/signatures", h.signContract)
	protected.PATCH("/contracts/:id/status", h.updateContractStatus)
	protected.GET("/contracts/:id/document", h.contractDocument)
	protected.GET("/contracts/:id/escrow", h.escrowBalance)
	protected.GET("/contracts/:id/escrow/payments", h.escrowPayments)

	protected.POST("/supervisor-contracts", h.createSupervisorContract)
	protected.POST("/supervisor-contracts/:id/signatures", h.signSupervisorContract)

	protected.POST("/material-requests", h.createMaterialRequest)
	protected.GET("/material-requests/:id", h.getMaterialRequest)
	protected.PUT("/material-requests/:id/materials", h.importMaterials)
	protected.DELETE("/material-requests/:id/materials", h.clearMaterials)
	protected.POST("/material-requests/:id/approvals", h.approveMaterialRequest)
	protected.POST("/material-requests/:id/rejections", h.rejectMaterialRequest)
	protected.GET("/material-requests/:id/variance-report", h.varianceReport)
	protected.POST("/materials/:id/actual", h.recordActualQuantity)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPreconditionFailed):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTransactionFailed):
		h.log.Error().Err(err).Msg("transaction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction failed"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func principalOrAbort(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return principal, ok
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

type createQuoteRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Scope     string `json:"scope"`
}

func (h *Handler) createQuote(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	quote, err := h.quotes.Create(c.Request.Context(), service.CreateQuoteInput{
		ProjectID: projectID,
		Scope:     req.Scope,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quoteResponseFrom(quote))
}

func (h *Handler) getQuote(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponseFrom(quote))
}

type inviteRequest struct {
	ContractorID string `json:"contractor_id" binding:"required"`
}

func (h *Handler) inviteContractor(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractorID, err := uuid.Parse(strings.TrimSpace(req.ContractorID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contractor_id"})
		return
	}

	quote, err := h.quotes.Invite(c.Request.Context(), service.InviteInput{
		QuoteID:      id,
		ContractorID: contractorID,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponseFrom(quote))
}

func (h *Handler) sendQuote(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Send(c.Request.Context(), service.SendQuoteInput{
		QuoteID:   id,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponseFrom(quote))
}

func (h *Handler) cancelQuote(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Cancel(c.Request.Context(), service.SendQuoteInput{
		QuoteID:   id,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponseFrom(quote))
}

type proposalItemRequest struct {
	Name   string  `json:"name" binding:"required"`
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
}

type submitProposalRequest struct {
	Items          []proposalItemRequest `json:"items" binding:"required"`
	TotalAmount    float64               `json:"total_amount" binding:"required"`
	DurationDays   int                   `json:"duration_days" binding:"required"`
	SourceArtifact *string               `json:"source_artifact"`
}

func (h *Handler) submitProposal(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req submitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposals.Submit(c.Request.Context(), service.SubmitProposalInput{
		QuoteID:        id,
		Items:          itemInputs(req.Items),
		TotalAmount:    req.TotalAmount,
		DurationDays:   req.DurationDays,
		SourceArtifact: req.SourceArtifact,
		Principal:      principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposalResponseFrom(proposal))
}

func (h *Handler) getProposal(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	proposal, err := h.proposals.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponseFrom(proposal))
}

func (h *Handler) requestRevision(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	proposal, err := h.proposals.RequestRevision(c.Request.Context(), service.ProposalActionInput{
		ProposalID: id,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponseFrom(proposal))
}

type resubmitProposalRequest struct {
	Items        []proposalItemRequest `json:"items" binding:"required"`
	TotalAmount  float64               `json:"total_amount" binding:"required"`
	DurationDays int                   `json:"duration_days" binding:"required"`
}

func (h *Handler) resubmitProposal(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req resubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposals.Resubmit(c.Request.Context(), service.ResubmitProposalInput{
		ProposalID:   id,
		Items:        itemInputs(req.Items),
		TotalAmount:  req.TotalAmount,
		DurationDays: req.DurationDays,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponseFrom(proposal))
}

func (h *Handler) acceptProposal(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.proposals.Accept(c.Request.Context(), service.ProposalActionInput{
		ProposalID: id,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"proposal": proposalResponseFrom(result.Proposal),
		"contract": contractResponseFrom(result.Contract),
	})
}

func (h *Handler) rejectProposal(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	proposal, err := h.proposals.Reject(c.Request.Context(), service.ProposalActionInput{
		ProposalID: id,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResponseFrom(proposal))
}

func itemInputs(items []proposalItemRequest) []service.ProposalItemInput {
	out := make([]service.ProposalItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, service.ProposalItemInput{
			Name:   item.Name,
			Amount: item.Amount,
			Notes:  item.Notes,
		})
	}
	return out
}
