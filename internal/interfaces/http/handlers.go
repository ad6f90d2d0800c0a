package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/procurehq/procureflow/internal/application/service"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	requestService  service.RequestService
	decisionService service.DecisionService
	financeService  service.FinanceService
	logger          service.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	requestService service.RequestService,
	decisionService service.DecisionService,
	financeService service.FinanceService,
	logger service.Logger,
) *Handlers {
	return &Handlers{
		requestService:  requestService,
		decisionService: decisionService,
		financeService:  financeService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DecisionRequest is the body of a decision submission.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comments string `json:"comments"`
}

// NoteRequest is the body of a finance note submission.
type NoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// AttachmentRequest carries the opaque file reference for a document slot.
type AttachmentRequest struct {
	FileRef string `json:"file_ref" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.requestService.Create(c.Request.Context(), actor, input)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	scope := service.ListScope(c.Query("scope"))
	requests, err := h.requestService.List(c.Request.Context(), actor, scope)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	if requests == nil {
		requests = []*entity.PurchaseRequest{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.requestService.Get(c.Request.Context(), actor, id)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// EditRequest handles PUT /api/requests/:id
func (h *Handlers) EditRequest(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var patch service.EditRequestInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.requestService.Edit(c.Request.Context(), actor, id, patch)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// DeleteRequest handles DELETE /api/requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	if err := h.requestService.Delete(c.Request.Context(), actor, id); err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// Decide handles POST /api/requests/:id/decision
func (h *Handlers) Decide(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.decisionService.Decide(c.Request.Context(), actor, id, entity.Decision(body.Decision), body.Comments)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// AddNote handles POST /api/requests/:id/notes
func (h *Handlers) AddNote(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body NoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.financeService.AddNote(c.Request.Context(), actor, id, body.Note)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// AttachDocument handles PUT /api/requests/:id/documents/:slot
func (h *Handlers) AttachDocument(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body AttachmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	slot := entity.DocumentSlot(c.Param("slot"))
	req, err := h.financeService.AttachDocument(c.Request.Context(), actor, id, slot, body.FileRef)
	if err != nil {
		c.JSON(statusFromError(err), Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request ID"})
		return 0, false
	}
	return id, true
}
