package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procurehq/procureflow/internal/application/service"
	"github.com/procurehq/procureflow/internal/domain/approval"
	"github.com/procurehq/procureflow/internal/domain/entity"
)

// stubRequestService returns canned aggregates; calls record what the handler
// passed down.
type stubRequestService struct {
	req  *entity.PurchaseRequest
	list []*entity.PurchaseRequest
	err  error

	lastActor entity.Actor
	lastScope service.ListScope
}

func (s *stubRequestService) Create(_ context.Context, actor entity.Actor, _ service.CreateRequestInput) (*entity.PurchaseRequest, error) {
	s.lastActor = actor
	return s.req, s.err
}

func (s *stubRequestService) Edit(_ context.Context, actor entity.Actor, _ int64, _ service.EditRequestInput) (*entity.PurchaseRequest, error) {
	s.lastActor = actor
	return s.req, s.err
}

func (s *stubRequestService) Delete(_ context.Context, actor entity.Actor, _ int64) error {
	s.lastActor = actor
	return s.err
}

func (s *stubRequestService) Get(_ context.Context, actor entity.Actor, _ int64) (*entity.PurchaseRequest, error) {
	s.lastActor = actor
	return s.req, s.err
}

func (s *stubRequestService) List(_ context.Context, actor entity.Actor, scope service.ListScope) ([]*entity.PurchaseRequest, error) {
	s.lastActor = actor
	s.lastScope = scope
	return s.list, s.err
}

type stubDecisionService struct {
	req *entity.PurchaseRequest
	err error

	lastDecision entity.Decision
	lastComments string
}

func (s *stubDecisionService) Decide(_ context.Context, _ entity.Actor, _ int64, decision entity.Decision, comments string) (*entity.PurchaseRequest, error) {
	s.lastDecision = decision
	s.lastComments = comments
	return s.req, s.err
}

type stubFinanceService struct {
	req *entity.PurchaseRequest
	err error

	lastSlot    entity.DocumentSlot
	lastFileRef string
	lastNote    string
}

func (s *stubFinanceService) AddNote(_ context.Context, _ entity.Actor, _ int64, text string) (*entity.PurchaseRequest, error) {
	s.lastNote = text
	return s.req, s.err
}

func (s *stubFinanceService) AttachDocument(_ context.Context, _ entity.Actor, _ int64, slot entity.DocumentSlot, fileRef string) (*entity.PurchaseRequest, error) {
	s.lastSlot = slot
	s.lastFileRef = fileRef
	return s.req, s.err
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type handlerFixture struct {
	server   *Server
	requests *stubRequestService
	decide   *stubDecisionService
	finance  *stubFinanceService
}

func newHandlerFixture() *handlerFixture {
	requests := &stubRequestService{}
	decide := &stubDecisionService{}
	finance := &stubFinanceService{}

	server := NewServer(
		ServerConfig{JWTSecret: testSecret},
		requests, decide, finance,
		zap.NewNop(), nopLogger{},
	)
	return &handlerFixture{server: server, requests: requests, decide: decide, finance: finance}
}

func (f *handlerFixture) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u-1", "Ada", role))
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func TestHandlers_HealthCheck(t *testing.T) {
	f := newHandlerFixture()

	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHandlers_CreateRequest(t *testing.T) {
	f := newHandlerFixture()
	f.requests.req = &entity.PurchaseRequest{ID: 7, Title: "Monitors", Status: entity.StatusPending}

	w := f.do(t, http.MethodPost, "/api/requests", "staff", service.CreateRequestInput{
		Title:       "Monitors",
		Description: "Two 27 inch monitors",
		Items:       []service.ItemInput{{ItemName: "Monitor", Qty: 2}},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-1", f.requests.lastActor.ID)
	assert.Equal(t, entity.RoleStaff, f.requests.lastActor.Role)
}

func TestHandlers_CreateRequestRejectsMalformedBody(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/requests", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u-1", "Ada", "staff"))
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_ListRequestsScope(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodGet, "/api/requests?scope=all", "finance", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ScopeAll, f.requests.lastScope)
	// empty result renders as a JSON array, not null
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestHandlers_GetRequestErrorMapping(t *testing.T) {
	f := newHandlerFixture()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: request 9", approval.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: not the creator", approval.ErrUnauthorized), http.StatusForbidden},
	}
	for _, tt := range tests {
		f.requests.err = tt.err
		w := f.do(t, http.MethodGet, "/api/requests/9", "staff", nil)
		assert.Equal(t, tt.want, w.Code, "error %v", tt.err)
	}
}

func TestHandlers_GetRequestBadID(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodGet, "/api/requests/abc", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_Decide(t *testing.T) {
	f := newHandlerFixture()
	f.decide.req = &entity.PurchaseRequest{ID: 3, Status: entity.StatusRejected}

	w := f.do(t, http.MethodPost, "/api/requests/3/decision", "approver", DecisionRequest{
		Decision: "REJECTED",
		Comments: "no budget this quarter",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.DecisionRejected, f.decide.lastDecision)
	assert.Equal(t, "no budget this quarter", f.decide.lastComments)
}

func TestHandlers_DecideConflict(t *testing.T) {
	f := newHandlerFixture()
	f.decide.err = fmt.Errorf("%w: level 2 already decided", approval.ErrConflict)

	w := f.do(t, http.MethodPost, "/api/requests/3/decision", "approver", DecisionRequest{Decision: "APPROVED"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlers_AddNote(t *testing.T) {
	f := newHandlerFixture()
	f.finance.req = &entity.PurchaseRequest{ID: 5, Status: entity.StatusApproved}

	w := f.do(t, http.MethodPost, "/api/requests/5/notes", "finance", NoteRequest{Note: "wired 2425.00"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "wired 2425.00", f.finance.lastNote)
}

func TestHandlers_AttachDocument(t *testing.T) {
	f := newHandlerFixture()
	f.finance.req = &entity.PurchaseRequest{ID: 5, Status: entity.StatusApproved}

	w := f.do(t, http.MethodPut, "/api/requests/5/documents/purchase_order", "finance", AttachmentRequest{
		FileRef: "po/2026-0147.pdf",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.SlotPurchaseOrder, f.finance.lastSlot)
	assert.Equal(t, "po/2026-0147.pdf", f.finance.lastFileRef)
}

func TestHandlers_RequireAuth(t *testing.T) {
	f := newHandlerFixture()

	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/requests", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
