package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/homefix/service-lifecycle/internal/application"
	"github.com/homefix/service-lifecycle/internal/common/auth"
	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/common/response"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

type envelope struct {
	Success bool               `json:"success"`
	Data    json.RawMessage    `json:"data"`
	Error   *domain.Error      `json:"error"`
	Meta    *response.PageMeta `json:"meta"`
}

type call struct {
	method  string
	actor   lifecycle.Actor
	id      uuid.UUID
	version *int64
	arg     string
}

type stubUseCases struct {
	calls   []call
	err     error
	booking *application.BookingDTO
	claim   *application.ClaimDTO
}

func (s *stubUseCases) record(method string, actor lifecycle.Actor, id uuid.UUID, version *int64, arg string) {
	s.calls = append(s.calls, call{method: method, actor: actor, id: id, version: version, arg: arg})
}

func (s *stubUseCases) last(t *testing.T) call {
	t.Helper()
	require.NotEmpty(t, s.calls)
	return s.calls[len(s.calls)-1]
}

func (s *stubUseCases) bookingResult() (*application.BookingDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.booking != nil {
		return s.booking, nil
	}
	return &application.BookingDTO{ID: uuid.New(), Status: "pending", Version: 1}, nil
}

func (s *stubUseCases) claimResult() (*application.ClaimDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.claim != nil {
		return s.claim, nil
	}
	return &application.ClaimDTO{ID: uuid.New(), Status: "pending", Version: 1}, nil
}

func (s *stubUseCases) CreateBooking(_ context.Context, a lifecycle.Actor, req application.CreateBookingRequest) (*application.BookingDTO, error) {
	s.record("CreateBooking", a, req.ServiceID, nil, req.PaymentMethod)
	return s.bookingResult()
}

func (s *stubUseCases) ListBookings(_ context.Context, a lifecycle.Actor, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error) {
	s.record("ListBookings", a, uuid.Nil, nil, "")
	if s.err != nil {
		return nil, s.err
	}
	r := domain.NewPaginatedResult([]application.BookingDTO{{ID: uuid.New()}}, 1, page, limit)
	return &r, nil
}

func (s *stubUseCases) GetBooking(_ context.Context, a lifecycle.Actor, id uuid.UUID) (*application.BookingDTO, error) {
	s.record("GetBooking", a, id, nil, "")
	return s.bookingResult()
}

func (s *stubUseCases) AcceptBooking(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64) (*application.BookingDTO, error) {
	s.record("AcceptBooking", a, id, v, "")
	return s.bookingResult()
}

func (s *stubUseCases) RejectBooking(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, reason string) (*application.BookingDTO, error) {
	s.record("RejectBooking", a, id, v, reason)
	return s.bookingResult()
}

func (s *stubUseCases) CancelBooking(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, reason string) (*application.BookingDTO, error) {
	s.record("CancelBooking", a, id, v, reason)
	return s.bookingResult()
}

func (s *stubUseCases) StartBooking(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64) (*application.BookingDTO, error) {
	s.record("StartBooking", a, id, v, "")
	return s.bookingResult()
}

func (s *stubUseCases) CompleteBooking(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, slip string) (*application.BookingDTO, error) {
	s.record("CompleteBooking", a, id, v, slip)
	return s.bookingResult()
}

func (s *stubUseCases) AttachWarrantySlip(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, slip string) (*application.BookingDTO, error) {
	s.record("AttachWarrantySlip", a, id, v, slip)
	return s.bookingResult()
}

func (s *stubUseCases) ProposeExtraService(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, req application.ProposeExtraRequest) (*application.BookingDTO, error) {
	s.record("ProposeExtraService", a, id, v, req.ServiceID.String())
	return s.bookingResult()
}

func (s *stubUseCases) ConfirmExtraServices(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64) (*application.ConfirmExtrasResult, error) {
	s.record("ConfirmExtraServices", a, id, v, "")
	if s.err != nil {
		return nil, s.err
	}
	return &application.ConfirmExtrasResult{Confirmed: 2}, nil
}

func (s *stubUseCases) AssignProvider(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, providerID uuid.UUID) (*application.BookingDTO, error) {
	s.record("AssignProvider", a, id, v, providerID.String())
	return s.bookingResult()
}

func (s *stubUseCases) ListAllBookings(_ context.Context, page, limit int) ([]application.BookingDTO, int64, error) {
	s.record("ListAllBookings", lifecycle.Actor{}, uuid.Nil, nil, "")
	return []application.BookingDTO{}, 0, s.err
}

func (s *stubUseCases) GetBookingStats(context.Context) (*application.BookingStatsDTO, error) {
	s.record("GetBookingStats", lifecycle.Actor{}, uuid.Nil, nil, "")
	return &application.BookingStatsDTO{TotalBookings: 3, ByStatus: map[string]int64{"pending": 3}}, s.err
}

func (s *stubUseCases) CreateClaim(_ context.Context, a lifecycle.Actor, req application.CreateClaimRequest) (*application.ClaimDTO, error) {
	s.record("CreateClaim", a, req.BookingID, nil, req.IssueDetails)
	return s.claimResult()
}

func (s *stubUseCases) AssignAgent(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, agentID uuid.UUID) (*application.ClaimDTO, error) {
	s.record("AssignAgent", a, id, v, agentID.String())
	return s.claimResult()
}

func (s *stubUseCases) RejectClaim(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, notes string) (*application.ClaimDTO, error) {
	s.record("RejectClaim", a, id, v, notes)
	return s.claimResult()
}

func (s *stubUseCases) StartClaim(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64) (*application.ClaimDTO, error) {
	s.record("StartClaim", a, id, v, "")
	return s.claimResult()
}

func (s *stubUseCases) ResolveClaim(_ context.Context, a lifecycle.Actor, id uuid.UUID, v *int64, notes string) (*application.ClaimDTO, error) {
	s.record("ResolveClaim", a, id, v, notes)
	return s.claimResult()
}

func (s *stubUseCases) GetClaim(_ context.Context, a lifecycle.Actor, id uuid.UUID) (*application.ClaimDTO, error) {
	s.record("GetClaim", a, id, nil, "")
	return s.claimResult()
}

func (s *stubUseCases) ListClaims(_ context.Context, a lifecycle.Actor, status string, page, limit int) (*domain.PaginatedResult[application.ClaimDTO], error) {
	s.record("ListClaims", a, uuid.Nil, nil, status)
	if s.err != nil {
		return nil, s.err
	}
	r := domain.NewPaginatedResult[application.ClaimDTO](nil, 0, page, limit)
	return &r, nil
}

func (s *stubUseCases) SubmitReview(_ context.Context, a lifecycle.Actor, id uuid.UUID, req application.SubmitReviewRequest) (*application.ReviewDTO, error) {
	s.record("SubmitReview", a, id, nil, req.Comment)
	if s.err != nil {
		return nil, s.err
	}
	return &application.ReviewDTO{ID: uuid.New(), BookingID: id, Rating: req.Rating}, nil
}

func (s *stubUseCases) ListProviderReviews(_ context.Context, providerID uuid.UUID, page, limit int) (*application.ProviderReviewsDTO, error) {
	s.record("ListProviderReviews", lifecycle.Actor{}, providerID, nil, "")
	return &application.ProviderReviewsDTO{ProviderID: providerID, AverageRating: 4.5, ReviewCount: 2, Total: 2, Page: page, Limit: limit}, s.err
}

func (s *stubUseCases) ListServices(context.Context) ([]application.ServiceDTO, error) {
	s.record("ListServices", lifecycle.Actor{}, uuid.Nil, nil, "")
	return []application.ServiceDTO{{ID: uuid.New(), Name: "Deep clean"}}, s.err
}

func (s *stubUseCases) UpsertService(_ context.Context, id uuid.UUID, req application.UpsertServiceRequest) (*application.ServiceDTO, error) {
	s.record("UpsertService", lifecycle.Actor{}, id, nil, req.Name)
	if s.err != nil {
		return nil, s.err
	}
	return &application.ServiceDTO{ID: id, Name: req.Name, BasePriceCents: req.BasePriceCents, Active: true}, nil
}

func (s *stubUseCases) ArchiveService(_ context.Context, id uuid.UUID) error {
	s.record("ArchiveService", lifecycle.Actor{}, id, nil, "")
	return s.err
}

func (s *stubUseCases) UpsertProvider(_ context.Context, id uuid.UUID, req application.UpsertProviderRequest) (*application.ProviderDTO, error) {
	s.record("UpsertProvider", lifecycle.Actor{}, id, nil, req.DisplayName)
	if s.err != nil {
		return nil, s.err
	}
	return &application.ProviderDTO{ID: id, DisplayName: req.DisplayName, Active: true}, nil
}

func (s *stubUseCases) DeactivateProvider(_ context.Context, id uuid.UUID) error {
	s.record("DeactivateProvider", lifecycle.Actor{}, id, nil, "")
	return s.err
}

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	stub   *stubUseCases
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := &stubUseCases{}
	jwtManager := auth.NewJWTManager("handler-test-secret", time.Hour)
	router := gin.New()
	api := router.Group("")

	NewBookingHandler(stub).RegisterRoutes(api, jwtManager)
	NewWarrantyHandler(stub).RegisterRoutes(api, jwtManager)
	NewReviewHandler(stub).RegisterRoutes(api, jwtManager)
	NewAdminHandler(stub, stub).RegisterRoutes(api, jwtManager)
	NewCatalogHandler(stub).RegisterRoutes(api, jwtManager)

	return &testServer{router: router, jwt: jwtManager, stub: stub}
}

func (s *testServer) token(t *testing.T, id uuid.UUID, role auth.Role) string {
	t.Helper()
	tok, err := s.jwt.Generate(id, role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}
