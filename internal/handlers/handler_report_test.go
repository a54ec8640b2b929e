package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/handlers"
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
	"github.com/expenseflow/expense_flow_app/internal/utils"
)

// --- Mock ReportService ---
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GetReportByID(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) ListReports(ctx context.Context, actor lifecycle.Actor, status *domain.ReportStatus, limit, offset int) ([]domain.Report, error) {
	args := m.Called(ctx, actor, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Report), args.Error(1)
}
func (m *MockReportService) ListPendingApprovals(ctx context.Context, actor lifecycle.Actor, limit, offset int) ([]domain.Report, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Report), args.Error(1)
}
func (m *MockReportService) ListProcessedApprovals(ctx context.Context, actor lifecycle.Actor, limit, offset int) ([]domain.Report, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Report), args.Error(1)
}
func (m *MockReportService) ListApprovalHistory(ctx context.Context, reportID string, actor lifecycle.Actor) ([]domain.ApprovalEntry, error) {
	args := m.Called(ctx, reportID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApprovalEntry), args.Error(1)
}
func (m *MockReportService) CreateReport(ctx context.Context, req dto.CreateReportRequest, creatorUserID string) (*domain.Report, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) UpdateReport(ctx context.Context, reportID string, req dto.UpdateReportRequest, actor lifecycle.Actor) (*domain.Report, error) {
	args := m.Called(ctx, reportID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) DeleteReport(ctx context.Context, reportID string, actor lifecycle.Actor) error {
	args := m.Called(ctx, reportID, actor)
	return args.Error(0)
}
func (m *MockReportService) SubmitReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) ApproveReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) RejectReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) SendBackReport(ctx context.Context, reportID string, actor lifecycle.Actor, comments *string) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) WithdrawReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportService) MarkReimbursed(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	args := m.Called(ctx, reportID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.ReportSvcFacade = (*MockReportService)(nil)

// --- Mock ExpenseService ---
type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) ListReportExpenses(ctx context.Context, reportID string, actor lifecycle.Actor) ([]domain.Expense, error) {
	args := m.Called(ctx, reportID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}
func (m *MockExpenseService) AddExpense(ctx context.Context, reportID string, req dto.CreateExpenseRequest, actor lifecycle.Actor) (*domain.Expense, error) {
	args := m.Called(ctx, reportID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}
func (m *MockExpenseService) UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, actor lifecycle.Actor) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}
func (m *MockExpenseService) DeleteExpense(ctx context.Context, expenseID string, actor lifecycle.Actor) error {
	args := m.Called(ctx, expenseID, actor)
	return args.Error(0)
}
func (m *MockExpenseService) AttachReceipt(ctx context.Context, expenseID string, upload dto.ReceiptUpload, actor lifecycle.Actor) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, upload, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}
func (m *MockExpenseService) RemoveReceipt(ctx context.Context, expenseID string, key string, actor lifecycle.Actor) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, key, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}
func (m *MockExpenseService) ReceiptURL(ctx context.Context, expenseID string, key string, actor lifecycle.Actor) (string, error) {
	args := m.Called(ctx, expenseID, key, actor)
	return args.String(0), args.Error(1)
}
func (m *MockExpenseService) OpenReceiptByToken(ctx context.Context, token string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

// Ensure mock implements the interface
var _ portssvc.ExpenseSvcFacade = (*MockExpenseService)(nil)

// --- Test Suite ---
type ReportHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockReportSvc  *MockReportService
	mockExpenseSvc *MockExpenseService
	cfg            *config.Config
}

func (s *ReportHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidations()
	s.mockReportSvc = new(MockReportService)
	s.mockExpenseSvc = new(MockExpenseService)
	s.cfg = &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "expense-flow-test",
		ReceiptURLTTL:     time.Minute,
	}

	s.router = gin.New()
	services := &portssvc.ServiceContainer{
		Report:  s.mockReportSvc,
		Expense: s.mockExpenseSvc,
	}
	handlers.RegisterRoutes(s.router, s.cfg, services)
}

// tokenFor builds a valid bearer token carrying the given identity.
func (s *ReportHandlerTestSuite) tokenFor(userID string, role domain.UserRole) string {
	token, err := utils.GenerateJWT(userID, string(role), s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	s.Require().NoError(err)
	return token
}

func (s *ReportHandlerTestSuite) doRequest(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func draftReport(ownerID string) *domain.Report {
	now := time.Now()
	r := &domain.Report{
		ReportID:    uuid.NewString(),
		UserID:      ownerID,
		Title:       "Client visit",
		Status:      domain.StatusDraft,
		TotalAmount: decimal.NewFromInt(120),
	}
	r.CreatedAt = now
	r.LastUpdatedAt = now
	return r
}

func (s *ReportHandlerTestSuite) TestGetReport_OwnerSeesDraftActions() {
	ownerID := uuid.NewString()
	report := draftReport(ownerID)
	expenses := []domain.Expense{{ExpenseID: uuid.NewString(), ReportID: report.ReportID, Amount: decimal.NewFromInt(120), ExpenseDate: time.Now()}}

	s.mockReportSvc.On("GetReportByID", mock.Anything, report.ReportID, mock.Anything).Return(report, nil).Once()
	s.mockExpenseSvc.On("ListReportExpenses", mock.Anything, report.ReportID, mock.Anything).Return(expenses, nil).Once()

	w := s.doRequest(http.MethodGet, "/api/v1/reports/"+report.ReportID, s.tokenFor(ownerID, domain.RoleEmployee), nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ReportDetailResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(report.ReportID, resp.ReportID)
	s.Len(resp.Expenses, 1)
	s.Contains(resp.Actions, lifecycle.ActionSubmit)
	s.Contains(resp.Actions, lifecycle.ActionEdit)
	s.mockReportSvc.AssertExpectations(s.T())
}

func (s *ReportHandlerTestSuite) TestGetReport_Unauthenticated() {
	w := s.doRequest(http.MethodGet, "/api/v1/reports/"+uuid.NewString(), "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.mockReportSvc.AssertNotCalled(s.T(), "GetReportByID", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReportHandlerTestSuite) TestCreateReport_ReturnsDraftWithActions() {
	ownerID := uuid.NewString()
	report := draftReport(ownerID)
	s.mockReportSvc.On("CreateReport", mock.Anything, mock.MatchedBy(func(req dto.CreateReportRequest) bool {
		return req.Title == "Client visit"
	}), ownerID).Return(report, nil).Once()

	body := dto.CreateReportRequest{Title: "Client visit"}
	w := s.doRequest(http.MethodPost, "/api/v1/reports", s.tokenFor(ownerID, domain.RoleEmployee), body)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.ReportResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("draft", resp.Status)
	// A fresh report has no expenses, so submit is not yet offered.
	s.NotContains(resp.Actions, lifecycle.ActionSubmit)
	s.Contains(resp.Actions, lifecycle.ActionEdit)
}

func (s *ReportHandlerTestSuite) TestCreateReport_MissingTitle() {
	w := s.doRequest(http.MethodPost, "/api/v1/reports", s.tokenFor(uuid.NewString(), domain.RoleEmployee), gin.H{"purpose": "no title"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.mockReportSvc.AssertNotCalled(s.T(), "CreateReport", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReportHandlerTestSuite) TestApproveReport_PassesComments() {
	approverID := uuid.NewString()
	report := draftReport(uuid.NewString())
	report.Status = domain.StatusApproved

	s.mockReportSvc.On("ApproveReport", mock.Anything, report.ReportID, mock.MatchedBy(func(actor lifecycle.Actor) bool {
		return actor.UserID == approverID && actor.Role == domain.RoleManager
	}), mock.MatchedBy(func(comments *string) bool {
		return comments != nil && *comments == "looks good"
	})).Return(report, nil).Once()

	path := fmt.Sprintf("/api/v1/reports/%s/approve", report.ReportID)
	w := s.doRequest(http.MethodPost, path, s.tokenFor(approverID, domain.RoleManager), dto.DecisionRequest{Comments: strPtr("looks good")})

	s.Equal(http.StatusOK, w.Code)
	s.mockReportSvc.AssertExpectations(s.T())
}

func (s *ReportHandlerTestSuite) TestApproveReport_EmptyBodyAllowed() {
	approverID := uuid.NewString()
	report := draftReport(uuid.NewString())
	report.Status = domain.StatusApproved

	s.mockReportSvc.On("ApproveReport", mock.Anything, report.ReportID, mock.Anything, (*string)(nil)).Return(report, nil).Once()

	path := fmt.Sprintf("/api/v1/reports/%s/approve", report.ReportID)
	w := s.doRequest(http.MethodPost, path, s.tokenFor(approverID, domain.RoleManager), nil)

	s.Equal(http.StatusOK, w.Code)
}

func (s *ReportHandlerTestSuite) TestApproveReport_OwnReportForbidden() {
	ownerID := uuid.NewString()
	reportID := uuid.NewString()

	s.mockReportSvc.On("ApproveReport", mock.Anything, reportID, mock.Anything, (*string)(nil)).
		Return(nil, fmt.Errorf("%w: cannot approve your own report", apperrors.ErrForbidden)).Once()

	path := fmt.Sprintf("/api/v1/reports/%s/approve", reportID)
	w := s.doRequest(http.MethodPost, path, s.tokenFor(ownerID, domain.RoleManager), nil)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ReportHandlerTestSuite) TestSubmitReport_NotADraftConflicts() {
	ownerID := uuid.NewString()
	reportID := uuid.NewString()

	s.mockReportSvc.On("SubmitReport", mock.Anything, reportID, mock.Anything).
		Return(nil, fmt.Errorf("%w: submit is not available for status approved", apperrors.ErrInvalidTransition)).Once()

	path := fmt.Sprintf("/api/v1/reports/%s/submit", reportID)
	w := s.doRequest(http.MethodPost, path, s.tokenFor(ownerID, domain.RoleEmployee), nil)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *ReportHandlerTestSuite) TestListPendingApprovals_EmployeeForbidden() {
	s.mockReportSvc.On("ListPendingApprovals", mock.Anything, mock.Anything, 20, 0).
		Return(nil, fmt.Errorf("%w: role employee has no approval queue", apperrors.ErrForbidden)).Once()

	w := s.doRequest(http.MethodGet, "/api/v1/approvals/pending", s.tokenFor(uuid.NewString(), domain.RoleEmployee), nil)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ReportHandlerTestSuite) TestDeleteReport_NoContent() {
	ownerID := uuid.NewString()
	reportID := uuid.NewString()

	s.mockReportSvc.On("DeleteReport", mock.Anything, reportID, mock.Anything).Return(nil).Once()

	w := s.doRequest(http.MethodDelete, "/api/v1/reports/"+reportID, s.tokenFor(ownerID, domain.RoleEmployee), nil)

	s.Equal(http.StatusNoContent, w.Code)
}

func strPtr(s string) *string { return &s }

func TestReportHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerTestSuite))
}
