package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/core/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
)

// --- Mock ReportRepository ---
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) FindReportByID(ctx context.Context, reportID string) (*domain.Report, error) {
	args := m.Called(ctx, reportID)
	var report *domain.Report
	if args.Get(0) != nil {
		report = args.Get(0).(*domain.Report)
	}
	return report, args.Error(1)
}

func (m *MockReportRepository) FindReportsByOwner(ctx context.Context, ownerID string, status *domain.ReportStatus, limit, offset int) ([]domain.Report, error) {
	args := m.Called(ctx, ownerID, status, limit, offset)
	var reports []domain.Report
	if args.Get(0) != nil {
		reports = args.Get(0).([]domain.Report)
	}
	return reports, args.Error(1)
}

func (m *MockReportRepository) FindReportsByStatus(ctx context.Context, statuses []domain.ReportStatus, limit, offset int) ([]domain.Report, error) {
	args := m.Called(ctx, statuses, limit, offset)
	var reports []domain.Report
	if args.Get(0) != nil {
		reports = args.Get(0).([]domain.Report)
	}
	return reports, args.Error(1)
}

func (m *MockReportRepository) FindReportsDecidedBy(ctx context.Context, approverID string, limit, offset int) ([]domain.Report, error) {
	args := m.Called(ctx, approverID, limit, offset)
	var reports []domain.Report
	if args.Get(0) != nil {
		reports = args.Get(0).([]domain.Report)
	}
	return reports, args.Error(1)
}

func (m *MockReportRepository) CountExpenses(ctx context.Context, reportID string) (int, error) {
	args := m.Called(ctx, reportID)
	return args.Int(0), args.Error(1)
}

func (m *MockReportRepository) SaveReport(ctx context.Context, report domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) UpdateReportDetails(ctx context.Context, report domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) TransitionStatus(ctx context.Context, reportID string, expected []domain.ReportStatus, change domain.StatusChange) (*domain.Report, error) {
	args := m.Called(ctx, reportID, expected, change)
	var report *domain.Report
	if args.Get(0) != nil {
		report = args.Get(0).(*domain.Report)
	}
	return report, args.Error(1)
}

func (m *MockReportRepository) DeleteReport(ctx context.Context, reportID string) error {
	args := m.Called(ctx, reportID)
	return args.Error(0)
}

// --- Mock ExpenseRepository ---
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	var expense *domain.Expense
	if args.Get(0) != nil {
		expense = args.Get(0).(*domain.Expense)
	}
	return expense, args.Error(1)
}

func (m *MockExpenseRepository) FindExpensesByReportID(ctx context.Context, reportID string) ([]domain.Expense, error) {
	args := m.Called(ctx, reportID)
	var expenses []domain.Expense
	if args.Get(0) != nil {
		expenses = args.Get(0).([]domain.Expense)
	}
	return expenses, args.Error(1)
}

func (m *MockExpenseRepository) FindExpensesForExport(ctx context.Context, filter domain.ExportFilter) ([]domain.ExpenseExportRow, error) {
	args := m.Called(ctx, filter)
	var rows []domain.ExpenseExportRow
	if args.Get(0) != nil {
		rows = args.Get(0).([]domain.ExpenseExportRow)
	}
	return rows, args.Error(1)
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) UpdateExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) DeleteExpense(ctx context.Context, expenseID string, reportID string) error {
	args := m.Called(ctx, expenseID, reportID)
	return args.Error(0)
}

// --- Mock ApprovalRepository ---
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) SaveApproval(ctx context.Context, approval domain.Approval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockApprovalRepository) FindApprovalsByReportID(ctx context.Context, reportID string) ([]domain.ApprovalEntry, error) {
	args := m.Called(ctx, reportID)
	var entries []domain.ApprovalEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.ApprovalEntry)
	}
	return entries, args.Error(1)
}

// --- Mock ReceiptStore ---
type MockReceiptStore struct {
	mock.Mock
}

func (m *MockReceiptStore) Save(ctx context.Context, key string, r io.Reader) error {
	args := m.Called(ctx, key, r)
	return args.Error(0)
}

func (m *MockReceiptStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Error(1)
}

func (m *MockReceiptStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Test Suite ---
type ReportServiceTestSuite struct {
	suite.Suite
	mockReportRepo   *MockReportRepository
	mockExpenseRepo  *MockExpenseRepository
	mockApprovalRepo *MockApprovalRepository
	mockReceipts     *MockReceiptStore
	service          portssvc.ReportSvcFacade
}

func (suite *ReportServiceTestSuite) SetupTest() {
	suite.mockReportRepo = new(MockReportRepository)
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockApprovalRepo = new(MockApprovalRepository)
	suite.mockReceipts = new(MockReceiptStore)
	suite.service = services.NewReportService(
		suite.mockReportRepo,
		suite.mockExpenseRepo,
		suite.mockApprovalRepo,
		suite.mockReceipts,
		decimal.NewFromInt(5000),
	)
}

func (suite *ReportServiceTestSuite) draftReport(owner string, total string) *domain.Report {
	return &domain.Report{
		ReportID:    "rep-1",
		UserID:      owner,
		Title:       "Client visit",
		Status:      domain.StatusDraft,
		TotalAmount: decimal.RequireFromString(total),
	}
}

func (suite *ReportServiceTestSuite) submittedReport(owner string, total string) *domain.Report {
	now := time.Now()
	r := suite.draftReport(owner, total)
	r.Status = domain.StatusSubmitted
	r.SubmittedAt = &now
	return r
}

var (
	employee = lifecycle.Actor{UserID: "emp-1", Role: domain.RoleEmployee}
	manager  = lifecycle.Actor{UserID: "mgr-1", Role: domain.RoleManager}
	partner  = lifecycle.Actor{UserID: "ptr-1", Role: domain.RolePartner}
	admin    = lifecycle.Actor{UserID: "adm-1", Role: domain.RoleAdmin}
)

// --- Submit ---

func (suite *ReportServiceTestSuite) TestSubmitReport_Success() {
	ctx := context.Background()
	report := suite.draftReport("emp-1", "120.50")
	updated := *report
	updated.Status = domain.StatusSubmitted

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("CountExpenses", ctx, "rep-1").Return(2, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1",
		[]domain.ReportStatus{domain.StatusDraft},
		mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.StatusSubmitted && c.SubmittedAt != nil && !c.ClearLifecycle
		}),
	).Return(&updated, nil).Once()

	got, err := suite.service.SubmitReport(ctx, "rep-1", employee)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusSubmitted, got.Status)
	suite.mockReportRepo.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestSubmitReport_EmptyReport() {
	ctx := context.Background()
	report := suite.draftReport("emp-1", "0")

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("CountExpenses", ctx, "rep-1").Return(0, nil).Once()

	_, err := suite.service.SubmitReport(ctx, "rep-1", employee)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockReportRepo.AssertNotCalled(suite.T(), "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Approve ---

func (suite *ReportServiceTestSuite) TestApproveReport_AtThresholdFinalizes() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "5000.00")
	updated := *report
	updated.Status = domain.StatusApproved

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1",
		[]domain.ReportStatus{domain.StatusSubmitted},
		mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.StatusApproved && c.ApprovedAt != nil && c.ApproverID != nil && *c.ApproverID == "mgr-1"
		}),
	).Return(&updated, nil).Once()
	suite.mockApprovalRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Decision == domain.DecisionApproved && a.ApproverID == "mgr-1"
	})).Return(nil).Once()

	got, err := suite.service.ApproveReport(ctx, "rep-1", manager, nil)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, got.Status)
	suite.mockApprovalRepo.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestApproveReport_AboveThresholdEscalates() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "5000.01")
	updated := *report
	updated.Status = domain.StatusPendingPartnerApproval

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1",
		[]domain.ReportStatus{domain.StatusSubmitted},
		mock.MatchedBy(func(c domain.StatusChange) bool {
			// Escalation must not stamp a final approval.
			return c.Status == domain.StatusPendingPartnerApproval && c.ApprovedAt == nil && c.ApproverID == nil
		}),
	).Return(&updated, nil).Once()
	suite.mockApprovalRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Decision == domain.DecisionApproved
	})).Return(nil).Once()

	got, err := suite.service.ApproveReport(ctx, "rep-1", manager, nil)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPendingPartnerApproval, got.Status)
}

func (suite *ReportServiceTestSuite) TestApproveReport_PartnerFinalizesEscalated() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "9000")
	report.Status = domain.StatusPendingPartnerApproval
	updated := *report
	updated.Status = domain.StatusApproved

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1",
		[]domain.ReportStatus{domain.StatusPendingPartnerApproval},
		mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.StatusApproved && c.ApprovedAt != nil
		}),
	).Return(&updated, nil).Once()
	suite.mockApprovalRepo.On("SaveApproval", ctx, mock.Anything).Return(nil).Once()

	got, err := suite.service.ApproveReport(ctx, "rep-1", partner, nil)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, got.Status)
}

func (suite *ReportServiceTestSuite) TestApproveReport_OwnReportForbidden() {
	ctx := context.Background()
	report := suite.submittedReport("mgr-1", "100")

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()

	_, err := suite.service.ApproveReport(ctx, "rep-1", manager, nil)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
	suite.mockReportRepo.AssertNotCalled(suite.T(), "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReportServiceTestSuite) TestApproveReport_ConcurrentDecisionConflicts() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "100")

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrConflict).Once()

	_, err := suite.service.ApproveReport(ctx, "rep-1", manager, nil)

	suite.Require().ErrorIs(err, apperrors.ErrConflict)
	suite.mockApprovalRepo.AssertNotCalled(suite.T(), "SaveApproval", mock.Anything, mock.Anything)
}

// --- Reject / SendBack / Withdraw ---

func (suite *ReportServiceTestSuite) TestRejectReport_RecordsComments() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "100")
	updated := *report
	updated.Status = domain.StatusRejected
	comments := "missing receipts"

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1", mock.Anything, mock.Anything).Return(&updated, nil).Once()
	suite.mockApprovalRepo.On("SaveApproval", ctx, mock.MatchedBy(func(a domain.Approval) bool {
		return a.Decision == domain.DecisionRejected && a.Comments != nil && *a.Comments == comments
	})).Return(nil).Once()

	got, err := suite.service.RejectReport(ctx, "rep-1", manager, &comments)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, got.Status)
}

func (suite *ReportServiceTestSuite) TestWithdrawReport_ClearsLifecycle() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "100")
	updated := *report
	updated.Status = domain.StatusDraft
	updated.SubmittedAt = nil

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1",
		[]domain.ReportStatus{domain.StatusSubmitted},
		mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.StatusDraft && c.ClearLifecycle
		}),
	).Return(&updated, nil).Once()

	got, err := suite.service.WithdrawReport(ctx, "rep-1", employee)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusDraft, got.Status)
	suite.mockApprovalRepo.AssertNotCalled(suite.T(), "SaveApproval", mock.Anything, mock.Anything)
}

// --- MarkReimbursed ---

func (suite *ReportServiceTestSuite) TestMarkReimbursed_AdminOnly() {
	ctx := context.Background()
	now := time.Now()
	report := suite.draftReport("emp-1", "100")
	report.Status = domain.StatusApproved
	report.ApprovedAt = &now
	updated := *report
	updated.ReimbursedAt = &now

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Twice()
	suite.mockReportRepo.On("TransitionStatus", ctx, "rep-1",
		[]domain.ReportStatus{domain.StatusApproved},
		mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.StatusApproved && c.ReimbursedAt != nil
		}),
	).Return(&updated, nil).Once()

	got, err := suite.service.MarkReimbursed(ctx, "rep-1", admin)
	suite.Require().NoError(err)
	suite.NotNil(got.ReimbursedAt)

	_, err = suite.service.MarkReimbursed(ctx, "rep-1", manager)
	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
}

// --- Queues ---

func (suite *ReportServiceTestSuite) TestListPendingApprovals_ExcludesOwnReports() {
	ctx := context.Background()
	reports := []domain.Report{
		{ReportID: "rep-1", UserID: "emp-1", Status: domain.StatusSubmitted},
		{ReportID: "rep-2", UserID: "mgr-1", Status: domain.StatusSubmitted},
	}

	suite.mockReportRepo.On("FindReportsByStatus", ctx,
		[]domain.ReportStatus{domain.StatusSubmitted}, 20, 0,
	).Return(reports, nil).Once()

	got, err := suite.service.ListPendingApprovals(ctx, manager, 20, 0)

	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal("rep-1", got[0].ReportID)
}

func (suite *ReportServiceTestSuite) TestListPendingApprovals_PartnerSeesEscalated() {
	ctx := context.Background()

	suite.mockReportRepo.On("FindReportsByStatus", ctx,
		[]domain.ReportStatus{domain.StatusSubmitted, domain.StatusPendingPartnerApproval}, 20, 0,
	).Return([]domain.Report{}, nil).Once()

	_, err := suite.service.ListPendingApprovals(ctx, partner, 20, 0)

	suite.Require().NoError(err)
	suite.mockReportRepo.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestListPendingApprovals_EmployeeForbidden() {
	_, err := suite.service.ListPendingApprovals(context.Background(), employee, 20, 0)
	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
}

// --- CRUD ---

func (suite *ReportServiceTestSuite) TestCreateReport_StartsAsDraft() {
	ctx := context.Background()
	req := dto.CreateReportRequest{Title: "Q3 travel", Purpose: "conference"}

	suite.mockReportRepo.On("SaveReport", ctx, mock.MatchedBy(func(r domain.Report) bool {
		return r.Status == domain.StatusDraft && r.TotalAmount.IsZero() && r.UserID == "emp-1"
	})).Return(nil).Once()

	got, err := suite.service.CreateReport(ctx, req, "emp-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusDraft, got.Status)
	suite.NotEmpty(got.ReportID)
}

func (suite *ReportServiceTestSuite) TestUpdateReport_SubmittedIsImmutable() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "100")
	title := "new title"

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()

	_, err := suite.service.UpdateReport(ctx, "rep-1", dto.UpdateReportRequest{Title: &title}, employee)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockReportRepo.AssertNotCalled(suite.T(), "UpdateReportDetails", mock.Anything, mock.Anything)
}

func (suite *ReportServiceTestSuite) TestDeleteReport_RemovesReceipts() {
	ctx := context.Background()
	report := suite.draftReport("emp-1", "100")
	expenses := []domain.Expense{
		{ExpenseID: "exp-1", ReportID: "rep-1", ReceiptKeys: []string{"rep-1/a.jpg", "rep-1/b.pdf"}},
	}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()
	suite.mockExpenseRepo.On("FindExpensesByReportID", ctx, "rep-1").Return(expenses, nil).Once()
	suite.mockReportRepo.On("DeleteReport", ctx, "rep-1").Return(nil).Once()
	suite.mockReceipts.On("Delete", ctx, "rep-1/a.jpg").Return(nil).Once()
	suite.mockReceipts.On("Delete", ctx, "rep-1/b.pdf").Return(nil).Once()

	err := suite.service.DeleteReport(ctx, "rep-1", employee)

	suite.Require().NoError(err)
	suite.mockReceipts.AssertExpectations(suite.T())
}

func (suite *ReportServiceTestSuite) TestGetReportByID_StrangerForbidden() {
	ctx := context.Background()
	report := suite.submittedReport("emp-1", "100")

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(report, nil).Once()

	_, err := suite.service.GetReportByID(ctx, "rep-1", lifecycle.Actor{UserID: "emp-2", Role: domain.RoleEmployee})

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
}

func TestReportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceTestSuite))
}
