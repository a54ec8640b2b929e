package services_test

import (
	"context"
	"strings"
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
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
)

type ExpenseServiceTestSuite struct {
	suite.Suite
	mockExpenseRepo *MockExpenseRepository
	mockReportRepo  *MockReportRepository
	mockReceipts    *MockReceiptStore
	service         portssvc.ExpenseSvcFacade
}

func (suite *ExpenseServiceTestSuite) SetupTest() {
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockReportRepo = new(MockReportRepository)
	suite.mockReceipts = new(MockReceiptStore)
	cfg := &config.Config{
		ExpenseCategories: []string{"Taxi", "餐饮", "住宿"},
		JWTSecret:         "test-secret",
		JWTIssuer:         "test",
		ReceiptURLTTL:     time.Minute,
	}
	suite.service = services.NewExpenseService(suite.mockExpenseRepo, suite.mockReportRepo, suite.mockReceipts, cfg)
}

var employee2 = lifecycle.Actor{UserID: "emp-2", Role: domain.RoleEmployee}

func draft(owner string) *domain.Report {
	return &domain.Report{ReportID: "rep-1", UserID: owner, Status: domain.StatusDraft}
}

func submitted(owner string) *domain.Report {
	return &domain.Report{ReportID: "rep-1", UserID: owner, Status: domain.StatusSubmitted}
}

func (suite *ExpenseServiceTestSuite) TestAddExpense_Success() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		Category:    "Taxi",
		CostCenter:  "CC-100",
		Amount:      decimal.RequireFromString("88.50"),
		ExpenseDate: "2026-08-20",
	}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.ReportID == "rep-1" && e.Category == "Taxi" && e.Amount.Equal(req.Amount)
	})).Return(nil).Once()

	got, err := suite.service.AddExpense(ctx, "rep-1", req, employee)

	suite.Require().NoError(err)
	suite.NotEmpty(got.ExpenseID)
	suite.Equal("emp-1", got.UserID)
}

func (suite *ExpenseServiceTestSuite) TestAddExpense_SubmittedReportRejected() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{Category: "Taxi", CostCenter: "CC-100", Amount: decimal.NewFromInt(10), ExpenseDate: "2026-08-20"}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(submitted("emp-1"), nil).Once()

	_, err := suite.service.AddExpense(ctx, "rep-1", req, employee)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestAddExpense_NonOwnerForbidden() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{Category: "Taxi", CostCenter: "CC-100", Amount: decimal.NewFromInt(10), ExpenseDate: "2026-08-20"}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()

	_, err := suite.service.AddExpense(ctx, "rep-1", req, manager)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *ExpenseServiceTestSuite) TestAddExpense_UnknownCategory() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{Category: "Yacht", CostCenter: "CC-100", Amount: decimal.NewFromInt(10), ExpenseDate: "2026-08-20"}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()

	_, err := suite.service.AddExpense(ctx, "rep-1", req, employee)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ExpenseServiceTestSuite) TestAddExpense_VATRequiresTaxRate() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		Category:     "餐饮",
		CostCenter:   "CC-100",
		Amount:       decimal.NewFromInt(200),
		ExpenseDate:  "2026-08-20",
		IsVATInvoice: true,
	}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()

	_, err := suite.service.AddExpense(ctx, "rep-1", req, employee)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ExpenseServiceTestSuite) TestAddExpense_NonPositiveAmount() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{Category: "Taxi", CostCenter: "CC-100", Amount: decimal.Zero, ExpenseDate: "2026-08-20"}

	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()

	_, err := suite.service.AddExpense(ctx, "rep-1", req, employee)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ExpenseServiceTestSuite) TestUpdateExpense_LockedAfterSubmit() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1", Amount: decimal.NewFromInt(10)}
	amount := decimal.NewFromInt(20)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(submitted("emp-1"), nil).Once()

	_, err := suite.service.UpdateExpense(ctx, "exp-1", dto.UpdateExpenseRequest{Amount: &amount}, employee)

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestDeleteExpense_RemovesBlobs() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1", ReceiptKeys: []string{"rep-1/a.jpg"}}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()
	suite.mockExpenseRepo.On("DeleteExpense", ctx, "exp-1", "rep-1").Return(nil).Once()
	suite.mockReceipts.On("Delete", ctx, "rep-1/a.jpg").Return(nil).Once()

	err := suite.service.DeleteExpense(ctx, "exp-1", employee)

	suite.Require().NoError(err)
	suite.mockReceipts.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestAttachReceipt_StoresBlobThenRow() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1", ReceiptKeys: []string{}}
	upload := dto.ReceiptUpload{Filename: "taxi.jpg", Size: 1024, Reader: strings.NewReader("jpegdata")}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()
	suite.mockReceipts.On("Save", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "rep-1/") && strings.HasSuffix(key, ".jpg")
	}), mock.Anything).Return(nil).Once()
	suite.mockExpenseRepo.On("UpdateExpense", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return len(e.ReceiptKeys) == 1
	})).Return(nil).Once()

	got, err := suite.service.AttachReceipt(ctx, "exp-1", upload, employee)

	suite.Require().NoError(err)
	suite.Len(got.ReceiptKeys, 1)
}

func (suite *ExpenseServiceTestSuite) TestAttachReceipt_RejectsUnknownFileType() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1"}
	upload := dto.ReceiptUpload{Filename: "virus.exe", Size: 10, Reader: strings.NewReader("x")}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()

	_, err := suite.service.AttachReceipt(ctx, "exp-1", upload, employee)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockReceipts.AssertNotCalled(suite.T(), "Save", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestAttachReceipt_CleansUpBlobOnRowFailure() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1"}
	upload := dto.ReceiptUpload{Filename: "hotel.pdf", Size: 10, Reader: strings.NewReader("x")}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(draft("emp-1"), nil).Once()
	suite.mockReceipts.On("Save", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockExpenseRepo.On("UpdateExpense", ctx, mock.Anything).Return(apperrors.ErrConflict).Once()
	suite.mockReceipts.On("Delete", ctx, mock.Anything).Return(nil).Once()

	_, err := suite.service.AttachReceipt(ctx, "exp-1", upload, employee)

	suite.Require().Error(err)
	suite.mockReceipts.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestReceiptURL_SignedForViewer() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1", ReceiptKeys: []string{"rep-1/a.jpg"}}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(submitted("emp-1"), nil).Once()

	url, err := suite.service.ReceiptURL(ctx, "exp-1", "rep-1/a.jpg", manager)

	suite.Require().NoError(err)
	suite.Contains(url, "/api/v1/receipts/view?token=")
}

func (suite *ExpenseServiceTestSuite) TestReceiptURL_StrangerForbidden() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: "exp-1", ReportID: "rep-1", ReceiptKeys: []string{"rep-1/a.jpg"}}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, "exp-1").Return(expense, nil).Once()
	suite.mockReportRepo.On("FindReportByID", ctx, "rep-1").Return(submitted("emp-1"), nil).Once()

	_, err := suite.service.ReceiptURL(ctx, "exp-1", "rep-1/a.jpg", employee2)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
