package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
	"github.com/expenseflow/expense_flow_app/internal/utils"
)

const maxReceiptSize = 10 << 20 // 10 MiB per file

var allowedReceiptExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

// expenseService implements expense item CRUD and receipt handling. Every item
// write goes through the repository's transactional total recompute, so the
// parent report's total never drifts.
type expenseService struct {
	expenseRepo portsrepo.ExpenseRepositoryFacade
	reportRepo  portsrepo.ReportRepositoryFacade
	receipts    portsrepo.ReceiptStore
	categories  map[string]bool
	cfg         *config.Config
}

// NewExpenseService creates a new expense service.
func NewExpenseService(expenseRepo portsrepo.ExpenseRepositoryFacade, reportRepo portsrepo.ReportRepositoryFacade, receipts portsrepo.ReceiptStore, cfg *config.Config) portssvc.ExpenseSvcFacade {
	categories := make(map[string]bool, len(cfg.ExpenseCategories))
	for _, c := range cfg.ExpenseCategories {
		categories[c] = true
	}
	return &expenseService{
		expenseRepo: expenseRepo,
		reportRepo:  reportRepo,
		receipts:    receipts,
		categories:  categories,
		cfg:         cfg,
	}
}

// Ensure expenseService implements the portssvc.ExpenseSvcFacade interface
var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

func (s *expenseService) ListReportExpenses(ctx context.Context, reportID string, actor lifecycle.Actor) ([]domain.Expense, error) {
	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report %s: %w", reportID, err)
	}
	if !canView(report, actor) {
		return nil, fmt.Errorf("%w: report is not visible to this user", apperrors.ErrForbidden)
	}
	expenses, err := s.expenseRepo.FindExpensesByReportID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses of report %s: %w", reportID, err)
	}
	return expenses, nil
}

// editableReport loads the parent report and checks the draft-and-owner rule.
func (s *expenseService) editableReport(ctx context.Context, reportID string, actor lifecycle.Actor) (*domain.Report, error) {
	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report %s: %w", reportID, err)
	}
	if err := lifecycle.Authorize(lifecycle.ViewOf(report, 0), actor, lifecycle.ActionEdit); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *expenseService) validateAmounts(amount decimal.Decimal, isVAT bool, taxRate *decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if isVAT && taxRate == nil {
		return fmt.Errorf("%w: taxRate is required for VAT invoices", apperrors.ErrValidation)
	}
	if taxRate != nil && (taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100))) {
		return fmt.Errorf("%w: taxRate must be between 0 and 100", apperrors.ErrValidation)
	}
	return nil
}

func (s *expenseService) validateCategory(category string) error {
	if len(s.categories) > 0 && !s.categories[category] {
		return fmt.Errorf("%w: unknown expense category %q", apperrors.ErrValidation, category)
	}
	return nil
}

func (s *expenseService) AddExpense(ctx context.Context, reportID string, req dto.CreateExpenseRequest, actor lifecycle.Actor) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	report, err := s.editableReport(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateCategory(req.Category); err != nil {
		return nil, err
	}
	if err := s.validateAmounts(req.Amount, req.IsVATInvoice, req.TaxRate); err != nil {
		return nil, err
	}
	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expenseDate", apperrors.ErrValidation)
	}

	now := time.Now()
	expense := domain.Expense{
		ExpenseID:    uuid.NewString(),
		ReportID:     reportID,
		UserID:       report.UserID,
		Category:     req.Category,
		CostCenter:   req.CostCenter,
		Amount:       req.Amount,
		ExpenseDate:  expenseDate,
		Description:  req.Description,
		IsVATInvoice: req.IsVATInvoice,
		TaxRate:      req.TaxRate,
		ReceiptKeys:  []string{},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		logger.Error("Failed to save expense", slog.String("report_id", reportID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to add expense: %w", err)
	}

	logger.Info("Expense added", slog.String("expense_id", expense.ExpenseID), slog.String("report_id", reportID))
	return &expense, nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, actor lifecycle.Actor) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	if _, err := s.editableReport(ctx, expense.ReportID, actor); err != nil {
		return nil, err
	}

	if req.Category != nil {
		if err := s.validateCategory(*req.Category); err != nil {
			return nil, err
		}
		expense.Category = *req.Category
	}
	if req.CostCenter != nil {
		expense.CostCenter = *req.CostCenter
	}
	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.ExpenseDate != nil {
		d, err := time.Parse("2006-01-02", *req.ExpenseDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid expenseDate", apperrors.ErrValidation)
		}
		expense.ExpenseDate = d
	}
	if req.Description != nil {
		expense.Description = req.Description
	}
	if req.IsVATInvoice != nil {
		expense.IsVATInvoice = *req.IsVATInvoice
	}
	if req.TaxRate != nil {
		expense.TaxRate = req.TaxRate
	}
	if err := s.validateAmounts(expense.Amount, expense.IsVATInvoice, expense.TaxRate); err != nil {
		return nil, err
	}

	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = actor.UserID

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		return nil, fmt.Errorf("failed to update expense %s: %w", expenseID, err)
	}
	return expense, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, expenseID string, actor lifecycle.Actor) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	if _, err := s.editableReport(ctx, expense.ReportID, actor); err != nil {
		return err
	}

	if err := s.expenseRepo.DeleteExpense(ctx, expenseID, expense.ReportID); err != nil {
		return fmt.Errorf("failed to delete expense %s: %w", expenseID, err)
	}

	for _, key := range expense.ReceiptKeys {
		if err := s.receipts.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete receipt blob", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	logger.Info("Expense deleted", slog.String("expense_id", expenseID))
	return nil
}

func (s *expenseService) AttachReceipt(ctx context.Context, expenseID string, upload dto.ReceiptUpload, actor lifecycle.Actor) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	if _, err := s.editableReport(ctx, expense.ReportID, actor); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedReceiptExts[ext] {
		return nil, fmt.Errorf("%w: unsupported receipt file type %q", apperrors.ErrValidation, ext)
	}
	if upload.Size > maxReceiptSize {
		return nil, fmt.Errorf("%w: receipt exceeds the %d byte limit", apperrors.ErrValidation, maxReceiptSize)
	}

	key := fmt.Sprintf("%s/%s%s", expense.ReportID, uuid.NewString(), ext)
	if err := s.receipts.Save(ctx, key, io.LimitReader(upload.Reader, maxReceiptSize)); err != nil {
		logger.Error("Failed to store receipt blob", slog.String("expense_id", expenseID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	expense.ReceiptKeys = append(expense.ReceiptKeys, key)
	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = actor.UserID

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		// Roll back the blob so a failed row write leaves nothing behind.
		if delErr := s.receipts.Delete(ctx, key); delErr != nil {
			logger.Warn("Failed to clean up receipt blob after failed update", slog.String("key", key), slog.String("error", delErr.Error()))
		}
		return nil, fmt.Errorf("failed to record receipt on expense %s: %w", expenseID, err)
	}

	logger.Info("Receipt attached", slog.String("expense_id", expenseID), slog.String("key", key))
	return expense, nil
}

func (s *expenseService) RemoveReceipt(ctx context.Context, expenseID string, key string, actor lifecycle.Actor) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	if _, err := s.editableReport(ctx, expense.ReportID, actor); err != nil {
		return nil, err
	}

	found := false
	keys := expense.ReceiptKeys[:0]
	for _, k := range expense.ReceiptKeys {
		if k == key {
			found = true
			continue
		}
		keys = append(keys, k)
	}
	if !found {
		return nil, fmt.Errorf("%w: receipt not found on expense", apperrors.ErrNotFound)
	}
	expense.ReceiptKeys = keys
	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = actor.UserID

	if err := s.expenseRepo.UpdateExpense(ctx, *expense); err != nil {
		return nil, fmt.Errorf("failed to detach receipt from expense %s: %w", expenseID, err)
	}

	if err := s.receipts.Delete(ctx, key); err != nil {
		logger.Warn("Failed to delete receipt blob", slog.String("key", key), slog.String("error", err.Error()))
	}
	return expense, nil
}

func (s *expenseService) ReceiptURL(ctx context.Context, expenseID string, key string, actor lifecycle.Actor) (string, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return "", fmt.Errorf("failed to find expense %s: %w", expenseID, err)
	}
	report, err := s.reportRepo.FindReportByID(ctx, expense.ReportID)
	if err != nil {
		return "", fmt.Errorf("failed to find report %s: %w", expense.ReportID, err)
	}
	if !canView(report, actor) {
		return "", fmt.Errorf("%w: report is not visible to this user", apperrors.ErrForbidden)
	}

	owned := false
	for _, k := range expense.ReceiptKeys {
		if k == key {
			owned = true
			break
		}
	}
	if !owned {
		return "", fmt.Errorf("%w: receipt not found on expense", apperrors.ErrNotFound)
	}

	token, err := utils.GenerateReceiptToken(key, s.cfg.JWTSecret, s.cfg.ReceiptURLTTL, s.cfg.JWTIssuer)
	if err != nil {
		return "", fmt.Errorf("failed to sign receipt token: %w", err)
	}
	return "/api/v1/receipts/view?token=" + url.QueryEscape(token), nil
}

func (s *expenseService) OpenReceiptByToken(ctx context.Context, token string) (io.ReadCloser, string, error) {
	key, err := utils.ParseReceiptToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, "invalid or expired receipt token")
	}

	rc, err := s.receipts.Open(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open receipt %s: %w", key, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}
