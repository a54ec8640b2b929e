package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx-backed repository to the shared pool.
// The receipt store is injected separately since it lives on disk, not in
// Postgres.
func NewRepositoryProvider(db *pgxpool.Pool, receipts portsrepo.ReceiptStore) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ReportRepo:    NewReportRepository(db),
		ExpenseRepo:   NewExpenseRepository(db),
		UserRepo:      NewUserRepository(db),
		DirectoryRepo: NewDirectoryRepository(db),
		ApprovalRepo:  NewApprovalRepository(db),
		Receipts:      receipts,
	}
}
