package dto

// ExportExpensesParams defines query parameters for the expense export.
// Dates are calendar dates, "2006-01-02".
type ExportExpensesParams struct {
	StartDate    string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate      string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	CustomerName string `form:"customerName"`
	ReportID     string `form:"reportID"`
	BillableOnly bool   `form:"billableOnly"`
}
