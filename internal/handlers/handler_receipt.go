package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
)

// receiptViewHandler streams receipt files to viewers holding a signed token.
type receiptViewHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

// registerReceiptViewRoute registers the public receipt viewing route.
// The signed token in the query string is the sole credential.
func registerReceiptViewRoute(r *gin.Engine, expenseService portssvc.ExpenseSvcFacade) {
	h := &receiptViewHandler{expenseService: expenseService}
	r.GET("/api/v1/receipts/view", h.viewReceipt)
}

// viewReceipt godoc
// @Summary View a receipt file
// @Description Streams a receipt file. The signed token comes from the receipt URL endpoint and expires quickly.
// @Tags receipts
// @Produce  octet-stream
// @Param   token query string true "Signed receipt token"
// @Success 200 {file} binary
// @Failure 401 {object} map[string]string "Invalid or expired token"
// @Failure 404 {object} map[string]string "Receipt not found"
// @Router /receipts/view [get]
func (h *receiptViewHandler) viewReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Receipt token is required"})
		return
	}

	rc, contentType, err := h.expenseService.OpenReceiptByToken(c.Request.Context(), token)
	if err != nil {
		respondWithError(c, logger, err, "Failed to open receipt")
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=60")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warn("Receipt stream interrupted", slog.String("error", err.Error()))
	}
}
