package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/dto"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
)

// directoryHandler handles the lookup lists shown in report and expense forms.
type directoryHandler struct {
	directoryService portssvc.DirectorySvcFacade
}

// newDirectoryHandler creates a new directoryHandler.
func newDirectoryHandler(ds portssvc.DirectorySvcFacade) *directoryHandler {
	return &directoryHandler{
		directoryService: ds,
	}
}

// registerDirectoryRoutes registers routes for customers, cost centers and
// expense categories. Anyone authenticated may read; only admins may write.
func registerDirectoryRoutes(rg *gin.RouterGroup, directoryService portssvc.DirectorySvcFacade) {
	h := newDirectoryHandler(directoryService)

	customers := rg.Group("/customers")
	{
		customers.GET("", h.listCustomers)
		customers.POST("", adminOnly(), h.createCustomer)
		customers.DELETE("/:customerID", adminOnly(), h.deleteCustomer)
	}

	costCenters := rg.Group("/cost-centers")
	{
		costCenters.GET("", h.listCostCenters)
		costCenters.POST("", adminOnly(), h.createCostCenter)
		costCenters.DELETE("/:costCenterID", adminOnly(), h.deleteCostCenter)
	}

	rg.GET("/expense-categories", h.listExpenseCategories)
}

// listCustomers godoc
// @Summary List customers
// @Description Retrieves the customer list for report forms, sorted by name
// @Tags directory
// @Produce  json
// @Success 200 {object} dto.ListCustomersResponse
// @Failure 500 {object} map[string]string "Failed to list customers"
// @Security BearerAuth
// @Router /customers [get]
func (h *directoryHandler) listCustomers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	customers, err := h.directoryService.ListCustomers(c.Request.Context())
	if err != nil {
		respondWithError(c, logger, err, "Failed to list customers")
		return
	}
	c.JSON(http.StatusOK, dto.ToListCustomersResponse(customers))
}

// createCustomer godoc
// @Summary Create a customer
// @Description Adds a customer to the lookup list (admin only)
// @Tags directory
// @Accept  json
// @Produce  json
// @Param   customer body dto.CreateNamedEntryRequest true "Customer name"
// @Success 201 {object} dto.CustomerResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Customer already exists"
// @Security BearerAuth
// @Router /customers [post]
func (h *directoryHandler) createCustomer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateNamedEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	created, err := h.directoryService.CreateCustomer(c.Request.Context(), req.Name, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, dto.CustomerResponse{
		CustomerID: created.CustomerID,
		Name:       created.Name,
		CreatedAt:  created.CreatedAt,
	})
}

// deleteCustomer godoc
// @Summary Delete a customer
// @Description Removes a customer from the lookup list (admin only)
// @Tags directory
// @Produce  json
// @Param   customerID path string true "Customer ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Customer not found"
// @Security BearerAuth
// @Router /customers/{customerID} [delete]
func (h *directoryHandler) deleteCustomer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.directoryService.DeleteCustomer(c.Request.Context(), c.Param("customerID"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to delete customer")
		return
	}

	c.Status(http.StatusNoContent)
}

// listCostCenters godoc
// @Summary List cost centers
// @Description Retrieves the cost center list for expense forms, sorted by name
// @Tags directory
// @Produce  json
// @Success 200 {object} dto.ListCostCentersResponse
// @Failure 500 {object} map[string]string "Failed to list cost centers"
// @Security BearerAuth
// @Router /cost-centers [get]
func (h *directoryHandler) listCostCenters(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	centers, err := h.directoryService.ListCostCenters(c.Request.Context())
	if err != nil {
		respondWithError(c, logger, err, "Failed to list cost centers")
		return
	}
	c.JSON(http.StatusOK, dto.ToListCostCentersResponse(centers))
}

// createCostCenter godoc
// @Summary Create a cost center
// @Description Adds a cost center to the lookup list (admin only)
// @Tags directory
// @Accept  json
// @Produce  json
// @Param   costCenter body dto.CreateNamedEntryRequest true "Cost center name"
// @Success 201 {object} dto.CostCenterResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Cost center already exists"
// @Security BearerAuth
// @Router /cost-centers [post]
func (h *directoryHandler) createCostCenter(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateNamedEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	created, err := h.directoryService.CreateCostCenter(c.Request.Context(), req.Name, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create cost center")
		return
	}

	c.JSON(http.StatusCreated, dto.CostCenterResponse{
		CostCenterID: created.CostCenterID,
		Name:         created.Name,
		CreatedAt:    created.CreatedAt,
	})
}

// deleteCostCenter godoc
// @Summary Delete a cost center
// @Description Removes a cost center from the lookup list (admin only)
// @Tags directory
// @Produce  json
// @Param   costCenterID path string true "Cost Center ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Cost center not found"
// @Security BearerAuth
// @Router /cost-centers/{costCenterID} [delete]
func (h *directoryHandler) deleteCostCenter(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.directoryService.DeleteCostCenter(c.Request.Context(), c.Param("costCenterID"), userID); err != nil {
		respondWithError(c, logger, err, "Failed to delete cost center")
		return
	}

	c.Status(http.StatusNoContent)
}

// listExpenseCategories godoc
// @Summary List expense categories
// @Description Retrieves the configured expense category list
// @Tags directory
// @Produce  json
// @Success 200 {object} dto.CategoriesResponse
// @Security BearerAuth
// @Router /expense-categories [get]
func (h *directoryHandler) listExpenseCategories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: h.directoryService.ListExpenseCategories(c.Request.Context()),
	})
}
