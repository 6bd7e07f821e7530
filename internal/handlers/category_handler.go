package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// CategoryHandler handles categories, merchant rules and transaction
// categorisation.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CategoryRequest represents the request payload for creating or updating a category.
type CategoryRequest struct {
	Name         string           `json:"name" binding:"max=100"`
	Colour       *string          `json:"colour" binding:"omitempty,hex_color"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit" swaggertype:"string"`
}

func (r CategoryRequest) toInput() services.CategoryInput {
	return services.CategoryInput{
		Name:         r.Name,
		Colour:       optionalID(r.Colour),
		MonthlyLimit: optionalDecimal(r.MonthlyLimit),
	}
}

// MerchantRuleRequest represents the request payload for adding a merchant rule.
type MerchantRuleRequest struct {
	MerchantPattern string `json:"merchant_pattern" binding:"required,max=255"`
	CategoryID      string `json:"category_id" binding:"required,uuid"`
}

// SetCategoryRequest overrides a transaction's category. A null category_id
// clears the override.
type SetCategoryRequest struct {
	CategoryID *string `json:"category_id" binding:"omitempty,uuid"`
}

// BulkCategoriseRequest lists transactions to categorise.
type BulkCategoriseRequest struct {
	TransactionIDs []string `json:"transaction_ids" binding:"required,min=1,max=500,dive,uuid"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a spending category with an optional monthly limit
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateCategory, services.ResourceCategory, category.ID, c.ClientIP(),
		map[string]any{"name": category.Name})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles listing the user's categories
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.Category "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.GetCategories(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategoryByID handles retrieving a single category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update a category
// @Description Rename a category or replace its colour and monthly limit. An empty name keeps the current one.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Category ID"
// @Param       request body CategoryRequest true "Category details"
// @Success     200 {object} models.Category "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateCategory, services.ResourceCategory, category.ID, c.ClientIP(),
		map[string]any{"name": category.Name, "monthly_limit": category.MonthlyLimit})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete a category
// @Description Delete a category. Categories referenced by merchant rules cannot be deleted.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]string "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category in use"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteCategory, services.ResourceCategory, categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// AddMerchantRule handles adding a merchant rule
// @Summary     Add a merchant rule
// @Description Map merchants matching a pattern to a category. New rules take precedence over existing ones.
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MerchantRuleRequest true "Rule details"
// @Success     201 {object} models.MerchantCategoryRule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /rules [post]
func (h *CategoryHandler) AddMerchantRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MerchantRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.categoryService.AddMerchantRule(userID, req.MerchantPattern, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateRule, services.ResourceMerchantRule, rule.ID, c.ClientIP(),
		map[string]any{"merchant_pattern": rule.MerchantPattern, "category_id": rule.CategoryID, "priority": rule.Priority})

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// GetMerchantRules handles listing merchant rules
// @Summary     List merchant rules
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.MerchantCategoryRule "Rules"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /rules [get]
func (h *CategoryHandler) GetMerchantRules(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rules, err := h.categoryService.GetMerchantRules(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// DeleteMerchantRule handles removing a merchant rule
// @Summary     Delete a merchant rule
// @Tags        rules
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} map[string]string "Rule deleted"
// @Failure     400 {object} ErrorResponse "Invalid rule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /rules/{id} [delete]
func (h *CategoryHandler) DeleteMerchantRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteMerchantRule(userID, ruleID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteRule, services.ResourceMerchantRule, ruleID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

// CategoriseTransaction resolves a transaction's category
// @Summary     Resolve a transaction's category
// @Description Resolve by precedence: explicit override, then highest-priority merchant rule, then Uncategorised
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} categorise.Result "Resolved category"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/category [get]
func (h *CategoryHandler) CategoriseTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.categoryService.CategoriseTransaction(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BulkCategorise resolves categories for several transactions
// @Summary     Resolve categories in bulk
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkCategoriseRequest true "Transaction IDs"
// @Success     200 {object} map[string]categorise.Result "Resolved categories keyed by transaction ID"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/categorise [post]
func (h *CategoryHandler) BulkCategorise(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkCategoriseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	results, err := h.categoryService.BulkCategorise(userID, req.TransactionIDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": results})
}

// SetTransactionCategory overrides a transaction's category
// @Summary     Override a transaction's category
// @Description Set or clear the explicit category on a transaction
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Transaction ID"
// @Param       request body SetCategoryRequest true "Category override"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id}/category [put]
func (h *CategoryHandler) SetTransactionCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.categoryService.SetTransactionCategory(userID, transactionID, optionalID(req.CategoryID))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSetCategory, services.ResourceTransaction, transaction.ID, c.ClientIP(),
		map[string]any{"category_id": req.CategoryID})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
