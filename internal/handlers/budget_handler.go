package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tally/internal/budget"
	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// BudgetHandler handles budget configuration and evaluation requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// BudgetConfigRequest replaces the user's budget configuration.
type BudgetConfigRequest struct {
	Currency          string                     `json:"currency" binding:"required,iso4217"`
	MonthlyLimit      *decimal.Decimal           `json:"monthly_limit" swaggertype:"string"`
	YearlyLimit       *decimal.Decimal           `json:"yearly_limit" swaggertype:"string"`
	PerCategoryLimits map[string]decimal.Decimal `json:"per_category_limits" swaggertype:"object,string"`
}

// BudgetStatusQuery selects the month to evaluate.
type BudgetStatusQuery struct {
	Month string `form:"month" binding:"omitempty,year_month"`
}

// BudgetCheckRequest describes a prospective expense.
type BudgetCheckRequest struct {
	Amount     decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
	CategoryID *string         `json:"category_id" binding:"omitempty,uuid"`
	Date       *string         `json:"date"`
}

// YearlySpendingQuery selects the year to total.
type YearlySpendingQuery struct {
	Year int `form:"year" binding:"omitempty,min=1,max=9999"`
}

// GetConfig returns the user's budget configuration
// @Summary     Get budget configuration
// @Description Returns null when no budget has been configured
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BudgetConfig "Budget configuration"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/config [get]
func (h *BudgetHandler) GetConfig(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cfg, err := h.budgetService.GetConfig(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": cfg})
}

// SaveConfig replaces the user's budget configuration
// @Summary     Save budget configuration
// @Description Set the currency, monthly and yearly limits, and per-category limits keyed by category ID
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetConfigRequest true "Budget configuration"
// @Success     200 {object} models.BudgetConfig "Budget saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budget/config [put]
func (h *BudgetHandler) SaveConfig(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	cfg, err := h.budgetService.SaveConfig(userID, services.BudgetConfigInput{
		Currency:          req.Currency,
		MonthlyLimit:      optionalDecimal(req.MonthlyLimit),
		YearlyLimit:       optionalDecimal(req.YearlyLimit),
		PerCategoryLimits: req.PerCategoryLimits,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSaveBudget, services.ResourceBudgetConfig, cfg.ID, c.ClientIP(),
		map[string]any{"currency": cfg.Currency, "category_limits": len(cfg.PerCategoryLimits)})

	c.JSON(http.StatusOK, gin.H{"budget": cfg})
}

// GetStatus evaluates the budget for a month
// @Summary     Get budget status
// @Description Spending per category and any monthly, yearly or category breaches for the month
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month as YYYY-MM (default current month)"
// @Success     200 {object} budget.Status "Budget status"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/status [get]
func (h *BudgetHandler) GetStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q BudgetStatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.ErrInvalidMonth)
		return
	}
	if q.Month == "" {
		q.Month = budget.MonthOf(time.Now())
	}

	status, err := h.budgetService.GetStatus(userID, q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// CheckExpense projects whether an expense would breach the budget
// @Summary     Check a prospective expense
// @Description Reports whether adding the expense would push the month, year or category over its limit
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetCheckRequest true "Prospective expense"
// @Success     200 {object} budget.Projection "Projection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budget/check [post]
func (h *BudgetHandler) CheckExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := optionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projection, err := h.budgetService.WillExceedOnAdd(userID, req.Amount, optionalID(req.CategoryID), date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, projection)
}

// GetYearlySpending totals spending per month
// @Summary     Get yearly spending
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Year (default current year)"
// @Success     200 {object} map[string][]budget.MonthTotal "Monthly totals"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget/yearly [get]
func (h *BudgetHandler) GetYearlySpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q YearlySpendingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if q.Year == 0 {
		q.Year = time.Now().Year()
	}

	totals, err := h.budgetService.GetYearlySpending(userID, q.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": q.Year, "months": totals})
}
