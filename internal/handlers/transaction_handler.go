package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/repository"
	"tally/internal/services"
	"tally/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest represents a transaction in a request payload.
type TransactionRequest struct {
	ID           string          `json:"id" binding:"omitempty,uuid"`
	MerchantName string          `json:"merchant_name" binding:"required,max=255"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"9.99"`
	Currency     string          `json:"currency" binding:"required,iso4217"`
	Date         string          `json:"date" binding:"required"`
	AccountID    *string         `json:"account_id" binding:"omitempty,max=64"`
	Pending      bool            `json:"pending"`
	CategoryID   *string         `json:"category_id" binding:"omitempty,uuid"`
}

func (r TransactionRequest) toInput() (services.TransactionInput, error) {
	date, err := parseFlexibleTime(r.Date)
	if err != nil {
		return services.TransactionInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.TransactionInput{
		ID:           r.ID,
		MerchantName: r.MerchantName,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Date:         date,
		AccountID:    optionalID(r.AccountID),
		Pending:      r.Pending,
		CategoryID:   optionalID(r.CategoryID),
	}, nil
}

// CreateTransaction handles the creation of a new transaction. The new
// transaction is matched against the user's active subscriptions.
// @Summary     Create a transaction
// @Description Record a transaction; it is linked to a tracked subscription when it fits that subscription's pattern
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateTransaction, services.ResourceTransaction, transaction.ID, c.ClientIP(),
		map[string]any{"merchant_name": transaction.MerchantName, "amount": transaction.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions handles the retrieval of the authenticated user's transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions, newest first unless sorted, with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page            query int    false "Page number (default 1)"
// @Param       page_size       query int    false "Items per page (default 20, max 100)"
// @Param       sort            query string false "date, -date, amount or -amount (default -date)"
// @Param       from_date       query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date         query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       merchant        query string false "Filter by merchant name substring"
// @Param       category_id     query string false "Filter by category ID"
// @Param       subscription_id query string false "Filter by subscription ID"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetTransactions(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (repository.TransactionFilter, error) {
	var filter repository.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.From = models.Some(t)
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.To = models.Some(t)
	}

	filter.Merchant = c.Query("merchant")

	for param, dst := range map[string]*models.Optional[string]{
		"category_id":     &filter.CategoryID,
		"subscription_id": &filter.SubscriptionID,
	} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param)
		}
		*dst = models.Some(id)
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
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

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}
