package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// IngestHandler accepts transaction batches from the bank-sync collaborator.
type IngestHandler struct {
	transactionService services.TransactionServicer
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(transactionService services.TransactionServicer) *IngestHandler {
	return &IngestHandler{transactionService: transactionService}
}

// IngestTransaction is one record of a sync batch. Records missing a date,
// amount or merchant are skipped rather than failing the batch.
type IngestTransaction struct {
	ID           string          `json:"id"`
	MerchantName string          `json:"merchant_name"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency     string          `json:"currency"`
	Date         string          `json:"date"`
	AccountID    *string         `json:"account_id"`
	Pending      bool            `json:"pending"`
}

// IngestRequest is a batch of transactions for one user.
type IngestRequest struct {
	UserID       string              `json:"user_id" binding:"required,uuid"`
	Transactions []IngestTransaction `json:"transactions" binding:"required,max=5000"`
}

// IngestTransactions handles bulk upserts from the sync pipeline.
// @Summary     Ingest transactions
// @Description Upsert a batch of synced transactions for a user (pipeline endpoint). Known IDs are updated.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header   string                true "Pipeline API key"
// @Param       request   body     IngestRequest         true "Transaction batch"
// @Success     200       {object} services.IngestResult "Ingest summary"
// @Failure     400       {object} ErrorResponse         "Invalid input"
// @Failure     401       {object} ErrorResponse         "Invalid API key"
// @Failure     503       {object} ErrorResponse         "Pipeline not configured"
// @Router      /ingest/transactions [post]
func (h *IngestHandler) IngestTransactions(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.TransactionInput, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		in := services.TransactionInput{
			ID:           t.ID,
			MerchantName: t.MerchantName,
			Amount:       t.Amount,
			Currency:     t.Currency,
			AccountID:    optionalID(t.AccountID),
			Pending:      t.Pending,
		}
		// An unparsable date leaves Date zero and the record is skipped.
		if date, err := parseFlexibleTime(t.Date); err == nil {
			in.Date = date
		}
		inputs = append(inputs, in)
	}

	result, err := h.transactionService.IngestTransactions(req.UserID, inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
