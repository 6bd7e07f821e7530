package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/services"
)

// PatternHandler exposes recurring-payment detection.
type PatternHandler struct {
	patternService services.PatternServicer
}

// NewPatternHandler creates a new PatternHandler.
func NewPatternHandler(patternService services.PatternServicer) *PatternHandler {
	return &PatternHandler{patternService: patternService}
}

// DetectPatterns runs detection over the user's transaction history.
// @Summary     Detect recurring payments
// @Description Group the user's transactions by merchant and return the recurring patterns, most confident first
// @Tags        patterns
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]services.DetectedPattern "Detected patterns"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /patterns [get]
func (h *PatternHandler) DetectPatterns(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	patterns, err := h.patternService.DetectPatterns(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if patterns == nil {
		patterns = []services.DetectedPattern{}
	}

	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

// GetPattern returns the pattern for a single merchant.
// @Summary     Get a merchant's pattern
// @Description Get the recurring pattern for a normalized merchant; amount picks between several plans at one merchant
// @Tags        patterns
// @Produce     json
// @Security    BearerAuth
// @Param       merchant path  string true  "Merchant name (normalized on lookup)"
// @Param       amount   query string false "Closest representative amount"
// @Success     200 {object} recurring.RecurringPattern "Pattern"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pattern not found"
// @Router      /patterns/{merchant} [get]
func (h *PatternHandler) GetPattern(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	amount := models.None[decimal.Decimal]()
	if v := c.Query("amount"); v != "" {
		d, parseErr := decimal.NewFromString(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid amount"))
			return
		}
		amount = models.Some(d)
	}

	pattern, err := h.patternService.GetPattern(userID, c.Param("merchant"), amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pattern": pattern})
}
