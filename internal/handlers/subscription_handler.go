package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/recurring"
	"tally/internal/services"
)

// SubscriptionHandler handles tracked-subscription requests.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// CreateFromPatternRequest confirms a detected pattern as a subscription.
type CreateFromPatternRequest struct {
	NormalizedMerchant string           `json:"normalized_merchant" binding:"required,max=255"`
	Amount             *decimal.Decimal `json:"amount" swaggertype:"string"`
	CategoryID         *string          `json:"category_id" binding:"omitempty,uuid"`
}

// CreateSubscriptionRequest is a manually entered subscription.
type CreateSubscriptionRequest struct {
	MerchantName    string          `json:"merchant_name" binding:"required,max=255"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string" example:"9.99"`
	Currency        string          `json:"currency" binding:"required,iso4217"`
	Frequency       string          `json:"frequency" binding:"required,frequency"`
	LastPaymentDate string          `json:"last_payment_date" binding:"required"`
	NextPaymentDate *string         `json:"next_payment_date"`
	CategoryID      *string         `json:"category_id" binding:"omitempty,uuid"`
}

// CheckDuplicateRequest describes a candidate charge to test against the
// user's tracked subscriptions.
type CheckDuplicateRequest struct {
	MerchantName string          `json:"merchant_name" binding:"required,max=255"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency     string          `json:"currency" binding:"omitempty,iso4217"`
	Date         *string         `json:"date"`
}

// SubscriptionListQuery filters the subscription list.
type SubscriptionListQuery struct {
	Status string `form:"status" binding:"omitempty,subscription_status"`
}

// CreateFromPattern handles confirming a detected pattern.
// @Summary     Track a detected pattern
// @Description Create a subscription from a detected pattern and link its transactions. Rejected when the merchant is already tracked.
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFromPatternRequest true "Pattern to confirm"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pattern or category not found"
// @Failure     409 {object} ErrorResponse "Duplicate subscription"
// @Router      /subscriptions/from-pattern [post]
func (h *SubscriptionHandler) CreateFromPattern(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFromPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	sub, err := h.subscriptionService.CreateFromPattern(userID, req.NormalizedMerchant, optionalDecimal(req.Amount), optionalID(req.CategoryID))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateSubscription, services.ResourceSubscription, sub.ID, c.ClientIP(),
		map[string]any{"merchant": sub.NormalizedMerchant, "amount": sub.Amount.String(), "frequency": sub.Frequency, "source": "pattern"})

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// CreateSubscription handles manual subscription entry.
// @Summary     Create a subscription
// @Description Track a subscription by hand. Rejected when the merchant is already tracked at a similar amount.
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSubscriptionRequest true "Subscription details"
// @Success     201 {object} models.Subscription "Subscription created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate subscription"
// @Router      /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	last, err := parseFlexibleTime(req.LastPaymentDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	next, err := optionalTime(req.NextPaymentDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.CreateSubscription(userID, services.SubscriptionInput{
		MerchantName:    req.MerchantName,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Frequency:       recurring.Frequency(req.Frequency),
		LastPaymentDate: last,
		NextPaymentDate: next,
		CategoryID:      optionalID(req.CategoryID),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateSubscription, services.ResourceSubscription, sub.ID, c.ClientIP(),
		map[string]any{"merchant": sub.NormalizedMerchant, "amount": sub.Amount.String(), "frequency": sub.Frequency, "source": "manual"})

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

// CheckDuplicate reports whether a charge would duplicate a tracked subscription.
// @Summary     Check for a duplicate subscription
// @Description Advisory check; nothing is persisted
// @Tags        subscriptions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CheckDuplicateRequest true "Candidate charge"
// @Success     200 {object} recurring.DuplicateCheckResult "Check result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /subscriptions/check [post]
func (h *SubscriptionHandler) CheckDuplicate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CheckDuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := optionalTime(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.subscriptionService.CheckDuplicate(userID, models.Transaction{
		UserID:       userID,
		MerchantName: req.MerchantName,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Date:         date.OrElse(time.Now()),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSubscriptions lists the user's subscriptions.
// @Summary     List subscriptions
// @Description List tracked subscriptions with their monthly-equivalent cost
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Filter by status (active, cancelled)"
// @Success     200 {object} map[string][]services.SubscriptionView "Subscriptions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /subscriptions [get]
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q SubscriptionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	status := models.None[models.SubscriptionStatus]()
	if q.Status != "" {
		status = models.Some(models.SubscriptionStatus(q.Status))
	}

	subs, err := h.subscriptionService.GetSubscriptions(userID, status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if subs == nil {
		subs = []services.SubscriptionView{}
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetSubscriptionByID returns a single subscription.
// @Summary     Get subscription by ID
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Subscription"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscriptionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.GetSubscriptionByID(userID, subscriptionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// CancelSubscription stops tracking a subscription.
// @Summary     Cancel a subscription
// @Description Mark a subscription cancelled. Cancelling twice is a no-op.
// @Tags        subscriptions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Subscription ID"
// @Success     200 {object} models.Subscription "Cancelled subscription"
// @Failure     400 {object} ErrorResponse "Invalid subscription ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.subscriptionService.CancelSubscription(userID, subscriptionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCancelSubscription, services.ResourceSubscription, sub.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
