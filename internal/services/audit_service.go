package services

import (
	"encoding/json"

	"tally/internal/logger"
	"tally/internal/models"

	"gorm.io/gorm"
)

// Audited actions.
const (
	AuditCreateTransaction  = "CREATE_TRANSACTION"
	AuditCreateSubscription = "CREATE_SUBSCRIPTION"
	AuditCancelSubscription = "CANCEL_SUBSCRIPTION"
	AuditCreateCategory     = "CREATE_CATEGORY"
	AuditUpdateCategory     = "UPDATE_CATEGORY"
	AuditDeleteCategory     = "DELETE_CATEGORY"
	AuditSetCategory        = "SET_CATEGORY"
	AuditCreateRule         = "CREATE_RULE"
	AuditDeleteRule         = "DELETE_RULE"
	AuditSaveBudget         = "SAVE_BUDGET"
)

// Audited resource types.
const (
	ResourceTransaction  = "transaction"
	ResourceSubscription = "subscription"
	ResourceCategory     = "category"
	ResourceMerchantRule = "merchant_rule"
	ResourceBudgetConfig = "budget_config"
)

// auditService writes audit entries straight to the audit_logs table.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records that userID performed action on a resource. It is best-effort:
// failures are logged and never reach the caller, whose change has already
// been committed.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Warnw("audit changes not serialisable", "error", err, "action", action)
		} else {
			entry.Changes = string(data)
		}
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to write audit entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
