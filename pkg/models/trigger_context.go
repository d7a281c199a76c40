package models

// SystemUserID is recorded as the acting user for scheduled executions.
const SystemUserID = "system"

// TriggerContext carries the caller-side shape of a non-event trigger
// (scheduled or manual) into context construction and logging.
type TriggerContext struct {
	TriggerType TriggerType
	TenantID    string
	RecordID    string
	UserID      string
	Data        map[string]any
}

// NewScheduledTriggerContext builds the context used for cron firings:
// system user, no record and no data.
func NewScheduledTriggerContext(tenantID string) TriggerContext {
	return TriggerContext{
		TriggerType: TriggerScheduled,
		TenantID:    tenantID,
		UserID:      SystemUserID,
		Data:        map[string]any{},
	}
}

// NewManualTriggerContext builds the context for an operator-fired rule.
func NewManualTriggerContext(tenantID, recordID, userID string, data map[string]any) TriggerContext {
	if data == nil {
		data = map[string]any{}
	}

	return TriggerContext{
		TriggerType: TriggerManual,
		TenantID:    tenantID,
		RecordID:    recordID,
		UserID:      userID,
		Data:        data,
	}
}
