package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	LeadStatusPending = "pending"
	LeadStatusCreated = "created"
	LeadStatusFailed  = "failed"
)

// Lead is the local ledger row for a lead submitted to the CRM.
type Lead struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:text;uniqueIndex" json:"session_id"`

	Name  string `gorm:"column:name;type:text" json:"name"`
	Email string `gorm:"column:email;type:text;index" json:"email"`
	Phone string `gorm:"column:phone;type:text" json:"phone"`

	CRMStatus string `gorm:"column:crm_status;type:text;index" json:"crm_status"` // pending|created|failed
	CRMLeadID string `gorm:"column:crm_lead_id;type:text" json:"crm_lead_id,omitempty"`
	CRMError  string `gorm:"column:crm_error;type:text" json:"crm_error,omitempty"`
	Attempts  int    `gorm:"column:attempts" json:"attempts"`

	// Metadata holds the shopping context at capture time (bike type, budget, shown products).
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }
