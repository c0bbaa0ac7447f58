package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records item actions performed on behalf of an owner.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	OwnerID    string         `gorm:"index:idx_audit_owner;size:64;not null" json:"owner_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	InstanceID string         `gorm:"size:36" json:"instance_id"`
	TemplateID string         `gorm:"size:128" json:"template_id"`
	Detail     datatypes.JSON `json:"detail"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
