package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column widths of the free-form audit fields.
const (
	AuditIPMaxLen        = 64
	AuditUserAgentMaxLen = 255
)

// AuditLog records a mutating request made by an authenticated user.
type AuditLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	Action    string    `json:"action" gorm:"type:varchar(10);not null"`
	Entity    string    `json:"entity" gorm:"type:varchar(50);not null;index"`
	EntityID  string    `json:"entityId" gorm:"type:varchar(64);not null"`
	IPAddress string    `json:"ipAddress,omitempty" gorm:"size:64"`
	UserAgent string    `json:"userAgent,omitempty" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
