package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a user's authorization level. Roles are ordered: USER < MANAGER < ADMIN < SUPER_ADMIN.
type Role string

const (
	RoleUser       Role = "USER"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleManager:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles rank below everything.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] > 0 && roleRank[r] >= roleRank[min]
}

// User represents an account in the CRM together with its credential state.
type User struct {
	ID               uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Email            string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FirstName        string     `json:"firstName" gorm:"size:50;not null"`
	LastName         string     `json:"lastName" gorm:"size:50;not null"`
	Role             Role       `json:"role" gorm:"type:varchar(20);not null;default:'USER';index"`
	IsActive         bool       `json:"isActive" gorm:"not null;default:true;index"`
	FailedAttempts   int        `json:"-" gorm:"not null;default:0"`
	LockedUntil      *time.Time `json:"-"`
	RefreshTokenHash *string    `json:"-" gorm:"size:255"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CredentialUpdate lists the credential columns to overwrite on a user row.
// Nil fields are left untouched; the Clear flags write NULL.
type CredentialUpdate struct {
	FailedAttempts    *int
	LockedUntil       *time.Time
	ClearLockedUntil  bool
	LastLoginAt       *time.Time
	RefreshTokenHash  *string
	ClearRefreshToken bool
	IsActive          *bool
}

// Columns returns the update as a gorm column map.
func (u CredentialUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.FailedAttempts != nil {
		cols["failed_attempts"] = *u.FailedAttempts
	}
	if u.ClearLockedUntil {
		cols["locked_until"] = nil
	} else if u.LockedUntil != nil {
		cols["locked_until"] = *u.LockedUntil
	}
	if u.LastLoginAt != nil {
		cols["last_login_at"] = *u.LastLoginAt
	}
	if u.ClearRefreshToken {
		cols["refresh_token_hash"] = nil
	} else if u.RefreshTokenHash != nil {
		cols["refresh_token_hash"] = *u.RefreshTokenHash
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	return cols
}

// Apply writes the update onto an in-memory user.
func (u CredentialUpdate) Apply(user *User) {
	if u.FailedAttempts != nil {
		user.FailedAttempts = *u.FailedAttempts
	}
	if u.ClearLockedUntil {
		user.LockedUntil = nil
	} else if u.LockedUntil != nil {
		t := *u.LockedUntil
		user.LockedUntil = &t
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		user.LastLoginAt = &t
	}
	if u.ClearRefreshToken {
		user.RefreshTokenHash = nil
	} else if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		user.RefreshTokenHash = &h
	}
	if u.IsActive != nil {
		user.IsActive = *u.IsActive
	}
}

// Empty reports whether the update touches no column.
func (u CredentialUpdate) Empty() bool {
	return len(u.Columns()) == 0
}
