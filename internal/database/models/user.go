package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account managed through the admin API.
//
// Boolean columns must not carry a gorm default tag: gorm omits zero values
// of defaulted fields on insert, so an explicit false would be lost.
// Defaults are applied by the user admin service.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	EmailIsVerified bool       `gorm:"not null" json:"email_is_verified"`
	Username        *string    `gorm:"size:100;uniqueIndex" json:"username"`
	HashedPassword  *string    `gorm:"size:100" json:"-"`
	IsActive        bool       `gorm:"not null" json:"is_active"`
	IsDeleted       bool       `gorm:"not null;index" json:"is_deleted"`
	MarketingOptIn  bool       `gorm:"not null" json:"marketing_opt_in"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the primary key when the caller left it empty
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasPassword reports whether a password hash is stored
func (u *User) HasPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}

// UsernameValue returns the username or "" when unset
func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// CanLogin reports whether the account may authenticate
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsDeleted && u.HasPassword()
}
