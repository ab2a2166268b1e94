package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`

	// Staff users see everything under @all and may run CSV exports
	IsStaff bool `json:"is_staff" gorm:"default:false"`

	// Password reset flow
	ResetToken          string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	Features   []Feature  `json:"-"`
	Properties []Property `json:"-"`
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID,
		"username": u.Username,
		"is_staff": u.IsStaff,
	}
}
