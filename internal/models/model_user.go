package models

import (
	"time"

	"github.com/m073med011/lms-api/pkg/types"
)

type User struct {
	ID           string         `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Name         string         `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Email        string         `gorm:"column:email;type:varchar(256);not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	Role         types.UserRole `gorm:"column:role;type:varchar(32);not null" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (User) TableName() string { return "users" }
