package models

import (
	"time"

	"github.com/m073med011/lms-api/pkg/types"
)

type Course struct {
	ID            string            `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Title         string            `gorm:"column:title;type:varchar(128);not null" json:"title"`
	Slug          string            `gorm:"column:slug;type:varchar(160);not null;uniqueIndex" json:"slug"`
	Description   string            `gorm:"column:description;type:text;not null" json:"description"`
	InstructorID  string            `gorm:"column:instructor_id;type:uuid;not null;index" json:"instructor_id"`
	Category      string            `gorm:"column:category;type:varchar(64);not null" json:"category"`
	Level         types.CourseLevel `gorm:"column:level;type:varchar(32);not null" json:"level"`
	DurationHours int               `gorm:"column:duration_hours;not null" json:"duration_hours"`
	// PriceCents is the course price in minor units. Purchases snapshot this
	// value at creation time and never re-read it from gateway callbacks.
	PriceCents  int64     `gorm:"column:price_cents;type:bigint;not null" json:"price_cents"`
	IsPublished bool      `gorm:"column:is_published;not null;default:false" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Course) TableName() string { return "course" }
