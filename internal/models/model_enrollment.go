package models

import "time"

// CourseEnrollment is the course-side enrollment set: membership of a user
// in a course's enrolled students. Insertions are idempotent set-unions.
type CourseEnrollment struct {
	CourseID  string    `gorm:"column:course_id;type:uuid;primaryKey;priority:1" json:"course_id"`
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey;priority:2" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (CourseEnrollment) TableName() string { return "course_enrollment" }

// UserCourse is the user-side purchased set: membership of a course in a
// user's owned courses. Kept separate from CourseEnrollment so each side
// can be re-driven independently and idempotently.
type UserCourse struct {
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey;priority:1" json:"user_id"`
	CourseID  string    `gorm:"column:course_id;type:uuid;primaryKey;priority:2" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserCourse) TableName() string { return "user_course" }

// EnrollmentRetry queues a grant that failed after its purchase was already
// marked Paid. A background retrier re-drives these until they succeed;
// the purchase status is never rolled back to compensate.
type EnrollmentRetry struct {
	ID            string    `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID        string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:unique_retry_pair,priority:1" json:"user_id"`
	CourseID      string    `gorm:"column:course_id;type:uuid;not null;uniqueIndex:unique_retry_pair,priority:2" json:"course_id"`
	TransactionID string    `gorm:"column:transaction_id;type:varchar(64);not null" json:"transaction_id"`
	Attempts      int       `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError     *string   `gorm:"column:last_error;type:text" json:"last_error"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (EnrollmentRetry) TableName() string { return "enrollment_retry" }
