package types

// PurchaseStatus is the lifecycle state of a purchase attempt.
// Pending is the only non-terminal state; the legal transitions are
// Pending -> Paid and Pending -> Failed.
type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "Pending"
	PurchaseStatusPaid    PurchaseStatus = "Paid"
	PurchaseStatusFailed  PurchaseStatus = "Failed"
)

// Terminal reports whether no further transition is permitted.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseStatusPaid || s == PurchaseStatusFailed
}

type UserRole string

const (
	UserRoleStudent    UserRole = "student"
	UserRoleInstructor UserRole = "instructor"
	UserRoleAdmin      UserRole = "admin"
)

type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
)
