package models

import (
	"fmt"
	"time"

	"github.com/m073med011/lms-api/pkg/types"
)

// Purchase is the ledger entry for one payment attempt of one
// (user, course) pair. Rows are never deleted; a purchase either stays
// Pending forever or converges to a terminal status through the
// reconciliation engine.
type Purchase struct {
	ID       string `gorm:"column:id;primary_key;type:uuid;index:idx_purchase_user_id,priority:2,sort:desc" json:"id"`
	UserID   string `gorm:"column:user_id;type:uuid;not null;index:idx_purchase_user_id,priority:1" json:"user_id"`
	CourseID string `gorm:"column:course_id;type:uuid;not null;index" json:"course_id"`
	// TransactionID is the gateway-issued order id correlating every inbound
	// signal about this purchase.
	TransactionID string `gorm:"column:transaction_id;type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	// AmountCents snapshots the course price in minor units at creation time.
	AmountCents int64                `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Status      types.PurchaseStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	// PaidKey is set to "userID:courseID" in the same UPDATE that moves the
	// row to Paid. Its unique index is the database-level guarantee that at
	// most one purchase per pair ever reaches Paid.
	PaidKey   *string   `gorm:"column:paid_key;type:varchar(80);uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Purchase) TableName() string { return "purchase" }

func (p *Purchase) Terminal() bool {
	return p != nil && p.Status.Terminal()
}

// PairKey derives the value stored in paid_key for a (user, course) pair.
func PairKey(userID, courseID string) string {
	return fmt.Sprintf("%s:%s", userID, courseID)
}
