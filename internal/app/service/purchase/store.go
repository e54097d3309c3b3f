package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/logctx"
	"github.com/m073med011/lms-api/pkg/tool"
	"github.com/m073med011/lms-api/pkg/types"
)

// Store is the durable ledger of purchase attempts, keyed by the
// gateway-issued transaction id. All status mutations go through
// CompareAndTransition; rows are never deleted.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: log}
}

// Create persists a new Pending purchase. It fails with ErrConflict when a
// Paid purchase already exists for the pair or the transaction id collides
// with an existing record.
func (s *Store) Create(ctx context.Context, userID, courseID, transactionID string, amountCents int64) (*models.Purchase, error) {
	paid, err := s.HasPaid(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, fmt.Errorf("%w: pair %s already paid", ErrConflict, models.PairKey(userID, courseID))
	}

	p := &models.Purchase{
		ID:            tool.GenerateUUIDV7(),
		UserID:        userID,
		CourseID:      courseID,
		TransactionID: transactionID,
		AmountCents:   amountCents,
		Status:        types.PurchaseStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: transaction %s already recorded", ErrConflict, transactionID)
		}
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return p, nil
}

// HasPaid reports whether a Paid purchase exists for the pair.
func (s *Store) HasPaid(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, types.PurchaseStatusPaid).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check paid purchase: %w", err)
	}
	return count > 0, nil
}

func (s *Store) FindByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
	var p models.Purchase
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	return &p, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Purchase, error) {
	var p models.Purchase
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	return &p, nil
}

// CompareAndTransition atomically moves a purchase from one status to
// another with a single conditional UPDATE. The bool result reports whether
// this call performed the transition; an idempotent re-apply of an already
// reached terminal status returns the record unchanged with false.
//
// A transition to Paid sets paid_key in the same statement, so the unique
// index on paid_key enforces at most one Paid purchase per pair even when
// two distinct transactions race for it.
func (s *Store) CompareAndTransition(ctx context.Context, transactionID string, from, to types.PurchaseStatus) (*models.Purchase, bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to == types.PurchaseStatusPaid {
		updates["paid_key"] = gorm.Expr("user_id || ':' || course_id")
	}

	res := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("transaction_id = ? AND status = ?", transactionID, from).
		Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			// A different transaction already holds Paid for this pair.
			logctx.FromCtx(ctx, s.log).Errorw("paid_key_collision",
				"transaction_id", transactionID, "target", to)
			return nil, false, fmt.Errorf("%w: another purchase already paid for this pair", ErrConflict)
		}
		return nil, false, fmt.Errorf("failed to transition purchase: %w", res.Error)
	}

	p, err := s.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, false, err
	}
	if res.RowsAffected == 1 {
		return p, true, nil
	}
	return p, false, ClassifyLostUpdate(p.Status, to)
}

// ClassifyLostUpdate maps a failed conditional update to the outcome
// contract: re-applying a reached terminal status is a no-op, a contradictory
// terminal target is illegal, anything else means a concurrent writer won.
func ClassifyLostUpdate(current, target types.PurchaseStatus) error {
	switch {
	case current == target:
		return nil
	case current.Terminal():
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
	default:
		return fmt.Errorf("%w: current status %s", ErrStaleTransition, current)
	}
}
