package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/logctx"
	"github.com/m073med011/lms-api/pkg/tool"
)

// Service grants course access for a confirmed paid purchase. Both
// underlying mutations are idempotent set-unions, so Grant is safe to call
// repeatedly and concurrently for the same pair.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Grant adds the user to the course's enrolled set and the course to the
// user's purchased set. The two inserts are not a single transaction;
// consistency comes from re-driving both on every call, first or repeated.
func (s *Service) Grant(ctx context.Context, userID, courseID string) error {
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CourseEnrollment{CourseID: courseID, UserID: userID}).Error; err != nil {
		return fmt.Errorf("failed to add user to enrolled set: %w", err)
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserCourse{UserID: userID, CourseID: courseID}).Error; err != nil {
		return fmt.Errorf("failed to add course to purchased set: %w", err)
	}
	return nil
}

// EnqueueRetry records a grant that failed after its purchase was already
// Paid. The background retrier re-drives it until it succeeds.
func (s *Service) EnqueueRetry(ctx context.Context, userID, courseID, transactionID string, cause error) {
	retry := &models.EnrollmentRetry{
		ID:            tool.GenerateUUIDV7(),
		UserID:        userID,
		CourseID:      courseID,
		TransactionID: transactionID,
		Attempts:      1,
	}
	if cause != nil {
		retry.LastError = lo.ToPtr(cause.Error())
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"attempts":   gorm.Expr("enrollment_retry.attempts + 1"),
				"last_error": retry.LastError,
				"updated_at": time.Now(),
			}),
		}).
		Create(retry).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("enrollment_retry_enqueue_failed",
			"user_id", userID, "course_id", courseID, "err", err)
	}
}

const retryBatchSize = 50

// drainRetries re-drives every queued grant once, deleting entries that
// succeed. Returns how many grants succeeded.
func (s *Service) drainRetries(ctx context.Context) int {
	var pending []*models.EnrollmentRetry
	if err := s.db.WithContext(ctx).Order("created_at").Limit(retryBatchSize).Find(&pending).Error; err != nil {
		s.log.Errorw("enrollment_retry_load_failed", "err", err)
		return 0
	}

	granted := 0
	for _, r := range pending {
		if err := s.Grant(ctx, r.UserID, r.CourseID); err != nil {
			s.log.Errorw("enrollment_retry_grant_failed",
				"user_id", r.UserID, "course_id", r.CourseID,
				"transaction_id", r.TransactionID, "attempts", r.Attempts, "err", err)
			s.db.WithContext(ctx).Model(r).Updates(map[string]any{
				"attempts":   r.Attempts + 1,
				"last_error": lo.ToPtr(err.Error()),
			})
			continue
		}
		if err := s.db.WithContext(ctx).Delete(r).Error; err != nil {
			s.log.Errorw("enrollment_retry_delete_failed", "id", r.ID, "err", err)
			continue
		}
		granted++
		s.log.Infow("enrollment_retry_granted",
			"user_id", r.UserID, "course_id", r.CourseID, "transaction_id", r.TransactionID)
	}
	return granted
}
