package signallog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/logctx"
	"github.com/m073med011/lms-api/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment signal log. Nil input is ignored.
// Audit logging never blocks or fails signal handling.
func (s *Service) Save(ctx context.Context, entry *models.PaymentSignalLog) {
	go func() {
		if entry == nil {
			return
		}
		if entry.ID == "" {
			entry.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save signal log: %v", err)
		}
	}()
}
