package purchase

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/m073med011/lms-api/pkg/types"
)

// Revenue statistics over the Paid slice of the ledger, used by the admin
// dashboard. Amounts stay in minor units.
type RevenueStatisticsRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type DailyStatItem struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

type RevenueStatisticsResponse struct {
	DailyPaidCount []DailyStatItem `json:"daily_paid_count"`
	DailyGMV       []DailyStatItem `json:"daily_gmv"`
	TotalGMV       int64           `json:"total_gmv"`
}

func (s *Store) RevenueStatistics(ctx context.Context, req *RevenueStatisticsRequest) (*RevenueStatisticsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	from, to := req.From, req.To
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}

	paidWindow := func() *gorm.DB {
		return s.db.WithContext(ctx).Table("purchase").
			Where("status = ? AND updated_at >= ? AND updated_at < ?", types.PurchaseStatusPaid, from, to)
	}

	var counts []DailyStatItem
	if err := paidWindow().
		Select("to_char(date_trunc('day', updated_at), 'YYYY-MM-DD') AS date, count(*) AS value").
		Group("date").Order("date").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to get daily paid count: %w", err)
	}

	var gmv []DailyStatItem
	if err := paidWindow().
		Select("to_char(date_trunc('day', updated_at), 'YYYY-MM-DD') AS date, coalesce(sum(amount_cents), 0) AS value").
		Group("date").Order("date").Scan(&gmv).Error; err != nil {
		return nil, fmt.Errorf("failed to get daily gmv: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Table("purchase").
		Where("status = ?", types.PurchaseStatusPaid).
		Select("coalesce(sum(amount_cents), 0)").Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to get total gmv: %w", err)
	}

	return &RevenueStatisticsResponse{
		DailyPaidCount: counts,
		DailyGMV:       gmv,
		TotalGMV:       total,
	}, nil
}
