package service

import (
	"context"
	"time"

	"github.com/freshfold/facility-api/internal/metrics"
	"github.com/freshfold/facility-api/internal/models"
	"github.com/freshfold/facility-api/pkg/logger"
)

// StatsOrderStore is the read surface the stats service aggregates over
type StatsOrderStore interface {
	GetCreatedSince(ctx context.Context, facilityID string, since time.Time) ([]models.Order, error)
	GetAll(ctx context.Context, facilityID string, limit, offset int) ([]*models.Order, error)
}

// Dashboard is the home screen payload: quick counters plus the most
// recent orders.
type Dashboard struct {
	Counts       metrics.Counts  `json:"counts"`
	RecentOrders []*models.Order `json:"recent_orders"`
}

// Statistics is the stats screen payload for one time range
type Statistics struct {
	Range          metrics.Range        `json:"range"`
	Counts         metrics.StatusCounts `json:"counts"`
	TotalTrend     metrics.Trend        `json:"total_trend"`
	CompletedTrend metrics.Trend        `json:"completed_trend"`
	CancelledTrend metrics.Trend        `json:"cancelled_trend"`
	Series         []metrics.Bucket     `json:"series"`
	TopCategories  []metrics.Category   `json:"top_categories"`
}

// recentOrderCount is how many orders the dashboard shows
const recentOrderCount = 10

// StatsService computes dashboard and statistics figures for a facility
type StatsService struct {
	orderRepo StatsOrderStore
	logger    logger.Logger
}

// NewStatsService creates a new StatsService
func NewStatsService(orderRepo StatsOrderStore, logger logger.Logger) *StatsService {
	return &StatsService{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// GetDashboard returns the quick counters over all of a facility's orders
// and its most recent orders.
func (s *StatsService) GetDashboard(ctx context.Context, facilityID string) (*Dashboard, error) {
	orders, err := s.orderRepo.GetCreatedSince(ctx, facilityID, time.Time{})

	if err != nil {
		return nil, err
	}

	recent, err := s.orderRepo.GetAll(ctx, facilityID, recentOrderCount, 0)

	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Counts:       metrics.QuickCounts(orders),
		RecentOrders: recent,
	}, nil
}

// GetStatistics computes the stats screen payload for the named range ending
// at now: window totals, trends against the preceding window of equal
// length, the chart series and the top item categories.
func (s *StatsService) GetStatistics(ctx context.Context, facilityID string, r metrics.Range, categoryLimit int, now time.Time) (*Statistics, error) {
	window, err := metrics.NewWindow(r, now)

	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.GetCreatedSince(ctx, facilityID, window.PreviousStart)

	if err != nil {
		return nil, err
	}

	current := window.Filter(orders)
	previous := window.FilterPrevious(orders)

	counts := metrics.CountStatuses(current)
	prevCounts := metrics.CountStatuses(previous)

	series, err := metrics.SeriesBuckets(orders, r, now)

	if err != nil {
		return nil, err
	}

	return &Statistics{
		Range:          r,
		Counts:         counts,
		TotalTrend:     metrics.ComputeTrend(counts.Total, prevCounts.Total),
		CompletedTrend: metrics.ComputeTrend(counts.Completed, prevCounts.Completed),
		CancelledTrend: metrics.ComputeTrend(counts.Cancelled, prevCounts.Cancelled),
		Series:         series,
		TopCategories:  metrics.TopCategories(current, categoryLimit),
	}, nil
}
