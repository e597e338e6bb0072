// Package metrics computes dashboard and statistics figures from
// in-memory order collections. Everything here is a pure function of its
// inputs; the reference instant is always passed in by the caller.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/freshfold/facility-api/internal/models"
)

// Range names a statistics time window
type Range string

const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// ErrUnknownRange is returned for a range name outside the enumeration
var ErrUnknownRange = errors.New("unknown time range")

// Counts holds the dashboard quick counters. Completed maps to the
// delivered status.
type Counts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
}

// QuickCounts tallies orders by dashboard status in a single pass
func QuickCounts(orders []models.Order) Counts {
	var c Counts

	for _, order := range orders {
		switch models.OrderStatus(order.Status) {
		case models.OrderStatusPending:
			c.Pending++
		case models.OrderStatusProcessing:
			c.Processing++
		case models.OrderStatusDelivered:
			c.Completed++
		}
	}

	return c
}

// StatusCounts holds per-window totals used by the statistics screen
type StatusCounts struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

// CountStatuses tallies totals, processing, completed and cancelled orders
func CountStatuses(orders []models.Order) StatusCounts {
	c := StatusCounts{Total: len(orders)}

	for _, order := range orders {
		switch models.OrderStatus(order.Status) {
		case models.OrderStatusProcessing:
			c.Processing++
		case models.OrderStatusDelivered:
			c.Completed++
		case models.OrderStatusCancelled:
			c.Cancelled++
		}
	}

	return c
}

// Window is a statistics time window plus the previous window of identical
// length immediately preceding it, used for trend comparison.
type Window struct {
	Start         time.Time
	End           time.Time
	PreviousStart time.Time
	PreviousEnd   time.Time
}

// NewWindow computes the window for a named range ending at now
func NewWindow(r Range, now time.Time) (Window, error) {
	w := Window{End: now}

	switch r {
	case RangeToday:
		w.Start = startOfDay(now)
		w.PreviousStart = startOfDay(now.AddDate(0, 0, -1))
	case RangeWeek:
		w.Start = now.AddDate(0, 0, -7)
		w.PreviousStart = now.AddDate(0, 0, -14)
	case RangeMonth:
		w.Start = now.AddDate(0, -1, 0)
		w.PreviousStart = now.AddDate(0, -2, 0)
	case RangeYear:
		w.Start = now.AddDate(-1, 0, 0)
		w.PreviousStart = now.AddDate(-2, 0, 0)
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownRange, r)
	}

	w.PreviousEnd = w.Start
	return w, nil
}

// Filter returns the orders created within [start, end]
func (w Window) Filter(orders []models.Order) []models.Order {
	var out []models.Order

	for _, order := range orders {
		if !order.CreatedAt.Before(w.Start) && !order.CreatedAt.After(w.End) {
			out = append(out, order)
		}
	}

	return out
}

// FilterPrevious returns the orders created within [previousStart, start)
func (w Window) FilterPrevious(orders []models.Order) []models.Order {
	var out []models.Order

	for _, order := range orders {
		if !order.CreatedAt.Before(w.PreviousStart) && order.CreatedAt.Before(w.PreviousEnd) {
			out = append(out, order)
		}
	}

	return out
}

// Trend is the percentage change between a window's metric and the
// preceding window of equal length.
type Trend struct {
	Value    float64 `json:"value"`
	Positive bool    `json:"positive"`
}

// ComputeTrend returns the one-decimal percentage delta between current and
// previous. A zero previous window is defined as a 100% positive trend
// regardless of current.
func ComputeTrend(current, previous int) Trend {
	if previous == 0 {
		return Trend{Value: 100, Positive: true}
	}

	change := (float64(current) - float64(previous)) / float64(previous) * 100

	return Trend{
		Value:    math.Round(math.Abs(change)*10) / 10,
		Positive: change >= 0,
	}
}

// Bucket is one point of a series chart
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SeriesBuckets buckets the orders of the range's window by hour (today),
// weekday (week), day of month (month) or month (year). Each order lands in
// exactly one bucket; orders whose index falls outside the bucket list are
// dropped silently.
func SeriesBuckets(orders []models.Order, r Range, now time.Time) ([]Bucket, error) {
	w, err := NewWindow(r, now)
	if err != nil {
		return nil, err
	}

	var buckets []Bucket

	switch r {
	case RangeToday:
		buckets = make([]Bucket, 24)
		for i := range buckets {
			buckets[i].Label = fmt.Sprintf("%d:00", i)
		}
	case RangeWeek:
		buckets = make([]Bucket, 7)
		for i := 6; i >= 0; i-- {
			buckets[6-i].Label = now.AddDate(0, 0, -i).Format("Mon")
		}
	case RangeMonth:
		buckets = make([]Bucket, 30)
		for i := range buckets {
			buckets[i].Label = now.AddDate(0, 0, -(29 - i)).Format("2")
		}
	case RangeYear:
		buckets = make([]Bucket, 12)
		for i := 11; i >= 0; i-- {
			buckets[11-i].Label = now.AddDate(0, -i, 0).Format("Jan")
		}
	}

	for _, order := range w.Filter(orders) {
		created := order.CreatedAt.In(now.Location())
		var index int

		switch r {
		case RangeToday:
			index = created.Hour()
		case RangeWeek:
			index = 6 - int(now.Sub(created)/(24*time.Hour))
		case RangeMonth:
			index = created.Day() - 1
		case RangeYear:
			index = int(created.Month()) - 1
		}

		if index >= 0 && index < len(buckets) {
			buckets[index].Count++
		}
	}

	return buckets, nil
}

// DefaultCategoryLimit is the number of categories returned when no limit is given
const DefaultCategoryLimit = 5

// Category is a product name with the summed quantity across all orders
type Category struct {
	Name          string `json:"name"`
	TotalQuantity int    `json:"total_quantity"`
}

// TopCategories sums item quantities by product name and returns the top
// limit categories, largest first. Ties break alphabetically so the output
// is stable under input reordering.
func TopCategories(orders []models.Order, limit int) []Category {
	if limit <= 0 {
		limit = DefaultCategoryLimit
	}

	totals := make(map[string]int)

	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductName != "" {
				totals[item.ProductName] += item.Quantity
			}
		}
	}

	categories := make([]Category, 0, len(totals))
	for name, quantity := range totals {
		categories = append(categories, Category{Name: name, TotalQuantity: quantity})
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].TotalQuantity != categories[j].TotalQuantity {
			return categories[i].TotalQuantity > categories[j].TotalQuantity
		}
		return categories[i].Name < categories[j].Name
	})

	if len(categories) > limit {
		categories = categories[:limit]
	}

	return categories
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
