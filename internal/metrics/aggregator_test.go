package metrics

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/freshfold/facility-api/internal/models"
)

func orderAt(status models.OrderStatus, createdAt time.Time) models.Order {
	return models.Order{Status: string(status), CreatedAt: createdAt}
}

func TestQuickCounts(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		orderAt(models.OrderStatusPending, now),
		orderAt(models.OrderStatusPending, now),
		orderAt(models.OrderStatusProcessing, now),
		orderAt(models.OrderStatusDelivered, now),
	}

	counts := QuickCounts(orders)

	if counts.Pending != 2 || counts.Processing != 1 || counts.Completed != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestQuickCounts_IgnoresOtherStatuses(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		orderAt(models.OrderStatusShipped, now),
		orderAt(models.OrderStatusCancelled, now),
	}

	if counts := QuickCounts(orders); counts != (Counts{}) {
		t.Errorf("expected zero counts, got %+v", counts)
	}
}

func TestComputeTrend(t *testing.T) {
	cases := []struct {
		current, previous int
		want              Trend
	}{
		{0, 0, Trend{Value: 100, Positive: true}},
		{5, 0, Trend{Value: 100, Positive: true}},
		{150, 100, Trend{Value: 50.0, Positive: true}},
		{50, 100, Trend{Value: 50.0, Positive: false}},
		{100, 100, Trend{Value: 0, Positive: true}},
		{101, 300, Trend{Value: 66.3, Positive: false}},
	}

	for _, tc := range cases {
		if got := ComputeTrend(tc.current, tc.previous); got != tc.want {
			t.Errorf("ComputeTrend(%d, %d) = %+v, want %+v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestNewWindow_Today(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	w, err := NewWindow(RangeToday, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !w.Start.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", w.Start)
	}
	if !w.PreviousStart.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("previous start = %v", w.PreviousStart)
	}
	if !w.PreviousEnd.Equal(w.Start) {
		t.Errorf("previous window must end where the current one starts")
	}
}

func TestNewWindow_UnknownRange(t *testing.T) {
	if _, err := NewWindow(Range("quarter"), time.Now()); !errors.Is(err, ErrUnknownRange) {
		t.Fatalf("expected ErrUnknownRange, got %v", err)
	}
}

func TestWindow_FilterSplitsWindows(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	w, _ := NewWindow(RangeWeek, now)

	orders := []models.Order{
		orderAt(models.OrderStatusPending, now.AddDate(0, 0, -1)),  // current
		orderAt(models.OrderStatusPending, now.AddDate(0, 0, -10)), // previous
		orderAt(models.OrderStatusPending, now.AddDate(0, 0, -20)), // neither
		orderAt(models.OrderStatusPending, now),                    // boundary, current
	}

	if got := len(w.Filter(orders)); got != 2 {
		t.Errorf("current window: expected 2 orders, got %d", got)
	}
	if got := len(w.FilterPrevious(orders)); got != 1 {
		t.Errorf("previous window: expected 1 order, got %d", got)
	}
}

func TestSeriesBuckets_Today(t *testing.T) {
	now := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderAt(models.OrderStatusPending, time.Date(2024, 3, 15, 9, 15, 0, 0, time.UTC)),
		orderAt(models.OrderStatusPending, time.Date(2024, 3, 15, 9, 45, 0, 0, time.UTC)),
		orderAt(models.OrderStatusPending, time.Date(2024, 3, 15, 17, 5, 0, 0, time.UTC)),
		// Yesterday: outside the window, dropped by the filter.
		orderAt(models.OrderStatusPending, time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)),
	}

	buckets, err := SeriesBuckets(orders, RangeToday, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(buckets) != 24 {
		t.Fatalf("expected 24 buckets, got %d", len(buckets))
	}
	if buckets[9].Count != 2 || buckets[17].Count != 1 {
		t.Errorf("unexpected bucket counts: 9h=%d 17h=%d", buckets[9].Count, buckets[17].Count)
	}
	if buckets[0].Label != "0:00" || buckets[23].Label != "23:00" {
		t.Errorf("unexpected labels: %q %q", buckets[0].Label, buckets[23].Label)
	}

	var total int
	for _, b := range buckets {
		total += b.Count
	}
	if total != 3 {
		t.Errorf("expected 3 bucketed orders, got %d", total)
	}
}

func TestSeriesBuckets_WeekEndsToday(t *testing.T) {
	// A Friday; the last bucket must be labeled Fri and hold today's orders.
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderAt(models.OrderStatusPending, now.Add(-2*time.Hour)),
		orderAt(models.OrderStatusPending, now.AddDate(0, 0, -3)),
	}

	buckets, err := SeriesBuckets(orders, RangeWeek, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	if buckets[6].Label != "Fri" || buckets[0].Label != "Sat" {
		t.Errorf("unexpected labels: first=%q last=%q", buckets[0].Label, buckets[6].Label)
	}
	if buckets[6].Count != 1 || buckets[3].Count != 1 {
		t.Errorf("unexpected counts: %+v", buckets)
	}
}

func TestSeriesBuckets_YearTwelveMonths(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderAt(models.OrderStatusPending, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
		orderAt(models.OrderStatusPending, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)),
	}

	buckets, err := SeriesBuckets(orders, RangeYear, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(buckets) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(buckets))
	}
	if buckets[11].Label != "Jun" || buckets[0].Label != "Jul" {
		t.Errorf("unexpected labels: first=%q last=%q", buckets[0].Label, buckets[11].Label)
	}
	// March orders land at calendar index 2.
	if buckets[2].Count != 2 {
		t.Errorf("expected 2 orders in bucket 2, got %d", buckets[2].Count)
	}
}

func TestSeriesBuckets_Restartable(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderAt(models.OrderStatusPending, now.Add(-time.Hour)),
	}

	first, err := SeriesBuckets(orders, RangeToday, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := SeriesBuckets(orders, RangeToday, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bucket %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestTopCategories(t *testing.T) {
	orders := []models.Order{
		{Items: []models.OrderItem{
			{ProductName: "Dress Shirt", Quantity: 3},
			{ProductName: "Wool Coat", Quantity: 1},
		}},
		{Items: []models.OrderItem{
			{ProductName: "Dress Shirt", Quantity: 2},
			{ProductName: "Silk Tie", Quantity: 4},
			{ProductName: "Blanket", Quantity: 1},
		}},
	}

	categories := TopCategories(orders, 2)

	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0] != (Category{Name: "Dress Shirt", TotalQuantity: 5}) {
		t.Errorf("top category = %+v", categories[0])
	}
	if categories[1] != (Category{Name: "Silk Tie", TotalQuantity: 4}) {
		t.Errorf("second category = %+v", categories[1])
	}
}

func TestTopCategories_StableUnderReordering(t *testing.T) {
	orders := []models.Order{
		{Items: []models.OrderItem{{ProductName: "Curtains", Quantity: 2}}},
		{Items: []models.OrderItem{{ProductName: "Blanket", Quantity: 2}}},
		{Items: []models.OrderItem{{ProductName: "Apron", Quantity: 2}}},
		{Items: []models.OrderItem{{ProductName: "Duvet", Quantity: 3}}},
	}

	want := TopCategories(orders, 3)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]models.Order, len(orders))
		copy(shuffled, orders)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := TopCategories(shuffled, 3)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("permutation changed output: got %+v, want %+v", got, want)
			}
		}
	}
}

func TestTopCategories_DefaultLimit(t *testing.T) {
	var orders []models.Order
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		orders = append(orders, models.Order{Items: []models.OrderItem{{ProductName: name, Quantity: 1}}})
	}

	if got := TopCategories(orders, 0); len(got) != DefaultCategoryLimit {
		t.Errorf("expected default limit %d, got %d", DefaultCategoryLimit, len(got))
	}
}
