package sm2

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/conorfennell/murajaah/internal/domain"
)

var day0 = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func review(t *testing.T, s *Scheduler, item domain.ReviewItem, q Quality, now time.Time) domain.ReviewItem {
	t.Helper()
	u, err := s.RecordReview(item, q, now)
	if err != nil {
		t.Fatalf("RecordReview(q=%d) returned an unexpected error: %v", q, err)
	}
	return u.Apply(item)
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero config", cfg: Config{}},
		{name: "custom ease", cfg: Config{InitialEaseFactor: 2.0, MinimumEaseFactor: 1.5}},
		{name: "negative minimum", cfg: Config{MinimumEaseFactor: -1}, wantErr: true},
		{name: "initial below minimum", cfg: Config{InitialEaseFactor: 1.2}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.cfg)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() returned an unexpected error: %v", err)
			}
			if s.Location() != time.UTC {
				t.Errorf("Expected default location UTC, got %v", s.Location())
			}
		})
	}
}

func TestCreateItem(t *testing.T) {
	s := Default()
	item := s.CreateItem("subject-1", day0)

	if item.ID == "" {
		t.Error("Expected a generated ID")
	}
	if item.SubjectID != "subject-1" {
		t.Errorf("Expected subject ID 'subject-1', got '%s'", item.SubjectID)
	}
	if item.EaseFactor != 2.5 || item.Interval != 1 || item.Repetitions != 0 {
		t.Errorf("Unexpected initial state: ease=%.2f interval=%d reps=%d", item.EaseFactor, item.Interval, item.Repetitions)
	}
	if !item.NextReviewAt.Equal(days(1)) {
		t.Errorf("Expected next review at %v, got %v", days(1), item.NextReviewAt)
	}
	if item.Priority() != domain.PriorityNew {
		t.Errorf("Expected priority new, got %s", item.Priority())
	}
	if item.LastReviewedAt != nil || item.LastQuality != nil {
		t.Error("Expected no review history on a new item")
	}
	if other := s.CreateItem("subject-1", day0); other.ID == item.ID {
		t.Error("Expected distinct IDs for separate items")
	}
}

func TestRecordReviewEaseFactor(t *testing.T) {
	s := Default()
	// EF' = 2.5 + (0.1 - d*(0.08 + d*0.02)) with d = 5 - q
	expected := map[Quality]float64{
		Blackout:  1.7,
		Wrong:     1.96,
		Familiar:  2.18,
		Effortful: 2.36,
		Hesitant:  2.5,
		Perfect:   2.6,
	}
	for q, want := range expected {
		item := s.CreateItem("s", day0)
		u, err := s.RecordReview(item, q, days(1))
		if err != nil {
			t.Fatalf("RecordReview(q=%d) returned an unexpected error: %v", q, err)
		}
		if math.Abs(u.EaseFactor-want) > 1e-9 {
			t.Errorf("Quality %d: expected ease %.2f, got %.4f", q, want, u.EaseFactor)
		}
	}
}

func TestRecordReviewEaseFloor(t *testing.T) {
	s := Default()
	item := s.CreateItem("s", day0)
	for i := 1; i <= 20; i++ {
		item = review(t, s, item, Blackout, days(i))
		if item.EaseFactor < MinimumEaseFactor {
			t.Fatalf("Ease dropped below floor after %d failures: %.4f", i, item.EaseFactor)
		}
	}
	if item.EaseFactor != MinimumEaseFactor {
		t.Errorf("Expected ease to settle at %.1f, got %.4f", MinimumEaseFactor, item.EaseFactor)
	}
}

func TestRecordReviewIntervalGrowth(t *testing.T) {
	s := Default()
	item := s.CreateItem("s", day0)

	var intervals []int
	now := day0
	for i := 0; i < 6; i++ {
		now = item.NextReviewAt
		item = review(t, s, item, Perfect, now)
		intervals = append(intervals, item.Interval)
	}

	if intervals[0] != 1 || intervals[1] != 6 {
		t.Fatalf("Expected intervals to start 1, 6; got %v", intervals)
	}
	for i := 2; i < len(intervals); i++ {
		if intervals[i] <= intervals[i-1] {
			t.Errorf("Expected strictly increasing intervals after the 2nd repetition, got %v", intervals)
			break
		}
	}
	// third interval: round(6 * 2.8)
	if intervals[2] != 17 {
		t.Errorf("Expected third interval 17, got %d", intervals[2])
	}
}

func TestRecordReviewFailureResets(t *testing.T) {
	s := Default()
	reviewed := day0
	q := 5
	item := domain.ReviewItem{
		ID:             "x",
		EaseFactor:     2.8,
		Interval:       40,
		Repetitions:    7,
		NextReviewAt:   days(10),
		LastReviewedAt: &reviewed,
		LastQuality:    &q,
	}

	for _, fail := range []Quality{Blackout, Wrong, Familiar} {
		u, err := s.RecordReview(item, fail, days(10))
		if err != nil {
			t.Fatalf("RecordReview returned an unexpected error: %v", err)
		}
		if u.Repetitions != 0 || u.Interval != 1 {
			t.Errorf("Quality %d: expected reset to reps=0 interval=1, got reps=%d interval=%d", fail, u.Repetitions, u.Interval)
		}
		if u.Priority != domain.PriorityRelearning {
			t.Errorf("Quality %d: expected relearning, got %s", fail, u.Priority)
		}
		if !u.NextReviewAt.Equal(days(11)) {
			t.Errorf("Quality %d: expected next review %v, got %v", fail, days(11), u.NextReviewAt)
		}
	}
}

func TestRecordReviewInvalidQuality(t *testing.T) {
	s := Default()
	item := s.CreateItem("s", day0)
	before := item.Clone()

	for _, q := range []Quality{-1, 6, 42} {
		_, err := s.RecordReview(item, q, days(1))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Quality %d: expected ErrInvalidInput, got %v", q, err)
		}
	}
	if item.EaseFactor != before.EaseFactor || item.Repetitions != before.Repetitions || !item.NextReviewAt.Equal(before.NextReviewAt) {
		t.Error("Expected the item to be untouched after rejected reviews")
	}
}

func TestRecordReviewDoesNotMutateInput(t *testing.T) {
	s := Default()
	item := s.CreateItem("s", day0)
	updated := review(t, s, item, Hesitant, days(1))

	if item.Repetitions != 0 || item.LastQuality != nil || item.LastReviewedAt != nil {
		t.Error("Expected the original item to keep its state")
	}
	if updated.Repetitions != 1 {
		t.Errorf("Expected the updated item to have 1 repetition, got %d", updated.Repetitions)
	}
}

func TestEndToEndScenario(t *testing.T) {
	s := Default()

	item := s.CreateItem("bismillah", days(0))
	if item.Interval != 1 || !item.NextReviewAt.Equal(days(1)) {
		t.Fatalf("Unexpected new item: interval=%d next=%v", item.Interval, item.NextReviewAt)
	}

	item = review(t, s, item, Hesitant, days(1))
	if item.Repetitions != 1 || item.Interval != 1 || !item.NextReviewAt.Equal(days(2)) {
		t.Fatalf("After day 1: reps=%d interval=%d next=%v", item.Repetitions, item.Interval, item.NextReviewAt)
	}

	item = review(t, s, item, Hesitant, days(2))
	if item.Repetitions != 2 || item.Interval != 6 || !item.NextReviewAt.Equal(days(8)) {
		t.Fatalf("After day 2: reps=%d interval=%d next=%v", item.Repetitions, item.Interval, item.NextReviewAt)
	}

	item = review(t, s, item, Perfect, days(8))
	wantInterval := int(math.Round(6 * item.EaseFactor))
	if item.Repetitions != 3 || item.Interval != wantInterval || !item.NextReviewAt.Equal(days(8+wantInterval)) {
		t.Fatalf("After day 8: reps=%d interval=%d (want %d) next=%v", item.Repetitions, item.Interval, wantInterval, item.NextReviewAt)
	}
	if !item.LastReviewedAt.Equal(days(8)) || *item.LastQuality != 5 {
		t.Errorf("Expected last review at day 8 with quality 5, got %v / %d", item.LastReviewedAt, *item.LastQuality)
	}
	if item.Priority() != domain.PriorityLearning {
		t.Errorf("Expected learning priority at 3 repetitions, got %s", item.Priority())
	}
}

func TestNextReviewUsesCalendarDays(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	s, err := New(Config{Location: loc})
	if err != nil {
		t.Fatal(err)
	}
	// clocks go forward on 2024-03-31 in London
	now := time.Date(2024, time.March, 30, 20, 0, 0, 0, loc)
	item := s.CreateItem("s", now)

	want := time.Date(2024, time.March, 31, 20, 0, 0, 0, loc)
	if !item.NextReviewAt.Equal(want) {
		t.Errorf("Expected next review %v, got %v", want, item.NextReviewAt)
	}
}
