package sm2

import (
	"math"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/conorfennell/murajaah/internal/domain"
)

// Stats summarises a learner's collection at a point in time.
type Stats struct {
	TotalItems       int
	DueItems         int
	LearnedItems     int     // repetitions >= 3
	NewItems         int     // repetitions == 0
	AverageRetention float64 // percent of reviewed items whose last quality passed
	StreakDays       int
}

// LearnedThreshold is the repetition count from which an item counts as learned.
const LearnedThreshold = 3

// ComputeStudyStats aggregates items as of now.
func (s *Scheduler) ComputeStudyStats(items []domain.ReviewItem, now time.Time) Stats {
	stats := Stats{
		TotalItems: len(items),
		DueItems: lo.CountBy(items, func(it domain.ReviewItem) bool {
			return IsDue(it, now)
		}),
		LearnedItems: lo.CountBy(items, func(it domain.ReviewItem) bool {
			return it.Repetitions >= LearnedThreshold
		}),
		NewItems: lo.CountBy(items, func(it domain.ReviewItem) bool {
			return it.Repetitions == 0
		}),
		StreakDays: s.streakDays(items, now),
	}

	reviewed := lo.Filter(items, func(it domain.ReviewItem, _ int) bool {
		return it.LastQuality != nil
	})
	if len(reviewed) > 0 {
		passed := lo.CountBy(reviewed, func(it domain.ReviewItem) bool {
			return *it.LastQuality >= domain.PassingQuality
		})
		stats.AverageRetention = float64(passed) / float64(len(reviewed)) * 100
	}
	return stats
}

// streakDays counts consecutive calendar days with at least one review,
// walking back from the day containing now. A day without reviews ends the
// streak, so no review today means no streak.
func (s *Scheduler) streakDays(items []domain.ReviewItem, now time.Time) int {
	days := make(map[time.Time]struct{})
	for _, it := range items {
		if it.Reviewed() {
			days[s.day(*it.LastReviewedAt)] = struct{}{}
		}
	}

	today := s.day(now)
	streak := 0
	for {
		if _, ok := days[today.AddDate(0, 0, -streak)]; !ok {
			return streak
		}
		streak++
	}
}

// DayCount is the number of items falling due on one calendar date.
type DayCount struct {
	Date  time.Time // midnight in the scheduler's location
	Count int
}

// ForecastDueCounts buckets items whose next review lies between now and
// daysAhead days later by the calendar date they fall due. Buckets are
// returned oldest first and only dates with at least one item appear.
func (s *Scheduler) ForecastDueCounts(items []domain.ReviewItem, now time.Time, daysAhead int) []DayCount {
	upcoming := lo.Filter(items, func(it domain.ReviewItem, _ int) bool {
		days := math.Ceil(it.NextReviewAt.Sub(now).Hours() / 24)
		return days >= 0 && days <= float64(daysAhead)
	})
	byDay := lo.GroupBy(upcoming, func(it domain.ReviewItem) time.Time {
		return s.day(it.NextReviewAt)
	})

	out := make([]DayCount, 0, len(byDay))
	for day, group := range byDay {
		out = append(out, DayCount{Date: day, Count: len(group)})
	}
	slices.SortFunc(out, func(a, b DayCount) int {
		return a.Date.Compare(b.Date)
	})
	return out
}
