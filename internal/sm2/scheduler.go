package sm2

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/murajaah/internal/domain"
)

const (
	DefaultEaseFactor = 2.5
	MinimumEaseFactor = 1.3
)

// Config configures a Scheduler.
// Zero values produce the standard SM-2 defaults.
type Config struct {
	// Location is the calendar used to bucket timestamps into days. nil means UTC.
	Location *time.Location
	// InitialEaseFactor is assigned to new items. Zero means 2.5.
	InitialEaseFactor float64
	// MinimumEaseFactor is the hard floor of the ease factor. Zero means 1.3.
	MinimumEaseFactor float64
}

// Scheduler computes SM-2 review state. It holds no mutable state and is safe
// for concurrent use.
type Scheduler struct {
	loc         *time.Location
	initialEase float64
	minEase     float64
}

// New creates a Scheduler from cfg.
func New(cfg Config) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	minEase := cfg.MinimumEaseFactor
	if minEase == 0 {
		minEase = MinimumEaseFactor
	}
	if minEase < 0 || math.IsNaN(minEase) {
		return nil, fmt.Errorf("%w: minimum ease factor %f must be positive", ErrInvalidConfig, minEase)
	}
	initial := cfg.InitialEaseFactor
	if initial == 0 {
		initial = DefaultEaseFactor
	}
	if initial < minEase || math.IsNaN(initial) {
		return nil, fmt.Errorf("%w: initial ease factor %f below minimum %f", ErrInvalidConfig, initial, minEase)
	}
	return &Scheduler{loc: loc, initialEase: initial, minEase: minEase}, nil
}

// Default returns a Scheduler with the standard parameters in UTC.
func Default() *Scheduler {
	return &Scheduler{loc: time.UTC, initialEase: DefaultEaseFactor, minEase: MinimumEaseFactor}
}

// Location returns the calendar the scheduler buckets days in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Update holds the fields a review changes. Callers persist it with Apply.
type Update struct {
	EaseFactor     float64
	Interval       int
	Repetitions    int
	NextReviewAt   time.Time
	LastReviewedAt time.Time
	LastQuality    int
	Priority       domain.Priority
}

// Apply returns a copy of item with the update's fields set.
func (u Update) Apply(item domain.ReviewItem) domain.ReviewItem {
	out := item.Clone()
	out.EaseFactor = u.EaseFactor
	out.Interval = u.Interval
	out.Repetitions = u.Repetitions
	out.NextReviewAt = u.NextReviewAt
	reviewed := u.LastReviewedAt
	out.LastReviewedAt = &reviewed
	q := u.LastQuality
	out.LastQuality = &q
	return out
}

// RecordReview computes the next state of item after a review of the given
// quality at now. The item is not modified.
func (s *Scheduler) RecordReview(item domain.ReviewItem, quality Quality, now time.Time) (Update, error) {
	if !quality.IsValid() {
		return Update{}, fmt.Errorf("%w: quality %d outside [0, 5]", ErrInvalidInput, int(quality))
	}

	ease := s.nextEase(item.EaseFactor, quality)

	var reps, interval int
	if quality.Passed() {
		reps = item.Repetitions + 1
		switch reps {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			interval = int(math.Round(float64(item.Interval) * ease))
		}
		if interval < 1 {
			interval = 1
		}
	} else {
		reps = 0
		interval = 1
	}

	q := int(quality)
	return Update{
		EaseFactor:     ease,
		Interval:       interval,
		Repetitions:    reps,
		NextReviewAt:   s.addDays(now, interval),
		LastReviewedAt: now,
		LastQuality:    q,
		Priority:       domain.DerivePriority(reps, &q),
	}, nil
}

// nextEase applies EF' = EF + (0.1 - (5-q) * (0.08 + (5-q)*0.02)) with the floor.
func (s *Scheduler) nextEase(ease float64, quality Quality) float64 {
	d := float64(Perfect - quality)
	next := ease + (0.1 - d*(0.08+d*0.02))
	return math.Max(s.minEase, next)
}

// CreateItem returns a fresh item for subjectID, first due one day after now.
func (s *Scheduler) CreateItem(subjectID string, now time.Time) domain.ReviewItem {
	return domain.ReviewItem{
		ID:           uuid.NewString(),
		SubjectID:    subjectID,
		EaseFactor:   s.initialEase,
		Interval:     1,
		Repetitions:  0,
		NextReviewAt: s.addDays(now, 1),
		CreatedAt:    now,
	}
}

// addDays moves t forward by n calendar days in the scheduler's location.
func (s *Scheduler) addDays(t time.Time, n int) time.Time {
	return t.In(s.loc).AddDate(0, 0, n)
}

// day truncates t to midnight of its calendar date in the scheduler's location.
func (s *Scheduler) day(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}
