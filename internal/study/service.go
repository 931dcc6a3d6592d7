package study

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/conorfennell/murajaah/internal/domain"
	"github.com/conorfennell/murajaah/internal/sm2"
)

// Repository persists review items and their history.
// GetItem must return an error wrapping domain.ErrNotFound for unknown IDs.
type Repository interface {
	GetItem(ctx context.Context, id string) (*domain.ReviewItem, error)
	SaveItem(ctx context.Context, item domain.ReviewItem) error
	ListItems(ctx context.Context) ([]domain.ReviewItem, error)
	ListItemsBySubjects(ctx context.Context, subjectIDs []string) ([]domain.ReviewItem, error)
	InsertReviewLog(ctx context.Context, log domain.ReviewLog) error
}

// Service drives study sessions on top of the scheduler.
type Service struct {
	repo     Repository
	sched    *sm2.Scheduler
	plan     sm2.StudyPlan
	log      *slog.Logger
	validate *validator.Validate
	locks    keyedMutex
	enrollMu sync.Mutex // one item per subject
}

// NewService wires a Service. A nil logger discards output.
func NewService(repo Repository, sched *sm2.Scheduler, plan sm2.StudyPlan, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:     repo,
		sched:    sched,
		plan:     plan,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Plan returns the study plan the service caps sessions with.
func (s *Service) Plan() sm2.StudyPlan {
	return s.plan
}

// Queue returns the items to present in a session started at now. Never
// reviewed items are limited to the plan's MaxNewItems and the whole queue to
// sm2.OptimalSessionSize.
func (s *Service) Queue(ctx context.Context, now time.Time) ([]domain.ReviewItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	due := sm2.SelectDueItems(items, now)
	queue := make([]domain.ReviewItem, 0, len(due))
	newCount := 0
	for _, it := range due {
		if it.Priority() == domain.PriorityNew {
			if newCount == s.plan.MaxNewItems {
				continue
			}
			newCount++
		}
		queue = append(queue, it)
	}

	size := sm2.OptimalSessionSize(len(queue))
	s.log.Debug("built study queue", "due", len(queue), "session_size", size, "plan", s.plan.Name)
	return queue[:size], nil
}

// ReviewRequest is a learner's answer for one item.
type ReviewRequest struct {
	ItemID       string        `validate:"required"`
	Quality      int           `validate:"min=0,max=5"`
	ResponseTime time.Duration `validate:"min=0"`
}

// Review applies a review to the stored item and appends it to the item's
// history. Invalid requests wrap sm2.ErrInvalidInput and change nothing.
// Reviews of the same item are applied one at a time.
func (s *Service) Review(ctx context.Context, req ReviewRequest, now time.Time) (domain.ReviewItem, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.ReviewItem{}, fmt.Errorf("%w: %v", sm2.ErrInvalidInput, err)
	}

	unlock := s.locks.lock(req.ItemID)
	defer unlock()

	item, err := s.repo.GetItem(ctx, req.ItemID)
	if err != nil {
		return domain.ReviewItem{}, err
	}

	update, err := s.sched.RecordReview(*item, sm2.Quality(req.Quality), now)
	if err != nil {
		return domain.ReviewItem{}, err
	}
	updated := update.Apply(*item)

	if err := s.repo.SaveItem(ctx, updated); err != nil {
		return domain.ReviewItem{}, err
	}
	entry := domain.ReviewLog{
		ItemID:       req.ItemID,
		Quality:      req.Quality,
		ReviewedAt:   now,
		ResponseTime: req.ResponseTime,
	}
	if err := s.repo.InsertReviewLog(ctx, entry); err != nil {
		// the schedule is already saved; history is best effort
		s.log.Warn("failed to record review log", "item_id", req.ItemID, "error", err)
	}

	s.log.Info("review recorded",
		"item_id", updated.ID,
		"quality", req.Quality,
		"interval", updated.Interval,
		"ease", updated.EaseFactor,
		"priority", update.Priority,
	)
	return updated, nil
}

// Enroll creates review items for the subjects that have none yet and
// returns the new items. Concurrent calls are serialized, so a subject shared
// by several decks gets a single item.
func (s *Service) Enroll(ctx context.Context, subjectIDs []string, now time.Time) ([]domain.ReviewItem, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	s.enrollMu.Lock()
	defer s.enrollMu.Unlock()

	existing, err := s.repo.ListItemsBySubjects(ctx, subjectIDs)
	if err != nil {
		return nil, err
	}
	enrolled := lo.SliceToMap(existing, func(it domain.ReviewItem) (string, struct{}) {
		return it.SubjectID, struct{}{}
	})

	var created []domain.ReviewItem
	for _, sid := range lo.Uniq(subjectIDs) {
		if _, ok := enrolled[sid]; ok {
			continue
		}
		item := s.sched.CreateItem(sid, now)
		if err := s.repo.SaveItem(ctx, item); err != nil {
			return created, err
		}
		created = append(created, item)
	}
	if len(created) > 0 {
		s.log.Info("enrolled subjects", "count", len(created))
	}
	return created, nil
}

// Stats computes study statistics over every stored item.
func (s *Service) Stats(ctx context.Context, now time.Time) (sm2.Stats, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return sm2.Stats{}, err
	}
	return s.sched.ComputeStudyStats(items, now), nil
}

// Forecast returns per-day due counts for the next days.
func (s *Service) Forecast(ctx context.Context, now time.Time, days int) ([]sm2.DayCount, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return s.sched.ForecastDueCounts(items, now, days), nil
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
