package sm2

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/conorfennell/murajaah/internal/domain"
)

// IsDue reports whether item should be reviewed at now. An item whose
// NextReviewAt equals now is due.
func IsDue(item domain.ReviewItem, now time.Time) bool {
	return !now.Before(item.NextReviewAt)
}

// SelectDueItems returns the items due at now, relearning items first, then
// learning, review and new. Within a tier the most overdue item comes first.
// The input slice is not reordered.
func SelectDueItems(items []domain.ReviewItem, now time.Time) []domain.ReviewItem {
	due := lo.Filter(items, func(it domain.ReviewItem, _ int) bool {
		return IsDue(it, now)
	})
	slices.SortStableFunc(due, compareQueueOrder)
	return due
}

func compareQueueOrder(a, b domain.ReviewItem) int {
	if c := cmp.Compare(a.Priority().Rank(), b.Priority().Rank()); c != 0 {
		return c
	}
	if c := a.NextReviewAt.Compare(b.NextReviewAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
