package domain

import (
	"encoding"
	"fmt"
	"time"
)

// Priority tags a review item by where it sits in the learning cycle.
// It is always derived from Repetitions and LastQuality.
type Priority int

const (
	PriorityNew Priority = iota
	PriorityLearning
	PriorityReview
	PriorityRelearning
)

var (
	priorityNames  = [...]string{PriorityNew: "new", PriorityLearning: "learning", PriorityReview: "review", PriorityRelearning: "relearning"}
	priorityByName = map[string]Priority{
		"new":        PriorityNew,
		"learning":   PriorityLearning,
		"review":     PriorityReview,
		"relearning": PriorityRelearning,
	}
	// queue order: relearning first, never-seen items last
	priorityRanks = [...]int{PriorityRelearning: 0, PriorityLearning: 1, PriorityReview: 2, PriorityNew: 3}
)

var (
	_ fmt.Stringer             = Priority(0)
	_ encoding.TextMarshaler   = Priority(0)
	_ encoding.TextUnmarshaler = (*Priority)(nil)
)

func (p Priority) valid() bool {
	return p >= PriorityNew && p <= PriorityRelearning
}

func (p Priority) String() string {
	if p.valid() {
		return priorityNames[p]
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Rank returns the position of p in a study queue; lower ranks come first.
func (p Priority) Rank() int {
	if !p.valid() {
		return len(priorityRanks)
	}
	return priorityRanks[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("domain: invalid priority: %d", int(p))
	}
	return []byte(priorityNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	v, ok := priorityByName[string(text)]
	if !ok {
		return fmt.Errorf("domain: invalid priority: %q", text)
	}
	*p = v
	return nil
}

// PassingQuality is the lowest review quality counted as a successful recall.
const PassingQuality = 3

// ReviewItem is the scheduling record for one subject.
type ReviewItem struct {
	ID             string
	SubjectID      string
	EaseFactor     float64
	Interval       int // days
	Repetitions    int
	NextReviewAt   time.Time
	LastReviewedAt *time.Time // nil before the first review
	LastQuality    *int       // nil before the first review
	CreatedAt      time.Time
}

// Priority derives the item's tag from its repetition count and last quality.
func (it ReviewItem) Priority() Priority {
	return DerivePriority(it.Repetitions, it.LastQuality)
}

// DerivePriority maps a repetition count and optional last quality to a Priority.
//
//	reps == 0, never reviewed   -> new
//	reps == 0, last quality < 3 -> relearning
//	reps == 0, last quality >= 3 -> learning
//	1 <= reps <= 3              -> learning
//	reps > 3                    -> review
func DerivePriority(repetitions int, lastQuality *int) Priority {
	switch {
	case repetitions <= 0 && lastQuality == nil:
		return PriorityNew
	case repetitions <= 0 && *lastQuality < PassingQuality:
		return PriorityRelearning
	case repetitions <= 3:
		return PriorityLearning
	default:
		return PriorityReview
	}
}

// Reviewed reports whether the item has ever been reviewed.
func (it ReviewItem) Reviewed() bool {
	return it.LastReviewedAt != nil
}

// Clone returns a deep copy of the item. Pointer fields are copied by value.
func (it ReviewItem) Clone() ReviewItem {
	out := it
	if it.LastReviewedAt != nil {
		v := *it.LastReviewedAt
		out.LastReviewedAt = &v
	}
	if it.LastQuality != nil {
		v := *it.LastQuality
		out.LastQuality = &v
	}
	return out
}
