package study

import (
	"time"

	"github.com/conorfennell/murajaah/internal/domain"
)

// Session accumulates statistics for one sitting. It is not safe for
// concurrent use.
type Session struct {
	StartedAt           time.Time
	ItemsStudied        int
	CorrectAnswers      int
	AverageResponseTime time.Duration
	CurrentStreak       int
	BestStreak          int
}

// NewSession starts a session at now.
func NewSession(now time.Time) *Session {
	return &Session{StartedAt: now}
}

// Record folds one review into the session.
func (s *Session) Record(log domain.ReviewLog) {
	total := s.AverageResponseTime*time.Duration(s.ItemsStudied) + log.ResponseTime
	s.ItemsStudied++
	s.AverageResponseTime = total / time.Duration(s.ItemsStudied)

	if log.WasCorrect() {
		s.CorrectAnswers++
		s.CurrentStreak++
		s.BestStreak = max(s.BestStreak, s.CurrentStreak)
	} else {
		s.CurrentStreak = 0
	}
}

// Accuracy is the percentage of correct answers, 0 for an empty session.
func (s *Session) Accuracy() float64 {
	if s.ItemsStudied == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.ItemsStudied) * 100
}

// Elapsed returns how long the session has been running at now.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
