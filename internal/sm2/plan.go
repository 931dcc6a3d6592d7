package sm2

import (
	"fmt"
	"time"
)

// OptimalSessionSize caps how many due items a single session should present.
func OptimalSessionSize(dueCount int) int {
	switch {
	case dueCount <= 0:
		return 0
	case dueCount <= 10:
		return dueCount
	case dueCount <= 20:
		return min(dueCount, 15)
	case dueCount <= 50:
		return min(dueCount, 25)
	default:
		return 30
	}
}

// StudyPlan is a daily workload preset.
type StudyPlan struct {
	Name            string
	DailyGoal       int
	SessionDuration time.Duration
	MaxNewItems     int
}

var (
	PlanNewUser   = StudyPlan{Name: "new_user", DailyGoal: 10, SessionDuration: 15 * time.Minute, MaxNewItems: 5}
	PlanCasual    = StudyPlan{Name: "casual", DailyGoal: 20, SessionDuration: 20 * time.Minute, MaxNewItems: 10}
	PlanSerious   = StudyPlan{Name: "serious", DailyGoal: 50, SessionDuration: 30 * time.Minute, MaxNewItems: 20}
	PlanIntensive = StudyPlan{Name: "intensive", DailyGoal: 100, SessionDuration: 45 * time.Minute, MaxNewItems: 30}
)

// Plans lists the presets from lightest to heaviest.
var Plans = []StudyPlan{PlanNewUser, PlanCasual, PlanSerious, PlanIntensive}

// PlanByName looks up a preset by its Name.
func PlanByName(name string) (StudyPlan, error) {
	for _, p := range Plans {
		if p.Name == name {
			return p, nil
		}
	}
	return StudyPlan{}, fmt.Errorf("%w: unknown study plan %q", ErrInvalidInput, name)
}
