package sm2

import (
	"fmt"

	"github.com/conorfennell/murajaah/internal/domain"
)

// Quality is the learner's self-assessed recall for one review, 0 through 5.
type Quality int

const (
	Blackout  Quality = iota // Nothing recalled.
	Wrong                    // Wrong, recognised once revealed.
	Familiar                 // Wrong, but the answer felt familiar.
	Effortful                // Correct with serious effort.
	Hesitant                 // Correct after a hesitation.
	Perfect                  // Instant recall.
)

var qualityNames = [...]string{
	Blackout:  "Blackout",
	Wrong:     "Wrong",
	Familiar:  "Familiar",
	Effortful: "Effortful",
	Hesitant:  "Hesitant",
	Perfect:   "Perfect",
}

// Qualities lists every valid quality in ascending order.
var Qualities = []Quality{Blackout, Wrong, Familiar, Effortful, Hesitant, Perfect}

// String returns the label of the quality, or "Quality(n)" when out of range.
func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// IsValid reports whether q is within [Blackout, Perfect].
func (q Quality) IsValid() bool {
	return q >= Blackout && q <= Perfect
}

// Passed reports whether q counts as a successful recall.
func (q Quality) Passed() bool {
	return int(q) >= domain.PassingQuality
}
