package domain

import (
	"errors"
	"time"
)

// Subject is a single vocabulary entry from a deck.
type Subject struct {
	ID              string // content fingerprint
	Arabic          string
	Transliteration string
	Translation     string
	Example         string
}

// ReviewLog records a single review event for an item.
// Quality follows the SM-2 scale:
// 0: Blackout
// 1: Wrong, recognised on reveal
// 2: Wrong, answer felt familiar
// 3: Correct with effort
// 4: Correct after hesitation
// 5: Perfect recall
type ReviewLog struct {
	ItemID       string
	Quality      int
	ReviewedAt   time.Time
	ResponseTime time.Duration
}

// WasCorrect reports whether the review counts as a successful recall.
func (l ReviewLog) WasCorrect() bool {
	return l.Quality >= PassingQuality
}

// SourceType tells the sync process how to fetch a source.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
)

// Source is a deck origin, either a local directory or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        SourceType
	LastScanned *time.Time
}

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")
