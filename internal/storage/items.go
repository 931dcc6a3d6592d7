package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/murajaah/internal/domain"
)

const itemColumns = `id, subject_id, ease_factor, interval_days, repetitions, next_review_at, last_reviewed_at, last_quality, created_at`

// GetItem retrieves a review item by ID. It returns domain.ErrNotFound when
// the item does not exist.
func (db *DB) GetItem(ctx context.Context, id string) (*domain.ReviewItem, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM review_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review item %s: %w", id, err)
	}
	return item, nil
}

// SaveItem inserts the item or overwrites its scheduling state.
func (db *DB) SaveItem(ctx context.Context, item domain.ReviewItem) error {
	var (
		lastReviewed sql.NullTime
		lastQuality  sql.NullInt64
	)
	if item.LastReviewedAt != nil {
		lastReviewed = sql.NullTime{Time: item.LastReviewedAt.UTC(), Valid: true}
	}
	if item.LastQuality != nil {
		lastQuality = sql.NullInt64{Int64: int64(*item.LastQuality), Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO review_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			next_review_at = excluded.next_review_at,
			last_reviewed_at = excluded.last_reviewed_at,
			last_quality = excluded.last_quality
	`,
		item.ID,
		item.SubjectID,
		item.EaseFactor,
		item.Interval,
		item.Repetitions,
		item.NextReviewAt.UTC(),
		lastReviewed,
		lastQuality,
		item.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save review item %s: %w", item.ID, err)
	}
	return nil
}

// ListItems returns every review item ordered by next review time.
func (db *DB) ListItems(ctx context.Context) ([]domain.ReviewItem, error) {
	return db.queryItems(ctx, `SELECT `+itemColumns+` FROM review_items ORDER BY next_review_at, id`)
}

// ListItemsBySubjects returns the review items belonging to the given subjects.
func (db *DB) ListItemsBySubjects(ctx context.Context, subjectIDs []string) ([]domain.ReviewItem, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(subjectIDs)), ",")
	args := make([]any, len(subjectIDs))
	for i, id := range subjectIDs {
		args[i] = id
	}
	return db.queryItems(ctx, `
		SELECT `+itemColumns+` FROM review_items
		WHERE subject_id IN (`+placeholders+`)
		ORDER BY next_review_at, id
	`, args...)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]domain.ReviewItem, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer rows.Close()

	var items []domain.ReviewItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review item row: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(row scanner) (*domain.ReviewItem, error) {
	var (
		it           domain.ReviewItem
		lastReviewed sql.NullTime
		lastQuality  sql.NullInt64
	)
	err := row.Scan(
		&it.ID,
		&it.SubjectID,
		&it.EaseFactor,
		&it.Interval,
		&it.Repetitions,
		&it.NextReviewAt,
		&lastReviewed,
		&lastQuality,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		it.LastReviewedAt = &t
	}
	if lastQuality.Valid {
		q := int(lastQuality.Int64)
		it.LastQuality = &q
	}
	return &it, nil
}

// InsertReviewLog appends a review event.
func (db *DB) InsertReviewLog(ctx context.Context, log domain.ReviewLog) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO review_logs (item_id, quality, reviewed_at, response_ms)
		VALUES (?, ?, ?, ?)
	`, log.ItemID, log.Quality, log.ReviewedAt.UTC(), log.ResponseTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert review log for item %s: %w", log.ItemID, err)
	}
	return nil
}

// ListReviewLogs returns the review history of an item, oldest first.
func (db *DB) ListReviewLogs(ctx context.Context, itemID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT item_id, quality, reviewed_at, response_ms
		FROM review_logs WHERE item_id = ?
		ORDER BY reviewed_at, id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review logs for item %s: %w", itemID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			l  domain.ReviewLog
			ms int64
		)
		if err := rows.Scan(&l.ItemID, &l.Quality, &l.ReviewedAt, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		l.ResponseTime = time.Duration(ms) * time.Millisecond
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
