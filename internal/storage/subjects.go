package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/murajaah/internal/domain"
)

// UpsertSubject inserts a subject or refreshes its display fields, and records
// that sourceID carries it.
func (db *DB) UpsertSubject(ctx context.Context, s domain.Subject, sourceID int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subjects (id, arabic, transliteration, translation, example)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			arabic = excluded.arabic,
			transliteration = excluded.transliteration,
			translation = excluded.translation,
			example = excluded.example
	`, s.ID, s.Arabic, s.Transliteration, s.Translation, s.Example)
	if err != nil {
		return fmt.Errorf("failed to upsert subject %s: %w", s.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subject_sources (subject_id, source_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, s.ID, sourceID)
	if err != nil {
		return fmt.Errorf("failed to link subject %s to source %d: %w", s.ID, sourceID, err)
	}
	return tx.Commit()
}

// FindSubject retrieves a subject by ID. It returns nil when no subject matches.
func (db *DB) FindSubject(ctx context.Context, id string) (*domain.Subject, error) {
	var s domain.Subject
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, arabic, transliteration, translation, example
		FROM subjects WHERE id = ?
	`, id).Scan(&s.ID, &s.Arabic, &s.Transliteration, &s.Translation, &s.Example)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subject %s: %w", id, err)
	}
	return &s, nil
}

// GetSubjectIDsBySourceID lists the IDs of every subject a source carries.
func (db *DB) GetSubjectIDsBySourceID(ctx context.Context, sourceID int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT subject_id FROM subject_sources WHERE source_id = ? ORDER BY subject_id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subject row for source ID %d: %w", sourceID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DetachSubject records that sourceID no longer carries a subject. When no
// other source carries it, the subject is deleted and, through the cascade, its
// review item and logs. removed reports whether that happened.
func (db *DB) DetachSubject(ctx context.Context, subjectID string, sourceID int64) (removed bool, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM subject_sources WHERE subject_id = ? AND source_id = ?
	`, subjectID, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink subject %s from source %d: %w", subjectID, sourceID, err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM subjects
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM subject_sources WHERE subject_id = ?)
	`, subjectID, subjectID)
	if err != nil {
		return false, fmt.Errorf("failed to delete subject %s: %w", subjectID, err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit subject %s removal: %w", subjectID, err)
	}
	return n > 0, nil
}

// deleteUnlinkedSubjects removes subjects no source carries any more.
func deleteUnlinkedSubjects(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM subjects
		WHERE NOT EXISTS (SELECT 1 FROM subject_sources WHERE subject_id = subjects.id)
	`)
	if err != nil {
		return fmt.Errorf("failed to delete unlinked subjects: %w", err)
	}
	return nil
}
