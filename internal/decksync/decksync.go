package decksync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/murajaah/internal/domain"
	"github.com/conorfennell/murajaah/internal/fingerprint"
	"github.com/conorfennell/murajaah/internal/gitsource"
	"github.com/conorfennell/murajaah/internal/parser"
)

// Store is the subset of persistence the sync process needs.
type Store interface {
	InsertSource(ctx context.Context, path string, sourceType domain.SourceType) (int64, error)
	FindSourceByPath(ctx context.Context, path string) (*domain.Source, error)
	GetAllSources(ctx context.Context) ([]domain.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error
	UpsertSubject(ctx context.Context, s domain.Subject, sourceID int64) error
	GetSubjectIDsBySourceID(ctx context.Context, sourceID int64) ([]string, error)
	DetachSubject(ctx context.Context, subjectID string, sourceID int64) (bool, error)
	DeleteSource(ctx context.Context, sourceID int64) error
}

// Enroller creates review items for subjects that have none.
type Enroller interface {
	Enroll(ctx context.Context, subjectIDs []string, now time.Time) ([]domain.ReviewItem, error)
}

// Options tunes a Syncer.
type Options struct {
	ReposDir string // checkout root for git sources
	Workers  int    // sources reconciled in parallel, at least 1
	Location *time.Location
	Now      func() time.Time
}

// Syncer reconciles deck sources with the database.
type Syncer struct {
	store  Store
	enroll Enroller
	opts   Options
	log    *slog.Logger
}

// New creates a Syncer.
func New(store Store, enroll Enroller, opts Options, log *slog.Logger) *Syncer {
	if opts.ReposDir == "" {
		opts.ReposDir = "repos"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Syncer{store: store, enroll: enroll, opts: opts, log: log}
}

// AddSource registers a local directory or git URL. Local paths are stored
// absolute. Adding a known path returns the existing source.
func (s *Syncer) AddSource(ctx context.Context, path string) (*domain.Source, error) {
	path, sourceType, err := resolveSource(path)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := s.store.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	s.log.Info("source added", "id", id, "type", sourceType, "path", path)
	return &domain.Source{ID: id, Path: path, Type: sourceType}, nil
}

// RemoveSource unregisters a source by the path or URL it was added with.
// Subjects no other source carries are deleted with their review history.
// Unknown paths return an error wrapping domain.ErrNotFound.
func (s *Syncer) RemoveSource(ctx context.Context, path string) (*domain.Source, error) {
	path, _, err := resolveSource(path)
	if err != nil {
		return nil, err
	}
	source, err := s.store.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source %s: %w", path, domain.ErrNotFound)
	}
	if err := s.store.DeleteSource(ctx, source.ID); err != nil {
		return nil, err
	}
	s.log.Info("source removed", "id", source.ID, "path", source.Path)
	return source, nil
}

func resolveSource(path string) (string, domain.SourceType, error) {
	if gitsource.IsGitURL(path) {
		return path, domain.SourceGit, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, domain.SourceLocal, nil
}

// Report describes the outcome of reconciling one source.
type Report struct {
	Source   domain.Source
	Parsed   int
	Enrolled int
	Orphaned int
	Errors   []error
}

// Run reconciles every source. A failing source does not stop the others;
// their errors are joined into the returned error.
func (s *Syncer) Run(ctx context.Context) ([]Report, error) {
	s.log.Info("starting sync process for all sources")
	sources, err := s.store.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		s.log.Info("no sources configured, add one with add-source <path/or/url.git>")
		return nil, nil
	}

	reports := make([]Report, len(sources))
	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, source := range sources {
		g.Go(func() error {
			report, err := s.syncSource(ctx, source)
			reports[i] = report
			if err != nil {
				s.log.Error("source sync failed", "id", source.ID, "path", source.Path, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("source %d: %w", source.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("sync process complete", "sources", len(sources), "failed", len(errs))
	return reports, errors.Join(errs...)
}

func (s *Syncer) syncSource(ctx context.Context, source domain.Source) (Report, error) {
	report := Report{Source: source}
	s.log.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.SourceGit {
		localRepoPath, err := gitsource.LocalPath(s.opts.ReposDir, source.Path)
		if err != nil {
			return report, err
		}
		if err := gitsource.Sync(ctx, s.log, source.Path, localRepoPath); err != nil {
			return report, err
		}
		dir = localRepoPath
	}

	return s.reconcile(ctx, source, dir, report)
}

func (s *Syncer) reconcile(ctx context.Context, source domain.Source, dir string, report Report) (Report, error) {
	found := make(map[string]domain.Subject)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.IsDeckFile(d.Name()) {
			return nil
		}
		subjects, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, parseErr)
			return nil
		}
		for _, subject := range subjects {
			subject.ID = fingerprint.SubjectID(subject)
			found[subject.ID] = subject
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	report.Parsed = len(found)

	stored := make([]string, 0, len(found))
	for id, subject := range found {
		if err := s.store.UpsertSubject(ctx, subject, source.ID); err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		stored = append(stored, id)
	}

	now := s.opts.Now().In(s.opts.Location)
	created, err := s.enroll.Enroll(ctx, stored, now)
	report.Enrolled = len(created)
	if err != nil {
		return report, fmt.Errorf("failed to enroll subjects: %w", err)
	}

	known, err := s.store.GetSubjectIDsBySourceID(ctx, source.ID)
	if err != nil {
		return report, fmt.Errorf("failed to get subjects for source: %w", err)
	}
	orphans := lo.Filter(known, func(id string, _ int) bool {
		_, ok := found[id]
		return !ok
	})
	for _, id := range orphans {
		removed, err := s.store.DetachSubject(ctx, id, source.ID)
		if err != nil {
			s.log.Warn("failed to detach orphaned subject", "subject_id", id, "error", err)
			continue
		}
		if removed {
			s.log.Info("orphaned subject deleted", "subject_id", id)
			report.Orphaned++
		} else {
			s.log.Debug("subject still carried by another source", "subject_id", id)
		}
	}

	if err := s.store.UpdateSourceLastScanned(ctx, source.ID, now); err != nil {
		s.log.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	s.log.Info("reconciliation complete",
		"path", dir,
		"parsed_subjects", report.Parsed,
		"enrolled", report.Enrolled,
		"orphaned_deleted", report.Orphaned,
		"errors", len(report.Errors),
	)
	return report, nil
}
