package decksync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Watch runs a sync immediately and then on every tick of schedule, a
// standard five-field cron expression or descriptor such as "@hourly",
// evaluated in the configured location. It returns when ctx is done.
func (s *Syncer) Watch(ctx context.Context, schedule string) error {
	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	runOnce := func() {
		if _, err := s.Run(ctx); err != nil {
			s.log.Warn("scheduled sync finished with errors", "error", err)
		}
	}
	if _, err := c.AddFunc(schedule, runOnce); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}

	runOnce()
	c.Start()
	s.log.Info("watching sources", "schedule", schedule, "tz", s.opts.Location.String())

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
