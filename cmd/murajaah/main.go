package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/murajaah/internal/config"
	"github.com/conorfennell/murajaah/internal/decksync"
	"github.com/conorfennell/murajaah/internal/sm2"
	"github.com/conorfennell/murajaah/internal/storage"
	"github.com/conorfennell/murajaah/internal/study"
)

const usage = `Usage: murajaah <command> [flags]

Commands:
  add-source <path|git-url>     Register a deck directory or git repository
  remove-source <path|git-url>  Forget a source and the entries only it carries
  sync                          Import decks from every source
  watch                         Sync now and then on --sync_schedule
  queue                         List the items of the next session
  review                        Run an interactive review session
  stats                         Show study statistics
  forecast                      Show upcoming due counts per day
  plans                         List study plans

Run 'murajaah <command> --help' for the shared flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, time.Now); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "murajaah: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg    *config.Config
	db     *storage.DB
	sched  *sm2.Scheduler
	study  *study.Service
	syncer *decksync.Syncer
	in     io.Reader
	out    io.Writer
	now    func() time.Time
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer, now func() time.Time) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}
	name, rest := args[0], args[1:]

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(errOut, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	config.RegisterFlags(fs)
	if err := fs.Parse(rest); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, in, out, errOut, now)
	if err != nil {
		return err
	}
	defer a.db.Close()

	return cmd(ctx, a, fs.Args())
}

func newApp(cfg *config.Config, in io.Reader, out, errOut io.Writer, now func() time.Time) (*app, error) {
	log := cfg.Logger(errOut)

	sched, err := cfg.Scheduler()
	if err != nil {
		return nil, err
	}
	plan, err := cfg.StudyPlan()
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Debug("database opened", "path", cfg.Database)

	svc := study.NewService(db, sched, plan, log)
	syncer := decksync.New(db, svc, decksync.Options{
		ReposDir: cfg.ReposDir,
		Workers:  cfg.SyncWorkers,
		Location: sched.Location(),
		Now:      now,
	}, log)

	return &app{
		cfg:    cfg,
		db:     db,
		sched:  sched,
		study:  svc,
		syncer: syncer,
		in:     in,
		out:    out,
		now:    func() time.Time { return now().In(sched.Location()) },
	}, nil
}
