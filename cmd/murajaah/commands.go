package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/conorfennell/murajaah/internal/domain"
	"github.com/conorfennell/murajaah/internal/sm2"
	"github.com/conorfennell/murajaah/internal/study"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"add-source":    cmdAddSource,
	"remove-source": cmdRemoveSource,
	"sync":          cmdSync,
	"watch":         cmdWatch,
	"queue":         cmdQueue,
	"review":        cmdReview,
	"stats":         cmdStats,
	"forecast":      cmdForecast,
	"plans":         cmdPlans,
}

func cmdAddSource(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("add-source takes exactly one path or git URL")
	}
	src, err := a.syncer.AddSource(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Source %d (%s): %s\n", src.ID, src.Type, src.Path)
	return nil
}

func cmdRemoveSource(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("remove-source takes exactly one path or git URL")
	}
	src, err := a.syncer.RemoveSource(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed source %d: %s\n", src.ID, src.Path)
	return nil
}

func cmdSync(ctx context.Context, a *app, _ []string) error {
	reports, err := a.syncer.Run(ctx)
	for _, r := range reports {
		fmt.Fprintf(a.out, "%s: %d entries, %d enrolled, %d removed, %d errors\n",
			r.Source.Path, r.Parsed, r.Enrolled, r.Orphaned, len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(a.out, "- %s\n", e)
		}
	}
	return err
}

func cmdWatch(ctx context.Context, a *app, _ []string) error {
	return a.syncer.Watch(ctx, a.cfg.SyncSchedule)
}

func cmdQueue(ctx context.Context, a *app, _ []string) error {
	queue, err := a.study.Queue(ctx, a.now())
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		fmt.Fprintln(a.out, "Nothing is due. Come back later.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWORD\tPRIORITY\tDUE\tEASE")
	for i, it := range queue {
		word, err := a.word(ctx, it)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", i+1, word, it.Priority(), a.relative(it.NextReviewAt), it.EaseFactor)
	}
	return tw.Flush()
}

func cmdReview(ctx context.Context, a *app, _ []string) error {
	queue, err := a.study.Queue(ctx, a.now())
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		fmt.Fprintln(a.out, "Nothing is due. Come back later.")
		return nil
	}

	in := bufio.NewScanner(a.in)
	readLine := func() (string, bool) {
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	session := study.NewSession(a.now())
	fmt.Fprintf(a.out, "Session of %d items (%s plan, about %s)\n\n", len(queue), a.study.Plan().Name, a.study.Plan().SessionDuration)

review:
	for i, it := range queue {
		subject, err := a.db.FindSubject(ctx, it.SubjectID)
		if err != nil {
			return err
		}
		if subject == nil {
			continue
		}

		shown := a.now()
		fmt.Fprintf(a.out, "[%d/%d] %s", i+1, len(queue), subject.Arabic)
		if subject.Transliteration != "" {
			fmt.Fprintf(a.out, "  (%s)", subject.Transliteration)
		}
		fmt.Fprint(a.out, "\nEnter to reveal, s to skip, q to quit: ")
		line, ok := readLine()
		if !ok || line == "q" {
			break review
		}
		if line == "s" {
			fmt.Fprintln(a.out)
			continue
		}

		fmt.Fprintf(a.out, "%s\n", subject.Translation)
		if subject.Example != "" {
			fmt.Fprintf(a.out, "  %s\n", subject.Example)
		}

		for {
			fmt.Fprint(a.out, qualityMenu())
			line, ok := readLine()
			if !ok || line == "q" {
				break review
			}
			q, convErr := strconv.Atoi(line)
			if convErr != nil {
				fmt.Fprintln(a.out, "Enter a number from 0 to 5.")
				continue
			}

			answered := a.now()
			updated, err := a.study.Review(ctx, study.ReviewRequest{
				ItemID:       it.ID,
				Quality:      q,
				ResponseTime: answered.Sub(shown),
			}, answered)
			if errors.Is(err, sm2.ErrInvalidInput) {
				fmt.Fprintln(a.out, "Enter a number from 0 to 5.")
				continue
			}
			if err != nil {
				return err
			}

			session.Record(domain.ReviewLog{ItemID: it.ID, Quality: q, ReviewedAt: answered, ResponseTime: answered.Sub(shown)})
			fmt.Fprintf(a.out, "%s. Next review %s (every %d days).\n\n",
				sm2.Quality(q), a.relative(updated.NextReviewAt), updated.Interval)
			break
		}
	}

	fmt.Fprintf(a.out, "Studied %d items, %.0f%% correct, best streak %d, average answer %s, %s elapsed.\n",
		session.ItemsStudied, session.Accuracy(), session.BestStreak,
		session.AverageResponseTime.Round(100*time.Millisecond), session.Elapsed(a.now()).Round(time.Second))
	return nil
}

func qualityMenu() string {
	var b strings.Builder
	for _, q := range sm2.Qualities {
		fmt.Fprintf(&b, "%d=%s ", int(q), q)
	}
	b.WriteString("\nHow well did you recall it? ")
	return b.String()
}

func cmdStats(ctx context.Context, a *app, _ []string) error {
	stats, err := a.study.Stats(ctx, a.now())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total items\t%d\n", stats.TotalItems)
	fmt.Fprintf(tw, "Due now\t%d\n", stats.DueItems)
	fmt.Fprintf(tw, "Learned\t%d\n", stats.LearnedItems)
	fmt.Fprintf(tw, "New\t%d\n", stats.NewItems)
	fmt.Fprintf(tw, "Retention\t%.1f%%\n", stats.AverageRetention)
	fmt.Fprintf(tw, "Streak\t%d days\n", stats.StreakDays)
	fmt.Fprintf(tw, "Next session\t%d items\n", sm2.OptimalSessionSize(stats.DueItems))
	return tw.Flush()
}

func cmdForecast(ctx context.Context, a *app, _ []string) error {
	forecast, err := a.study.Forecast(ctx, a.now(), a.cfg.ForecastDays)
	if err != nil {
		return err
	}
	if len(forecast) == 0 {
		fmt.Fprintf(a.out, "Nothing due in the next %d days.\n", a.cfg.ForecastDays)
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, day := range forecast {
		fmt.Fprintf(tw, "%s\t%s\n", day.Date.Format("Mon 02 Jan"), humanize.Comma(int64(day.Count)))
	}
	return tw.Flush()
}

func cmdPlans(_ context.Context, a *app, _ []string) error {
	active := a.study.Plan().Name
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tPLAN\tDAILY GOAL\tSESSION\tMAX NEW")
	for _, p := range sm2.Plans {
		marker := ""
		if p.Name == active {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", marker, p.Name, p.DailyGoal, p.SessionDuration, p.MaxNewItems)
	}
	return tw.Flush()
}

// relative renders t against the command's clock, e.g. "2 days from now".
func (a *app) relative(t time.Time) string {
	return humanize.RelTime(t, a.now(), "ago", "from now")
}

// word renders the Arabic term of an item's subject.
func (a *app) word(ctx context.Context, it domain.ReviewItem) (string, error) {
	subject, err := a.db.FindSubject(ctx, it.SubjectID)
	if err != nil {
		return "", err
	}
	if subject == nil {
		return it.SubjectID[:min(8, len(it.SubjectID))], nil
	}
	return subject.Arabic, nil
}
