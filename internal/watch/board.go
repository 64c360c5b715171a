package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"contentgen/internal/logging"
	"contentgen/internal/model"
	"contentgen/internal/studio"
)

const (
	maxEvents   = 8
	ruleWidth   = 100
	barWidth    = 20
	clearScreen = "\033[H\033[2J"
)

// JobLister is the part of the API client the board polls.
type JobLister interface {
	Jobs(ctx context.Context) ([]model.Job, error)
}

type Options struct {
	Interval time.Duration
	// UntilDone stops once every listed job is terminal.
	UntilDone bool
	// Clear redraws in place with ANSI clear codes; disable for pipes.
	Clear  bool
	Out    io.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

// Board renders the job list headlessly, re-polling on a fixed interval.
type Board struct {
	opts   Options
	jobs   studio.JobBoard
	events []string
	polled time.Time
	bar    progress.Model
}

func NewBoard(opts Options) *Board {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = barWidth
	return &Board{opts: opts, bar: bar}
}

// Run polls until ctx is cancelled or, with UntilDone, until no job is
// active. Fetch errors are rendered and retried on the next tick.
func (b *Board) Run(ctx context.Context, lister JobLister) error {
	t := time.NewTicker(b.opts.Interval)
	defer t.Stop()
	for {
		b.Poll(ctx, lister)
		b.Render()
		if b.opts.UntilDone && b.Done() {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Poll performs one fetch and folds the result into the board.
func (b *Board) Poll(ctx context.Context, lister JobLister) {
	gen := b.jobs.Begin()
	jobs, err := lister.Jobs(ctx)
	now := b.opts.Now()
	b.polled = now
	if err != nil {
		b.jobs.Fail(gen, err)
		b.opts.Logger.Warn("job poll failed", "error", err)
		return
	}
	changes, _ := b.jobs.ApplySnapshot(gen, jobs, now)
	for _, c := range changes {
		if c.Anomaly() {
			b.opts.Logger.Warn("unexpected job change", "job_id", c.To.ID, "from", c.From.Status, "to", c.To.Status, "detail", c.Notice())
			continue
		}
		b.pushEvent(fmt.Sprintf("%s %s", now.Format("15:04:05"), c.Notice()))
	}
}

func (b *Board) pushEvent(e string) {
	b.events = append([]string{e}, b.events...)
	if len(b.events) > maxEvents {
		b.events = b.events[:maxEvents]
	}
}

// Done reports whether the last successful snapshot has no active jobs.
func (b *Board) Done() bool {
	return b.jobs.Loaded() && b.jobs.Err() == nil && b.jobs.Active() == 0
}

func (b *Board) Render() {
	fmt.Fprint(b.opts.Out, b.View())
}

func (b *Board) View() string {
	var sb strings.Builder
	if b.opts.Clear {
		sb.WriteString(clearScreen)
	}

	rows := b.jobs.Rows()
	completed, failed := 0, 0
	for _, r := range rows {
		switch {
		case model.IsFailed(r.Job.Status):
			failed++
		case model.IsTerminal(r.Job.Status):
			completed++
		}
	}
	sb.WriteString(fmt.Sprintf("contentgen jobs | total %d | active %d | completed %d | failed %d | polled %s\n",
		len(rows), b.jobs.Active(), completed, failed, b.polled.Format("15:04:05")))
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")

	switch {
	case b.jobs.Err() != nil:
		sb.WriteString("error: " + b.jobs.Err().Error() + "\n")
	case len(rows) == 0:
		sb.WriteString("(no jobs)\n")
	default:
		now := b.opts.Now()
		for _, r := range rows {
			sb.WriteString(b.renderRow(r, now) + "\n")
		}
	}

	if len(b.events) > 0 {
		sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
		for _, e := range b.events {
			sb.WriteString(e + "\n")
		}
	}
	return sb.String()
}

func (b *Board) renderRow(r studio.Row, now time.Time) string {
	j := r.Job
	pct := j.ClampedProgress()
	status := j.Status
	if r.Placeholder {
		status += "*"
	}
	parts := []string{
		fmt.Sprintf("%-10s", j.ID),
		fmt.Sprintf("%-11s", status),
		b.bar.ViewAs(float64(pct) / 100),
		fmt.Sprintf("%3d%%", pct),
		fmt.Sprintf("%-24s", truncate(j.Message, 24)),
		truncate(j.Label(), 28),
	}
	if age := FormatAge(j.Created, now); age != "" {
		parts = append(parts, age)
	}
	if j.HasVideo() {
		parts = append(parts, "video: "+j.VideoPath)
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseCreated reads the backend's created timestamp. Values without a zone
// are taken as local time.
func ParseCreated(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatAge renders how long ago created was, e.g. "<1m", "12m", "3h 5m".
func FormatAge(created string, now time.Time) string {
	t, ok := ParseCreated(created)
	if !ok {
		return ""
	}
	return formatDurationSeconds(now.Sub(t).Seconds())
}

func formatDurationSeconds(seconds float64) string {
	if seconds < 0 {
		return ""
	}
	secs := int64(math.Round(seconds))
	if secs < 60 {
		return "<1m"
	}
	minutes := secs / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	remMinutes := minutes % 60
	if hours < 24 {
		if remMinutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dm", hours, remMinutes)
	}
	days := hours / 24
	remHours := hours % 24
	if remHours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, remHours)
}
