package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"contentgen/internal/logging"
	"contentgen/internal/model"
)

// JobGetter is the part of the API client Wait polls.
type JobGetter interface {
	Job(ctx context.Context, id string) (model.Job, error)
}

type WaitOptions struct {
	Interval time.Duration
	// Inline rewrites a single terminal line; otherwise each change is
	// printed on its own line.
	Inline bool
	Out    io.Writer
	Logger *slog.Logger
}

// Wait polls job id until it reaches a terminal status or ctx ends. Transient
// fetch errors are shown and retried.
func Wait(ctx context.Context, getter JobGetter, id string, opts WaitOptions) (model.Job, error) {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	line := &liveLine{out: opts.Out, inline: opts.Inline}
	t := time.NewTicker(opts.Interval)
	defer t.Stop()

	var last model.Job
	for {
		job, err := getter.Job(ctx, id)
		switch {
		case err != nil:
			opts.Logger.Warn("job poll failed", "job_id", id, "error", err)
			line.Show(fmt.Sprintf("%s  error: %v (retrying)", id, err))
		default:
			if last.Status != "" && !model.CanTransition(last.Status, job.Status) {
				opts.Logger.Warn("unexpected job change", "job_id", id, "from", last.Status, "to", job.Status)
			}
			last = job
			line.Show(RenderJobLine(job))
			if model.IsTerminal(job.Status) {
				line.Finish()
				return job, nil
			}
		}

		select {
		case <-ctx.Done():
			line.Finish()
			return last, ctx.Err()
		case <-t.C:
		}
	}
}

// RenderJobLine is the one-line job summary used by Wait and the job command.
func RenderJobLine(j model.Job) string {
	parts := []string{j.ID, j.Status, fmt.Sprintf("%d%%", j.ClampedProgress())}
	if msg := strings.TrimSpace(j.Message); msg != "" {
		parts = append(parts, msg)
	}
	if j.HasVideo() {
		parts = append(parts, "video: "+j.VideoPath)
	}
	return strings.Join(parts, "  ")
}

type liveLine struct {
	out    io.Writer
	inline bool
	last   string
	drawn  bool
}

func (l *liveLine) Show(s string) {
	if s == l.last {
		return
	}
	l.last = s
	if l.inline {
		fmt.Fprintf(l.out, "\r\033[2K%s", s)
		l.drawn = true
		return
	}
	fmt.Fprintln(l.out, s)
}

func (l *liveLine) Finish() {
	if l.inline && l.drawn {
		fmt.Fprintln(l.out)
		l.drawn = false
	}
}
