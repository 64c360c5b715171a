package watch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"contentgen/internal/model"
)

type scriptedLister struct {
	responses [][]model.Job
	errs      []error
	calls     int
}

func (s *scriptedLister) Jobs(ctx context.Context) ([]model.Job, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.responses[i], err
}

func TestBoardRunUntilDone(t *testing.T) {
	lister := &scriptedLister{responses: [][]model.Job{
		{{ID: "job_1", Status: model.StatusProcessing, Progress: 30, Message: "Generating voiceovers", Filename: "plan.md"}},
		{{ID: "job_1", Status: model.StatusProcessing, Progress: 80, Message: "Assembling video", Filename: "plan.md"}},
		{{ID: "job_1", Status: model.StatusCompleted, Progress: 100, VideoPath: "output/videos/plan.mp4", Filename: "plan.md"}},
	}}
	var out bytes.Buffer
	b := NewBoard(Options{Interval: time.Millisecond, UntilDone: true, Out: &out})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Run(ctx, lister); err != nil {
		t.Fatalf("run: %v", err)
	}
	if lister.calls != 3 {
		t.Fatalf("expected 3 polls, got %d", lister.calls)
	}
	text := out.String()
	if !strings.Contains(text, "job job_1 completed") {
		t.Fatalf("expected completion event, got:\n%s", text)
	}
	if !strings.Contains(text, "video: output/videos/plan.mp4") {
		t.Fatalf("expected video path in final board, got:\n%s", text)
	}
	if strings.Contains(text, clearScreen) {
		t.Fatal("clear codes should only be written when Clear is set")
	}
}

func TestBoardShowsErrorAndRecovers(t *testing.T) {
	lister := &scriptedLister{
		responses: [][]model.Job{nil, {{ID: "job_4", Status: model.StatusFailed, Message: "Error: quota"}}},
		errs:      []error{errors.New("connection refused")},
	}
	b := NewBoard(Options{})
	b.Poll(context.Background(), lister)
	if view := b.View(); !strings.Contains(view, "error: connection refused") {
		t.Fatalf("expected inline error, got:\n%s", view)
	}
	if b.Done() {
		t.Fatal("a failed poll must not count as done")
	}
	b.Poll(context.Background(), lister)
	view := b.View()
	if strings.Contains(view, "error:") || !strings.Contains(view, "job_4") {
		t.Fatalf("expected recovered list, got:\n%s", view)
	}
	if !b.Done() {
		t.Fatal("only terminal jobs listed, board should be done")
	}
}

func TestBoardRunStopsOnCancel(t *testing.T) {
	lister := &scriptedLister{responses: [][]model.Job{{{ID: "job_1", Status: model.StatusProcessing}}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewBoard(Options{Interval: time.Hour}).Run(ctx, lister); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if lister.calls != 1 {
		t.Fatalf("expected a single poll before stopping, got %d", lister.calls)
	}
}

type scriptedGetter struct {
	jobs  []model.Job
	calls int
}

func (s *scriptedGetter) Job(ctx context.Context, id string) (model.Job, error) {
	i := s.calls
	if i >= len(s.jobs) {
		i = len(s.jobs) - 1
	}
	s.calls++
	return s.jobs[i], nil
}

func TestWaitReturnsTerminalJob(t *testing.T) {
	getter := &scriptedGetter{jobs: []model.Job{
		{ID: "job_2", Status: model.StatusQueued},
		{ID: "job_2", Status: model.StatusQueued},
		{ID: "job_2", Status: model.StatusProcessing, Progress: 10, Message: "Parsing script"},
		{ID: "job_2", Status: model.StatusFailed, Progress: 10, Message: "Error: boom"},
	}}
	var out bytes.Buffer
	job, err := Wait(context.Background(), getter, "job_2", WaitOptions{Interval: time.Millisecond, Out: &out})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if job.Status != model.StatusFailed {
		t.Fatalf("unexpected final job %+v", job)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected unchanged lines to be collapsed, got %q", lines)
	}
	if lines[2] != "job_2  failed  10%  Error: boom" {
		t.Fatalf("unexpected final line %q", lines[2])
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"2025-03-01T11:59:30Z": "<1m",
		"2025-03-01T11:48:00Z": "12m",
		"2025-03-01T09:00:00Z": "3h",
		"2025-03-01T08:55:00Z": "3h 5m",
		"2025-02-27T12:00:00Z": "2d",
		"not a timestamp":      "",
		"2025-03-01T12:05:00Z": "",
	}
	for in, want := range cases {
		if got := FormatAge(in, now); got != want {
			t.Fatalf("FormatAge(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseCreatedNaiveTimestamp(t *testing.T) {
	got, ok := ParseCreated("2025-03-01T11:48:00.123456")
	if !ok {
		t.Fatal("expected naive isoformat timestamp to parse")
	}
	if got.Location() != time.Local || got.Minute() != 48 {
		t.Fatalf("unexpected parse %v", got)
	}
}
