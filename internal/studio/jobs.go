package studio

import (
	"fmt"
	"strings"
	"time"

	"contentgen/internal/model"
)

// PlaceholderTTL bounds how long an optimistic row waits for the backend to
// list its job.
const PlaceholderTTL = 2 * time.Minute

const placeholderMessage = "Job queued"

type ChangeKind int

const (
	// ChangeTerminal: a job seen running is now completed or failed.
	ChangeTerminal ChangeKind = iota
	// ChangeIllegal: the status moved in a way the lifecycle does not allow.
	ChangeIllegal
	// ChangeVideoLost: a job that had a video_path no longer has one.
	ChangeVideoLost
)

type Change struct {
	Kind ChangeKind
	From model.Job
	To   model.Job
}

// Notice renders the change as a one-line message.
func (c Change) Notice() string {
	switch c.Kind {
	case ChangeTerminal:
		if model.IsFailed(c.To.Status) {
			if msg := strings.TrimSpace(c.To.Message); msg != "" {
				return fmt.Sprintf("job %s failed: %s", c.To.ID, msg)
			}
			return fmt.Sprintf("job %s failed", c.To.ID)
		}
		return fmt.Sprintf("job %s completed", c.To.ID)
	case ChangeIllegal:
		return fmt.Sprintf("job %s went from %q to %q", c.To.ID, c.From.Status, c.To.Status)
	case ChangeVideoLost:
		return fmt.Sprintf("job %s lost its video_path %q", c.To.ID, c.From.VideoPath)
	default:
		return ""
	}
}

// Anomaly reports whether the change points at a misbehaving backend.
func (c Change) Anomaly() bool {
	return c.Kind == ChangeIllegal || c.Kind == ChangeVideoLost
}

type Row struct {
	Job         model.Job
	Placeholder bool
}

type placeholder struct {
	job   model.Job
	added time.Time
}

// JobBoard is the job list cache plus the optimistic rows inserted after a
// successful generate.
type JobBoard struct {
	slot         Slot[[]model.Job]
	placeholders []placeholder
}

func (b *JobBoard) Begin() uint64 {
	return b.slot.Begin()
}

// AddPlaceholder shows job id as pending until a snapshot lists it.
func (b *JobBoard) AddPlaceholder(id, filename, title string, now time.Time) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	for _, j := range b.slot.Value() {
		if j.ID == id {
			return
		}
	}
	for _, p := range b.placeholders {
		if p.job.ID == id {
			return
		}
	}
	b.placeholders = append(b.placeholders, placeholder{
		job: model.Job{
			ID:          id,
			Status:      model.StatusPending,
			Progress:    0,
			Message:     placeholderMessage,
			Created:     now.UTC().Format(time.RFC3339),
			Filename:    filename,
			ScriptTitle: title,
		},
		added: now,
	})
}

// ApplySnapshot replaces the job list when gen is current and reports what
// changed relative to the previous snapshot.
func (b *JobBoard) ApplySnapshot(gen uint64, jobs []model.Job, now time.Time) ([]Change, bool) {
	prev := b.slot.Value()
	if !b.slot.Apply(gen, jobs) {
		return nil, false
	}

	prevByID := make(map[string]model.Job, len(prev))
	for _, j := range prev {
		prevByID[j.ID] = j
	}
	optimistic := make(map[string]model.Job, len(b.placeholders))
	for _, p := range b.placeholders {
		optimistic[p.job.ID] = p.job
	}

	seen := make(map[string]bool, len(jobs))
	var changes []Change
	for _, j := range jobs {
		seen[j.ID] = true
		old, ok := prevByID[j.ID]
		if !ok {
			// The placeholder status is ours, not the backend's, so only a
			// finished job is worth reporting.
			if p, wasPlaceholder := optimistic[j.ID]; wasPlaceholder && model.IsTerminal(j.Status) {
				changes = append(changes, Change{Kind: ChangeTerminal, From: p, To: j})
			}
			continue
		}
		if old.Status != j.Status {
			if !model.CanTransition(old.Status, j.Status) {
				changes = append(changes, Change{Kind: ChangeIllegal, From: old, To: j})
			}
			if model.IsTerminal(j.Status) && !model.IsTerminal(old.Status) {
				changes = append(changes, Change{Kind: ChangeTerminal, From: old, To: j})
			}
		}
		if old.HasVideo() && !j.HasVideo() {
			changes = append(changes, Change{Kind: ChangeVideoLost, From: old, To: j})
		}
	}

	kept := b.placeholders[:0]
	for _, p := range b.placeholders {
		if seen[p.job.ID] || now.Sub(p.added) >= PlaceholderTTL {
			continue
		}
		kept = append(kept, p)
	}
	b.placeholders = kept
	return changes, true
}

func (b *JobBoard) Fail(gen uint64, err error) bool {
	return b.slot.Fail(gen, err)
}

// Expire drops placeholders older than PlaceholderTTL.
func (b *JobBoard) Expire(now time.Time) {
	kept := b.placeholders[:0]
	for _, p := range b.placeholders {
		if now.Sub(p.added) < PlaceholderTTL {
			kept = append(kept, p)
		}
	}
	b.placeholders = kept
}

// Rows is the last snapshot in backend order followed by placeholders.
func (b *JobBoard) Rows() []Row {
	jobs := b.slot.Value()
	rows := make([]Row, 0, len(jobs)+len(b.placeholders))
	for _, j := range jobs {
		rows = append(rows, Row{Job: j})
	}
	for _, p := range b.placeholders {
		rows = append(rows, Row{Job: p.job, Placeholder: true})
	}
	return rows
}

func (b *JobBoard) Jobs() []model.Job {
	return b.slot.Value()
}

func (b *JobBoard) Err() error {
	return b.slot.Err()
}

func (b *JobBoard) Loaded() bool {
	return b.slot.Loaded()
}

func (b *JobBoard) Pending() bool {
	return b.slot.Pending()
}

// Active counts jobs that have not reached a terminal status, placeholders
// included.
func (b *JobBoard) Active() int {
	n := len(b.placeholders)
	for _, j := range b.slot.Value() {
		if !model.IsTerminal(j.Status) {
			n++
		}
	}
	return n
}
