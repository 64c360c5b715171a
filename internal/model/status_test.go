package model

import "testing"

func TestCanTransition_AllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusQueued},
		{StatusQueued, StatusProcessing},
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusProcessing},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusFailed},
		{StatusQueued, StatusFailed},
		{StatusCompleted, StatusCompleted},
		{"PROCESSING", "completed"},
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{StatusCompleted, StatusProcessing},
		{StatusFailed, StatusQueued},
		{StatusProcessing, StatusQueued},
		{StatusCompleted, StatusFailed},
		{"rendering", StatusCompleted},
		{StatusProcessing, "rendering"},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{StatusCompleted, StatusFailed, " Completed "} {
		if !IsTerminal(s) {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	for _, s := range []string{StatusQueued, StatusPending, StatusProcessing, "", "rendering"} {
		if IsTerminal(s) {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}

func TestIsFailed(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusFailed, true},
		{"FAILED", true},
		{" Failed ", true},
		{StatusCompleted, false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsFailed(tc.status); got != tc.want {
			t.Fatalf("IsFailed(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestIsKnownStatus(t *testing.T) {
	if !IsKnownStatus(StatusQueued) {
		t.Fatal("queued should be known")
	}
	if IsKnownStatus("") || IsKnownStatus("rendering") {
		t.Fatal("empty and unrecognised statuses should be unknown")
	}
}

func TestJobLabelPrefersScriptTitle(t *testing.T) {
	j := Job{Filename: "plan.md", ScriptTitle: "Script D: Launch"}
	if got := j.Label(); got != "Script D: Launch" {
		t.Fatalf("label = %q, want script title", got)
	}
	j.ScriptTitle = "  "
	if got := j.Label(); got != "plan.md" {
		t.Fatalf("label = %q, want filename", got)
	}
}

func TestJobClampedProgress(t *testing.T) {
	cases := map[int]int{-5: 0, 0: 0, 42: 42, 100: 100, 130: 100}
	for in, want := range cases {
		if got := (Job{Progress: in}).ClampedProgress(); got != want {
			t.Fatalf("ClampedProgress(%d) = %d, want %d", in, got, want)
		}
	}
}
