package localfs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeOwner(t *testing.T, target string, owner LockOwner) {
	t.Helper()
	data, err := json.Marshal(owner)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lockPathFor(target), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLockDownload_BlocksSecondDownload(t *testing.T) {
	target := filepath.Join(t.TempDir(), "video.mp4")

	lock, err := LockDownload(target, "video.mp4")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	_, err = LockDownload(target, "video.mp4")
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected LockedError, got %v", err)
	}
	if locked.Owner.PID != os.Getpid() || locked.Owner.Source != "video.mp4" {
		t.Fatalf("unexpected owner %+v", locked.Owner)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(lockPathFor(target)); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind: %v", err)
	}
	again, err := LockDownload(target, "video.mp4")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = again.Release()
}

func TestLockDownload_ReclaimsStaleLocks(t *testing.T) {
	cases := []struct {
		name  string
		owner LockOwner
	}{
		{
			name:  "dead process on this host",
			owner: LockOwner{PID: 1 << 30, Hostname: hostnameOrUnknown(), StartedAt: time.Now().UTC().Format(time.RFC3339), Token: "old"},
		},
		{
			name:  "old lock from another host",
			owner: LockOwner{PID: 42, Hostname: "render-box", StartedAt: time.Now().Add(-2 * StaleLockAge).UTC().Format(time.RFC3339), Token: "old"},
		},
		{
			name:  "unreadable start time",
			owner: LockOwner{PID: 42, Hostname: "render-box", StartedAt: "yesterday", Token: "old"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "video.mp4")
			writeOwner(t, target, tc.owner)

			lock, err := LockDownload(target, "video.mp4")
			if err != nil {
				t.Fatalf("expected stale lock to be reclaimed: %v", err)
			}
			if err := lock.Release(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestLockDownload_HonoursRecentForeignLock(t *testing.T) {
	target := filepath.Join(t.TempDir(), "video.mp4")
	writeOwner(t, target, LockOwner{PID: 42, Hostname: "render-box", StartedAt: time.Now().UTC().Format(time.RFC3339), Token: "theirs"})

	if _, err := LockDownload(target, "video.mp4"); err == nil {
		t.Fatal("expected recent lock from another host to block")
	}
}

func TestDownloadLockReleaseKeepsTakenOverLock(t *testing.T) {
	target := filepath.Join(t.TempDir(), "video.mp4")
	lock, err := LockDownload(target, "video.mp4")
	if err != nil {
		t.Fatal(err)
	}
	writeOwner(t, target, LockOwner{PID: 42, Hostname: "render-box", StartedAt: time.Now().UTC().Format(time.RFC3339), Token: "theirs"})

	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(lockPathFor(target)); err != nil {
		t.Fatalf("release removed a lock it no longer owns: %v", err)
	}
}

func TestLockDownload_RequiresTarget(t *testing.T) {
	if _, err := LockDownload("  ", "video.mp4"); err == nil {
		t.Fatal("expected error for empty target")
	}
}
