package localfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// StaleLockAge is how long a download lock from another host is honoured.
// Locks held by this host are reclaimed as soon as their process is gone.
var StaleLockAge = 6 * time.Hour

// DownloadLock marks a video file as being written by one process.
type DownloadLock struct {
	path  string
	token string
}

// LockOwner is the content of a lock file.
type LockOwner struct {
	Source    string `json:"source"`
	PID       int    `json:"pid"`
	Hostname  string `json:"hostname"`
	StartedAt string `json:"started_at"`
	Token     string `json:"token"`
}

// LockedError reports a download that is already in progress.
type LockedError struct {
	Target string
	Owner  LockOwner
}

func (e *LockedError) Error() string {
	if e.Owner.PID <= 0 {
		return fmt.Sprintf("%s is already being downloaded", filepath.Base(e.Target))
	}
	return fmt.Sprintf("%s is already being downloaded (pid %d on %s since %s)",
		filepath.Base(e.Target), e.Owner.PID, e.Owner.Hostname, e.Owner.StartedAt)
}

func lockPathFor(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".lock")
}

// LockDownload claims target for a download of source. A lock left behind by
// a dead process on this host, or an old one from another host, is taken over.
func LockDownload(target, source string) (*DownloadLock, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("download target is required")
	}
	if err := Mkdir(filepath.Dir(target)); err != nil {
		return nil, err
	}

	now := time.Now()
	owner := LockOwner{
		Source:    source,
		PID:       os.Getpid(),
		Hostname:  hostnameOrUnknown(),
		StartedAt: now.UTC().Format(time.RFC3339),
		Token:     strconv.Itoa(os.Getpid()) + "-" + strconv.FormatInt(now.UnixNano(), 36),
	}
	path := lockPathFor(target)

	// One retry after removing a stale lock.
	for attempt := 0; attempt < 2; attempt++ {
		err := createLockFile(path, owner)
		if err == nil {
			return &DownloadLock{path: path, token: owner.Token}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("lock %s: %w", target, err)
		}

		var held LockOwner
		if readErr := ReadJSON(path, &held); readErr != nil {
			// Another process may be between create and write.
			return nil, &LockedError{Target: target}
		}
		if !staleOwner(held, now) {
			return nil, &LockedError{Target: target, Owner: held}
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale lock for %s: %w", target, err)
		}
	}
	return nil, &LockedError{Target: target}
}

func createLockFile(path string, owner LockOwner) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	data, err := json.Marshal(owner)
	if err == nil {
		_, err = f.Write(append(data, '\n'))
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func staleOwner(o LockOwner, now time.Time) bool {
	if o.Hostname == hostnameOrUnknown() && o.PID > 0 {
		return !processAlive(o.PID)
	}
	started, err := time.Parse(time.RFC3339, o.StartedAt)
	if err != nil {
		return true
	}
	return now.Sub(started) > StaleLockAge
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return !errors.Is(err, os.ErrProcessDone) && !errors.Is(err, syscall.ESRCH)
}

// Release removes the lock file if it still belongs to l.
func (l *DownloadLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	var held LockOwner
	if err := ReadJSON(l.path, &held); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if held.Token != l.token {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release %s: %w", l.path, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
