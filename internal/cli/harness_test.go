package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contentgen/internal/api"
	"contentgen/internal/apitest"
	"contentgen/internal/model"
)

// harness isolates a command run: no user config, no CONTENTGEN_* leakage,
// stdout captured and logs discarded.
func harness(t *testing.T) (*apitest.Backend, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"API_URL", "REQUEST_TIMEOUT", "DOWNLOAD_DIR", "LOG_FILE", "LOG_LEVEL"} {
		t.Setenv("CONTENTGEN_"+k, "")
	}
	t.Setenv("CONTENTGEN_POLL_INTERVAL", "1s")

	var buf bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &buf, io.Discard
	t.Cleanup(func() {
		stdout, stderr = prevOut, prevErr
	})
	return apitest.New(t), &buf
}

func TestHarnessUploadGenerateDownload(t *testing.T) {
	backend, out := harness(t)
	tmp := t.TempDir()
	script := filepath.Join(tmp, "plan.md")
	if err := os.WriteFile(script, []byte(launchScript), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"upload", script, "--api-url", backend.URL()}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.Contains(out.String(), "File uploaded successfully: plan.md") {
		t.Fatalf("unexpected upload output %q", out.String())
	}

	out.Reset()
	if err := Run([]string{"scripts", "--json", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("scripts failed: %v", err)
	}
	var listed struct {
		Scripts []model.Script `json:"scripts"`
	}
	if err := json.Unmarshal(out.Bytes(), &listed); err != nil {
		t.Fatalf("decode scripts output: %v\n%s", err, out.String())
	}
	if len(listed.Scripts) != 1 || listed.Scripts[0].Filename != "plan.md" {
		t.Fatalf("unexpected scripts %+v", listed.Scripts)
	}

	// Finish the job once the first status poll arrives.
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(5 * time.Second)
		for backend.Count(apitest.RouteJob) == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		backend.Complete("job_1", []byte("rendered"))
	}()

	out.Reset()
	if err := Run([]string{"generate", "plan.md", "--yes", "--wait", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	<-done
	text := out.String()
	for _, want := range []string{"generation started: job_1", "job_1  completed  100%", "video: output/videos/plan_job_1.mp4"} {
		if !strings.Contains(text, want) {
			t.Fatalf("generate output missing %q:\n%s", want, text)
		}
	}

	dest := filepath.Join(tmp, "videos")
	out.Reset()
	if err := Run([]string{"download", "plan_job_1.mp4", "--out", dest, "--api-url", backend.URL()}); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "plan_job_1.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rendered" {
		t.Fatalf("unexpected video content %q", data)
	}
}

func TestHarnessUploadValidationSendsNothing(t *testing.T) {
	backend, _ := harness(t)
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Run([]string{"upload", path, "--api-url", backend.URL()})
	var v *api.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v.Message != "Please upload a .md or .txt file" {
		t.Fatalf("unexpected message %q", v.Message)
	}
	if len(backend.Requests()) != 0 {
		t.Fatalf("validation failure reached the backend: %+v", backend.Requests())
	}
}

func TestHarnessUploadBackendFailureKeepsErrorType(t *testing.T) {
	backend, _ := harness(t)
	backend.Fail(apitest.RouteUpload, 400, "Script already exists")
	script := filepath.Join(t.TempDir(), "plan.md")
	if err := os.WriteFile(script, []byte(launchScript), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Run([]string{"upload", script, "--api-url", backend.URL()})
	var b *api.BackendError
	if !errors.As(err, &b) {
		t.Fatalf("expected backend error in chain, got %T %v", err, err)
	}
	if err.Error() != "Upload failed: Script already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestHarnessGenerateWaitFailsOnUppercaseFailed(t *testing.T) {
	backend, _ := harness(t)
	backend.AddScript("plan.md", launchScript)

	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(5 * time.Second)
		for backend.Count(apitest.RouteJob) == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		backend.Advance("job_1", "FAILED", 10, "render crashed")
	}()

	err := Run([]string{"generate", "plan.md", "--yes", "--wait", "--api-url", backend.URL()})
	<-done
	if err == nil || !strings.Contains(err.Error(), "render crashed") {
		t.Fatalf("expected failed job error, got %v", err)
	}
}

func TestHarnessDeleteThenListExcludes(t *testing.T) {
	backend, out := harness(t)
	backend.AddScript("plan.md", launchScript)
	backend.AddScript("keep.md", launchScript)

	if err := Run([]string{"delete", "plan.md", "--yes", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	out.Reset()
	if err := Run([]string{"scripts", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("scripts failed: %v", err)
	}
	if strings.Contains(out.String(), "plan.md") || !strings.Contains(out.String(), "keep.md") {
		t.Fatalf("unexpected list after delete:\n%s", out.String())
	}
}

func TestHarnessBackendErrorSurfacesVerbatim(t *testing.T) {
	backend, _ := harness(t)
	backend.Fail(apitest.RouteJobs, 503, "Service unavailable")

	err := Run([]string{"jobs", "--api-url", backend.URL()})
	var b *api.BackendError
	if !errors.As(err, &b) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if err.Error() != "Service unavailable" {
		t.Fatalf("expected verbatim message, got %q", err.Error())
	}
}

func TestHarnessJobsListKeepsBackendOrder(t *testing.T) {
	backend, out := harness(t)
	backend.SetJobs([]model.Job{
		{ID: "job_2", Status: model.StatusProcessing, Progress: 30, Message: "Rendering", Filename: "b.md"},
		{ID: "job_1", Status: model.StatusCompleted, Progress: 100, Message: "done", Filename: "a.md", VideoPath: "output/videos/a_job_1.mp4"},
	})

	if err := Run([]string{"jobs", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("jobs failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "job_2") || !strings.HasPrefix(lines[1], "job_1") {
		t.Fatalf("unexpected jobs output:\n%s", out.String())
	}
}

func TestHarnessJobsWatchUntilDone(t *testing.T) {
	backend, out := harness(t)
	backend.SetJobs([]model.Job{{ID: "job_1", Status: model.StatusCompleted, Progress: 100, Filename: "a.md"}})

	if err := Run([]string{"jobs", "--watch", "--until-done", "--interval", "10ms", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("jobs --watch failed: %v", err)
	}
	if backend.Count(apitest.RouteJobs) != 1 {
		t.Fatalf("expected a single poll, got %d", backend.Count(apitest.RouteJobs))
	}
	if !strings.Contains(out.String(), "job_1") {
		t.Fatalf("board missing job:\n%s", out.String())
	}
}

func TestHarnessSettingsSetAndShow(t *testing.T) {
	_, out := harness(t)
	configPath := filepath.Join(t.TempDir(), "contentgen", "config.yaml")

	if err := Run([]string{
		"settings", "set",
		"--config", configPath,
		"--api-url", "http://studio.example:9000/",
		"--poll-interval", "2s",
		"--download-dir", "renders",
	}); err != nil {
		t.Fatalf("settings set failed: %v", err)
	}

	out.Reset()
	t.Setenv("CONTENTGEN_POLL_INTERVAL", "")
	if err := Run([]string{"settings", "show", "--config", configPath}); err != nil {
		t.Fatalf("settings show failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{"api_url: http://studio.example:9000", "poll_interval: 2s", "download_dir: renders"} {
		if !strings.Contains(text, want) {
			t.Fatalf("settings output missing %q:\n%s", want, text)
		}
	}

	if err := Run([]string{"settings", "set", "--config", configPath, "--poll-interval", "10ms"}); err == nil {
		t.Fatal("expected poll interval below 1s to be rejected")
	}
}

func TestHarnessSettingsSetRejectsUnknownLogLevel(t *testing.T) {
	backend, _ := harness(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := Run([]string{"settings", "set", "--config", configPath, "--log-level", "error"}); err != nil {
		t.Fatalf("settings set failed: %v", err)
	}
	before, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"settings", "set", "--config", configPath, "--log-level", "bogus"}); err == nil {
		t.Fatal("expected unknown log level to be rejected")
	}
	after, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("config changed after rejected set:\n%s", after)
	}

	if err := Run([]string{"scripts", "--config", configPath, "--api-url", backend.URL()}); err != nil {
		t.Fatalf("scripts after rejected set failed: %v", err)
	}
}

func TestHarnessHealthAndConfig(t *testing.T) {
	backend, out := harness(t)
	if err := Run([]string{"health", "--json", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("health failed: %v", err)
	}
	var h model.Health
	if err := json.Unmarshal(out.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "healthy" {
		t.Fatalf("unexpected health %+v", h)
	}

	out.Reset()
	if err := Run([]string{"config", "--api-url", backend.URL()}); err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out.String(), "elevenlabs: ") {
		t.Fatalf("unexpected config output:\n%s", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	harness(t)
	if err := Run([]string{"frobnicate"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}
