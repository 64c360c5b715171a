// Package apitest serves an in-memory content-generation backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"contentgen/internal/model"
	"contentgen/internal/scriptdoc"
)

// Route names usable with Fail, Drop and Count.
const (
	RouteUpload   = "upload"
	RouteScripts  = "scripts"
	RouteScript   = "script"
	RouteDelete   = "delete"
	RouteGenerate = "generate"
	RouteJobs     = "jobs"
	RouteJob      = "job"
	RouteVideos   = "videos"
	RouteVideo    = "video"
	RouteConfig   = "config"
	RouteHealth   = "health"
)

type Request struct {
	Route     string
	Method    string
	Path      string
	RequestID string
	UserAgent string
}

type failure struct {
	status  int
	message string
}

type storedFile struct {
	content  []byte
	modified time.Time
}

type Backend struct {
	mu       sync.Mutex
	scripts  map[string]storedFile
	videos   map[string]storedFile
	jobs     []model.Job
	nextJob  int
	config   model.BackendConfig
	failures map[string]failure
	drops    map[string]bool
	requests []Request
	now      func() time.Time

	server *httptest.Server
}

// New starts a backend on a local listener that is closed when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		scripts:  map[string]storedFile{},
		videos:   map[string]storedFile{},
		failures: map[string]failure{},
		drops:    map[string]bool{},
		now:      time.Now,
		config: model.BackendConfig{
			ElevenLabsConfigured: true,
			SunoConfigured:       false,
			VideoSettings: model.VideoSettings{
				Resolution:   "1920x1080",
				Framerate:    30,
				OutputFormat: "mp4",
				VideoCodec:   "libx264",
			},
			AvailableVoices: map[string]string{"narrator": "Warm, trustworthy narrator"},
			MusicStyles:     []string{"corporate_uplifting", "warm_acoustic", "dramatic"},
		},
	}
	b.server = httptest.NewServer(b.Router())
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(b.record)

	r.HandleFunc("/health", b.health).Methods("GET").Name(RouteHealth)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scripts/upload", b.upload).Methods("POST").Name(RouteUpload)
	api.HandleFunc("/scripts", b.listScripts).Methods("GET").Name(RouteScripts)
	api.HandleFunc("/scripts/{filename}", b.getScript).Methods("GET").Name(RouteScript)
	api.HandleFunc("/scripts/{filename}", b.deleteScript).Methods("DELETE").Name(RouteDelete)
	api.HandleFunc("/generate", b.generate).Methods("POST").Name(RouteGenerate)
	api.HandleFunc("/jobs", b.listJobs).Methods("GET").Name(RouteJobs)
	api.HandleFunc("/jobs/{id}", b.getJob).Methods("GET").Name(RouteJob)
	api.HandleFunc("/videos", b.listVideos).Methods("GET").Name(RouteVideos)
	api.HandleFunc("/videos/{filename}", b.getVideo).Methods("GET").Name(RouteVideo)
	api.HandleFunc("/config", b.getConfig).Methods("GET").Name(RouteConfig)
	return r
}

// Fail makes every request to route answer {success:false, error:message}.
func (b *Backend) Fail(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, message: message}
}

// Drop makes route close the connection without a response.
func (b *Backend) Drop(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drops[route] = true
}

// Heal clears Fail and Drop for route.
func (b *Backend) Heal(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
	delete(b.drops, route)
}

func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests reached route.
func (b *Backend) Count(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

func (b *Backend) AddScript(name, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[name] = storedFile{content: []byte(content), modified: b.now()}
}

func (b *Backend) AddVideo(name string, content []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.videos[name] = storedFile{content: content, modified: b.now()}
}

// SetJobs replaces the job list served by GET /api/jobs.
func (b *Backend) SetJobs(jobs []model.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append([]model.Job(nil), jobs...)
}

func (b *Backend) Jobs() []model.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Job(nil), b.jobs...)
}

// Advance moves job id to status/progress/message.
func (b *Backend) Advance(id, status string, progress int, message string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.jobs {
		if b.jobs[i].ID == id {
			b.jobs[i].Status = status
			b.jobs[i].Progress = progress
			b.jobs[i].Message = message
			return true
		}
	}
	return false
}

// Complete finishes job id and publishes its video.
func (b *Backend) Complete(id string, video []byte) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.jobs {
		if b.jobs[i].ID != id {
			continue
		}
		name := fmt.Sprintf("%s_%s.mp4", strings.TrimSuffix(b.jobs[i].Filename, filepath.Ext(b.jobs[i].Filename)), id)
		b.jobs[i].Status = model.StatusCompleted
		b.jobs[i].Progress = 100
		b.jobs[i].Message = "Video generation completed"
		b.jobs[i].VideoPath = "output/videos/" + name
		b.videos[name] = storedFile{content: video, modified: b.now()}
		return name, true
	}
	return "", false
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Route:     name,
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			UserAgent: r.Header.Get("User-Agent"),
		})
		f, failing := b.failures[name]
		drop := b.drops[name]
		b.mu.Unlock()

		if drop {
			hj, ok := w.(http.Hijacker)
			if !ok {
				http.Error(w, "hijack unsupported", http.StatusInternalServerError)
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func (b *Backend) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Health{Status: "healthy", Timestamp: b.now().Format(time.RFC3339)})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()
	name := filepath.Base(header.Filename)
	if name == "" || name == "." {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".md" && ext != ".txt" {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only .md and .txt files are allowed")
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b.mu.Lock()
	b.scripts[name] = storedFile{content: content, modified: b.now()}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "File uploaded successfully",
		"filename": name,
	})
}

func (b *Backend) listScripts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	scripts := make([]model.Script, 0, len(b.scripts))
	for name, f := range b.scripts {
		scripts = append(scripts, model.Script{Filename: name, Size: int64(len(f.content)), Modified: f.modified.Format(time.RFC3339)})
	}
	b.mu.Unlock()
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Filename < scripts[j].Filename })
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scripts": scripts})
}

func (b *Backend) getScript(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	b.mu.Lock()
	f, ok := b.scripts[name]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Script not found")
		return
	}
	parsed := scriptdoc.Parse(string(f.content))
	sections := make([]model.ScriptSection, 0, len(parsed))
	for _, s := range parsed {
		sections = append(sections, s.Section())
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filename": name, "scripts": sections})
}

func (b *Backend) deleteScript(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	b.mu.Lock()
	_, ok := b.scripts[name]
	delete(b.scripts, name)
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Script not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Script deleted successfully"})
}

func (b *Backend) generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string `json:"filename"`
		ScriptTitle string `json:"script_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Filename) == "" {
		writeError(w, http.StatusBadRequest, "No filename provided")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.scripts[req.Filename]; !ok {
		writeError(w, http.StatusNotFound, "Script file not found")
		return
	}
	b.nextJob++
	id := fmt.Sprintf("job_%d", b.nextJob)
	b.jobs = append(b.jobs, model.Job{
		ID:          id,
		Status:      model.StatusQueued,
		Progress:    0,
		Message:     "Job queued",
		Created:     b.now().Format(time.RFC3339),
		ScriptTitle: req.ScriptTitle,
		Filename:    req.Filename,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job_id": id, "message": "Video generation started"})
}

func (b *Backend) listJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": b.Jobs()})
}

func (b *Backend) getJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, j := range b.Jobs() {
		if j.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": j})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Job not found")
}

func (b *Backend) listVideos(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	videos := make([]model.Video, 0, len(b.videos))
	for name, f := range b.videos {
		videos = append(videos, model.Video{Filename: name, Size: int64(len(f.content)), Modified: f.modified.Format(time.RFC3339)})
	}
	b.mu.Unlock()
	sort.Slice(videos, func(i, j int) bool { return videos[i].Filename < videos[j].Filename })
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "videos": videos})
}

func (b *Backend) getVideo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	b.mu.Lock()
	f, ok := b.videos[name]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	_, _ = w.Write(f.content)
}

func (b *Backend) getConfig(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	cfg := b.config
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
}
