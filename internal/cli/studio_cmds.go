package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"contentgen/internal/api"
	"contentgen/internal/scriptdoc"
	"contentgen/internal/studio"
)

// fetchCmd issues a generation for r and returns the command that fetches it.
// Begin runs here, on the Update goroutine, so generations are ordered by
// issue time rather than completion time.
func (m studioModel) fetchCmd(r studio.Resource) tea.Cmd {
	gen := m.state.Begin(r)
	backend := m.backend
	switch r {
	case studio.ResourceScripts:
		return func() tea.Msg {
			scripts, err := backend.Scripts(context.Background())
			return scriptsLoadedMsg{gen: gen, scripts: scripts, err: err}
		}
	case studio.ResourceJobs:
		return func() tea.Msg {
			jobs, err := backend.Jobs(context.Background())
			return jobsLoadedMsg{gen: gen, jobs: jobs, err: err}
		}
	case studio.ResourceVideos:
		return func() tea.Msg {
			videos, err := backend.Videos(context.Background())
			return videosLoadedMsg{gen: gen, videos: videos, err: err}
		}
	case studio.ResourceConfig:
		return func() tea.Msg {
			cfg, err := backend.Config(context.Background())
			return configLoadedMsg{gen: gen, config: cfg, err: err}
		}
	default:
		return nil
	}
}

func uploadCmd(backend studioBackend, path string) tea.Cmd {
	return func() tea.Msg {
		name, err := backend.Upload(context.Background(), path)
		if name == "" {
			name = filepath.Base(path)
		}
		return uploadDoneMsg{filename: name, err: err}
	}
}

// previewCmd parses a local script file. Failures are reported in the
// preview and never block the upload.
func previewCmd(path string) tea.Cmd {
	return func() tea.Msg {
		p := uploadPreview{path: path}
		size, err := api.ValidateUploadFile(path)
		p.size = size
		if err != nil {
			p.err = err
			return previewMsg{preview: p}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			p.err = err
			return previewMsg{preview: p}
		}
		p.scripts = scriptdoc.Parse(string(data))
		return previewMsg{preview: p}
	}
}

func generateCmd(backend studioBackend, filename, title string) tea.Cmd {
	return func() tea.Msg {
		id, err := backend.Generate(context.Background(), filename, title)
		return generateDoneMsg{filename: filename, title: title, jobID: id, err: err}
	}
}

func deleteScriptCmd(backend studioBackend, filename string) tea.Cmd {
	return func() tea.Msg {
		err := backend.DeleteScript(context.Background(), filename)
		return deleteDoneMsg{filename: filename, err: err}
	}
}

func scriptDetailCmd(backend studioBackend, filename string) tea.Cmd {
	return func() tea.Msg {
		detail, err := backend.Script(context.Background(), filename)
		return scriptDetailMsg{filename: filename, detail: detail, err: err}
	}
}

func downloadCmd(backend studioBackend, filename, dir string) tea.Cmd {
	return func() tea.Msg {
		res, err := downloadVideo(context.Background(), backend, filename, dir)
		return downloadDoneMsg{filename: filename, result: res, err: err}
	}
}

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

func clipboardCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: copyToClipboard(text)}
	}
}
