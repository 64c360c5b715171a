package cli

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"contentgen/internal/api"
	"contentgen/internal/model"
	"contentgen/internal/studio"
)

func (m studioModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1", "2", "3", "4", "5":
		n, _ := strconv.Atoi(key)
		return m.switchTab(studio.Tabs[n-1])
	case "tab", "right", "l":
		return m.switchTab(m.state.Active.Next())
	case "shift+tab", "left", "h":
		return m.switchTab(m.state.Active.Prev())
	case "r":
		if m.state.Active == studio.TabUpload {
			m.statusMessage = "nothing to refresh on the upload tab"
			return m, nil
		}
		return m.switchTab(m.state.Active)
	case "s":
		m.mode = studioModeForm
		m.form = newSettingsForm(m.settings, m.width)
		m.statusMessage = ""
		return m, nil
	case "up", "k":
		if c := m.cursor(); c > 0 {
			m.cursors[m.state.Active] = c - 1
		}
		return m, nil
	case "down", "j":
		if c := m.cursor(); c < m.listLen(m.state.Active)-1 {
			m.cursors[m.state.Active] = c + 1
		}
		return m, nil
	}

	switch m.state.Active {
	case studio.TabUpload:
		return m.uploadTabKey(key)
	case studio.TabScripts:
		return m.scriptsTabKey(key)
	case studio.TabJobs:
		return m.jobsTabKey(key)
	case studio.TabVideos:
		return m.videosTabKey(key)
	}
	return m, nil
}

func (m studioModel) listLen(tab studio.Tab) int {
	switch tab {
	case studio.TabScripts:
		return len(m.state.Scripts.Value())
	case studio.TabJobs:
		return len(m.state.Jobs.Rows())
	case studio.TabVideos:
		return len(m.state.Videos.Value())
	default:
		return 0
	}
}

func (m studioModel) uploadTabKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "u", "enter", "i":
		if m.uploading {
			m.statusMessage = "upload in progress"
			return m, nil
		}
		m.mode = studioModeUploadInput
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m studioModel) updateUploadInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.mode = studioModeBrowse
		m.input.Blur()
		return m, nil
	case "tab":
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			m.statusMessage = "error: No file selected"
			return m, nil
		}
		return m, previewCmd(path)
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		if _, err := api.ValidateUploadFile(path); err != nil {
			m.statusMessage = "error: " + api.UploadMessage(path, err)
			return m, nil
		}
		m.mode = studioModeBrowse
		m.input.Blur()
		m.uploading = true
		m.statusMessage = "uploading " + path
		return m, uploadCmd(m.backend, path)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m studioModel) selectedScript() (model.Script, bool) {
	scripts := m.state.Scripts.Value()
	c := m.cursors[studio.TabScripts]
	if m.state.Scripts.Err() != nil || c < 0 || c >= len(scripts) {
		return model.Script{}, false
	}
	return scripts[c], true
}

func (m studioModel) scriptsTabKey(key string) (tea.Model, tea.Cmd) {
	s, ok := m.selectedScript()
	switch key {
	case "enter", "o":
		if !ok {
			m.statusMessage = "select a script first"
			return m, nil
		}
		m.mode = studioModeDetail
		m.detail = &scriptDetailView{filename: s.Filename}
		return m, scriptDetailCmd(m.backend, s.Filename)
	case "g":
		if !ok {
			m.statusMessage = "select a script first"
			return m, nil
		}
		m.mode = studioModeConfirm
		m.confirm = &studioConfirm{kind: confirmGenerate, filename: s.Filename, back: studioModeBrowse}
		return m, nil
	case "x", "d", "delete":
		if !ok {
			m.statusMessage = "select a script to delete"
			return m, nil
		}
		m.mode = studioModeConfirm
		m.confirm = &studioConfirm{kind: confirmDelete, filename: s.Filename, back: studioModeBrowse}
		return m, nil
	}
	return m, nil
}

func (m studioModel) selectedJobRow() (studio.Row, bool) {
	rows := m.state.Jobs.Rows()
	c := m.cursors[studio.TabJobs]
	if m.state.Jobs.Err() != nil || c < 0 || c >= len(rows) {
		return studio.Row{}, false
	}
	return rows[c], true
}

func (m studioModel) jobsTabKey(key string) (tea.Model, tea.Cmd) {
	row, ok := m.selectedJobRow()
	if !ok {
		return m, nil
	}
	switch key {
	case "d", "enter":
		name := videoFilename(row.Job)
		if row.Placeholder || name == "" {
			m.statusMessage = "job " + row.Job.ID + " has no video yet"
			return m, nil
		}
		return m.startDownload(name)
	case "y":
		return m, clipboardCmd(row.Job.ID)
	}
	return m, nil
}

func (m studioModel) videosTabKey(key string) (tea.Model, tea.Cmd) {
	videos := m.state.Videos.Value()
	c := m.cursors[studio.TabVideos]
	if m.state.Videos.Err() != nil || c < 0 || c >= len(videos) {
		return m, nil
	}
	v := videos[c]
	switch key {
	case "d", "enter":
		return m.startDownload(v.Filename)
	case "y":
		return m, clipboardCmd(v.Filename)
	}
	return m, nil
}

func (m studioModel) startDownload(filename string) (tea.Model, tea.Cmd) {
	if m.downloads[filename] {
		m.statusMessage = "already downloading " + filename
		return m, nil
	}
	m.downloads[filename] = true
	m.statusMessage = "downloading " + filename
	return m, downloadCmd(m.backend, filename, m.settings.DownloadDir)
}

func (m studioModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	if c == nil {
		m.mode = studioModeBrowse
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c", "esc", "n":
		m.mode = c.back
		m.confirm = nil
		if c.kind == confirmDelete {
			m.statusMessage = "delete cancelled"
		} else {
			m.statusMessage = "generate cancelled"
		}
		return m, nil
	case "y", "enter":
		m.mode = c.back
		m.confirm = nil
		if c.kind == confirmDelete {
			m.statusMessage = "deleting " + c.filename
			return m, deleteScriptCmd(m.backend, c.filename)
		}
		m.statusMessage = "starting generation for " + defaultIfEmpty(c.title, c.filename)
		return m, generateCmd(m.backend, c.filename, c.title)
	}
	return m, nil
}

func (m studioModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.detail
	if d == nil {
		m.mode = studioModeBrowse
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c", "esc", "q", "backspace":
		m.mode = studioModeBrowse
		m.detail = nil
		return m, nil
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
		return m, nil
	case "down", "j":
		if d.cursor < len(d.detail.Sections)-1 {
			d.cursor++
		}
		return m, nil
	case "g", "enter":
		if !d.loaded || d.err != nil || len(d.detail.Sections) == 0 {
			return m, nil
		}
		section := d.detail.Sections[clampInt(d.cursor, 0, len(d.detail.Sections)-1)]
		m.mode = studioModeConfirm
		m.confirm = &studioConfirm{kind: confirmGenerate, filename: d.filename, title: section.Title, back: studioModeDetail}
		return m, nil
	case "a":
		m.mode = studioModeConfirm
		m.confirm = &studioConfirm{kind: confirmGenerate, filename: d.filename, back: studioModeDetail}
		return m, nil
	}
	return m, nil
}
