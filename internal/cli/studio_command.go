package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contentgen/internal/api"
	"contentgen/internal/config"
	"contentgen/internal/logging"
	"contentgen/internal/model"
	"contentgen/internal/scriptdoc"
	"contentgen/internal/studio"
)

type studioMode int

const (
	studioModeBrowse studioMode = iota
	studioModeUploadInput
	studioModeConfirm
	studioModeDetail
	studioModeForm
)

type confirmKind int

const (
	confirmGenerate confirmKind = iota
	confirmDelete
)

type studioConfirm struct {
	kind     confirmKind
	filename string
	title    string
	// back is the mode to return to when the prompt closes.
	back studioMode
}

// studioBackend is what the studio needs from the API client.
type studioBackend interface {
	Scripts(ctx context.Context) ([]model.Script, error)
	Script(ctx context.Context, filename string) (model.ScriptDetail, error)
	Upload(ctx context.Context, path string) (string, error)
	DeleteScript(ctx context.Context, filename string) error
	Generate(ctx context.Context, filename, title string) (string, error)
	Jobs(ctx context.Context) ([]model.Job, error)
	Videos(ctx context.Context) ([]model.Video, error)
	Config(ctx context.Context) (model.BackendConfig, error)
	DownloadVideo(ctx context.Context, filename string, w io.Writer) (int64, error)
}

type uploadPreview struct {
	path    string
	size    int64
	scripts []scriptdoc.Script
	err     error
}

type scriptDetailView struct {
	filename string
	detail   model.ScriptDetail
	loaded   bool
	err      error
	cursor   int
}

type studioModel struct {
	backend      studioBackend
	log          *slog.Logger
	settings     config.Settings
	configPath   string
	pollInterval time.Duration
	now          func() time.Time

	state   *studio.State
	cursors map[studio.Tab]int
	width   int
	height  int
	mode    studioMode

	input     textinput.Model
	preview   *uploadPreview
	uploading bool
	confirm   *studioConfirm
	detail    *scriptDetailView
	form      *studioForm
	downloads map[string]bool

	spinner spinner.Model
	bar     progress.Model

	statusMessage string
}

type studioTickMsg time.Time

type scriptsLoadedMsg struct {
	gen     uint64
	scripts []model.Script
	err     error
}

type jobsLoadedMsg struct {
	gen  uint64
	jobs []model.Job
	err  error
}

type videosLoadedMsg struct {
	gen    uint64
	videos []model.Video
	err    error
}

type configLoadedMsg struct {
	gen    uint64
	config model.BackendConfig
	err    error
}

type uploadDoneMsg struct {
	filename string
	err      error
}

type previewMsg struct {
	preview uploadPreview
}

type generateDoneMsg struct {
	filename string
	title    string
	jobID    string
	err      error
}

type deleteDoneMsg struct {
	filename string
	err      error
}

type scriptDetailMsg struct {
	filename string
	detail   model.ScriptDetail
	err      error
}

type downloadDoneMsg struct {
	filename string
	result   downloadResult
	err      error
}

type clipboardMsg struct {
	text string
	err  error
}

type settingsSavedMsg struct {
	result config.UpdateResult
	err    error
}

var (
	studioTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	studioMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	studioErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	studioOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	studioWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	studioPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	studioSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	studioTabStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	studioActiveTab  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runStudio(args []string) error {
	fs := flag.NewFlagSet("studio", flag.ContinueOnError)
	common := addCommonFlags(fs)
	tab := fs.String("tab", "upload", "initial tab: upload|scripts|jobs|videos|config")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("studio requires an interactive terminal (TTY)")
	}
	startTab, err := studio.ParseTab(*tab)
	if err != nil {
		return err
	}

	settings, err := common.settings()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	// The TUI owns the terminal; logs go to log_file or nowhere.
	log, closeLog, err := logging.OpenFile(settings.LogFile, level)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeLog()
	}()

	client := api.New(api.Options{BaseURL: settings.APIURL, Timeout: settings.RequestTimeout, Logger: log})
	m := newStudioModel(client, settings, strings.TrimSpace(common.config), log)
	m.state.Active = startTab
	log.Info("studio started", "api_url", settings.APIURL, "poll_interval", settings.PollInterval)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("studio requires an interactive terminal (TTY)")
		}
		return err
	}
	return nil
}

func newStudioModel(backend studioBackend, settings config.Settings, configPath string, log *slog.Logger) studioModel {
	if log == nil {
		log = logging.Discard()
	}
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "path/to/script.md"
	input.CharLimit = 1024
	input.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 16

	interval := settings.PollInterval
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}
	return studioModel{
		backend:      backend,
		log:          log,
		settings:     settings,
		configPath:   configPath,
		pollInterval: interval,
		now:          time.Now,
		state:        studio.NewState(),
		cursors:      map[studio.Tab]int{},
		mode:         studioModeBrowse,
		input:        input,
		downloads:    map[string]bool{},
		spinner:      sp,
		bar:          bar,
	}
}

func (m studioModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	for _, r := range studio.StartupFetches() {
		cmds = append(cmds, m.fetchCmd(r))
	}
	cmds = append(cmds, m.tickCmd())
	return tea.Batch(cmds...)
}

func (m studioModel) tickCmd() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return studioTickMsg(t)
	})
}

func (m studioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = clampInt(m.width-8, 20, 120)
		if m.form != nil {
			m.form.Input.Width = clampInt(m.width-8, 20, 120)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case studioTickMsg:
		m.state.Jobs.Expire(m.now())
		cmds := []tea.Cmd{m.tickCmd()}
		for _, r := range m.state.TickFetches() {
			cmds = append(cmds, m.fetchCmd(r))
		}
		return m, tea.Batch(cmds...)
	case scriptsLoadedMsg:
		if msg.err != nil {
			if m.state.Scripts.Fail(msg.gen, msg.err) {
				m.log.Warn("script list fetch failed", "error", msg.err)
			}
			return m, nil
		}
		if m.state.Scripts.Apply(msg.gen, msg.scripts) {
			m.clampCursor(studio.TabScripts, len(msg.scripts))
		}
		return m, nil
	case jobsLoadedMsg:
		return m.applyJobs(msg)
	case videosLoadedMsg:
		if msg.err != nil {
			if m.state.Videos.Fail(msg.gen, msg.err) {
				m.log.Warn("video list fetch failed", "error", msg.err)
			}
			return m, nil
		}
		if m.state.Videos.Apply(msg.gen, msg.videos) {
			m.clampCursor(studio.TabVideos, len(msg.videos))
		}
		return m, nil
	case configLoadedMsg:
		if msg.err != nil {
			if m.state.Config.Fail(msg.gen, msg.err) {
				m.log.Warn("config fetch failed", "error", msg.err)
			}
			return m, nil
		}
		m.state.Config.Apply(msg.gen, msg.config)
		return m, nil
	case uploadDoneMsg:
		m.uploading = false
		m.statusMessage = api.UploadMessage(msg.filename, msg.err)
		if msg.err != nil {
			m.statusMessage = "error: " + m.statusMessage
			m.log.Warn("upload failed", "filename", msg.filename, "error", msg.err)
			return m, nil
		}
		m.input.SetValue("")
		return m, m.fetchCmd(studio.ResourceScripts)
	case previewMsg:
		p := msg.preview
		m.preview = &p
		return m, nil
	case generateDoneMsg:
		if msg.err != nil {
			m.statusMessage = "error: generate failed: " + msg.err.Error()
			m.log.Warn("generate failed", "filename", msg.filename, "error", msg.err)
			return m, nil
		}
		m.state.Jobs.AddPlaceholder(msg.jobID, msg.filename, msg.title, m.now())
		m.statusMessage = fmt.Sprintf("generation started: %s (%s)", msg.jobID, msg.filename)
		m.mode = studioModeBrowse
		m.detail = nil
		return m.switchTab(studio.TabJobs)
	case deleteDoneMsg:
		if msg.err != nil {
			m.statusMessage = "error: delete failed: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "deleted " + msg.filename
		return m, m.fetchCmd(studio.ResourceScripts)
	case scriptDetailMsg:
		if m.detail == nil || m.detail.filename != msg.filename {
			return m, nil
		}
		m.detail.loaded = true
		m.detail.err = msg.err
		m.detail.detail = msg.detail
		return m, nil
	case downloadDoneMsg:
		delete(m.downloads, msg.filename)
		if msg.err != nil {
			m.statusMessage = "error: download failed: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("downloaded %s (%s) to %s", msg.result.Filename, formatBytesIEC(msg.result.Bytes), msg.result.Path)
		return m, nil
	case clipboardMsg:
		if msg.err != nil {
			m.statusMessage = "error: clipboard: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "copied " + msg.text
		return m, nil
	case settingsSavedMsg:
		if msg.err != nil {
			if m.form != nil {
				m.form.Error = msg.err.Error()
				m.form.Saving = false
			}
			return m, nil
		}
		m.mode = studioModeBrowse
		m.form = nil
		m.settings = msg.result.Settings
		m.statusMessage = "updated settings in " + msg.result.ConfigPath + " (restart to apply)"
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case studioModeBrowse:
		return m.updateBrowse(keyMsg)
	case studioModeUploadInput:
		return m.updateUploadInput(keyMsg)
	case studioModeConfirm:
		return m.updateConfirm(keyMsg)
	case studioModeDetail:
		return m.updateDetail(keyMsg)
	case studioModeForm:
		return m.updateForm(keyMsg)
	default:
		return m, nil
	}
}

func (m studioModel) applyJobs(msg jobsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.state.Jobs.Fail(msg.gen, msg.err) {
			m.log.Warn("job list fetch failed", "error", msg.err)
		}
		return m, nil
	}
	changes, applied := m.state.Jobs.ApplySnapshot(msg.gen, msg.jobs, m.now())
	if !applied {
		m.log.Debug("dropped stale job list", "generation", msg.gen)
		return m, nil
	}
	m.clampCursor(studio.TabJobs, len(m.state.Jobs.Rows()))
	for _, c := range changes {
		if c.Anomaly() {
			m.log.Warn("unexpected job change", "job_id", c.To.ID, "from", c.From.Status, "to", c.To.Status, "detail", c.Notice())
			continue
		}
		m.log.Info("job finished", "job_id", c.To.ID, "status", c.To.Status)
		m.statusMessage = c.Notice()
		if model.IsFailed(c.To.Status) {
			m.statusMessage = "error: " + m.statusMessage
		}
	}
	return m, nil
}

// switchTab activates t and issues the fetches entering it requires.
func (m studioModel) switchTab(t studio.Tab) (tea.Model, tea.Cmd) {
	fetches := m.state.SwitchTab(t)
	cmds := make([]tea.Cmd, 0, len(fetches))
	for _, r := range fetches {
		cmds = append(cmds, m.fetchCmd(r))
	}
	return m, tea.Batch(cmds...)
}

func (m studioModel) clampCursor(tab studio.Tab, total int) {
	c := m.cursors[tab]
	if total <= 0 {
		c = 0
	} else if c > total-1 {
		c = total - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursors[tab] = c
}

func (m studioModel) cursor() int {
	return m.cursors[m.state.Active]
}
