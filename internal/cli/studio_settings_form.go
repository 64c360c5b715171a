package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"contentgen/internal/config"
)

type studioFieldKind int

const (
	studioFieldString studioFieldKind = iota
	studioFieldDuration
	studioFieldSelect
)

type studioFormField struct {
	Key     string
	Label   string
	Help    string
	Kind    studioFieldKind
	Value   string
	Options []string
}

type studioForm struct {
	Title  string
	Fields []studioFormField
	Index  int
	Input  textinput.Model
	Error  string
	Saving bool
}

var logLevelOptions = []string{"debug", "info", "warn", "error"}

func newSettingsForm(s config.Settings, width int) *studioForm {
	f := &studioForm{
		Title: "Client Settings",
		Fields: []studioFormField{
			{Key: "api_url", Label: "API URL", Help: "Backend base URL, http or https", Kind: studioFieldString, Value: s.APIURL},
			{Key: "poll_interval", Label: "Poll Interval", Help: "Job list refresh while the Jobs tab is open (min 1s)", Kind: studioFieldDuration, Value: s.PollInterval.String()},
			{Key: "request_timeout", Label: "Request Timeout", Help: "Per-request deadline, e.g. 30s", Kind: studioFieldDuration, Value: s.RequestTimeout.String()},
			{Key: "download_dir", Label: "Download Dir", Help: "Where downloaded videos are saved", Kind: studioFieldString, Value: s.DownloadDir},
			{Key: "log_file", Label: "Log File", Help: "Studio log destination; empty disables logging", Kind: studioFieldString, Value: s.LogFile},
			{Key: "log_level", Label: "Log Level", Help: "debug, info, warn or error", Kind: studioFieldSelect, Value: defaultIfEmpty(s.LogLevel, config.DefaultLogLevel), Options: logLevelOptions},
		},
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1024
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func (f *studioForm) currentField() studioFormField {
	if len(f.Fields) == 0 {
		return studioFormField{}
	}
	f.Index = clampInt(f.Index, 0, len(f.Fields)-1)
	return f.Fields[f.Index]
}

func (f *studioForm) commitInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
}

func (f *studioForm) loadFieldIntoInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Input.SetValue(f.Fields[f.Index].Value)
	f.Input.CursorEnd()
}

// stepSelect moves a select field by delta, wrapping around.
func (f *studioForm) stepSelect(delta int) {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.Fields[f.Index]
	if curr.Kind != studioFieldSelect || len(curr.Options) == 0 {
		return
	}
	pos := 0
	for i, opt := range curr.Options {
		if strings.EqualFold(opt, strings.TrimSpace(curr.Value)) {
			pos = i
			break
		}
	}
	n := len(curr.Options)
	pos = ((pos+delta)%n + n) % n
	curr.Value = curr.Options[pos]
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

func (f *studioForm) toSettings(base config.Settings) (config.Settings, error) {
	if f == nil {
		return config.Settings{}, fmt.Errorf("internal form error")
	}
	out := base
	for _, field := range f.Fields {
		v := strings.TrimSpace(field.Value)
		if field.Kind == studioFieldDuration {
			d, err := time.ParseDuration(defaultIfEmpty(v, "0s"))
			if err != nil || d <= 0 {
				return config.Settings{}, fmt.Errorf("%s must be a duration like 5s", strings.ToLower(field.Label))
			}
			switch field.Key {
			case "poll_interval":
				out.PollInterval = d
			case "request_timeout":
				out.RequestTimeout = d
			}
			continue
		}
		switch field.Key {
		case "api_url":
			out.APIURL = v
		case "download_dir":
			out.DownloadDir = v
		case "log_file":
			out.LogFile = v
		case "log_level":
			out.LogLevel = v
		}
	}
	return config.Normalize(out)
}

func saveSettingsCmd(configPath string, s config.Settings) tea.Cmd {
	return func() tea.Msg {
		res, err := config.Update(config.UpdateOptions{ConfigPath: configPath, Settings: s})
		return settingsSavedMsg{result: res, err: err}
	}
}

func (m studioModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = studioModeBrowse
		return m, nil
	}
	if m.form.Saving {
		return m, nil
	}

	key := strings.ToLower(msg.String())
	switch key {
	case "ctrl+c", "esc":
		m.mode = studioModeBrowse
		m.form = nil
		m.statusMessage = "settings unchanged"
		return m, nil
	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case " ", "space", "right":
		if m.form.currentField().Kind == studioFieldSelect {
			m.form.stepSelect(1)
			return m, nil
		}
	case "left":
		if m.form.currentField().Kind == studioFieldSelect {
			m.form.stepSelect(-1)
			return m, nil
		}
	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		s, err := m.form.toSettings(m.settings)
		if err != nil {
			m.form.Error = err.Error()
			return m, nil
		}
		m.form.Error = ""
		m.form.Saving = true
		return m, saveSettingsCmd(m.configPath, s)
	}

	if m.form.currentField().Kind == studioFieldSelect {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}
