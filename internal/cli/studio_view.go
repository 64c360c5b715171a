package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"contentgen/internal/model"
	"contentgen/internal/scriptdoc"
	"contentgen/internal/studio"
)

const downloadMarker = "[download]"

var studioTabHints = map[studio.Tab]string{
	studio.TabUpload:  "u/enter: choose file | tab: preview | enter: upload | esc: back",
	studio.TabScripts: "up/down: move | enter: sections | g: generate | x: delete | r: refresh",
	studio.TabJobs:    "up/down: move | d: save video | y: copy id | r: refresh",
	studio.TabVideos:  "up/down: move | d/enter: save video | y: copy name | r: refresh",
	studio.TabConfig:  "s: edit client settings | r: refresh",
}

func (m studioModel) View() string {
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	switch m.mode {
	case studioModeForm:
		return m.viewForm()
	case studioModeConfirm:
		return m.viewConfirm()
	case studioModeDetail:
		return m.viewDetail()
	default:
		return m.viewBrowse()
	}
}

func (m studioModel) viewBrowse() string {
	header := studioTitleStyle.Render("contentgen studio") + "  " + studioMutedStyle.Render(m.settings.APIURL)
	hints := studioMutedStyle.Render("1-5/tab: switch | " + studioTabHints[m.state.Active] + " | s: settings | q: quit")

	var body string
	switch m.state.Active {
	case studio.TabUpload:
		body = m.renderUploadPanel(m.width)
	case studio.TabScripts:
		body = m.renderScriptsPanel(m.width)
	case studio.TabJobs:
		body = m.renderJobsPanel(m.width)
	case studio.TabVideos:
		body = m.renderVideosPanel(m.width)
	case studio.TabConfig:
		body = m.renderConfigPanel(m.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderTabBar(), hints, body, m.renderStatusLine(m.width))
}

func (m studioModel) renderTabBar() string {
	parts := make([]string, 0, len(studio.Tabs))
	for i, t := range studio.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == studio.TabJobs {
			if n := m.state.Jobs.Active(); n > 0 {
				label += fmt.Sprintf(" (%d)", n)
			}
		}
		if t == m.state.Active {
			parts = append(parts, studioActiveTab.Render(label))
			continue
		}
		parts = append(parts, studioTabStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// listState renders the loading, error and empty states shared by the list
// tabs. ok is false when one of them applies.
func (m studioModel) listState(loaded, pending bool, err error, total int, empty string) (string, bool) {
	switch {
	case err != nil:
		return studioErrorStyle.Render("error: " + err.Error()), false
	case !loaded && pending:
		return m.spinner.View() + " loading...", false
	case total == 0:
		return studioMutedStyle.Render(empty), false
	}
	return "", true
}

// renderRows windows rows around the cursor. Rows must already fit width.
func (m studioModel) renderRows(width int, tab studio.Tab, rows []string) string {
	maxRows := clampInt(m.height-10, 4, 40)
	cursor := m.cursors[tab]
	start, end := listWindow(len(rows), cursor, maxRows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := rows[i]
		if i == cursor {
			row = studioSelStyle.Width(maxInt(width-4, 6)).Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m studioModel) renderUploadPanel(width int) string {
	lines := []string{"Upload a script (.md or .txt, up to 5MB)", "", m.input.View()}
	if m.uploading {
		lines = append(lines, "", m.spinner.View()+" uploading...")
	}
	if p := m.preview; p != nil {
		lines = append(lines, "", studioTitleStyle.Render("Preview: "+p.path))
		switch {
		case p.err != nil:
			lines = append(lines, studioWarnStyle.Render("preview unavailable: "+p.err.Error()))
		case len(p.scripts) == 0:
			lines = append(lines, kv("size", formatBytesIEC(p.size)), "no script sections found")
		default:
			total := scriptdoc.Summary(p.scripts)
			lines = append(lines,
				kv("size", formatBytesIEC(p.size)),
				kv("sections", fmt.Sprintf("%d", len(p.scripts))),
				fmt.Sprintf("scenes %d | narrations %d | audio %d | text %d", total.Scenes, total.Narrations, total.AudioCues, total.TextOverlays),
				"",
			)
			for _, s := range p.scripts {
				st := s.Statistics()
				lines = append(lines, fmt.Sprintf("- %s (%d elements)", s.Title, st.TotalElements))
			}
		}
	}
	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return studioPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m studioModel) renderScriptsPanel(width int) string {
	scripts := m.state.Scripts.Value()
	content, ok := m.listState(m.state.Scripts.Loaded(), m.state.Scripts.Pending(), m.state.Scripts.Err(), len(scripts), "(no scripts uploaded)")
	if ok {
		rows := make([]string, 0, len(scripts))
		for _, s := range scripts {
			row := padCells(s.Filename, 36) + "  " + padCells(formatBytesIEC(s.Size), 10) + "  " + s.Modified
			rows = append(rows, truncateCells(row, maxInt(width-6, 10)))
		}
		content = m.renderRows(width, studio.TabScripts, rows)
	}
	return studioPanelStyle.Width(width).Render("Scripts\n\n" + content)
}

const (
	minJobIDWidth = 12
	maxJobIDWidth = 36
)

// jobIDWidth sizes the id column to the longest id in rows, within bounds.
func jobIDWidth(rows []studio.Row) int {
	w := minJobIDWidth
	for _, r := range rows {
		w = maxInt(w, runewidth.StringWidth(r.Job.ID))
	}
	return clampInt(w, minJobIDWidth, maxJobIDWidth)
}

// jobRowText renders one job row within width cells. A row with a video
// carries exactly one download marker, placed ahead of the message so
// truncation never drops it.
func (m studioModel) jobRowText(r studio.Row, idWidth, width int) string {
	j := r.Job
	status := j.Status
	if r.Placeholder {
		status += "*"
	}
	marker := padCells("", len(downloadMarker))
	if !r.Placeholder && j.HasVideo() {
		marker = downloadMarker
	}
	prefix := strings.Join([]string{
		padCells(j.ID, idWidth),
		padCells(defaultIfEmpty(j.Label(), "-"), 24),
		padCells(status, 11),
		m.bar.ViewAs(float64(j.ClampedProgress()) / 100),
		fmt.Sprintf("%3d%%", j.ClampedProgress()),
		marker,
	}, " ")
	return prefix + " " + truncateCells(j.Message, maxInt(width-lipgloss.Width(prefix)-1, 0))
}

func (m studioModel) renderJobsPanel(width int) string {
	rows := m.state.Jobs.Rows()
	content, ok := m.listState(m.state.Jobs.Loaded(), m.state.Jobs.Pending(), m.state.Jobs.Err(), len(rows), "(no jobs)")
	if ok {
		idWidth := jobIDWidth(rows)
		lines := make([]string, 0, len(rows))
		for _, r := range rows {
			lines = append(lines, m.jobRowText(r, idWidth, width-6))
		}
		content = m.renderRows(width, studio.TabJobs, lines)
	}
	title := fmt.Sprintf("Jobs  %s", studioMutedStyle.Render(fmt.Sprintf("polling every %s", m.pollInterval)))
	return studioPanelStyle.Width(width).Render(title + "\n\n" + content)
}

func (m studioModel) renderVideosPanel(width int) string {
	videos := m.state.Videos.Value()
	content, ok := m.listState(m.state.Videos.Loaded(), m.state.Videos.Pending(), m.state.Videos.Err(), len(videos), "(no videos yet)")
	if ok {
		rows := make([]string, 0, len(videos))
		for _, v := range videos {
			row := truncateCells(padCells(v.Filename, 36)+"  "+padCells(formatBytesIEC(v.Size), 10)+"  "+v.Modified, maxInt(width-10, 10))
			if m.downloads[v.Filename] {
				row += "  " + m.spinner.View()
			}
			rows = append(rows, row)
		}
		content = m.renderRows(width, studio.TabVideos, rows)
	}
	return studioPanelStyle.Width(width).Render("Videos\n\n" + content)
}

func (m studioModel) renderConfigPanel(width int) string {
	cfg := m.state.Config.Value()
	content, ok := m.listState(m.state.Config.Loaded(), m.state.Config.Pending(), m.state.Config.Err(), 1, "")
	if ok {
		content = strings.Join(backendConfigLines(cfg), "\n")
	}
	client := []string{
		"",
		studioTitleStyle.Render("Client"),
		kv("api_url", m.settings.APIURL),
		kv("poll_interval", m.pollInterval.String()),
		kv("request_timeout", m.settings.RequestTimeout.String()),
		kv("download_dir", m.settings.DownloadDir),
		kv("log_file", defaultIfEmpty(m.settings.LogFile, "(disabled)")),
	}
	return studioPanelStyle.Width(width).Render("Backend\n\n" + content + "\n" + strings.Join(client, "\n"))
}

func backendConfigLines(cfg model.BackendConfig) []string {
	vs := cfg.VideoSettings
	lines := []string{
		kv("elevenlabs", configuredLabel(cfg.ElevenLabsConfigured)),
		kv("suno", configuredLabel(cfg.SunoConfigured)),
		kv("resolution", defaultIfEmpty(vs.Resolution, "-")),
		kv("framerate", fmt.Sprintf("%d", vs.Framerate)),
		kv("output_format", defaultIfEmpty(vs.OutputFormat, "-")),
		kv("video_codec", defaultIfEmpty(vs.VideoCodec, "-")),
	}
	if len(cfg.AvailableVoices) > 0 {
		lines = append(lines, "voices:")
		for _, name := range sortedKeys(cfg.AvailableVoices) {
			lines = append(lines, "  "+kv(name, cfg.AvailableVoices[name]))
		}
	}
	if len(cfg.MusicStyles) > 0 {
		lines = append(lines, kv("music_styles", strings.Join(cfg.MusicStyles, ", ")))
	}
	return lines
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func (m studioModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		if m.state.Loading() {
			msg = m.spinner.View() + " refreshing " + m.state.Active.String()
		} else {
			msg = "Tip: generate from the Scripts tab, then watch progress on Jobs."
		}
	}
	style := studioMutedStyle
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "error:"):
		style = studioErrorStyle
	case strings.HasPrefix(lower, "file uploaded"), strings.HasPrefix(lower, "generation started"),
		strings.HasPrefix(lower, "deleted"), strings.HasPrefix(lower, "downloaded"),
		strings.HasPrefix(lower, "updated"), strings.HasSuffix(lower, "completed"):
		style = studioOKStyle
	}
	return style.Width(width).Render(truncateCells(msg, maxInt(width-2, 10)))
}

func (m studioModel) viewDetail() string {
	d := m.detail
	header := studioTitleStyle.Render("Script: "+d.filename) + "\n" +
		studioMutedStyle.Render("up/down: move | g/enter: generate section | a: generate whole file | esc: back")
	var body string
	switch {
	case !d.loaded:
		body = m.spinner.View() + " loading sections..."
	case d.err != nil:
		body = studioErrorStyle.Render("error: " + d.err.Error())
	case len(d.detail.Sections) == 0:
		body = studioMutedStyle.Render("(no script sections)")
	default:
		blocks := make([]string, 0, len(d.detail.Sections))
		for i, s := range d.detail.Sections {
			st := s.Statistics
			lines := []string{
				s.Title,
				kv("concept", defaultIfEmpty(s.Concept, "-")),
				kv("style", defaultIfEmpty(s.Style, "-")),
				fmt.Sprintf("narrations %d | audio cues %d | scenes %d | text overlays %d", st.Narrations, st.AudioCues, st.Scenes, st.TextOverlays),
			}
			for j := range lines {
				lines[j] = wrapOrTrim(lines[j], maxInt(m.width-8, 20))
			}
			block := strings.Join(lines, "\n")
			if i == d.cursor {
				block = studioSelStyle.Render(block)
			}
			blocks = append(blocks, block)
		}
		body = strings.Join(blocks, "\n\n")
	}
	panel := studioPanelStyle.Width(maxInt(m.width, 40)).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, panel, m.renderStatusLine(m.width))
}

func (m studioModel) viewForm() string {
	if m.form == nil {
		return ""
	}
	header := studioTitleStyle.Render(m.form.Title)
	hints := studioMutedStyle.Render("tab/shift+tab or up/down: move | left/right/space: choose | enter: next/save | ctrl+s: save | esc: cancel")

	lines := make([]string, 0, len(m.form.Fields)+6)
	for i, f := range m.form.Fields {
		prefix := "  "
		if i == m.form.Index {
			prefix = "> "
		}
		display := strings.TrimSpace(f.Value)
		if display == "" {
			display = studioMutedStyle.Render("(empty)")
		}
		if f.Kind == studioFieldSelect {
			display = "[" + display + "]"
		}
		lines = append(lines, wrapOrTrim(fmt.Sprintf("%s%s: %s", prefix, f.Label, display), maxInt(m.width-6, 20)))
	}

	curr := m.form.currentField()
	inputLabel := fmt.Sprintf("\n%s\n", curr.Label)
	inputHelp := ""
	if strings.TrimSpace(curr.Help) != "" {
		inputHelp = studioMutedStyle.Render(curr.Help) + "\n"
	}
	status := ""
	if m.form.Saving {
		status = studioMutedStyle.Render("\nSaving...")
	}
	if strings.TrimSpace(m.form.Error) != "" {
		status = "\n" + studioErrorStyle.Render(m.form.Error)
	}

	panel := studioPanelStyle.Width(maxInt(m.width, 40)).Render(strings.Join(lines, "\n") + inputLabel + inputHelp + m.form.Input.View() + status)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m studioModel) viewConfirm() string {
	c := m.confirm
	if c == nil {
		return ""
	}
	var text string
	switch c.kind {
	case confirmDelete:
		text = fmt.Sprintf("Delete script '%s'?\n\nThe file is removed from the backend.\nVideos already rendered stay available.", c.filename)
	default:
		target := c.filename
		if c.title != "" {
			target = fmt.Sprintf("'%s' from %s", c.title, c.filename)
		}
		text = fmt.Sprintf("Generate a video for %s?\n\nThis starts a backend job and may use paid voice and music APIs.", target)
	}
	text += "\n\nPress y or Enter to confirm, n or Esc to cancel."
	boxW := clampInt(m.width-8, 36, 80)
	boxH := clampInt(m.height-6, 9, 14)
	panel := studioPanelStyle.Width(boxW).Height(boxH).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
