package model

import "strings"

// Job is one asynchronous video-generation task as reported by GET /api/jobs.
type Job struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Message     string `json:"message"`
	Created     string `json:"created"`
	ScriptTitle string `json:"script_title,omitempty"`
	Filename    string `json:"filename,omitempty"`
	VideoPath   string `json:"video_path,omitempty"`
}

// Label is the display name of the job: the script title when the job was
// started for a single section, otherwise the source filename.
func (j Job) Label() string {
	if t := strings.TrimSpace(j.ScriptTitle); t != "" {
		return t
	}
	return j.Filename
}

func (j Job) HasVideo() bool {
	return strings.TrimSpace(j.VideoPath) != ""
}

// ClampedProgress keeps a misbehaving backend value inside 0..100.
func (j Job) ClampedProgress() int {
	switch {
	case j.Progress < 0:
		return 0
	case j.Progress > 100:
		return 100
	default:
		return j.Progress
	}
}

type Script struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type ScriptStatistics struct {
	TotalElements int `json:"total_elements,omitempty"`
	Narrations    int `json:"narrations"`
	AudioCues     int `json:"audio_cues"`
	Scenes        int `json:"scenes"`
	TextOverlays  int `json:"text_overlays"`
}

// ScriptSection is one parsed script inside an uploaded file.
type ScriptSection struct {
	Title      string           `json:"title"`
	Concept    string           `json:"concept"`
	Style      string           `json:"style"`
	Statistics ScriptStatistics `json:"statistics"`
}

type ScriptDetail struct {
	Filename string          `json:"filename"`
	Sections []ScriptSection `json:"scripts"`
}

type Video struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type VideoSettings struct {
	Resolution   string `json:"resolution"`
	Framerate    int    `json:"framerate"`
	OutputFormat string `json:"output_format"`
	VideoCodec   string `json:"video_codec"`
}

// BackendConfig is the read-only configuration summary served by GET /api/config.
type BackendConfig struct {
	ElevenLabsConfigured bool              `json:"elevenlabs_configured"`
	SunoConfigured       bool              `json:"suno_configured"`
	VideoSettings        VideoSettings     `json:"video_settings"`
	AvailableVoices      map[string]string `json:"available_voices"`
	MusicStyles          []string          `json:"music_styles"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
