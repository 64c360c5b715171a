// Package scriptdoc reads marketing video scripts written in the studio's
// markdown dialect and summarizes their sections and elements.
package scriptdoc

import (
	"regexp"
	"strings"

	"contentgen/internal/model"
)

type Kind string

const (
	KindScene    Kind = "scene"
	KindAudio    Kind = "audio"
	KindNarrator Kind = "narrator"
	KindText     Kind = "text"
)

const (
	VoiceNarrator          = "narrator"
	VoiceInternalMonologue = "internal_monologue"

	untitled = "Untitled Script"
)

type Element struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
	Order   int    `json:"order"`
	// Style is set for audio cues.
	Style string `json:"style,omitempty"`
	// Voice is set for narrator lines.
	Voice string `json:"voice_type,omitempty"`
}

type Script struct {
	Title    string    `json:"title"`
	Concept  string    `json:"concept"`
	Style    string    `json:"style"`
	Elements []Element `json:"elements"`
}

var (
	titleRe   = regexp.MustCompile(`###\s+\*\*(.+?)\*\*`)
	sectionRe = regexp.MustCompile(`###\s+\*\*Script\s+[A-Z]:`)
	markerRe  = regexp.MustCompile(`\*\*\[(SCENE|AUDIO|ON-SCREEN TEXT|NARRATOR(?:\s+\((.+?)\))?)\]:\*\*`)
)

// Parse splits content at "### **Script X:" headings and parses every
// section that carries a scene or narrator line.
func Parse(content string) []Script {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []Script
	for _, section := range splitSections(content) {
		if !strings.Contains(section, "**[SCENE]:**") && !strings.Contains(section, "**[NARRATOR]:**") {
			continue
		}
		out = append(out, ParseSection(section))
	}
	return out
}

func splitSections(content string) []string {
	locs := sectionRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return []string{content}
	}
	sections := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			sections = append(sections, content[prev:loc[0]])
		}
		prev = loc[0]
	}
	return append(sections, content[prev:])
}

// ParseSection parses one script: its title, concept, style and elements in
// document order.
func ParseSection(content string) Script {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	s := Script{Title: untitled}
	if m := titleRe.FindStringSubmatch(content); m != nil {
		s.Title = m[1]
	}
	s.Concept, _ = labeledBody(content, "**Concept:**")
	s.Style, _ = labeledBody(content, "**Style:**")

	// Matches of one kind never overlap each other; matches of different
	// kinds may.
	nextAllowed := map[Kind]int{}
	for _, loc := range markerRe.FindAllStringSubmatchIndex(content, -1) {
		kind := markerKind(content[loc[2]:loc[3]])
		if loc[0] < nextAllowed[kind] {
			continue
		}
		body, end, ok := bodyAt(content, loc[1])
		if !ok {
			continue
		}
		nextAllowed[kind] = end
		el := Element{Kind: kind, Content: body, Order: len(s.Elements)}
		switch kind {
		case KindAudio:
			el.Style = InferAudioStyle(body)
		case KindNarrator:
			el.Voice = VoiceNarrator
			if loc[4] >= 0 && strings.Contains(content[loc[4]:loc[5]], "Internal Monologue") {
				el.Voice = VoiceInternalMonologue
			}
		}
		s.Elements = append(s.Elements, el)
	}
	return s
}

func markerKind(label string) Kind {
	switch label {
	case "SCENE":
		return KindScene
	case "AUDIO":
		return KindAudio
	case "ON-SCREEN TEXT":
		return KindText
	default:
		return KindNarrator
	}
}

func labeledBody(content, label string) (string, bool) {
	i := strings.Index(content, label)
	if i < 0 {
		return "", false
	}
	body, _, ok := bodyAt(content, i+len(label))
	return body, ok
}

// bodyAt reads an element body starting at pos: at least one whitespace
// character, then text up to the next blank line, the next line opening with
// "**", or the end of input. It returns the trimmed body and the end offset.
func bodyAt(content string, pos int) (string, int, bool) {
	start := pos
	for start < len(content) && isSpace(content[start]) {
		start++
	}
	if start == pos || start >= len(content) {
		return "", pos, false
	}
	end := len(content)
	rest := content[start+1:]
	if i := strings.Index(rest, "\n**"); i >= 0 && start+1+i < end {
		end = start + 1 + i
	}
	if i := strings.Index(rest, "\n\n"); i >= 0 && start+1+i < end {
		end = start + 1 + i
	}
	return strings.TrimSpace(content[start:end]), end, true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

// InferAudioStyle maps an audio cue description to a music style name.
func InferAudioStyle(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "sad trombone"):
		return "sad_trombone"
	case containsAny(lower, "warm", "acoustic", "authentic", "laughter"):
		return "warm_acoustic"
	case containsAny(lower, "dramatic", "cinematic", "swell", "emotional"):
		return "dramatic"
	case containsAny(lower, "generic", "corporate", "muted"):
		return "generic_corporate"
	default:
		return "corporate_uplifting"
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (s Script) count(kind Kind) int {
	n := 0
	for _, el := range s.Elements {
		if el.Kind == kind {
			n++
		}
	}
	return n
}

func (s Script) Statistics() model.ScriptStatistics {
	return model.ScriptStatistics{
		TotalElements: len(s.Elements),
		Narrations:    s.count(KindNarrator),
		AudioCues:     s.count(KindAudio),
		Scenes:        s.count(KindScene),
		TextOverlays:  s.count(KindText),
	}
}

// Section converts the parsed script to the summary shape the backend serves.
func (s Script) Section() model.ScriptSection {
	return model.ScriptSection{
		Title:      s.Title,
		Concept:    s.Concept,
		Style:      s.Style,
		Statistics: s.Statistics(),
	}
}

// Summary totals the element counts of all scripts in a file.
func Summary(scripts []Script) model.ScriptStatistics {
	var total model.ScriptStatistics
	for _, s := range scripts {
		st := s.Statistics()
		total.TotalElements += st.TotalElements
		total.Narrations += st.Narrations
		total.AudioCues += st.AudioCues
		total.Scenes += st.Scenes
		total.TextOverlays += st.TextOverlays
	}
	return total
}
