package scriptdoc

import "testing"

const campaign = `# Holiday campaign

Intro notes that are not a script.

### **Script D: The Gift Nobody Wanted**

**Concept:** A corporate gift falls flat.

**Style:** Comedic, documentary

**[SCENE]:** Office party, fluorescent lights.
**[AUDIO]:** Sad trombone plays.
**[NARRATOR]:** Every year, the same mug.
**[NARRATOR (Internal Monologue)]:** Not again.
**[ON-SCREEN TEXT]:** 73% of gifts get regifted

### **Script E: Real Connection**

**[SCENE]:** A handwritten card.
**[AUDIO]:** Warm acoustic guitar.
**[NARRATOR]:** This is what it feels like.
`

func TestParseSplitsScripts(t *testing.T) {
	scripts := Parse(campaign)
	if len(scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(scripts))
	}

	d := scripts[0]
	if d.Title != "Script D: The Gift Nobody Wanted" {
		t.Fatalf("unexpected title %q", d.Title)
	}
	if d.Concept != "A corporate gift falls flat." || d.Style != "Comedic, documentary" {
		t.Fatalf("unexpected concept/style %q / %q", d.Concept, d.Style)
	}
	st := d.Statistics()
	if st.TotalElements != 5 || st.Narrations != 2 || st.AudioCues != 1 || st.Scenes != 1 || st.TextOverlays != 1 {
		t.Fatalf("unexpected statistics %+v", st)
	}

	wantKinds := []Kind{KindScene, KindAudio, KindNarrator, KindNarrator, KindText}
	for i, el := range d.Elements {
		if el.Kind != wantKinds[i] {
			t.Fatalf("element %d kind = %s, want %s", i, el.Kind, wantKinds[i])
		}
		if el.Order != i {
			t.Fatalf("element %d order = %d", i, el.Order)
		}
	}
	if d.Elements[0].Content != "Office party, fluorescent lights." {
		t.Fatalf("scene body should stop at next marker line, got %q", d.Elements[0].Content)
	}
	if d.Elements[1].Style != "sad_trombone" {
		t.Fatalf("unexpected audio style %q", d.Elements[1].Style)
	}
	if d.Elements[2].Voice != VoiceNarrator || d.Elements[3].Voice != VoiceInternalMonologue {
		t.Fatalf("unexpected voices %q %q", d.Elements[2].Voice, d.Elements[3].Voice)
	}
	if d.Elements[4].Content != "73% of gifts get regifted" {
		t.Fatalf("text body should stop at blank line, got %q", d.Elements[4].Content)
	}

	e := scripts[1]
	if e.Concept != "" {
		t.Fatalf("expected empty concept, got %q", e.Concept)
	}
	if e.Elements[1].Style != "warm_acoustic" {
		t.Fatalf("unexpected audio style %q", e.Elements[1].Style)
	}

	total := Summary(scripts)
	if total.TotalElements != 8 || total.Scenes != 2 {
		t.Fatalf("unexpected summary %+v", total)
	}
}

func TestParseWithoutHeadingsUsesDefaults(t *testing.T) {
	scripts := Parse("**[NARRATOR]:** Hello there.\n")
	if len(scripts) != 1 {
		t.Fatalf("expected 1 script, got %d", len(scripts))
	}
	if scripts[0].Title != "Untitled Script" {
		t.Fatalf("unexpected title %q", scripts[0].Title)
	}
	if got := scripts[0].Section().Statistics.Narrations; got != 1 {
		t.Fatalf("expected 1 narration, got %d", got)
	}
}

func TestParseSkipsSectionsWithoutScenes(t *testing.T) {
	if got := Parse("just some notes\n\n**[AUDIO]:** drums\n"); len(got) != 0 {
		t.Fatalf("expected no scripts, got %d", len(got))
	}
}

func TestInferAudioStyle(t *testing.T) {
	cases := map[string]string{
		"A SAD TROMBONE wah":         "sad_trombone",
		"authentic laughter":         "warm_acoustic",
		"cinematic swell":            "dramatic",
		"muted corporate hold music": "generic_corporate",
		"bright synth pop":           "corporate_uplifting",
	}
	for in, want := range cases {
		if got := InferAudioStyle(in); got != want {
			t.Fatalf("InferAudioStyle(%q) = %q, want %q", in, got, want)
		}
	}
}
