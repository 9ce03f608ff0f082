package document

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelMedium, false},
		{"minor", LevelMinor, false},
		{" Major ", LevelMajor, false},
		{"MEDIUM", LevelMedium, false},
		{"extreme", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("extreme"); err == nil || !strings.Contains(err.Error(), "must be minor, medium or major") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestLevelTitle(t *testing.T) {
	if got := LevelMajor.Title(); got != "Major" {
		t.Errorf("got %q", got)
	}
	if got := Level("").Title(); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestSummary(t *testing.T) {
	d := Document{
		ID:       "d1",
		Text:     "full text",
		Chunks:   []Chunk{{Title: "Intro", Content: "body", WordCount: 1}},
		Analysis: &AnalysisRun{TotalSuggestions: 3},
	}
	s := d.Summary()
	if s.Text != "" || s.Analysis != nil {
		t.Error("summary should drop text and analysis")
	}
	if len(s.Chunks) != 1 || s.Chunks[0].Title != "Intro" || s.Chunks[0].Content != "" || s.Chunks[0].WordCount != 1 {
		t.Errorf("unexpected summary chunks %+v", s.Chunks)
	}
	if d.Chunks[0].Content != "body" || d.Text == "" {
		t.Error("summary modified the original")
	}
}

func TestVisibleTo(t *testing.T) {
	private := Document{OwnerID: "alice"}
	public := Document{OwnerID: "alice", Public: true}

	if !private.VisibleTo("alice") {
		t.Error("owner should see own document")
	}
	if private.VisibleTo("bob") || private.VisibleTo("") {
		t.Error("private document leaked")
	}
	if !public.VisibleTo("bob") || !public.VisibleTo("") {
		t.Error("public document should be visible")
	}
	if (Document{}).VisibleTo("") {
		t.Error("ownerless private document should not match an empty user")
	}
}

func TestSuggestionFieldsAlwaysSerialized(t *testing.T) {
	b, err := json.Marshal(Suggestion{Type: SuggestionGrammar})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"issue":""`, `"original":""`, `"suggested":""`, `"explanation":""`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("missing %s in %s", key, b)
		}
	}
}
