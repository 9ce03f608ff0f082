package document

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a Document.
type Status string

const (
	StatusReceived      Status = "received"
	StatusTextExtracted Status = "text_extracted"
	StatusAnalyzing     Status = "analyzing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// Document is an uploaded file together with its extracted text, its chunks
// and the most recent completed analysis.
type Document struct {
	ID         string       `json:"id"`
	OwnerID    string       `json:"owner_id"`
	Filename   string       `json:"filename"`
	Title      string       `json:"title,omitempty"`
	MIMEType   string       `json:"mime_type,omitempty"`
	FileSize   int64        `json:"file_size"`
	Text       string       `json:"extracted_text,omitempty"`
	Chunks     []Chunk      `json:"chunks"`
	TotalWords int          `json:"total_words"`
	Status     Status       `json:"status"`
	Public     bool         `json:"public"`
	Analysis   *AnalysisRun `json:"analysis,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	// ClaimedAt is set while an analysis run holds the document.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// Summary returns a copy without the raw text, chunk contents and
// analysis, suitable for listings.
func (d Document) Summary() Document {
	d.Text = ""
	d.Analysis = nil
	chunks := make([]Chunk, len(d.Chunks))
	for i, c := range d.Chunks {
		chunks[i] = Chunk{Title: c.Title, WordCount: c.WordCount}
	}
	d.Chunks = chunks
	return d
}

// VisibleTo reports whether userID may read the document.
func (d Document) VisibleTo(userID string) bool {
	return d.Public || (userID != "" && d.OwnerID == userID)
}

// Chunk is a title-bearing slice of a document, the unit of analysis.
type Chunk struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
}

// Level is the analysis intensity.
type Level string

const (
	LevelMinor  Level = "minor"
	LevelMedium Level = "medium"
	LevelMajor  Level = "major"
)

// ParseLevel validates s. An empty string selects LevelMedium.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return LevelMedium, nil
	case LevelMinor:
		return LevelMinor, nil
	case LevelMedium:
		return LevelMedium, nil
	case LevelMajor:
		return LevelMajor, nil
	}
	return "", fmt.Errorf("invalid analysis level %q: must be minor, medium or major", s)
}

// Title returns the level with its first letter upper-cased.
func (l Level) Title() string {
	if l == "" {
		return ""
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// Suggestion types.
const (
	SuggestionConsistency = "consistency"
	SuggestionMissingInfo = "missing_info"
	SuggestionGrammar     = "grammar"
	SuggestionSpelling    = "spelling"
	SuggestionPunctuation = "punctuation"
	SuggestionSyntax      = "syntax"
	SuggestionWordChoice  = "word_choice"
	SuggestionSystemError = "system_error"
)

// Suggestion is one flattened, display-ready edit. All fields are always
// serialized.
type Suggestion struct {
	Type        string `json:"type"`
	Issue       string `json:"issue"`
	Original    string `json:"original"`
	Suggested   string `json:"suggested"`
	Explanation string `json:"explanation"`
}

// ConsistencyIssue as reported by the generator.
type ConsistencyIssue struct {
	Type        string `json:"type"`
	Issue       string `json:"issue"`
	Original    string `json:"original"`
	Suggested   string `json:"suggested"`
	Explanation string `json:"explanation"`
}

// MissingInfo is a gap reported by the generator.
type MissingInfo struct {
	Location   string `json:"location"`
	Gap        string `json:"gap"`
	Suggestion string `json:"suggestion"`
	Reasoning  string `json:"reasoning"`
}

// ProofreadingFix is a grammar/spelling/punctuation/syntax/word choice fix.
type ProofreadingFix struct {
	Type        string `json:"type"`
	Original    string `json:"original"`
	Suggested   string `json:"suggested"`
	Explanation string `json:"explanation"`
}

// SectionResult is the normalized analysis of one chunk.
type SectionResult struct {
	Title              string             `json:"title"`
	Original           string             `json:"original"`
	WordCount          int                `json:"wordCount"`
	Suggestions        []Suggestion       `json:"suggestions"`
	CleanVersion       string             `json:"cleanVersion"`
	Explanation        string             `json:"explanation"`
	ConsistencyIssues  []ConsistencyIssue `json:"consistencyIssues"`
	MissingInformation []MissingInfo      `json:"missingInformation"`
	ProofreadingFixes  []ProofreadingFix  `json:"proofreadingFixes"`
	// Degraded is set when the section carries no real guidance because the
	// generator failed or its output could not be understood.
	Degraded bool `json:"degraded,omitempty"`
}

// AnalysisType labels runs that send the whole document as context.
const AnalysisType = "context-aware-analysis"

// AnalysisRun is the persisted aggregate of one completed analysis.
type AnalysisRun struct {
	Sections          []SectionResult `json:"sections"`
	OverallSummary    string          `json:"overallSummary"`
	ConsistencyIssues []string        `json:"consistencyIssues"`
	TotalWords        int             `json:"totalWords"`
	TotalSuggestions  int             `json:"totalSuggestions"`
	CompletedAt       string          `json:"completedAt"`
	Level             Level           `json:"changeLevel"`
	AnalysisType      string          `json:"analysisType"`
}
