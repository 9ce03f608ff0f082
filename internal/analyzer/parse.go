package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docuproof/internal/document"
)

// OutcomeKind tags a parsed generator response.
type OutcomeKind int

const (
	// Parsed means a JSON object was recovered from the completion.
	Parsed OutcomeKind = iota
	// Degraded means nothing usable was recovered.
	Degraded
)

func (k OutcomeKind) String() string {
	if k == Parsed {
		return "parsed"
	}
	return "degraded"
}

// Response is the generator's JSON payload after lenient decoding.
type Response struct {
	ConsistencyIssues  []document.ConsistencyIssue
	MissingInformation []document.MissingInfo
	ProofreadingFixes  []document.ProofreadingFix
	CleanVersion       string
	Summary            string
}

// Outcome is the tagged result of ParseResponse. Response is meaningful only
// when Kind is Parsed; Reason only when Kind is Degraded.
type Outcome struct {
	Kind     OutcomeKind
	Response Response
	Reason   string
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// ParseResponse recovers a Response from untrusted completion text: first
// the whole text as JSON, then the span from the first '{' to the last '}'.
// Anything else is Degraded.
func ParseResponse(raw string) Outcome {
	text := stripCodeBlock(raw)
	if text == "" {
		return Outcome{Kind: Degraded, Reason: "empty response"}
	}

	resp, err := decodeResponse(text)
	if err == nil {
		return Outcome{Kind: Parsed, Response: resp}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Outcome{Kind: Degraded, Reason: "no JSON object found: " + truncate(text, 200)}
	}
	resp, err = decodeResponse(text[start : end+1])
	if err != nil {
		return Outcome{Kind: Degraded, Reason: fmt.Sprintf("could not parse extracted JSON: %v", err)}
	}
	return Outcome{Kind: Parsed, Response: resp}
}

func decodeResponse(s string) (Response, error) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return Response{}, fmt.Errorf("not a JSON object")
	}
	var w wireResponse
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return Response{}, err
	}
	return w.toResponse(), nil
}

// looseString accepts strings, numbers, booleans and null so that a single
// mistyped field does not discard an otherwise usable response.
type looseString string

func (l *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = looseString(s)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		*l = looseString(b)
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil && string(b) != "true" && string(b) != "false" {
			return fmt.Errorf("unexpected value %s", b)
		}
		*l = looseString(b)
	}
	return nil
}

type wireConsistency struct {
	Type        looseString `json:"type"`
	Issue       looseString `json:"issue"`
	Original    looseString `json:"original"`
	Suggested   looseString `json:"suggested"`
	Explanation looseString `json:"explanation"`
}

type wireMissing struct {
	Location   looseString `json:"location"`
	Gap        looseString `json:"gap"`
	Suggestion looseString `json:"suggestion"`
	Reasoning  looseString `json:"reasoning"`
}

type wireFix struct {
	Type        looseString `json:"type"`
	Original    looseString `json:"original"`
	Suggested   looseString `json:"suggested"`
	Explanation looseString `json:"explanation"`
}

type wireResponse struct {
	ConsistencyIssues  []wireConsistency `json:"consistencyIssues"`
	MissingInformation []wireMissing     `json:"missingInformation"`
	ProofreadingFixes  []wireFix         `json:"proofreadingFixes"`
	CleanVersion       looseString       `json:"cleanVersion"`
	Summary            looseString       `json:"summary"`
}

func (w wireResponse) toResponse() Response {
	r := Response{
		ConsistencyIssues:  make([]document.ConsistencyIssue, 0, len(w.ConsistencyIssues)),
		MissingInformation: make([]document.MissingInfo, 0, len(w.MissingInformation)),
		ProofreadingFixes:  make([]document.ProofreadingFix, 0, len(w.ProofreadingFixes)),
		CleanVersion:       string(w.CleanVersion),
		Summary:            string(w.Summary),
	}
	for _, c := range w.ConsistencyIssues {
		r.ConsistencyIssues = append(r.ConsistencyIssues, document.ConsistencyIssue{
			Type:        string(c.Type),
			Issue:       string(c.Issue),
			Original:    string(c.Original),
			Suggested:   string(c.Suggested),
			Explanation: string(c.Explanation),
		})
	}
	for _, m := range w.MissingInformation {
		r.MissingInformation = append(r.MissingInformation, document.MissingInfo{
			Location:   string(m.Location),
			Gap:        string(m.Gap),
			Suggestion: string(m.Suggestion),
			Reasoning:  string(m.Reasoning),
		})
	}
	for _, f := range w.ProofreadingFixes {
		r.ProofreadingFixes = append(r.ProofreadingFixes, document.ProofreadingFix{
			Type:        string(f.Type),
			Original:    string(f.Original),
			Suggested:   string(f.Suggested),
			Explanation: string(f.Explanation),
		})
	}
	return r
}
