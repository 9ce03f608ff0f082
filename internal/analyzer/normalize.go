package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docuproof/internal/document"
)

const (
	explanationNoIssues  = "No specific issues found."
	explanationCompleted = "Analysis completed successfully."
	explanationUnparsed  = "Analysis completed but result formatting could not be parsed. Text appears acceptable as-is."
	explanationFailed    = "Analysis failed for this section."
)

var proofreadingTypes = map[string]bool{
	document.SuggestionGrammar:     true,
	document.SuggestionSpelling:    true,
	document.SuggestionPunctuation: true,
	document.SuggestionSyntax:      true,
	document.SuggestionWordChoice:  true,
}

// Normalize turns an Outcome into a SectionResult for chunk. Parsed
// outcomes are defaulted and flattened into suggestions in the order
// consistency, missing information, proofreading. Degraded outcomes keep
// the chunk unchanged with a single system_error suggestion.
func Normalize(chunk document.Chunk, o Outcome) document.SectionResult {
	if o.Kind == Degraded {
		return degradedResult(chunk,
			"Analysis parsing failed",
			"Could not parse analysis results, but text appears readable as-is.",
			explanationUnparsed)
	}

	r := o.Response
	res := document.SectionResult{
		Title:              chunk.Title,
		Original:           chunk.Content,
		WordCount:          chunk.WordCount,
		CleanVersion:       r.CleanVersion,
		Explanation:        r.Summary,
		ConsistencyIssues:  nonNil(r.ConsistencyIssues),
		MissingInformation: nonNil(r.MissingInformation),
		ProofreadingFixes:  nonNil(r.ProofreadingFixes),
	}

	suggestions := make([]document.Suggestion, 0,
		len(res.ConsistencyIssues)+len(res.MissingInformation)+len(res.ProofreadingFixes))
	for _, c := range res.ConsistencyIssues {
		suggestions = append(suggestions, document.Suggestion{
			Type:        document.SuggestionConsistency,
			Issue:       c.Issue,
			Original:    c.Original,
			Suggested:   c.Suggested,
			Explanation: c.Explanation,
		})
	}
	for _, m := range res.MissingInformation {
		suggestions = append(suggestions, document.Suggestion{
			Type:        document.SuggestionMissingInfo,
			Issue:       "Missing information: " + m.Gap,
			Original:    m.Location,
			Suggested:   m.Suggestion,
			Explanation: m.Reasoning,
		})
	}
	for _, f := range res.ProofreadingFixes {
		kind := strings.ToLower(strings.TrimSpace(f.Type))
		if !proofreadingTypes[kind] {
			kind = document.SuggestionWordChoice
		}
		suggestions = append(suggestions, document.Suggestion{
			Type:        kind,
			Issue:       kind + " error",
			Original:    f.Original,
			Suggested:   f.Suggested,
			Explanation: f.Explanation,
		})
	}
	res.Suggestions = suggestions

	if strings.TrimSpace(res.CleanVersion) == "" {
		res.CleanVersion = chunk.Content
	}
	if strings.TrimSpace(res.Explanation) == "" {
		if len(suggestions) == 0 {
			res.Explanation = explanationNoIssues
		} else {
			res.Explanation = explanationCompleted
		}
	}
	return res
}

// FailedSection is the result recorded for a chunk whose generation call
// failed.
func FailedSection(chunk document.Chunk, err error) document.SectionResult {
	detail := "The text-generation service did not return a result; the section is shown unchanged."
	if err != nil {
		detail += " (" + truncate(err.Error(), 200) + ")"
	}
	return degradedResult(chunk, "Analysis request failed", detail, explanationFailed)
}

func degradedResult(chunk document.Chunk, issue, detail, explanation string) document.SectionResult {
	return document.SectionResult{
		Title:     chunk.Title,
		Original:  chunk.Content,
		WordCount: chunk.WordCount,
		Suggestions: []document.Suggestion{{
			Type:        document.SuggestionSystemError,
			Issue:       issue,
			Original:    excerpt(chunk.Content, 100),
			Suggested:   chunk.Content,
			Explanation: detail,
		}},
		CleanVersion:       chunk.Content,
		Explanation:        explanation,
		ConsistencyIssues:  []document.ConsistencyIssue{},
		MissingInformation: []document.MissingInfo{},
		ProofreadingFixes:  []document.ProofreadingFix{},
		Degraded:           true,
	}
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
