package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
)

func TestAggregate(t *testing.T) {
	var issues []document.ConsistencyIssue
	for i := 1; i <= 6; i++ {
		issues = append(issues, document.ConsistencyIssue{Issue: fmt.Sprintf("issue %d", i)})
	}
	sections := []document.SectionResult{
		{
			WordCount:         120,
			Suggestions:       make([]document.Suggestion, 5),
			ConsistencyIssues: issues[:4],
			ProofreadingFixes: make([]document.ProofreadingFix, 1),
		},
		{
			WordCount:          80,
			Suggestions:        make([]document.Suggestion, 4),
			ConsistencyIssues:  issues[4:],
			MissingInformation: make([]document.MissingInfo, 2),
		},
	}
	at := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

	run := Aggregate(sections, document.LevelMajor, at)

	want := "Analysis completed with full document context. Found 9 total suggestions: 6 consistency issues, 2 missing information gaps, and 1 proofreading corrections across 2 sections."
	if run.OverallSummary != want {
		t.Errorf("summary:\n got %q\nwant %q", run.OverallSummary, want)
	}
	if run.TotalSuggestions != 9 {
		t.Errorf("expected 9 suggestions, got %d", run.TotalSuggestions)
	}
	if run.TotalWords != 200 {
		t.Errorf("expected 200 words, got %d", run.TotalWords)
	}
	if len(run.ConsistencyIssues) != 5 || run.ConsistencyIssues[0] != "issue 1" || run.ConsistencyIssues[4] != "issue 5" {
		t.Errorf("unexpected top issues %v", run.ConsistencyIssues)
	}
	if run.CompletedAt != "2026-03-04T05:06:07.890Z" {
		t.Errorf("unexpected completedAt %q", run.CompletedAt)
	}
	if run.Level != document.LevelMajor || run.AnalysisType != "context-aware-analysis" {
		t.Errorf("unexpected level/type %q %q", run.Level, run.AnalysisType)
	}
}

func TestAggregate_Empty(t *testing.T) {
	run := Aggregate(nil, document.LevelMinor, time.Now())
	if run.Sections == nil || run.ConsistencyIssues == nil {
		t.Error("expected non-nil slices")
	}
	if run.TotalSuggestions != 0 {
		t.Errorf("expected 0 suggestions, got %d", run.TotalSuggestions)
	}
	want := "Analysis completed with full document context. Found 0 total suggestions: 0 consistency issues, 0 missing information gaps, and 0 proofreading corrections across 0 sections."
	if run.OverallSummary != want {
		t.Errorf("got %q", run.OverallSummary)
	}
}
