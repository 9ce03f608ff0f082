package pipeline

import (
	"fmt"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
)

const topConsistencyIssues = 5

// Aggregate folds per-section results into the persisted run.
func Aggregate(sections []document.SectionResult, level document.Level, completedAt time.Time) document.AnalysisRun {
	var total, consistency, missing, proofreading, words int
	var top []string
	for _, s := range sections {
		total += len(s.Suggestions)
		consistency += len(s.ConsistencyIssues)
		missing += len(s.MissingInformation)
		proofreading += len(s.ProofreadingFixes)
		words += s.WordCount
		for _, ci := range s.ConsistencyIssues {
			if len(top) < topConsistencyIssues {
				top = append(top, ci.Issue)
			}
		}
	}
	if top == nil {
		top = []string{}
	}
	if sections == nil {
		sections = []document.SectionResult{}
	}

	return document.AnalysisRun{
		Sections: sections,
		OverallSummary: fmt.Sprintf(
			"Analysis completed with full document context. Found %d total suggestions: %d consistency issues, %d missing information gaps, and %d proofreading corrections across %d sections.",
			total, consistency, missing, proofreading, len(sections)),
		ConsistencyIssues: top,
		TotalWords:        words,
		TotalSuggestions:  total,
		CompletedAt:       completedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:             level,
		AnalysisType:      document.AnalysisType,
	}
}
