// Package store persists documents and their analysis results.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrAlreadyAnalyzing = errors.New("document is already being analyzed")
	ErrExists           = errors.New("document already exists")
)

// Store is keyed by document ID. Ownership checks belong to callers.
type Store interface {
	Create(ctx context.Context, doc *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]document.Document, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status document.Status) error
	// ClaimForAnalysis moves the document to StatusAnalyzing unless another
	// run holds it. A claim older than staleAfter is taken over; a
	// non-positive staleAfter never takes over. Returns ErrAlreadyAnalyzing
	// when the claim fails.
	ClaimForAnalysis(ctx context.Context, id string, staleAfter time.Duration) error
	// SaveAnalysis replaces the stored analysis and marks the document
	// completed, releasing any claim.
	SaveAnalysis(ctx context.Context, id string, run document.AnalysisRun) error
	Close() error
}

func claimable(doc *document.Document, now time.Time, staleAfter time.Duration) bool {
	if doc.Status != document.StatusAnalyzing {
		return true
	}
	if staleAfter <= 0 {
		return false
	}
	return doc.ClaimedAt == nil || now.Sub(*doc.ClaimedAt) > staleAfter
}

func applyClaim(doc *document.Document, now time.Time) {
	doc.Status = document.StatusAnalyzing
	doc.ClaimedAt = &now
	doc.UpdatedAt = now
}

func applyStatus(doc *document.Document, status document.Status, now time.Time) {
	doc.Status = status
	if status != document.StatusAnalyzing {
		doc.ClaimedAt = nil
	}
	doc.UpdatedAt = now
}

func applyAnalysis(doc *document.Document, run document.AnalysisRun, now time.Time) {
	doc.Analysis = &run
	applyStatus(doc, document.StatusCompleted, now)
}
