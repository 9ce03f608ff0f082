package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docuproof/internal/chunker"
	"github.com/dgallion1/docuproof/internal/document"
	"github.com/dgallion1/docuproof/internal/parser"
	"github.com/dgallion1/docuproof/internal/store"
	"github.com/google/uuid"
)

// ErrExtraction wraps every failure to get usable text out of an upload.
var ErrExtraction = errors.New("text extraction failed")

// minChunkChars is the shortest chunk content that counts as usable text.
const minChunkChars = 10

// Upload is a received file awaiting extraction.
type Upload struct {
	OwnerID  string
	Filename string
	MIMEType string
	Data     []byte
	// Title overrides the title derived from the filename.
	Title string
}

// Ingester turns uploads into stored, chunked documents.
type Ingester struct {
	extractor *parser.Extractor
	chunker   *chunker.Chunker
	store     store.Store
	log       *slog.Logger
	now       func() time.Time
}

func NewIngester(ex *parser.Extractor, ch *chunker.Chunker, st store.Store, log *slog.Logger) *Ingester {
	if log == nil {
		log = slog.Default()
	}
	return &Ingester{extractor: ex, chunker: ch, store: st, log: log, now: time.Now}
}

// Ingest extracts, chunks and stores an upload. Extraction problems wrap
// ErrExtraction and, where known, parser.ErrUnsupportedType or
// parser.ErrNoText.
func (in *Ingester) Ingest(ctx context.Context, up Upload) (*document.Document, error) {
	log := in.log.With("owner", up.OwnerID, "file", up.Filename)

	text, err := in.extractor.Extract(ctx, up.Data, up.MIMEType, up.Filename)
	if err != nil {
		log.Warn("text extraction failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	chunks := in.chunker.Chunk(text)
	if !hasUsableChunk(chunks) {
		log.Warn("no usable chunks", "chars", len(text))
		return nil, fmt.Errorf("%w: %w: no usable sections", ErrExtraction, parser.ErrNoText)
	}

	now := in.now().UTC()
	doc := &document.Document{
		ID:         uuid.NewString(),
		OwnerID:    up.OwnerID,
		Filename:   up.Filename,
		Title:      documentTitle(up),
		MIMEType:   up.MIMEType,
		FileSize:   int64(len(up.Data)),
		Text:       text,
		Chunks:     chunks,
		TotalWords: chunker.TotalWords(chunks),
		Status:     document.StatusTextExtracted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := in.store.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	log.Info("document ingested", "doc_id", doc.ID, "chunks", len(chunks), "words", doc.TotalWords)
	return doc, nil
}

func hasUsableChunk(chunks []document.Chunk) bool {
	for _, c := range chunks {
		if len(strings.TrimSpace(c.Content)) > minChunkChars {
			return true
		}
	}
	return false
}

func documentTitle(up Upload) string {
	if t := strings.TrimSpace(up.Title); t != "" {
		return t
	}
	name := up.Filename
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
