package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docuproof/internal/analyzer"
	"github.com/dgallion1/docuproof/internal/chunker"
	"github.com/dgallion1/docuproof/internal/config"
	"github.com/dgallion1/docuproof/internal/parser"
	"github.com/dgallion1/docuproof/internal/pipeline"
	"github.com/dgallion1/docuproof/internal/store"
)

// services is everything a command needs to ingest and analyze.
type services struct {
	store        store.Store
	ingester     *pipeline.Ingester
	gen          analyzer.Generator
	llm          *analyzer.Client
	orchestrator *pipeline.Orchestrator
}

func newExtractor(cfg config.Config, log *slog.Logger) *parser.Extractor {
	ex := &parser.Extractor{
		PDFFallback: cfg.PDFFallbackPdftotext,
		MinChars:    cfg.MinExtractedChars,
		Log:         log,
	}
	if cfg.DocumentParseAPIKey != "" {
		ex.Remote = parser.NewRemoteParser(cfg.DocumentParseURL, cfg.DocumentParseAPIKey, cfg.LLMTimeout)
	}
	return ex
}

// buildServices opens the store named by storeURL and wires the analysis
// pipeline. The caller starts the orchestrator and calls close.
func buildServices(ctx context.Context, cfg config.Config, storeURL string, log *slog.Logger) (*services, error) {
	gen, err := analyzer.NewGenerator(cfg.Generator())
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	st, err := store.Open(ctx, storeURL)
	if err != nil {
		gen.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	llm := analyzer.NewClient(gen, cfg.Client(), log)
	runs := pipeline.NewRunRegistry(cfg.RunTTL)
	runner := pipeline.NewRunner(st, llm, runs, cfg.RunClaimTTL, log)

	return &services{
		store:        st,
		ingester:     pipeline.NewIngester(newExtractor(cfg, log), chunker.New(cfg.Chunker()), st, log),
		gen:          gen,
		llm:          llm,
		orchestrator: pipeline.NewOrchestrator(runner, cfg.WorkerCount, cfg.MaxQueueSize, log),
	}, nil
}

func (s *services) close() {
	s.orchestrator.Stop()
	s.gen.Close()
	_ = s.store.Close()
}
