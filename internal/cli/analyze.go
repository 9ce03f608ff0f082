package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dgallion1/docuproof/internal/document"
	"github.com/dgallion1/docuproof/internal/pipeline"
	"github.com/spf13/cobra"
)

var analyzeLevel string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a file and print every event as one JSON line",
	Long: `Analyze ingests the file into an in-memory store, runs a full analysis
and writes the start, progress, section, complete and error events to
stdout as newline-delimited JSON. Logs go to stderr.`,
	Example: `  docuproof analyze paper.docx --level major > events.ndjson`,
	Args:    cobra.ExactArgs(1),
	RunE:    runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLevel, "level", "medium", "analysis level: minor, medium or major")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	level, err := document.ParseLevel(analyzeLevel)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}
	log, logCloser := newLogger(cfg, cmd.ErrOrStderr())
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := buildServices(ctx, cfg, "memory://", log)
	if err != nil {
		return err
	}
	defer svc.close()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := svc.ingester.Ingest(ctx, pipeline.Upload{
		OwnerID:  "cli",
		Filename: filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	sink := pipeline.SinkFunc(func(e pipeline.Event) error { return enc.Encode(e) })
	_, err = svc.orchestrator.Runner().Run(ctx, pipeline.RunRequest{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Level:      level,
	}, sink)
	return err
}
