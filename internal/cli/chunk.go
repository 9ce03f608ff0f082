package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dgallion1/docuproof/internal/chunker"
	"github.com/spf13/cobra"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Extract a file's text and print its sections as JSON",
	Example: `  docuproof chunk thesis.pdf
  CHUNK_TARGET_WORDS=300 docuproof chunk notes.md`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, logCloser := newLogger(cfg, cmd.ErrOrStderr())
	defer logCloser.Close()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := newExtractor(cfg, log).Extract(context.Background(), data, mime.TypeByExtension(filepath.Ext(path)), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	chunks := chunker.New(cfg.Chunker()).Chunk(text)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"file":        filepath.Base(path),
		"total_words": chunker.TotalWords(chunks),
		"chunks":      chunks,
	})
}
