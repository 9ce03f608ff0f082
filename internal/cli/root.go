package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/docuproof/internal/config"
	"github.com/dgallion1/docuproof/internal/logging"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docuproof",
	Short: "docuproof - document proofreading and consistency analysis",
	Long: `docuproof splits uploaded documents into titled sections and asks a
language model to proofread each one against the whole document.

Configuration hierarchy (highest to lowest priority):
  1. Environment variables (PORT, STORE_URL, LLM_API_KEY, ...)
  2. Config file (--config)
  3. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docuproof %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger builds the process logger. Commands that print results to
// stdout log to stderr instead.
func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	return logging.NewWithWriter(w, cfg.LogLevel, cfg.LogFile)
}

// Serve runs the serve command with args as its flags.
func Serve(args []string) error {
	rootCmd.SetArgs(append([]string{"serve"}, args...))
	return rootCmd.Execute()
}
