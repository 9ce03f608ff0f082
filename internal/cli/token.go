package cli

import (
	"fmt"
	"time"

	"github.com/dgallion1/docuproof/internal/api"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <owner-id>",
	Short: "Sign an API bearer token for owner-id with AUTH_JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required")
		}
		tok, err := api.SignToken(cfg.AuthJWTSecret, args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime; 0 for no expiry")
	rootCmd.AddCommand(tokenCmd)
}
