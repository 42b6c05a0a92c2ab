// Package cmd defines the CLI commands for the coverletter executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/coverletter/internal/config"
	"github.com/JakeFAU/coverletter/internal/server"
)

type cfgKeyType struct{}

// buildApp is the application factory. Tests replace it.
var buildApp = server.Build

type rootOptions struct {
	cfgFile string
	envFile string
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "coverletter",
		Short: "Generate tailored cover letter PDFs from a résumé and a job posting.",
		Long: `coverletter reads a résumé PDF, retrieves a job posting (static fetch,
headless browser or manual paste), detects its language and asks a local
language model to write a matching cover letter rendered as a PDF.`,
		SilenceUsage: true,

		// Load configuration once, before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cfgKeyType{}, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newAcquireCmd())
	cmd.AddCommand(newDetectCmd())
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(cfgKeyType{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
