package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/server"
)

func newAcquireCmd() *cobra.Command {
	var (
		url    string
		manual bool
	)
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Retrieve a job posting and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			var opts []server.Option
			if manual {
				opts = append(opts, server.WithConsole(cmd.InOrStdin(), cmd.ErrOrStderr()))
			}
			app, err := buildApp(cmd.Context(), cfg, opts...)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			defer func() {
				if cerr := app.Close(); cerr != nil {
					app.Logger().Warn("close application failed", zap.Error(cerr))
				}
			}()

			posting := app.Acquirer().Acquire(cmd.Context(), url)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(posting); err != nil {
				return fmt.Errorf("encode posting: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "job posting URL")
	cmd.Flags().BoolVar(&manual, "manual", false, "prompt for a pasted posting when automatic retrieval fails")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
