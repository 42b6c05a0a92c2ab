package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/letter"
	"github.com/JakeFAU/coverletter/internal/pipeline"
	"github.com/JakeFAU/coverletter/internal/resume"
	"github.com/JakeFAU/coverletter/internal/server"
)

type generateOptions struct {
	resumePath  string
	resumeID    string
	url         string
	postingFile string
	lang        string
	out         string
	manual      bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a cover letter PDF for one job posting",
		Long: `generate extracts the résumé text, retrieves the posting from --url
(falling back to a manual paste on this terminal) or reads it from
--posting-file, and writes the rendered letter to --out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.resumePath, "resume", "", "path to the résumé PDF")
	f.StringVar(&opts.resumeID, "cv-id", "", "ID of a stored résumé (instead of --resume)")
	f.StringVar(&opts.url, "url", "", "job posting URL")
	f.StringVar(&opts.postingFile, "posting-file", "", "file containing the posting text (instead of --url)")
	f.StringVar(&opts.lang, "lang", pipeline.LanguageAuto, "letter language code, or auto")
	f.StringVarP(&opts.out, "out", "o", "lettre_motivation.pdf", "output PDF path")
	f.BoolVar(&opts.manual, "manual", true, "prompt for a pasted posting when automatic retrieval fails")
	cmd.MarkFlagsMutuallyExclusive("resume", "cv-id")
	cmd.MarkFlagsOneRequired("resume", "cv-id")
	cmd.MarkFlagsMutuallyExclusive("url", "posting-file")
	cmd.MarkFlagsOneRequired("url", "posting-file")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	ctx := cmd.Context()
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}
	var buildOpts []server.Option
	if opts.manual {
		buildOpts = append(buildOpts, server.WithConsole(cmd.InOrStdin(), cmd.ErrOrStderr()))
	}
	app, err := buildApp(ctx, cfg, buildOpts...)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Logger().Warn("close application failed", zap.Error(cerr))
		}
	}()

	req := pipeline.Request{
		ResumeID: opts.resumeID,
		Language: opts.lang,
		Source:   letter.SourceCLI,
	}
	if opts.resumePath != "" {
		text, err := resume.ExtractFile(opts.resumePath)
		if err != nil {
			return fmt.Errorf("read résumé: %w", err)
		}
		req.ResumeText = text
	}

	switch {
	case opts.postingFile != "":
		data, err := os.ReadFile(opts.postingFile)
		if err != nil {
			return fmt.Errorf("read posting: %w", err)
		}
		req.PostingText = strings.TrimSpace(string(data))
		if req.PostingText == "" {
			return errors.New("posting file is empty")
		}
	default:
		posting := app.Acquirer().Acquire(ctx, opts.url)
		req.PostingText = posting.Text
		if isAuto(req.Language) {
			req.Language = posting.Language
		}
	}

	res, err := app.Letters().Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate letter: %w", err)
	}
	if err := os.WriteFile(opts.out, res.PDF, 0o600); err != nil {
		return fmt.Errorf("write letter: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "letter written to %s (%s)\n", opts.out, res.Language)
	return nil
}

func isAuto(code string) bool {
	code = strings.TrimSpace(code)
	return code == "" || strings.EqualFold(code, pipeline.LanguageAuto)
}
