package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/coverletter/internal/language"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text...]",
		Short: "Print the language code of a text (read from stdin when no argument is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			code, err := language.NewDetector().Detect(text)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "detection failed, using %s: %v\n", language.DefaultCode, err)
				code = language.DefaultCode
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}
