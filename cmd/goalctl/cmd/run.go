package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/goalflow"
	"github.com/templui/goalcoach/internal/service"
)

func RunCmd() *cobra.Command {
	var (
		format    string
		outDir    string
		history   []string
		noExport  bool
		templates bool
	)

	cmd := &cobra.Command{
		Use:   "run <message>",
		Short: "Run one message through the goal workflow without a server",
		Long: `Run one message through the deterministic goal workflow. No language model
and no database are used. When a goal is created its export is written to --out.`,
		Example: `  goalctl run "I want to run a 5k in 10 weeks because I want more energy"
  goalctl run --format csv --history "I want to get fit" "in 3 months because of my health"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			opts := []goalflow.Option{}
			if templates {
				src, err := loadTemplates()
				if err != nil {
					return err
				}
				opts = append(opts, goalflow.WithTemplates(src))
			}

			resp, err := goalflow.New(opts...).Run(cmd.Context(), goalflow.Input{
				Message:  strings.Join(args, " "),
				ThreadID: service.DefaultThreadID,
				UserID:   service.DefaultUserID,
				History:  history,
				Preferences: goalflow.Preferences{
					DefaultExportFormat: f,
					AutoGenerate:        !noExport,
					IncludeTemplates:    templates,
				},
			})
			if err != nil {
				return err
			}

			return printResponse(cmd, resp, outDir)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "export format: json, markdown, csv or pdf")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the export file")
	cmd.Flags().StringArrayVar(&history, "history", nil, "earlier user message of the conversation (repeatable, oldest first)")
	cmd.Flags().BoolVar(&noExport, "no-export", false, "create the goal without writing an export")
	cmd.Flags().BoolVar(&templates, "templates", true, "suggest matching goal templates")
	return cmd
}

func printResponse(cmd *cobra.Command, resp *goalflow.Response, outDir string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Text)
	fmt.Fprintf(out, "\noutcome: %s  confidence: %.2f\n", resp.Outcome(), resp.Confidence)

	if len(resp.NextSteps) > 0 {
		fmt.Fprintln(out, "\nNext steps:")
		for _, s := range resp.NextSteps {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	if len(resp.Templates) > 0 {
		fmt.Fprintln(out, "\nTemplates:")
		for _, t := range resp.Templates {
			fmt.Fprintf(out, "  - %s (%s)\n", t.Name, t.ID)
		}
	}

	if resp.Export == nil {
		return nil
	}
	path := filepath.Join(outDir, resp.Export.Filename)
	err := os.WriteFile(path, []byte(resp.Export.Content), 0644)
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(out, "\nExport written to %s (%d bytes)\n", path, resp.Export.Size)
	return nil
}
