package cmd

import (
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/templui/goalcoach"
	"github.com/templui/goalcoach/internal/markdown"
	"github.com/templui/goalcoach/internal/service"
)

func TemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in goal templates, most popular first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := loadTemplates()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tPOPULARITY\tNAME")
			for _, t := range templates.Templates() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Type, t.Category, t.Popularity, t.Name)
			}
			return tw.Flush()
		},
	}
}

func loadTemplates() (*service.TemplateService, error) {
	sub, err := fs.Sub(goalcoach.TemplatesFS, "content/templates")
	if err != nil {
		return nil, err
	}
	return service.NewTemplateService(sub, markdown.NewParser())
}
