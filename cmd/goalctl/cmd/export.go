package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/model"
)

func ExportCmd() *cobra.Command {
	var (
		in     string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Convert a JSON goal profile into another export format",
		Example: `  goalctl export --in goalcoach-goals-2025-06-01.json --format csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read profile: %w", err)
			}
			profile, err := decodeProfile(data)
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.UserContext = profile.UserContext
			result, err := export.Export(profile.Goals, f, opts)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), result.Content)
				return err
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(in), result.Filename)
			}
			err = os.WriteFile(out, []byte(result.Content), 0644)
			if err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d goal(s) to %s\n", len(profile.Goals), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "JSON file with a goal, a list of goals, or a JSON export")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "export format: json, markdown, csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default: next to the input)`)
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// decodeProfile accepts a JSON export, an array of goals or a single goal.
func decodeProfile(data []byte) (*model.GoalProfile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("profile is empty")
	}

	if data[0] == '[' {
		var goals []*model.Goal
		err := json.Unmarshal(data, &goals)
		if err != nil {
			return nil, fmt.Errorf("failed to decode goals: %w", err)
		}
		return &model.GoalProfile{Goals: goals}, nil
	}

	var profile model.GoalProfile
	err := json.Unmarshal(data, &profile)
	if err == nil && profile.Goals != nil {
		return &profile, nil
	}

	var goal model.Goal
	err = json.Unmarshal(data, &goal)
	if err != nil {
		return nil, fmt.Errorf("failed to decode goal: %w", err)
	}
	return &model.GoalProfile{Goals: []*model.Goal{&goal}}, nil
}
