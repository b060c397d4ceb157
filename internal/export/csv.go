package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"Title", "Type", "Priority", "Status", "Start Date", "End Date",
	"Target Value", "Current Value", "Unit", "Progress %",
	"Motivation", "Accountability", "Tags",
}

func (r *renderer) csv() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := csvHeader
	if r.opts.IncludeMilestones {
		header = append(header[:len(header):len(header)], "Milestones Count", "Completed Milestones")
	}
	err := w.Write(header)
	if err != nil {
		return "", err
	}

	for _, g := range r.goals {
		endDate := ""
		if g.EndDate != nil {
			endDate = g.EndDate.In(r.loc).Format("2006-01-02")
		}
		target := ""
		if g.HasTarget() {
			target = formatNumber(*g.TargetValue)
		}

		row := []string{
			g.Title,
			string(g.Type),
			string(g.Priority),
			string(g.Status),
			g.StartDate.In(r.loc).Format("2006-01-02"),
			endDate,
			target,
			formatNumber(g.CurrentValue),
			g.Unit,
			strconv.FormatFloat(progressOf(g), 'f', 1, 64),
			g.Motivation,
			g.Accountability,
			strings.Join(g.Tags, "; "),
		}
		if r.opts.IncludeMilestones {
			row = append(row, strconv.Itoa(len(g.Milestones)), strconv.Itoa(g.CompletedMilestones()))
		}

		err = w.Write(row)
		if err != nil {
			return "", err
		}
	}

	w.Flush()
	err = w.Error()
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
