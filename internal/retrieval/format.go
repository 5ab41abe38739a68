package retrieval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/finsight/finchat/internal/model"
)

// ContextBundle is the structured form of one matched record, ready for
// hand-off to the research stage.
type ContextBundle struct {
	Question    string
	Answer      string
	Program     string
	PreText     string
	PostText    string
	TableRows   []string
	YearMapping string
	SourceID    string
}

// yearToken matches 4-digit reporting-period labels in table headers.
var yearToken = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// FormatRecord converts a record into a ContextBundle. The output is a pure
// function of the record: the same input always yields the same bytes.
func FormatRecord(rec model.Record) ContextBundle {
	table := rec.SourceTable()
	return ContextBundle{
		Question:    rec.QA.Question,
		Answer:      rec.QA.Answer,
		Program:     rec.QA.Program,
		PreText:     strings.Join(rec.PreText, " "),
		PostText:    strings.Join(rec.PostText, " "),
		TableRows:   renderTable(table),
		YearMapping: yearMapping(table),
		SourceID:    rec.SourceID(),
	}
}

// renderTable renders rows for downstream display. Multi-cell rows become
// "label: value | value" with empty cells dropped and a "Row N" fallback for
// blank labels; single-cell rows render the cell alone.
func renderTable(table [][]string) []string {
	var rows []string
	for i, row := range table {
		if len(row) > 1 {
			label := strings.TrimSpace(row[0])
			if label == "" {
				label = fmt.Sprintf("Row %d", i+1)
			}
			var values []string
			for _, cell := range row[1:] {
				if strings.TrimSpace(cell) != "" {
					values = append(values, cell)
				}
			}
			if len(values) > 0 {
				rows = append(rows, fmt.Sprintf("%s: %s", label, strings.Join(values, " | ")))
				continue
			}
			rows = append(rows, label)
			continue
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) != "" {
			rows = append(rows, row[0])
		}
	}
	return rows
}

// yearMapping surfaces the first table row verbatim when it carries year
// tokens, so the consuming stage can align columns to reporting periods.
func yearMapping(table [][]string) string {
	if len(table) == 0 {
		return ""
	}
	header := table[0]
	for _, cell := range header {
		if yearToken.MatchString(cell) {
			return strings.Join(header, " | ")
		}
	}
	return ""
}
