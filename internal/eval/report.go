package eval

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteReport writes live evaluation results to an XLSX workbook, one row
// per case plus a summary sheet.
func WriteReport(path string, results []Result) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "eval: add results sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"question", "expected", "extracted", "match", "elapsed_ms", "error", "session_id"} {
		header.AddCell().Value = h
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().Value = r.Case.Question
		row.AddCell().Value = r.Case.Expected
		row.AddCell().Value = r.Extracted
		row.AddCell().Value = fmt.Sprintf("%t", r.Match)
		row.AddCell().Value = fmt.Sprintf("%d", r.Elapsed.Milliseconds())
		row.AddCell().Value = r.Err
		row.AddCell().Value = r.SessionID
	}

	summarySheet, err := file.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "eval: add summary sheet")
	}
	s := Summarize(results)
	for _, kv := range [][2]string{
		{"total", fmt.Sprintf("%d", s.Total)},
		{"matched", fmt.Sprintf("%d", s.Matched)},
		{"failed", fmt.Sprintf("%d", s.Failed)},
		{"match_rate", fmt.Sprintf("%.3f", s.Rate)},
	} {
		row := summarySheet.AddRow()
		row.AddCell().Value = kv[0]
		row.AddCell().Value = kv[1]
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "eval: save report")
	}
	return nil
}
