package model

// QA holds the reference question/answer pair attached to a corpus record.
// Program is the arithmetic trace that produced the reference answer; it is
// a hint for the reasoning stage, not ground truth for the current query.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Program  string `json:"program"`
}

// Record is one financial Q&A example with its supporting narrative and
// table. Records are immutable once loaded.
type Record struct {
	QA       QA         `json:"qa"`
	PreText  []string   `json:"pre_text"`
	PostText []string   `json:"post_text"`
	Table    [][]string `json:"table"`
	TableOri [][]string `json:"table_ori"`
	Filename string     `json:"filename"`
}

// SourceTable returns the original-format table when present, falling back
// to the normalized one. Rows are not guaranteed uniform width; row 0 may be
// a header row of period labels rather than data.
func (r Record) SourceTable() [][]string {
	if len(r.TableOri) > 0 {
		return r.TableOri
	}
	return r.Table
}

// SourceID returns the provenance identifier for the record.
func (r Record) SourceID() string {
	if r.Filename == "" {
		return "unknown"
	}
	return r.Filename
}
