package model

// Match pairs a record with its similarity score against one query.
// Matches are transient; they exist only for the duration of one retrieval
// call and are ordered by descending score.
type Match struct {
	Record *Record `json:"-"`
	Score  float64 `json:"score"`
}
