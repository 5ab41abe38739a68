// Package corpus loads and holds the in-memory collection of financial Q&A
// records. The collection is read-only after load and safe for concurrent
// readers.
package corpus

import (
	"encoding/json"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/model"
)

// Corpus is the full in-memory collection of records, in file order.
type Corpus struct {
	records []model.Record
}

// New builds a corpus from pre-parsed records. Intended for tests and for
// callers that already hold the data.
func New(records []model.Record) *Corpus {
	return &Corpus{records: records}
}

// Load reads records from path. The file may be a single JSON array or
// newline-delimited JSON, one record object per line with blank lines
// ignored. On a missing, empty, or malformed file the built-in sample record
// is substituted so the system can always answer with something; the
// degraded load is logged as a warning, never surfaced as a failure.
func Load(path string) *Corpus {
	raw, err := os.ReadFile(path)
	if err != nil {
		zap.L().Warn("corpus: dataset unreadable, using sample data",
			zap.String("path", path),
			zap.Error(err),
		)
		return New(SampleRecords())
	}

	records, err := parse(raw)
	if err != nil {
		zap.L().Warn("corpus: dataset malformed, using sample data",
			zap.String("path", path),
			zap.Error(err),
		)
		return New(SampleRecords())
	}
	if len(records) == 0 {
		zap.L().Warn("corpus: dataset empty, using sample data",
			zap.String("path", path),
		)
		return New(SampleRecords())
	}

	zap.L().Info("corpus loaded",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return New(records)
}

func parse(raw []byte) ([]model.Record, error) {
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return nil, nil
	}

	if strings.HasPrefix(content, "[") {
		var records []model.Record
		if err := json.Unmarshal([]byte(content), &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []model.Record
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Records returns the loaded records in corpus order. Callers must not
// mutate the returned slice.
func (c *Corpus) Records() []model.Record {
	return c.records
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	return len(c.records)
}
