package internal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DatasetStatus is the per-dataset outcome of a run.
type DatasetStatus string

const (
	StatusPending  DatasetStatus = "pending"
	StatusMirrored DatasetStatus = "mirrored"
	StatusSkipped  DatasetStatus = "skipped"
)

// DatasetRecord is one line of the run ledger: what happened to one dataset
// in the most recent run that touched it.
type DatasetRecord struct {
	Path         string        `json:"path"`
	Status       DatasetStatus `json:"status"`
	RunID        string        `json:"run_id,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	FinishedAt   time.Time     `json:"finished_at,omitempty"`
}

// RunLog keeps dataset records in insertion order with upsert-by-path, and
// persists them as JSONL so operators can see which datasets were skipped
// and why. It plays no part in change detection.
type RunLog struct {
	Records     []DatasetRecord
	IndexOnPath map[string]int
}

func NewRunLog() *RunLog {
	return &RunLog{
		Records:     make([]DatasetRecord, 0),
		IndexOnPath: map[string]int{},
	}
}

func LoadRunLog(reader io.Reader) (*RunLog, error) {
	runLog := NewRunLog()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		var record DatasetRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("error unmarshaling dataset record: %w", err)
		}
		runLog.Upsert(record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading run log: %w", err)
	}

	return runLog, nil
}

func (rl *RunLog) Get(path string) (DatasetRecord, bool) {
	if index, ok := rl.IndexOnPath[path]; ok {
		return rl.Records[index], true
	}
	return DatasetRecord{}, false
}

func (rl *RunLog) Upsert(record DatasetRecord) {
	if index, ok := rl.IndexOnPath[record.Path]; ok {
		rl.Records[index] = record
	} else {
		rl.Records = append(rl.Records, record)
		rl.IndexOnPath[record.Path] = len(rl.Records) - 1
	}
}

func (rl *RunLog) Save(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	for _, record := range rl.Records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("error writing run log: %w", err)
		}
	}
	return nil
}
