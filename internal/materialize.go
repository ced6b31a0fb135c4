package internal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-git/go-billy/v5"
	log "github.com/sirupsen/logrus"
)

// Materializer turns one DatasetItem into one canonical file under the data
// directory. The destination is written at most once per call, and only
// after canonicalization has fully succeeded.
type Materializer struct {
	fetcher Fetcher
	fs      billy.Filesystem
	dataDir string
}

func NewMaterializer(fetcher Fetcher, fs billy.Filesystem, dataDir string) *Materializer {
	return &Materializer{
		fetcher: fetcher,
		fs:      fs,
		dataDir: dataDir,
	}
}

// Materialize fetches, canonicalizes, and writes one dataset. Per-dataset
// failures come back as one of the taxonomy errors; the caller decides
// whether to swallow them.
func (m *Materializer) Materialize(ctx context.Context, item DatasetItem) error {
	kind, ok := ClassifyDataset(item.Path)
	if !ok {
		return &UnknownDatasetTypeError{Source: item.SourceID}
	}

	log.Debug("Processing ", item.SourceID)
	body, err := m.fetcher.Fetch(ctx, item.SourceID)
	if err != nil {
		return err
	}
	defer body.Close()

	// Canonicalize into memory first. A malformed row anywhere in the table
	// must leave the destination untouched.
	var buf bytes.Buffer
	if err := CodecFor(kind).Canonicalize(body, &buf); err != nil {
		return err
	}

	dest := m.fs.Join(m.dataDir, item.Path)
	log.Debug("Saving to ", dest)

	if err := m.fs.MkdirAll(path.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating directories for %s: %w", dest, err)
	}

	file, err := m.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dest, err)
	}
	defer file.Close()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// MaterializeAll processes every item, downgrading per-dataset failures to
// warnings so one bad dataset cannot block the rest. Outcomes are recorded
// in the run ledger when one is supplied. Context cancellation and
// filesystem errors outside the per-item taxonomy abort the batch.
func (m *Materializer) MaterializeAll(ctx context.Context, items []DatasetItem, runLog *RunLog, runID string) error {
	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := m.Materialize(ctx, item)
		record := DatasetRecord{
			Path:       item.Path,
			Status:     StatusMirrored,
			RunID:      runID,
			FinishedAt: time.Now().UTC(),
		}
		switch {
		case err == nil:
		case IsSkippable(err):
			log.Warn(err.Error())
			record.Status = StatusSkipped
			record.ErrorMessage = err.Error()
		default:
			return fmt.Errorf("failed to materialize %s: %w", item.Path, err)
		}

		if runLog != nil {
			runLog.Upsert(record)
		}
	}
	return nil
}
