package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/clbarnes/ww-data/internal"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	config *internal.Config
	state  State
)

type State struct {
	RunID string

	Mirror     internal.Mirror
	Discoverer internal.Discoverer
	Fetcher    internal.Fetcher

	Items   []internal.DatasetItem
	Session *internal.SyncSession
	RunLog  *internal.RunLog
}

func main() {
	config = internal.LoadConfig()
	if config.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	state = State{
		RunID:      uuid.NewString(),
		Discoverer: internal.NewManifestDiscoverer(osfs.New("."), config.ManifestPath, config.RootURL),
		Fetcher:    internal.NewHTTPFetcher(&http.Client{Timeout: 5 * time.Minute}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("Received shutdown signal. Cancelling operations...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context) error {
	ticks := 0
	for {
		if err := tick(ctx); err != nil {
			return err
		}
		ticks++

		if config.Mode == internal.Once || (config.MaxTicks >= 0 && ticks >= config.MaxTicks) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(config.TickIntervalSeconds) * time.Second):
		}
	}
}

func tick(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Open mirror", openMirror},
		{"Read run log", readRunLog},
		{"Discover datasets", discoverDatasets},
		{"Begin session", beginSession},
		{"Materialize datasets", materializeDatasets},
		{"Complete session", completeSession},
		{"Record outcome", recordOutcome},
	}

	defer func() {
		if state.Mirror != nil {
			state.Mirror.Close()
			state.Mirror = nil
		}
	}()

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := executeStep(ctx, step.name, step.fn); err != nil {
				return fmt.Errorf("failed to %s: %w", step.name, err)
			}
		}
	}

	return nil
}

func executeStep(ctx context.Context, name string, fn func(context.Context) error) error {
	log.Info("Executing step: ", name)
	err := fn(ctx)
	if err != nil {
		log.Errorf("Step '%s' failed: %v", name, err)
	} else {
		log.Debugf("Step '%s' completed successfully", name)
	}
	return err
}

func openMirror(ctx context.Context) error {
	if config.DataRepoURL == "" {
		mirror, err := internal.NewDirMirror(".")
		if err != nil {
			return err
		}
		state.Mirror = mirror
		return nil
	}

	mirror := internal.NewGitMirror(config.DataRepoURL)
	if err := mirror.Initialize(ctx); err != nil {
		return err
	}
	state.Mirror = mirror
	return nil
}

func readRunLog(ctx context.Context) error {
	file, err := state.Mirror.Filesystem().Open(config.RunLogFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if os.IsNotExist(err) {
		state.RunLog = internal.NewRunLog()
		return nil
	}
	defer file.Close()

	state.RunLog, err = internal.LoadRunLog(file)
	return err
}

func discoverDatasets(ctx context.Context) error {
	items, err := state.Discoverer.Discover(ctx)
	if err != nil {
		return err
	}
	log.Infof("Discovered %d datasets", len(items))
	state.Items = items
	return nil
}

func beginSession(ctx context.Context) error {
	state.Session = internal.NewSyncSession(state.Mirror.Filesystem(), config.DataDir)
	return state.Session.Begin()
}

func materializeDatasets(ctx context.Context) error {
	materializer := internal.NewMaterializer(state.Fetcher, state.Mirror.Filesystem(), config.DataDir)
	return materializer.MaterializeAll(ctx, state.Items, state.RunLog, state.RunID)
}

func completeSession(ctx context.Context) error {
	return state.Session.Complete()
}

func recordOutcome(ctx context.Context) error {
	fs := state.Mirror.Filesystem()

	if err := fs.MkdirAll(path.Dir(config.RunLogFile), 0755); err != nil {
		return fmt.Errorf("creating run log directory: %w", err)
	}
	file, err := fs.OpenFile(config.RunLogFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	if err := state.RunLog.Save(file); err != nil {
		file.Close()
		return err
	}
	file.Close()

	changed, err := state.Session.HasChanged()
	if err != nil {
		return err
	}
	digest, err := state.Session.AfterDigest()
	if err != nil {
		return err
	}

	// A missing or stale marker is refreshed even when this run saw no
	// change, so the first run against an already-current mirror still
	// records its digest.
	marker, err := internal.ReadMarker(fs, config.MarkerFile)
	if err != nil {
		return err
	}
	if !changed && marker.Digest == digest {
		log.Info("Mirror unchanged")
		return nil
	}
	log.Info("Mirror changed, digest ", digest)

	err = internal.WriteMarker(fs, config.MarkerFile, internal.Marker{
		Digest:    digest,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	err = state.Mirror.Publish(ctx, "Update mirrored data")
	if errors.Is(err, internal.ErrNoChanges) {
		return nil
	}
	return err
}
