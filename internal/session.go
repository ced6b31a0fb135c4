package internal

import (
	"fmt"

	"github.com/go-git/go-billy/v5"
)

// SessionState is the lifecycle position of a SyncSession.
type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
)

// SyncSession brackets one materialization batch with a before and an after
// digest of the mirror. The before digest must complete before any write and
// the after digest must only start once every materialization attempt has
// finished; the caller drives the batch between Begin and Complete.
type SyncSession struct {
	fs      billy.Filesystem
	dataDir string

	state  SessionState
	before string
	after  string
}

func NewSyncSession(fs billy.Filesystem, dataDir string) *SyncSession {
	return &SyncSession{
		fs:      fs,
		dataDir: dataDir,
		state:   SessionNotStarted,
	}
}

func (s *SyncSession) State() SessionState {
	return s.state
}

// Begin records the before digest. Valid only once, from NotStarted.
func (s *SyncSession) Begin() error {
	if s.state != SessionNotStarted {
		return fmt.Errorf("%w: begin from %s", ErrInvalidState, s.state)
	}
	digest, err := DigestDir(s.fs, s.dataDir)
	if err != nil {
		return fmt.Errorf("computing before digest: %w", err)
	}
	s.before = digest
	s.state = SessionInProgress
	return nil
}

// Complete records the after digest. Valid only once, from InProgress.
func (s *SyncSession) Complete() error {
	if s.state != SessionInProgress {
		return fmt.Errorf("%w: complete from %s", ErrInvalidState, s.state)
	}
	digest, err := DigestDir(s.fs, s.dataDir)
	if err != nil {
		return fmt.Errorf("computing after digest: %w", err)
	}
	s.after = digest
	s.state = SessionCompleted
	return nil
}

// HasChanged reports whether the mirror's digest moved during the session.
// Querying before Complete is a programming error.
func (s *SyncSession) HasChanged() (bool, error) {
	if s.state != SessionCompleted {
		return false, fmt.Errorf("%w: has_changed queried in %s", ErrInvalidState, s.state)
	}
	return s.before != s.after, nil
}

// AfterDigest is the digest recorded by Complete, for callers persisting a
// change marker.
func (s *SyncSession) AfterDigest() (string, error) {
	if s.state != SessionCompleted {
		return "", fmt.Errorf("%w: after digest queried in %s", ErrInvalidState, s.state)
	}
	return s.after, nil
}
