package saga

import (
	"context"

	"fleetevents/internal/ports"
)

// State is the arena of one attempt. A retry starts from a new State, so nothing a
// failed attempt produced is visible to the next one.
type State struct {
	attempt  int
	files    ports.AttachmentStore
	written  []string
	deferred []string
	values   map[string]any
	finished bool
}

func newState(attempt int, files ports.AttachmentStore) *State {
	return &State{
		attempt: attempt,
		files:   files,
		values:  make(map[string]any),
	}
}

func (s *State) Attempt() int { return s.attempt }

// Finish ends the attempt after the current step; the transaction still commits.
func (s *State) Finish() { s.finished = true }

func (s *State) Finished() bool { return s.finished }

// SaveFile writes through the coordinator's AttachmentStore and remembers the path so
// an aborted attempt can remove it again.
func (s *State) SaveFile(ctx context.Context, req ports.SaveRequest) (ports.StoredFile, error) {
	if s.files == nil {
		return ports.StoredFile{}, errNoAttachmentStore
	}
	stored, err := s.files.Save(ctx, req)
	if err != nil {
		return ports.StoredFile{}, err
	}
	s.written = append(s.written, stored.StoragePath)
	return stored, nil
}

// DeleteAfterCommit schedules a physical delete that only runs once the attempt commits.
func (s *State) DeleteAfterCommit(pathOrURL string) {
	if pathOrURL == "" {
		return
	}
	s.deferred = append(s.deferred, pathOrURL)
}

func (s *State) Written() []string {
	return append([]string(nil), s.written...)
}

func (s *State) PendingDeletes() []string {
	return append([]string(nil), s.deferred...)
}

func (s *State) Set(key string, value any) {
	s.values[key] = value
}

// Value reads a typed output stored by an earlier step of the same attempt.
func Value[T any](s *State, key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s.values[key]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
