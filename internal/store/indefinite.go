package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/kestrelhouse/chorewheel/internal/model"
)

// IndefiniteStore is the collection of repetition-counted tasks. Iteration
// order is insertion (configuration declaration) order, which is also the
// display order.
type IndefiniteStore struct {
	path   string
	tasks  []model.IndefiniteTask
	logger *slog.Logger
}

// NewIndefiniteStore opens the store backed by the file at path. A missing
// or unparsable file starts the store empty.
func NewIndefiniteStore(path string, logger *slog.Logger) *IndefiniteStore {
	s := &IndefiniteStore{path: path, logger: logger}
	s.load()
	return s
}

func (s *IndefiniteStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read indefinite task file, starting empty", "path", s.path, "error", err)
		}
		return
	}
	var tasks []model.IndefiniteTask
	if err := json.Unmarshal(data, &tasks); err != nil {
		s.logger.Warn("indefinite task file unparsable, starting empty", "path", s.path, "error", err)
		return
	}
	s.tasks = tasks
}

func (s *IndefiniteStore) commit(next []model.IndefiniteTask) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode indefinite tasks: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("persist indefinite tasks: %w", err)
	}
	s.tasks = next
	return nil
}

// Append adds a task at the end and persists.
func (s *IndefiniteStore) Append(t model.IndefiniteTask) error {
	next := make([]model.IndefiniteTask, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	return s.commit(append(next, t))
}

// Increment bumps the repetition counter of the named task by one, persists,
// and returns the task's index and updated record. The new Rep may read
// TotalReps+1; the caller is expected to follow up with Reset when the
// rotation should move on. An unknown name is ErrNotFound.
func (s *IndefiniteStore) Increment(name string) (int, model.IndefiniteTask, error) {
	for i, t := range s.tasks {
		if t.Name != name {
			continue
		}
		next := make([]model.IndefiniteTask, len(s.tasks))
		copy(next, s.tasks)
		next[i].Rep++
		if err := s.commit(next); err != nil {
			return 0, model.IndefiniteTask{}, err
		}
		return i, next[i], nil
	}
	return 0, model.IndefiniteTask{}, fmt.Errorf("increment indefinite task %q: %w", name, ErrNotFound)
}

// Reset sets the task at index back to Rep 1 with a new assigned user,
// persists, and returns the updated record. The store applies no rotation
// logic itself; the caller decides who the next user is.
func (s *IndefiniteStore) Reset(index int, newUser string) (model.IndefiniteTask, error) {
	if index < 0 || index >= len(s.tasks) {
		return model.IndefiniteTask{}, fmt.Errorf("reset indefinite task at %d: %w", index, ErrNotFound)
	}
	next := make([]model.IndefiniteTask, len(s.tasks))
	copy(next, s.tasks)
	next[index].Rep = 1
	next[index].User = newUser
	if err := s.commit(next); err != nil {
		return model.IndefiniteTask{}, err
	}
	return next[index], nil
}

// All returns the tasks in insertion order. The slice is a copy.
func (s *IndefiniteStore) All() []model.IndefiniteTask {
	out := make([]model.IndefiniteTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *IndefiniteStore) Len() int {
	return len(s.tasks)
}
