// Package store holds the three durable state collections: assigned tasks,
// indefinite tasks, and the user score ledger. Each store owns exactly one
// backing file and rewrites it in full, atomically, at the end of every
// mutating call. If the write fails the in-memory state is left unchanged,
// so memory and disk never disagree after a mutator returns.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/kestrelhouse/chorewheel/internal/model"
)

// TaskStore is the collection of currently assigned room tasks, kept sorted
// ascending by due date. Ties keep insertion order.
type TaskStore struct {
	path   string
	tasks  []model.Task
	logger *slog.Logger
}

// NewTaskStore opens the store backed by the file at path. A missing or
// unparsable file starts the store empty; callers treat an empty store as
// "needs seeding from configuration".
func NewTaskStore(path string, logger *slog.Logger) *TaskStore {
	s := &TaskStore{path: path, logger: logger}
	s.load()
	return s
}

func (s *TaskStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read task file, starting empty", "path", s.path, "error", err)
		}
		return
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		s.logger.Warn("task file unparsable, starting empty", "path", s.path, "error", err)
		return
	}
	s.tasks = tasks
}

// commit persists the candidate collection and only then swaps it in. A
// failed write leaves the current state untouched.
func (s *TaskStore) commit(next []model.Task) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	s.tasks = next
	return nil
}

// insertionIndex returns the position a task due on d belongs at: after any
// existing task with the same or an earlier due date.
func (s *TaskStore) insertionIndex(d model.Date) int {
	return sort.Search(len(s.tasks), func(i int) bool {
		return d.Before(s.tasks[i].DueDate)
	})
}

func insertAt(tasks []model.Task, i int, t model.Task) []model.Task {
	next := make([]model.Task, 0, len(tasks)+1)
	next = append(next, tasks[:i]...)
	next = append(next, t)
	next = append(next, tasks[i:]...)
	return next
}

func removeAt(tasks []model.Task, i int) []model.Task {
	next := make([]model.Task, 0, len(tasks)-1)
	next = append(next, tasks[:i]...)
	next = append(next, tasks[i+1:]...)
	return next
}

func (s *TaskStore) indexOf(t model.Task) int {
	for i, existing := range s.tasks {
		if existing.Equal(t) {
			return i
		}
	}
	return -1
}

// Insert adds a task at its due-date position and persists.
func (s *TaskStore) Insert(t model.Task) error {
	return s.commit(insertAt(s.tasks, s.insertionIndex(t.DueDate), t))
}

// Remove deletes the first task structurally equal to t and persists.
// Removing a task that is not present is an error, not a no-op: callers
// only ever remove records they just read from the store.
func (s *TaskStore) Remove(t model.Task) error {
	i := s.indexOf(t)
	if i < 0 {
		return fmt.Errorf("remove task %q in %q: %w", t.Name, t.Room, ErrNotFound)
	}
	return s.commit(removeAt(s.tasks, i))
}

// Replace removes old and inserts its successor as a single persisted
// write, so a crash cannot land between the removal and the insertion and
// lose the task.
func (s *TaskStore) Replace(old, repl model.Task) error {
	i := s.indexOf(old)
	if i < 0 {
		return fmt.Errorf("replace task %q in %q: %w", old.Name, old.Room, ErrNotFound)
	}
	next := removeAt(s.tasks, i)
	j := sort.Search(len(next), func(k int) bool {
		return repl.DueDate.Before(next[k].DueDate)
	})
	return s.commit(insertAt(next, j, repl))
}

// Clear empties the store and persists.
func (s *TaskStore) Clear() error {
	return s.commit(nil)
}

// All returns the tasks in due-date order. The slice is a copy.
func (s *TaskStore) All() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}
