package store

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrelhouse/chorewheel/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTaskStore(t *testing.T) (*TaskStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	return NewTaskStore(path, testLogger()), path
}

func task(user, room, name string, due model.Date) model.Task {
	return model.Task{User: user, Room: room, Name: name, DueDate: due, Period: "1d"}
}

func date(y int, m time.Month, d int) model.Date {
	return model.NewDate(y, m, d)
}

func TestTaskStoreStartsEmpty(t *testing.T) {
	s, _ := setupTaskStore(t)
	if s.Len() != 0 {
		t.Fatalf("new store Len() = %d, want 0", s.Len())
	}
}

func TestTaskStoreInsertKeepsDueDateOrder(t *testing.T) {
	s, _ := setupTaskStore(t)

	dates := []model.Date{
		date(2024, 3, 10),
		date(2024, 3, 1),
		date(2024, 3, 5),
		date(2024, 2, 28),
		date(2024, 3, 5),
	}
	for i, d := range dates {
		if err := s.Insert(task("A", "Kitchen", string(rune('a'+i)), d)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all := s.All()
	for i := 1; i < len(all); i++ {
		if all[i].DueDate.Before(all[i-1].DueDate) {
			t.Errorf("tasks out of order at %d: %s after %s", i, all[i].DueDate, all[i-1].DueDate)
		}
	}
}

func TestTaskStoreEqualDatesKeepInsertionOrder(t *testing.T) {
	s, _ := setupTaskStore(t)

	d := date(2024, 3, 5)
	for _, name := range []string{"first", "second", "third"} {
		if err := s.Insert(task("A", "Kitchen", name, d)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all := s.All()
	want := []string{"first", "second", "third"}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("all[%d].Name = %q, want %q", i, all[i].Name, name)
		}
	}
}

func TestTaskStoreRemove(t *testing.T) {
	s, _ := setupTaskStore(t)

	t1 := task("A", "Kitchen", "Dishes", date(2024, 1, 2))
	t2 := task("B", "Kitchen", "Mop", date(2024, 1, 3))
	if err := s.Insert(t1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(t2); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.Remove(t1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for _, remaining := range s.All() {
		if remaining.Equal(t1) {
			t.Error("removed task still present")
		}
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestTaskStoreRemoveAbsentIsError(t *testing.T) {
	s, _ := setupTaskStore(t)

	if err := s.Insert(task("A", "Kitchen", "Dishes", date(2024, 1, 2))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same task but a different due date is a different record.
	err := s.Remove(task("A", "Kitchen", "Dishes", date(2024, 1, 3)))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("remove absent = %v, want ErrNotFound", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d after failed remove, want 1", s.Len())
	}
}

func TestTaskStoreReplace(t *testing.T) {
	s, _ := setupTaskStore(t)

	old := task("A", "Kitchen", "Dishes", date(2024, 1, 2))
	if err := s.Insert(old); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(task("B", "Bathroom", "Sink", date(2024, 1, 5))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	repl := task("B", "Kitchen", "Dishes", date(2024, 1, 3))
	if err := s.Replace(old, repl); err != nil {
		t.Fatalf("replace: %v", err)
	}

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("Len() = %d, want 2", len(all))
	}
	if !all[0].Equal(repl) {
		t.Errorf("all[0] = %+v, want replacement first", all[0])
	}

	err := s.Replace(old, repl)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("replace of gone task = %v, want ErrNotFound", err)
	}
}

func TestTaskStoreRoundTrip(t *testing.T) {
	s, path := setupTaskStore(t)

	tasks := []model.Task{
		{User: "A", Room: "Kitchen", Name: "Dishes", DueDate: date(2024, 1, 2), Period: "1d"},
		{User: "B", Room: "Bathroom", Name: "Sink", DueDate: date(2024, 1, 9), Period: "1w"},
		{User: "A", Room: "Hall", Name: "Vacuum", DueDate: date(2024, 2, 1), Period: "1m"},
	}
	for _, tk := range tasks {
		if err := s.Insert(tk); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	reloaded := NewTaskStore(path, testLogger())
	got := reloaded.All()
	if len(got) != len(tasks) {
		t.Fatalf("reloaded Len() = %d, want %d", len(got), len(tasks))
	}
	for i, want := range tasks {
		if !got[i].Equal(want) {
			t.Errorf("reloaded[%d] = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestTaskStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s := NewTaskStore(path, testLogger())
	if s.Len() != 0 {
		t.Errorf("Len() = %d for corrupt file, want 0", s.Len())
	}
}

func TestTaskStorePersistFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	s := NewTaskStore(path, testLogger())
	if err := s.Insert(task("A", "Kitchen", "Dishes", date(2024, 1, 2))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Make the directory unwritable so the temp-file create fails.
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	err := s.Insert(task("B", "Kitchen", "Mop", date(2024, 1, 3)))
	if err == nil {
		t.Skip("running as root, cannot provoke a write failure")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d after failed insert, want 1", s.Len())
	}
}

func TestTaskStoreClear(t *testing.T) {
	s, path := setupTaskStore(t)
	if err := s.Insert(task("A", "Kitchen", "Dishes", date(2024, 1, 2))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after clear, want 0", s.Len())
	}
	if NewTaskStore(path, testLogger()).Len() != 0 {
		t.Error("clear was not persisted")
	}
}
