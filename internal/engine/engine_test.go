package engine

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrelhouse/chorewheel/internal/config"
	"github.com/kestrelhouse/chorewheel/internal/model"
	"github.com/kestrelhouse/chorewheel/internal/store"
)

// fixture wires an engine over temp-file stores with a settable clock.
type fixture struct {
	eng   *Engine
	today time.Time
}

func (f *fixture) setToday(y int, m time.Month, d int) {
	f.today = time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T, yamlDoc string) *fixture {
	t.Helper()
	cfg, err := config.Parse([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()
	f := &fixture{}
	f.setToday(2024, 1, 1)
	f.eng = New(cfg,
		store.NewTaskStore(filepath.Join(dir, "tasks.json"), logger),
		store.NewIndefiniteStore(filepath.Join(dir, "indefinite.json"), logger),
		store.NewLedger(filepath.Join(dir, "scores.json"), logger),
		func() time.Time { return f.today },
		logger)
	return f
}

const kitchenYAML = `
users: [A, B]
rooms:
  Kitchen:
    users: [A, B]
    tasks:
      Dishes: 1d
`

func TestNextUserRoundRobinClosure(t *testing.T) {
	list := []string{"A", "B", "C", "D"}

	user := "B"
	for i := 0; i < len(list); i++ {
		next, err := NextUser(list, user, true)
		if err != nil {
			t.Fatalf("next user: %v", err)
		}
		user = next
	}
	if user != "B" {
		t.Errorf("after %d advances user = %q, want back at B", len(list), user)
	}
}

func TestNextUserNoAdvance(t *testing.T) {
	next, err := NextUser([]string{"A", "B"}, "A", false)
	if err != nil {
		t.Fatalf("next user: %v", err)
	}
	if next != "A" {
		t.Errorf("next = %q, want A", next)
	}
}

func TestNextUserUnknownHolder(t *testing.T) {
	if _, err := NextUser([]string{"A", "B"}, "C", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := NextUser([]string{"A", "B"}, "C", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("no-advance err = %v, want ErrNotFound", err)
	}
}

func TestSeedAndCompleteDishes(t *testing.T) {
	f := newFixture(t, kitchenYAML)

	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Seeding starts the cursor at the last room user (B), so the seeding
	// assignment advances to A.
	all := f.eng.Tasks().All()
	if len(all) != 1 {
		t.Fatalf("seeded %d tasks, want 1", len(all))
	}
	dishes := all[0]
	if dishes.User != "A" {
		t.Errorf("seeded holder = %q, want A", dishes.User)
	}
	if want := model.NewDate(2024, 1, 2); !dishes.DueDate.Equal(want) {
		t.Errorf("seeded due = %s, want %s", dishes.DueDate, want)
	}

	// Complete on the due day: holder advances to B, due moves one more day.
	f.setToday(2024, 1, 2)
	next, err := f.eng.Complete(dishes, true)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if next != "B" {
		t.Errorf("next holder = %q, want B", next)
	}

	all = f.eng.Tasks().All()
	if len(all) != 1 {
		t.Fatalf("store has %d tasks after completion, want 1", len(all))
	}
	if all[0].Equal(dishes) {
		t.Error("completed record still in store")
	}
	if want := model.NewDate(2024, 1, 3); !all[0].DueDate.Equal(want) {
		t.Errorf("new due = %s, want %s", all[0].DueDate, want)
	}
}

func TestSeedIsIdempotentAcrossRestart(t *testing.T) {
	f := newFixture(t, kitchenYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if got := f.eng.Tasks().Len(); got != 1 {
		t.Errorf("tasks after double seed = %d, want 1", got)
	}
	if got := f.eng.Ledger().Len(); got != 2 {
		t.Errorf("ledger after double seed = %d, want 2", got)
	}
}

const overrideYAML = `
users: [A, B]
rooms:
  Kitchen:
    users: [A, B]
    tasks:
      First: 1d
      Special:
        period: 1d
        users: [B]
      Third: 1d
`

func TestSeedOverrideTaskDoesNotMoveRoomCursor(t *testing.T) {
	f := newFixture(t, overrideYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	holders := map[string]string{}
	for _, tk := range f.eng.Tasks().All() {
		holders[tk.Name] = tk.User
	}

	// Cursor: starts at B, First advances to A; Special seeds straight from
	// its own list without touching the cursor; Third advances A -> B.
	want := map[string]string{"First": "A", "Special": "B", "Third": "B"}
	for name, user := range want {
		if holders[name] != user {
			t.Errorf("holder[%s] = %q, want %q", name, holders[name], user)
		}
	}
}

const staggerYAML = `
users: [A, B]
rooms:
  Kitchen:
    users: [A, B]
    tasks:
      Mop:
        period: 1w
        stagger: 2d
`

func TestStaggerAppliesOnlyAtSeeding(t *testing.T) {
	f := newFixture(t, staggerYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mop := f.eng.Tasks().All()[0]
	if want := model.NewDate(2024, 1, 10); !mop.DueDate.Equal(want) {
		t.Errorf("seeded due = %s, want %s (period + stagger)", mop.DueDate, want)
	}

	if _, err := f.eng.Complete(mop, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	next := f.eng.Tasks().All()[0]
	if want := model.NewDate(2024, 1, 8); !next.DueDate.Equal(want) {
		t.Errorf("recomputed due = %s, want %s (period only)", next.DueDate, want)
	}
}

func TestCompleteStaleRecordIsNotFound(t *testing.T) {
	f := newFixture(t, kitchenYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stale := f.eng.Tasks().All()[0]
	stale.DueDate = stale.DueDate.AddDays(1)
	if _, err := f.eng.Complete(stale, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("complete stale = %v, want ErrNotFound", err)
	}
	if got := f.eng.Tasks().Len(); got != 1 {
		t.Errorf("tasks after rejected completion = %d, want 1", got)
	}
}

func TestCompleteAsOther(t *testing.T) {
	f := newFixture(t, kitchenYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	dishes := f.eng.Tasks().All()[0] // held by A

	next, err := f.eng.CompleteAsOther(dishes, "B")
	if err != nil {
		t.Fatalf("complete as other: %v", err)
	}
	// Rotation pointer must not move: A keeps the task.
	if next != "A" {
		t.Errorf("next holder = %q, want A (rotation held)", next)
	}

	if got, _ := f.eng.Ledger().Score("B"); got != 1 {
		t.Errorf("score(B) = %d, want 1", got)
	}
	if got, _ := f.eng.Ledger().Score("A"); got != -1 {
		t.Errorf("score(A) = %d, want -1", got)
	}
}

func TestCompleteAsOtherMatchesPlainNoAdvance(t *testing.T) {
	f1 := newFixture(t, kitchenYAML)
	f2 := newFixture(t, kitchenYAML)
	for _, f := range []*fixture{f1, f2} {
		if err := f.eng.SeedIfEmpty(); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	t1 := f1.eng.Tasks().All()[0]
	t2 := f2.eng.Tasks().All()[0]

	n1, err := f1.eng.CompleteAsOther(t1, "B")
	if err != nil {
		t.Fatalf("complete as other: %v", err)
	}
	n2, err := f2.eng.Complete(t2, false)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if n1 != n2 {
		t.Errorf("holders diverge: as-other %q vs no-advance %q", n1, n2)
	}
	if !f1.eng.Tasks().All()[0].Equal(f2.eng.Tasks().All()[0]) {
		t.Error("stores diverge beyond the ledger effect")
	}
}

func TestCompleteAsOtherUnknownUserRejectedBeforeMutation(t *testing.T) {
	f := newFixture(t, kitchenYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	dishes := f.eng.Tasks().All()[0]

	if _, err := f.eng.CompleteAsOther(dishes, "Stranger"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// The task must still be there, untouched.
	if !f.eng.Tasks().All()[0].Equal(dishes) {
		t.Error("task store mutated by rejected action")
	}
	if got, _ := f.eng.Ledger().Score("A"); got != 0 {
		t.Errorf("score(A) = %d after rejected action, want 0", got)
	}
}

const trashYAML = `
users: [X, Y]
indefinite_tasks:
  Trash:
    users: [X, Y]
    repetitions: 3
`

func TestCompleteIndefiniteRotation(t *testing.T) {
	f := newFixture(t, trashYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	seeded := f.eng.Indefinite().All()[0]
	if seeded.User != "X" || seeded.Rep != 1 {
		t.Fatalf("seeded = %+v, want user X rep 1", seeded)
	}

	// X works through reps 2 and 3, then the fourth completion rolls the
	// task over to Y at rep 1.
	for _, wantRep := range []int{2, 3} {
		it, err := f.eng.CompleteIndefinite("Trash")
		if err != nil {
			t.Fatalf("complete indefinite: %v", err)
		}
		if it.Rep != wantRep || it.User != "X" {
			t.Errorf("got rep=%d user=%q, want rep=%d user=X", it.Rep, it.User, wantRep)
		}
	}

	it, err := f.eng.CompleteIndefinite("Trash")
	if err != nil {
		t.Fatalf("complete indefinite: %v", err)
	}
	if it.Rep != 1 || it.User != "Y" {
		t.Errorf("after rollover rep=%d user=%q, want rep=1 user=Y", it.Rep, it.User)
	}
}

func TestCompleteIndefiniteUnknownName(t *testing.T) {
	f := newFixture(t, trashYAML)
	if err := f.eng.SeedIfEmpty(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.eng.CompleteIndefinite("Dusting"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
