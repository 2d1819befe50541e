// Package engine implements the rotation algorithm and the completion
// workflow on top of the three durable stores. All mutations run
// synchronously in response to a single user action; the engine validates
// everything it can before the first store write so a rejected action
// leaves both memory and disk untouched.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kestrelhouse/chorewheel/internal/config"
	"github.com/kestrelhouse/chorewheel/internal/model"
	"github.com/kestrelhouse/chorewheel/internal/period"
	"github.com/kestrelhouse/chorewheel/internal/store"
)

// Engine owns the task stores and the ledger for the process lifetime and
// is the only writer to their backing files.
type Engine struct {
	cfg        *config.Config
	tasks      *store.TaskStore
	indefinite *store.IndefiniteStore
	ledger     *store.Ledger
	now        func() time.Time
	logger     *slog.Logger
}

// New creates an engine over a validated configuration and the three
// stores. now supplies the current wall-clock time; production wiring
// passes time.Now.
func New(cfg *config.Config, tasks *store.TaskStore, indefinite *store.IndefiniteStore, ledger *store.Ledger, now func() time.Time, logger *slog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:        cfg,
		tasks:      tasks,
		indefinite: indefinite,
		ledger:     ledger,
		now:        now,
		logger:     logger,
	}
}

// Tasks returns the assigned task store for read access.
func (e *Engine) Tasks() *store.TaskStore { return e.tasks }

// Indefinite returns the indefinite task store for read access.
func (e *Engine) Indefinite() *store.IndefiniteStore { return e.indefinite }

// Ledger returns the user ledger for read access.
func (e *Engine) Ledger() *store.Ledger { return e.ledger }

// rotationList resolves which users a task rotates through: the task-level
// override when present, else the room's list.
func rotationList(room config.Room, def config.TaskDef) []string {
	if len(def.Users) > 0 {
		return def.Users
	}
	return room.Users
}

// NextUser returns who holds the task after current. With advance false the
// holder stays put, used when a task is re-queued without moving the
// rotation. current must be in the list either way.
func NextUser(list []string, current string, advance bool) (string, error) {
	i := slices.Index(list, current)
	if i < 0 {
		return "", fmt.Errorf("user %q not in rotation list %v: %w", current, list, store.ErrNotFound)
	}
	if !advance {
		return current, nil
	}
	return list[(i+1)%len(list)], nil
}

// nextDueDate computes the period string and due date for the task's next
// occurrence. The stagger offset is added only during initial seeding, to
// spread a room's tasks over different days; it never applies again.
func (e *Engine) nextDueDate(def config.TaskDef, initialSeeding bool) (string, model.Date, error) {
	days, err := period.Parse(def.Period)
	if err != nil {
		return "", model.Date{}, fmt.Errorf("task %q: %w", def.Name, err)
	}
	if initialSeeding && def.Stagger != "" {
		extra, err := period.Parse(def.Stagger)
		if err != nil {
			return "", model.Date{}, fmt.Errorf("task %q stagger: %w", def.Name, err)
		}
		days += extra
	}
	return def.Period, model.DateOf(e.now()).AddDays(days), nil
}

// nextOccurrence builds the task record for the next occurrence of a room
// task without touching any store.
func (e *Engine) nextOccurrence(roomName, taskName, currentUser string, initialSeeding, advanceUser bool) (model.Task, error) {
	room, ok := e.cfg.Room(roomName)
	if !ok {
		return model.Task{}, fmt.Errorf("room %q: %w", roomName, store.ErrNotFound)
	}
	def, ok := room.Task(taskName)
	if !ok {
		return model.Task{}, fmt.Errorf("room %q task %q: %w", roomName, taskName, store.ErrNotFound)
	}

	user, err := NextUser(rotationList(room, def), currentUser, advanceUser)
	if err != nil {
		return model.Task{}, err
	}
	per, due, err := e.nextDueDate(def, initialSeeding)
	if err != nil {
		return model.Task{}, err
	}

	return model.Task{
		User:    user,
		Room:    roomName,
		Name:    taskName,
		DueDate: due,
		Period:  per,
	}, nil
}

// Assign computes the next occurrence of a room task and inserts it into
// the task store at its due-date position. It returns the new holder.
func (e *Engine) Assign(roomName, taskName, currentUser string, initialSeeding, advanceUser bool) (string, error) {
	t, err := e.nextOccurrence(roomName, taskName, currentUser, initialSeeding, advanceUser)
	if err != nil {
		return "", err
	}
	if err := e.tasks.Insert(t); err != nil {
		return "", err
	}
	return t.User, nil
}

// SeedIfEmpty initializes any store that has no persisted state from the
// configuration. Stores with existing state are left alone, so restarting
// the process never re-derives rotation state from scratch.
//
// Room tasks seed with a cursor that starts at the last user in the room's
// rotation list, so the first assignment's advance lands on the first user.
// A task with its own users override seeds with that list's first user and
// leaves the room cursor alone, keeping override tasks from biasing who
// gets the room's remaining tasks.
func (e *Engine) SeedIfEmpty() error {
	if e.ledger.Len() == 0 {
		for _, u := range e.cfg.Users {
			if err := e.ledger.InitUser(u); err != nil {
				return fmt.Errorf("seed ledger: %w", err)
			}
		}
		e.logger.Info("seeded ledger", "users", len(e.cfg.Users))
	}

	if e.tasks.Len() == 0 {
		for _, room := range e.cfg.Rooms {
			cursor := room.Users[len(room.Users)-1]
			for _, def := range room.Tasks {
				if len(def.Users) > 0 {
					if _, err := e.Assign(room.Name, def.Name, def.Users[0], true, false); err != nil {
						return fmt.Errorf("seed room %q: %w", room.Name, err)
					}
					continue
				}
				next, err := e.Assign(room.Name, def.Name, cursor, true, true)
				if err != nil {
					return fmt.Errorf("seed room %q: %w", room.Name, err)
				}
				cursor = next
			}
		}
		e.logger.Info("seeded assigned tasks", "count", e.tasks.Len())
	}

	if e.indefinite.Len() == 0 {
		for _, def := range e.cfg.IndefiniteTasks {
			it := model.IndefiniteTask{
				User:      def.Users[0],
				Name:      def.Name,
				Rep:       1,
				TotalReps: def.Repetitions,
			}
			if err := e.indefinite.Append(it); err != nil {
				return fmt.Errorf("seed indefinite tasks: %w", err)
			}
		}
		e.logger.Info("seeded indefinite tasks", "count", e.indefinite.Len())
	}

	return nil
}
