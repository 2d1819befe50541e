package engine

import (
	"fmt"

	"github.com/kestrelhouse/chorewheel/internal/model"
	"github.com/kestrelhouse/chorewheel/internal/store"
)

// Complete handles a finished room task: the completed record is replaced
// by its next occurrence in a single persisted write. With advanceUser
// true (the normal case) the rotation moves to the next user; with false
// the same holder keeps the task. Returns the next holder.
//
// The task must be exactly the record previously read from the store;
// removal matches structurally, so a stale record yields ErrNotFound.
func (e *Engine) Complete(t model.Task, advanceUser bool) (string, error) {
	next, err := e.nextOccurrence(t.Room, t.Name, t.User, false, advanceUser)
	if err != nil {
		return "", err
	}
	if err := e.tasks.Replace(t, next); err != nil {
		return "", err
	}
	e.logger.Info("task completed",
		"room", t.Room, "task", t.Name, "by", t.User, "next", next.User, "due", next.DueDate.String())
	return next.User, nil
}

// CompleteAsOther handles a task done by someone other than its assigned
// holder. The rotation pointer does not move (the intended holder still
// owes their turn with this task); instead the ledger records the swap,
// crediting the stand-in and debiting the assignee. The rotation hold and
// the ledger adjustment are the two halves of the same fairness event,
// never applied together with an advance.
func (e *Engine) CompleteAsOther(t model.Task, otherUser string) (string, error) {
	// Validate both ledger sides before the task store mutates, so a bad
	// user name rejects the whole action instead of half-applying it.
	if !e.ledger.Has(otherUser) {
		return "", fmt.Errorf("ledger user %q: %w", otherUser, store.ErrNotFound)
	}
	if !e.ledger.Has(t.User) {
		return "", fmt.Errorf("ledger user %q: %w", t.User, store.ErrNotFound)
	}

	next, err := e.Complete(t, false)
	if err != nil {
		return "", err
	}
	if err := e.ledger.UpAndDown(otherUser, t.User); err != nil {
		return "", err
	}
	e.logger.Info("ledger adjusted", "up", otherUser, "down", t.User)
	return next, nil
}

// CompleteIndefinite advances the named indefinite task by one repetition.
// When the holder finishes their last repetition the task resets to Rep 1
// and rotates to the next user in its configured list. Returns the task
// record as it stands after the call.
func (e *Engine) CompleteIndefinite(name string) (model.IndefiniteTask, error) {
	i, it, err := e.indefinite.Increment(name)
	if err != nil {
		return model.IndefiniteTask{}, err
	}
	if it.Rep <= it.TotalReps {
		return it, nil
	}

	def, ok := e.cfg.Indefinite(name)
	if !ok {
		return model.IndefiniteTask{}, fmt.Errorf("indefinite task %q: %w", name, store.ErrNotFound)
	}
	nextUser, err := NextUser(def.Users, it.User, true)
	if err != nil {
		return model.IndefiniteTask{}, err
	}
	it, err = e.indefinite.Reset(i, nextUser)
	if err != nil {
		return model.IndefiniteTask{}, err
	}
	e.logger.Info("indefinite task rotated", "task", name, "next", nextUser)
	return it, nil
}
