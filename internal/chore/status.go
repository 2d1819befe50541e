// Package chore derives display urgency from a task's due date. The status
// is purely cosmetic (the stores and the rotation never consult it), so it
// is computed on the way out to a display, with the current time as input.
package chore

import (
	"time"

	"github.com/kestrelhouse/chorewheel/internal/model"
)

type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusDueToday Status = "due_today"
	StatusUpcoming Status = "upcoming"
)

// ComputeStatus classifies a due date relative to today.
func ComputeStatus(due model.Date, today time.Time) Status {
	switch d := due.Sub(model.DateOf(today)); {
	case d < 0:
		return StatusOverdue
	case d == 0:
		return StatusDueToday
	default:
		return StatusUpcoming
	}
}
