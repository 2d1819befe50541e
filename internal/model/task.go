package model

// Task is a recurring room chore currently assigned to a user. A task has no
// separate identity key: the full record is its identity, and removal from
// the store matches on structural equality.
type Task struct {
	User    string `json:"user"`
	Room    string `json:"room"`
	Name    string `json:"name"`
	DueDate Date   `json:"due_date"`
	Period  string `json:"period"`
}

// Equal reports structural equality across all five fields.
func (t Task) Equal(o Task) bool {
	return t.User == o.User &&
		t.Room == o.Room &&
		t.Name == o.Name &&
		t.DueDate.Equal(o.DueDate) &&
		t.Period == o.Period
}

// IndefiniteTask is a chore tracked by repetition count instead of a due
// date. The assigned user works through TotalReps repetitions, then the task
// rotates to the next user and Rep resets to 1. Name is the identity key.
type IndefiniteTask struct {
	User      string `json:"user"`
	Name      string `json:"name"`
	Rep       int    `json:"rep"`
	TotalReps int    `json:"total_reps"`
}
