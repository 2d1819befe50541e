package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Ledger is the per-user fairness score: positive means the user has done
// extra chores, negative means fewer. Persisted as a JSON object whose key
// order is the seeding order, preserved across reloads so display order is
// stable.
type Ledger struct {
	path   string
	users  []string
	scores map[string]int
	logger *slog.Logger
}

// LedgerEntry is one user's score, as enumerated by All.
type LedgerEntry struct {
	User  string `json:"user"`
	Score int    `json:"score"`
}

// NewLedger opens the ledger backed by the file at path. A missing or
// unparsable file starts the ledger empty.
func NewLedger(path string, logger *slog.Logger) *Ledger {
	l := &Ledger{path: path, scores: make(map[string]int), logger: logger}
	l.load()
	return l
}

func (l *Ledger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("read ledger file, starting empty", "path", l.path, "error", err)
		}
		return
	}
	users, scores, err := decodeLedger(data)
	if err != nil {
		l.logger.Warn("ledger file unparsable, starting empty", "path", l.path, "error", err)
		return
	}
	l.users = users
	l.scores = scores
}

// decodeLedger reads a JSON object while keeping the key order the document
// had, which encoding/json's map decoding would discard.
func decodeLedger(data []byte) ([]string, map[string]int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("decode ledger: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("decode ledger: expected object, got %v", tok)
	}

	var users []string
	scores := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("decode ledger key: %w", err)
		}
		user := keyTok.(string)
		var score int
		if err := dec.Decode(&score); err != nil {
			return nil, nil, fmt.Errorf("decode score for %q: %w", user, err)
		}
		users = append(users, user)
		scores[user] = score
	}
	return users, scores, nil
}

func encodeLedger(users []string, scores map[string]int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, u := range users {
		key, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("encode ledger key %q: %w", u, err)
		}
		fmt.Fprintf(&buf, "  %s: %d", key, scores[u])
		if i < len(users)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *Ledger) commit(users []string, scores map[string]int) error {
	data, err := encodeLedger(users, scores)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	l.users = users
	l.scores = scores
	return nil
}

func (l *Ledger) copyState() ([]string, map[string]int) {
	users := make([]string, len(l.users))
	copy(users, l.users)
	scores := make(map[string]int, len(l.scores))
	for u, s := range l.scores {
		scores[u] = s
	}
	return users, scores
}

// InitUser creates (or zeroes) the entry for user and persists. Meant for
// first-run seeding only: calling it on an existing user discards their
// score.
func (l *Ledger) InitUser(user string) error {
	users, scores := l.copyState()
	if _, exists := scores[user]; !exists {
		users = append(users, user)
	}
	scores[user] = 0
	return l.commit(users, scores)
}

// Has reports whether user has a ledger entry.
func (l *Ledger) Has(user string) bool {
	_, ok := l.scores[user]
	return ok
}

// Score returns user's current score, or ErrNotFound if the user was never
// seeded.
func (l *Ledger) Score(user string) (int, error) {
	score, ok := l.scores[user]
	if !ok {
		return 0, fmt.Errorf("ledger user %q: %w", user, ErrNotFound)
	}
	return score, nil
}

// UpAndDown increments up's score and decrements down's score as one
// persisted mutation. Both users are validated before either score moves:
// an unknown user on either side leaves the ledger untouched.
func (l *Ledger) UpAndDown(up, down string) error {
	if _, ok := l.scores[up]; !ok {
		return fmt.Errorf("ledger up user %q: %w", up, ErrNotFound)
	}
	if _, ok := l.scores[down]; !ok {
		return fmt.Errorf("ledger down user %q: %w", down, ErrNotFound)
	}
	users, scores := l.copyState()
	scores[up]++
	scores[down]--
	return l.commit(users, scores)
}

// Len returns the number of ledger entries.
func (l *Ledger) Len() int {
	return len(l.users)
}

// All returns every entry in seeding order.
func (l *Ledger) All() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(l.users))
	for _, u := range l.users {
		out = append(out, LedgerEntry{User: u, Score: l.scores[u]})
	}
	return out
}
