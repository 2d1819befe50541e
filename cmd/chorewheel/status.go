package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kestrelhouse/chorewheel/internal/chore"
	"github.com/kestrelhouse/chorewheel/internal/store"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dueTodayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
)

func statusStyle(s chore.Status) lipgloss.Style {
	switch s {
	case chore.StatusOverdue:
		return overdueStyle
	case chore.StatusDueToday:
		return dueTodayStyle
	default:
		return upcomingStyle
	}
}

// statusCommand renders the persisted state in the terminal with the same
// urgency colors the wall displays use. It only reads the store files; it
// never seeds or mutates.
func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current tasks, repetitions, and scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := settingsFromEnv()
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

			tasks := store.NewTaskStore(filepath.Join(st.DataDir, tasksFile), logger)
			indefinite := store.NewIndefiniteStore(filepath.Join(st.DataDir, indefiniteFile), logger)
			ledger := store.NewLedger(filepath.Join(st.DataDir, scoresFile), logger)

			if tasks.Len() == 0 && indefinite.Len() == 0 && ledger.Len() == 0 {
				fmt.Println(mutedStyle.Render("no state yet; start the board with `chorewheel run`"))
				return nil
			}

			var b strings.Builder
			now := time.Now()

			b.WriteString(headerStyle.Render("Assigned tasks") + "\n")
			for _, t := range tasks.All() {
				style := statusStyle(chore.ComputeStatus(t.DueDate, now))
				line := fmt.Sprintf("  %-10s  %-14s %-14s %s", t.DueDate, t.Room, t.Name, t.User)
				b.WriteString(style.Render(line) + "\n")
			}
			if tasks.Len() == 0 {
				b.WriteString(mutedStyle.Render("  (none)") + "\n")
			}

			b.WriteString("\n" + headerStyle.Render("Indefinite tasks") + "\n")
			for _, it := range indefinite.All() {
				b.WriteString(fmt.Sprintf("  %-14s %-10s %d/%d\n", it.Name, it.User, it.Rep, it.TotalReps))
			}
			if indefinite.Len() == 0 {
				b.WriteString(mutedStyle.Render("  (none)") + "\n")
			}

			b.WriteString("\n" + headerStyle.Render("Scores") + "\n")
			for _, e := range ledger.All() {
				b.WriteString(fmt.Sprintf("  %-14s %+d\n", e.User, e.Score))
			}
			if ledger.Len() == 0 {
				b.WriteString(mutedStyle.Render("  (none)") + "\n")
			}

			fmt.Print(b.String())
			return nil
		},
	}
}
