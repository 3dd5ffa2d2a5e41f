package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

func newHistoryCmd(global *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent backup runs",
		Long: `Lists the most recent backup runs recorded in the run history,
most recent first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, global, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list")
	return cmd
}

func runHistory(cmd *cobra.Command, global *globalFlags, limit int) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	svc, closeFn, err := buildServices(cfg, Settings{})
	if err != nil {
		return err
	}
	defer closeFn()

	runs, err := svc.History.Recent(cmd.Context(), limit)
	if errors.Is(err, domain.ErrHistoryDisabled) {
		cmd.Println("Run history is disabled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading run history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No backup runs recorded.")
		return nil
	}

	out := cmd.OutOrStdout()
	_, err = fmt.Fprintln(out, historyTable(lipgloss.NewRenderer(out), runs))
	return err
}

// historyTable renders runs as a table. Colours are only emitted when the
// renderer's output is a terminal.
func historyTable(r *lipgloss.Renderer, runs []domain.BackupRun) string {
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)
	statusColour := map[string]lipgloss.Color{
		"ok":      lipgloss.Color("#A6E3A1"),
		"errors":  lipgloss.Color("#F9E2AF"),
		"aborted": lipgloss.Color("#F38BA8"),
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("#45475A"))).
		Headers("STARTED", "DOMAIN", "GROUPS", "MEMBERS", "ERRORS", "STATUS", "DURATION", "OUTPUT")
	for _, run := range runs {
		t.Row(
			run.StartedAt.Local().Format(time.DateTime),
			run.Domain,
			strconv.Itoa(run.GroupCount),
			strconv.Itoa(run.MemberCount),
			strconv.Itoa(run.ErrorCount),
			runStatus(run),
			run.Duration().Round(time.Second).String(),
			run.OutputDir,
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return header
		}
		if col == 5 && row >= 0 && row < len(runs) {
			return cell.Foreground(statusColour[runStatus(runs[row])])
		}
		return cell
	})
	return t.String()
}

func runStatus(run domain.BackupRun) string {
	switch {
	case run.Fatal:
		return "aborted"
	case run.Clean():
		return "ok"
	default:
		return "errors"
	}
}
