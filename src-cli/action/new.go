package action

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"icsctl/ical"
	"icsctl/ical/event"
	"icsctl/src-cli/selector"
	"icsctl/src-cli/utils"
)

// New synthesizes an event file:
//
//	icsctl new CAL FROM TO SUMMARY [LOCATION]
//
// The event gets a fresh UID and lands in <calendar dir>/CAL/<uid>.ics. An
// existing file with the same name is copied to the backup dir first.
func New(as *utils.AppState, args []string, out io.Writer) error {
	if len(args) < 4 {
		return fmt.Errorf("action.New: usage: new CAL FROM TO SUMMARY [LOCATION]")
	}
	calendar, fromArg, toArg, summary := args[0], args[1], args[2], args[3]
	location := ""
	if len(args) > 4 {
		location = args[4]
	}

	loc := as.Config.GetLocation()
	now := time.Now().In(loc)
	startDate, err := selector.ParseDate(fromArg, as.When, now, loc)
	if err != nil {
		return fmt.Errorf("action.New: %w", err)
	}
	endDate, err := selector.ParseDate(toArg, as.When, now, loc)
	if err != nil {
		return fmt.Errorf("action.New: %w", err)
	}

	calendarDir := filepath.Join(as.Config.GetCalendarDir(), calendar)
	if info, err := os.Stat(calendarDir); err != nil || !info.IsDir() {
		return fmt.Errorf("action.New: no such calendar %q", calendar)
	}

	doc, calID := ical.NewCalendar("-//icsctl//EN")
	_, ev, err := event.NewBuilder().
		SetSummary(utils.CleanupSummary(summary)).
		SetLocation(location).
		SetStartDate(startDate).
		SetEndDate(endDate).
		Attach(doc, calID, nil)
	if err != nil {
		return fmt.Errorf("action.New: %w", err)
	}

	path := filepath.Join(calendarDir, ev.UID()+".ics")
	if backupPath, err := utils.BackupFile(as.Config, path); err != nil {
		return fmt.Errorf("action.New: %w", err)
	} else if backupPath != "" {
		slog.Info("previous file backed up", "backup", backupPath)
	}

	serialized, err := doc.String()
	if err != nil {
		return fmt.Errorf("action.New: %w", err)
	}
	if err := os.WriteFile(path, []byte(serialized), 0o644); err != nil {
		return fmt.Errorf("action.New: %w", err)
	}

	fmt.Fprintln(out, path)
	return nil
}
