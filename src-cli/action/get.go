package action

import (
	"fmt"
	"io"
	"os"
	"sort"

	"icsctl/src-cli/utils"
)

// Get answers simple queries about the setup. Currently only
// "get calendars": the calendar subdirectories of the root.
func Get(as *utils.AppState, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("action.Get: expected a query, try 'get calendars'")
	}
	switch args[0] {
	case "calendars":
		entries, err := os.ReadDir(as.Config.GetCalendarDir())
		if err != nil {
			return fmt.Errorf("action.Get: %w", err)
		}
		var names []string
		for _, entry := range entries {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	default:
		return fmt.Errorf("action.Get: unknown query %q", args[0])
	}
}
