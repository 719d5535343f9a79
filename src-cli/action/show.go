package action

import (
	"fmt"
	"io"
	"os"

	"icsctl/src-cli/utils"
)

// Show prints the raw contents of every file in the working sequence.
func Show(as *utils.AppState, out io.Writer) error {
	paths, err := utils.ReadSeq(as.Config)
	if err != nil {
		return fmt.Errorf("action.Show: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("action.Show: the sequence is empty, run select first")
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("action.Show: %w", err)
		}
		if _, err := out.Write(content); err != nil {
			return fmt.Errorf("action.Show: %w", err)
		}
	}
	return nil
}
