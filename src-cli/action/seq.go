package action

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"icsctl/src-cli/utils"
)

// Seq reads or replaces the working sequence. With piped input it writes
// the paths read from in; otherwise it prints the current sequence to out.
func Seq(as *utils.AppState, in io.Reader, piped bool, out io.Writer) error {
	if piped {
		var paths []string
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			paths = append(paths, line)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("action.Seq: %w", err)
		}
		if err := utils.WriteSeq(as.Config, paths); err != nil {
			return fmt.Errorf("action.Seq: %w", err)
		}
		return nil
	}

	paths, err := utils.ReadSeq(as.Config)
	if err != nil {
		return fmt.Errorf("action.Seq: %w", err)
	}
	for _, path := range paths {
		fmt.Fprintln(out, path)
	}
	return nil
}
