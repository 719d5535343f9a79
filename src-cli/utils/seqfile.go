package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The sequence file holds the working set of event file paths, one per
// line. Commands like show operate on whatever the last select put there.

func ReadSeq(config *Config) ([]string, error) {
	f, err := os.Open(config.GetSeqFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ReadSeq: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ReadSeq: %w", err)
	}
	return paths, nil
}

func WriteSeq(config *Config, paths []string) error {
	if err := os.MkdirAll(filepath.Dir(config.GetSeqFile()), 0o755); err != nil {
		return fmt.Errorf("WriteSeq: %w", err)
	}
	var sb strings.Builder
	for _, path := range paths {
		sb.WriteString(path)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(config.GetSeqFile(), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("WriteSeq: %w", err)
	}
	return nil
}
