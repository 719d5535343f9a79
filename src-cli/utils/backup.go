package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupFile copies path into the backup directory before it gets
// overwritten, prefixing the copy with a timestamp so repeated edits of the
// same event never clobber each other. Missing source is not an error;
// there is nothing to save then.
func BackupFile(config *Config, path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("BackupFile: can't open source: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(config.GetBackupDir(), 0o755); err != nil {
		return "", fmt.Errorf("BackupFile: can't create backup dir: %w", err)
	}

	name := time.Now().UTC().Format("20060102T150405Z") + "_" + filepath.Base(path)
	dstPath := filepath.Join(config.GetBackupDir(), name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("BackupFile: can't create backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("BackupFile: can't copy: %w", err)
	}
	return dstPath, nil
}
