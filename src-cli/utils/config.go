package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the optional config.toml in the data directory. Environment
// variables win over it.
type fileConfig struct {
	CalendarDir string `toml:"calendar_dir"`
	BackupDir   string `toml:"backup_dir"`
	SeqFile     string `toml:"seq_file"`
	IndexDB     string `toml:"index_db"`
	Horizon     string `toml:"horizon"`
	Timezone    string `toml:"timezone"`
}

type Config struct {
	calendarDir string
	backupDir   string
	seqFile     string
	indexDB     string
	horizon     time.Duration
	location    *time.Location
}

func NewConfig() *Config {
	dataDir := func() string {
		dataDir := os.Getenv("ICSCTL_DIR")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				slog.Error("can't resolve home directory", "error", err)
				os.Exit(1)
			}
			dataDir = filepath.Join(home, ".icsctl")
		}
		slog.Debug("env", "ICSCTL_DIR", dataDir)
		return dataDir
	}()

	var file fileConfig
	configPath := filepath.Join(dataDir, "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, &file); err != nil {
			slog.Error("can't parse config file", "path", configPath, "error", err)
			os.Exit(1)
		}
		slog.Debug("config file loaded", "path", configPath)
	}

	pick := func(envKey, fileValue, fallback string) string {
		value := os.Getenv(envKey)
		if value == "" {
			value = fileValue
		}
		if value == "" {
			value = fallback
		}
		slog.Debug("env", envKey, value)
		return value
	}

	return &Config{
		calendarDir: pick("ICSCTL_CALENDAR_DIR", file.CalendarDir, filepath.Join(dataDir, "cal")),
		backupDir:   pick("ICSCTL_BACKUP_DIR", file.BackupDir, filepath.Join(dataDir, "backup")),
		seqFile:     pick("ICSCTL_SEQ_FILE", file.SeqFile, filepath.Join(dataDir, "seq")),
		indexDB:     pick("ICSCTL_INDEX_DB", file.IndexDB, filepath.Join(dataDir, "index.db")),

		horizon: func() time.Duration {
			raw := pick("ICSCTL_HORIZON", file.Horizon, "17520h") // 2 years
			horizon, err := time.ParseDuration(raw)
			if err != nil || horizon <= 0 {
				slog.Error("invalid ICSCTL_HORIZON", "value", raw, "error", err)
				os.Exit(1)
			}
			return horizon
		}(),

		location: func() *time.Location {
			timezoneStr := pick("TIMEZONE", file.Timezone, "")
			switch timezoneStr {
			case "":
				return time.Local
			case "UTC":
				return time.UTC
			default:
				loc, err := time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
				return loc
			}
		}(),
	}
}

// Get ICSCTL_CALENDAR_DIR, the root holding one subdirectory per calendar
func (c *Config) GetCalendarDir() string {
	return c.calendarDir
}

// Get ICSCTL_BACKUP_DIR, where overwritten event files are copied
func (c *Config) GetBackupDir() string {
	return c.backupDir
}

// Get ICSCTL_SEQ_FILE, the working sequence of selected event files
func (c *Config) GetSeqFile() string {
	return c.seqFile
}

// Get ICSCTL_INDEX_DB, the sqlite occurrence index
func (c *Config) GetIndexDB() string {
	return c.indexDB
}

// Get ICSCTL_HORIZON, how far into the future recurrences are expanded
func (c *Config) GetHorizon() time.Duration {
	return c.horizon
}

// Get TIMEZONE
func (c *Config) GetLocation() *time.Location {
	return c.location
}
