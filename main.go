package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"icsctl/src-cli/action"
	"icsctl/src-cli/utils"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(err.Error())
	}
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

const usage = `icsctl - iCalendar engine and calendar tool

Usage:
  icsctl index [DIR]                      rebuild the occurrence index
  icsctl list [from X] [to Y] [on Z] [cal NAME]
                                          query indexed occurrences
  icsctl select [from X] [to Y] [on Z] [cal NAME]
                                          filter files, set the sequence
  icsctl show                             print the selected files
  icsctl seq                              print or (piped) replace the sequence
  icsctl get calendars                    list calendars
  icsctl new CAL FROM TO SUMMARY [LOC]    create an event file
  icsctl unroll PATH                      print a file's occurrences
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	as := utils.NewAppState()
	defer as.RawDb.Close()

	var err error
	switch command {
	case "index":
		err = action.Index(as, args)
	case "list":
		err = action.List(as, args, os.Stdout)
	case "select":
		err = action.Select(as, args, os.Stdout)
	case "show":
		err = action.Show(as, os.Stdout)
	case "seq":
		piped := false
		if info, statErr := os.Stdin.Stat(); statErr == nil {
			piped = info.Mode()&os.ModeCharDevice == 0
		}
		err = action.Seq(as, os.Stdin, piped, os.Stdout)
	case "get":
		err = action.Get(as, args, os.Stdout)
	case "new":
		err = action.New(as, args, os.Stdout)
	case "unroll":
		err = action.Unroll(as, args, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}
