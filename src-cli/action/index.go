package action

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"icsctl/ical"
	"icsctl/ical/event"
	"icsctl/src-cli/model"
	"icsctl/src-cli/utils"
)

const indexWorkers = 4

// one parsed .ics file on its way into the index
type indexedFile struct {
	path     string
	calendar string
	doc      *ical.Document
}

// Index walks the calendar root (or the directory given as the only
// argument), parses every .ics file and rebuilds the occurrence index.
// Malformed files are skipped with a warning; the rest still get indexed.
func Index(as *utils.AppState, args []string) error {
	root := as.Config.GetCalendarDir()
	if len(args) > 0 {
		root = args[0]
	}

	if err := model.CreateSchema(as.BunDb); err != nil {
		return fmt.Errorf("action.Index: %w", err)
	}

	paths := make(chan string)
	parsed := make(chan indexedFile)

	// parsing is the expensive part, spread it over a few workers; all
	// database writes stay on this goroutine
	var wg sync.WaitGroup
	for i := 0; i < indexWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				doc, err := ical.FromFile(path)
				if err != nil {
					slog.Warn("skipping malformed file", "path", path, "error", err)
					continue
				}
				parsed <- indexedFile{
					path:     path,
					calendar: calendarOf(root, path),
					doc:      doc,
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(parsed)
	}()

	walkErr := make(chan error, 1)
	go func() {
		defer close(paths)
		walkErr <- filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ics") {
				return nil
			}
			paths <- path
			return nil
		})
	}()

	now := time.Now().In(as.Config.GetLocation())
	horizon := now.Add(as.Config.GetHorizon())

	files, events := 0, 0
	for file := range parsed {
		n, err := indexFile(context.Background(), as, file, now, horizon)
		if err != nil {
			slog.Warn("skipping file", "path", file.path, "error", err)
			continue
		}
		files++
		events += n
	}
	if err := <-walkErr; err != nil {
		return fmt.Errorf("action.Index: %w", err)
	}

	slog.Info("index rebuilt", "files", files, "events", events)
	return nil
}

// indexFile upserts one file's calendar, events, and expanded occurrences.
func indexFile(ctx context.Context, as *utils.AppState, file indexedFile, now, horizon time.Time) (int, error) {
	calendarModel := model.Calendar{
		Name: file.calendar,
		Path: filepath.Dir(file.path),
	}
	if _, err := as.BunDb.NewInsert().
		Model(&calendarModel).
		On("CONFLICT (name) DO UPDATE").
		Set("path = EXCLUDED.path").
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("indexFile: can't upsert calendar: %w", err)
	}

	count := 0
	for _, ev := range event.EventsIn(file.doc, nil) {
		if _, isOverride := ev.RecurrenceID(); isOverride {
			// instance overrides don't get their own index entry
			continue
		}
		start, err := ev.StartDate()
		if err != nil {
			return count, err
		}
		end, err := ev.EndDate()
		if err != nil {
			return count, err
		}
		if end.Equal(start) {
			end = start.Add(time.Second)
		}

		eventModel := model.Event{
			UID:              ev.UID(),
			Summary:          ev.Summary(),
			Description:      ev.Description(),
			Location:         ev.Location(),
			URL:              ev.URL(),
			StartDateUnixUTC: start.UTC().Unix(),
			EndDateUnixUTC:   end.UTC().Unix(),
			IsWholeDay:       ev.IsAllDay(),
			IsRecurring:      ev.IsRecurMaster(),
			Sequence:         ev.Sequence(),
			CalendarName:     file.calendar,
			Path:             file.path,
		}
		if err := eventModel.Upsert(ctx, as.BunDb); err != nil {
			return count, err
		}

		// replace the expanded occurrence rows wholesale
		if _, err := as.BunDb.NewDelete().
			Model((*model.Occurrence)(nil)).
			Where("event_uid = ?", eventModel.UID).
			Exec(ctx); err != nil {
			return count, fmt.Errorf("indexFile: can't clear occurrences: %w", err)
		}
		expander, err := ev.Occurrences(time.Time{}, horizon)
		if err != nil {
			return count, err
		}
		var occurrenceModels []model.Occurrence
		for {
			t, ok := expander.Next()
			if !ok {
				break
			}
			occurrenceModels = append(occurrenceModels, model.Occurrence{
				EventUID: eventModel.UID,
				Date:     t.UTC().Unix(),
			})
		}
		if len(occurrenceModels) > 0 {
			if _, err := as.BunDb.NewInsert().
				Model(&occurrenceModels).
				Exec(ctx); err != nil {
				return count, fmt.Errorf("indexFile: can't insert occurrences: %w", err)
			}
		}
		count++
	}
	return count, nil
}

// calendarOf names the calendar a file belongs to: its first path segment
// under the root, or the root's own name for files sitting directly in it.
func calendarOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(filepath.Dir(path))
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return filepath.Base(root)
	}
	return parts[0]
}
