package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcover/pkg/source"
)

const watchDebounce = 250 * time.Millisecond

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <form> [output_dir]",
		Short: "Regenerate the test plan whenever the form file changes",
		Long: `Watch generates the plan once, then again after every save of the form
file, until interrupted. Generation errors are printed and watching
continues.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Detect(args[0])
			if err != nil {
				return err
			}
			if src.Kind() != source.KindFile {
				return fmt.Errorf("watch needs a local file, got %s", src.Location())
			}
			dir := a.outputDir(src, args)
			return watchFile(cmd.Context(), src.Location(), watchDebounce, a.logger, func() error {
				err := a.writePlan(cmd, src, dir)
				if err != nil {
					fmt.Fprintf(a.stdout, "%s %v\n", errorColor.Sprint("generation failed:"), err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&a.overrides.format, "format", "", "comma separated renderers: text, json, gating-csv, questions-csv")
	return cmd
}

// watchFile calls onChange once, then after each debounced burst of writes
// to path, until ctx is done. The parent directory is watched so editors
// that replace the file on save are handled.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	if err := onChange(); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("form changed", slog.String("path", target), slog.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		case <-timer.C:
			if err := onChange(); err != nil {
				return err
			}
		}
	}
}
