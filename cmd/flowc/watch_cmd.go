package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	flowconfig "github.com/c360studio/flowc/config"
)

const watchDebounce = 200 * time.Millisecond

func newWatchCmd(configPath *string, verbose *bool) *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "re-translate a project source file on every save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), args[0], cfg, logger, dump)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the translated IR as YAML on every run")
	return cmd
}

func runWatch(ctx context.Context, path string, cfg *flowconfig.Config, logger *slog.Logger, dump bool) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info("watching for changes", slog.String("path", path))

	if err := translateFile(ctx, path, cfg, logger, dump); err != nil {
		logger.Error("translate failed", slog.String("err", err.Error()))
	}

	var timer *time.Timer
	changed := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.String("err", err.Error()))
		case <-changed:
			if err := translateFile(ctx, path, cfg, logger, dump); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
		}
	}
}
