package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/eringen/sitegen"
)

const debounce = 300 * time.Millisecond

func (c *cli) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the site, serve it locally and rebuild on changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.config.Addr
			}

			b, err := c.openBuilder()
			if err != nil {
				return err
			}
			defer b.Close()

			if _, err := b.Build(ctx, c.config.Pages); err != nil {
				return fmt.Errorf("initial build: %w", err)
			}

			watcher, err := watchInputs(c.config, c.logger)
			if err != nil {
				return err
			}
			done := make(chan struct{})
			go func() {
				defer close(done)
				c.rebuildOnChange(ctx, b, watcher)
			}()
			// The builder is closed only after the watch loop and any
			// rebuild it started have finished.
			defer func() {
				watcher.Close()
				<-done
			}()

			srv := b.NewPreviewServer()
			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://localhost%s\n", c.config.OutputDir, addr)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides addr)")
	return cmd
}

// inputFiles returns the absolute paths of every file a build reads.
func inputFiles(cfg fileConfig) map[string]bool {
	files := make(map[string]bool)
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			files[abs] = true
		}
	}
	for _, p := range cfg.Pages {
		add(p.Content)
		add(p.Template)
	}
	add(cfg.DataFile)
	return files
}

// watchInputs watches the directories holding the build's input files.
// Directories are watched rather than files so editors that save by
// renaming keep triggering events.
func watchInputs(cfg fileConfig, logger *slog.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dirs := make(map[string]bool)
	for f := range inputFiles(cfg) {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("not watching directory", "dir", dir, "err", err)
			continue
		}
		logger.Debug("watching", "dir", dir)
	}
	return watcher, nil
}

func (c *cli) rebuildOnChange(ctx context.Context, b *sitegen.Builder, watcher *fsnotify.Watcher) {
	inputs := inputFiles(c.config)
	var (
		timer   *time.Timer
		mu      sync.Mutex
		stopped bool
	)
	rebuild := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped || ctx.Err() != nil {
			return
		}
		c.logger.Info("rebuilding site")
		if _, err := b.Build(ctx, c.config.Pages); err != nil {
			c.logger.Error("rebuild failed", "err", err)
		}
	}

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		mu.Lock()
		stopped = true
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !inputs[name] {
				continue
			}
			c.logger.Info("change detected", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, rebuild)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("watcher error", "err", err)
		}
	}
}
