package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jschless/armymarkdown/internal/compiler"
	"github.com/jschless/armymarkdown/internal/validate"
)

const watchDebounce = 100 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Recompile a memo whenever it changes",
		Long: `Compile the memo, then keep recompiling each time the file is saved.
Errors are logged and the previous output is left in place.

Example:
  amd watch memo.amd -o build/memo.tex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = texPath(args[0], "")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, args[0], output, a.class(cmd))
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default <input>.tex)")
	cmd.Flags().String("class", "", "LaTeX document class")
	return cmd
}

// watch recompiles path into output until ctx is done. The parent directory
// is watched rather than the file so editors that save by rename still
// trigger a rebuild.
func (a *app) watch(ctx context.Context, path, output, class string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching directory %s: %w", filepath.Dir(abs), err)
	}

	a.rebuild(abs, output, class)
	a.log.Info("watching", "file", path, "output", output)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			// A rename may leave the directory without the file until the
			// editor writes it back.
			if _, err := os.Stat(abs); err != nil {
				continue
			}
			a.rebuild(abs, output, class)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Error("watch error", "error", err)
		}
	}
}

// rebuild compiles once and logs the outcome. It reports whether output was
// written.
func (a *app) rebuild(path, output, class string) bool {
	start := time.Now()
	src, err := os.ReadFile(path)
	if err != nil {
		a.log.Error("read failed", "file", path, "error", err)
		return false
	}
	doc, err := compiler.ParseFile(path, src)
	if err != nil {
		a.log.Error("parse failed", "file", path, "error", err)
		return false
	}
	res, err := compiler.CompileDocument(doc, compiler.Options{Class: class})
	if err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			for _, is := range ve.Issues {
				a.log.Error(is.Message, "file", path, "rule", is.Rule, "location", is.Location)
			}
			return false
		}
		a.log.Error("compile failed", "file", path, "error", err)
		return false
	}
	a.warn(path, res.Warnings)
	if err := os.WriteFile(output, []byte(res.Markup), 0o644); err != nil {
		a.log.Error("write failed", "file", output, "error", err)
		return false
	}
	a.log.Info("compiled", "file", path, "output", output, "duration_ms", time.Since(start).Milliseconds())
	return true
}
