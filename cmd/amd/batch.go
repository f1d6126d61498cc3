package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jschless/armymarkdown/internal/pipeline"
)

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Compile many memos in parallel",
		Long: `Compile each memo on a worker pool and write <name>.tex next to the
input, or into --out-dir. Every memo is independent; one failure does
not stop the others.

Example:
  amd batch --workers 8 --out-dir build/ memos/*.amd`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out-dir")
			workers, _ := cmd.Flags().GetInt("workers")

			cfg := a.cfg
			if workers > 0 {
				cfg.WorkerCount = workers
			}
			cfg.MaxQueueSize = len(args)
			if c, _ := cmd.Flags().GetString("class"); c != "" {
				cfg.LatexClass = c
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", outDir, err)
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			orch := pipeline.NewOrchestrator(cfg, a.log)
			orch.Start(ctx)
			defer orch.Stop()

			jobs := make([]*pipeline.Job, 0, len(args))
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				job := pipeline.NewJob(path, src)
				if err := orch.Submit(job); err != nil {
					return err
				}
				jobs = append(jobs, job)
			}

			failed := 0
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, job := range jobs {
				if err := pipeline.Wait(ctx, job); err != nil {
					return err
				}
				snap := job.Snapshot()
				markup, ok := job.Markup()
				if !ok {
					failed++
					fmt.Fprintf(tw, "FAIL\t%s\t%s\n", snap.Filename, strings.Join(snap.Errors, "; "))
					continue
				}
				out := texPath(snap.Filename, outDir)
				if err := os.WriteFile(out, []byte(markup), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(tw, "ok\t%s\t%s (%d warnings)\n", snap.Filename, out, len(snap.Warnings))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			stats := orch.Stats().Snapshot()
			a.log.Info("batch complete", "memos", len(jobs), "failed", failed,
				"p50_ms", stats.P50Ms, "max_ms", stats.MaxMs)
			if failed > 0 {
				return fmt.Errorf("%d of %d memos failed", failed, len(jobs))
			}
			return nil
		},
	}
	cmd.Flags().String("out-dir", "", "directory for .tex files (default next to each input)")
	cmd.Flags().Int("workers", 0, "worker count (default from config)")
	cmd.Flags().String("class", "", "LaTeX document class")
	return cmd
}

// texPath returns where the LaTeX for input goes.
func texPath(input, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".tex"
	if outDir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	return filepath.Join(outDir, base)
}
