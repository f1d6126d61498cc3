// Command amd compiles Army Markdown memos to LaTeX and related formats.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jschless/armymarkdown/internal/config"
)

var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "amd",
		Short: "Army Markdown memo compiler",
		Long: `amd turns Army Markdown (.amd) memos into LaTeX for the armymemo
document class, checking them against AR 25-50 along the way.

Input files ending in .md or .markdown are read as CommonMark with YAML
front matter. Use "-" to read Army Markdown from stdin.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = strings.ToLower(lvl)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			return nil
		},
	}
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(a.compileCmd())
	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.htmlCmd())
	rootCmd.AddCommand(a.docxCmd())
	rootCmd.AddCommand(a.fmtCmd())
	rootCmd.AddCommand(a.importCmd())
	rootCmd.AddCommand(a.outlineCmd())
	rootCmd.AddCommand(a.rulesCmd())
	rootCmd.AddCommand(a.batchCmd())
	rootCmd.AddCommand(a.checkPDFCmd())
	rootCmd.AddCommand(a.watchCmd())
	return rootCmd
}

// readSource returns the bytes of path and the name used to pick a parser.
func readSource(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return src, "stdin.amd", nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return src, path, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
