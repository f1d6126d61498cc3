package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jschless/armymarkdown/internal/amdtext"
	"github.com/jschless/armymarkdown/internal/compiler"
	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
	"github.com/jschless/armymarkdown/internal/parser"
	"github.com/jschless/armymarkdown/internal/pdfcheck"
	"github.com/jschless/armymarkdown/internal/render/htmlpreview"
	"github.com/jschless/armymarkdown/internal/render/word"
	"github.com/jschless/armymarkdown/internal/validate"
)

func (a *app) parse(cmd *cobra.Command, path string) (*memo.Document, string, error) {
	src, name, err := readSource(cmd, path)
	if err != nil {
		return nil, "", err
	}
	doc, err := compiler.ParseFile(name, src)
	if err != nil {
		return nil, name, fmt.Errorf("%s: %w", name, err)
	}
	return doc, name, nil
}

func (a *app) class(cmd *cobra.Command) string {
	if c, _ := cmd.Flags().GetString("class"); c != "" {
		return c
	}
	return a.cfg.LatexClass
}

func (a *app) compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a memo to LaTeX",
		Long: `Parse, validate and generate LaTeX for a memo. Blocking issues abort
with a non-zero exit; warnings are logged to stderr.

Example:
  amd compile memo.amd -o memo.tex
  amd compile --class armymemo memo.amd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			doc, name, err := a.parse(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := compiler.CompileDocument(doc, compiler.Options{Class: a.class(cmd)})
			if err != nil {
				var ve *validate.ValidationError
				if errors.As(err, &ve) {
					writeIssues(cmd.ErrOrStderr(), "text", ve.Issues)
				}
				return fmt.Errorf("%s: %w", name, err)
			}
			a.warn(name, res.Warnings)
			return writeOutput(cmd, output, []byte(res.Markup))
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().String("class", "", "LaTeX document class")
	return cmd
}

// errBlocking signals a validate run that found ERROR issues.
var errBlocking = errors.New("memo has blocking issues")

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check memos against AR 25-50",
		Long: `Run every rule over one or more memos and print the findings.
Exits non-zero when any memo has an ERROR issue.

Example:
  amd validate memo.amd
  amd validate --format csv memos/*.amd > issues.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			rules, _ := cmd.Flags().GetStringSlice("rule")

			var all []validate.Issue
			blocking := false
			for _, path := range args {
				doc, name, err := a.parse(cmd, path)
				if err != nil {
					return err
				}
				report := validate.Run(doc, rules...)
				if report.HasBlockingErrors() {
					blocking = true
				}
				for _, is := range report.Issues {
					if len(args) > 1 {
						is.Location = name + ": " + is.Location
					}
					all = append(all, is)
				}
			}
			if err := writeIssues(cmd.OutOrStdout(), format, all); err != nil {
				return err
			}
			if blocking {
				return errBlocking
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, json or csv")
	cmd.Flags().StringSlice("rule", nil, "only run these rule ids")
	return cmd
}

func (a *app) htmlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html <file>",
		Short: "Render an HTML preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			doc, _, err := a.parse(cmd, args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := htmlpreview.Render(&buf, doc); err != nil {
				return err
			}
			buf.WriteByte('\n')
			return writeOutput(cmd, output, buf.Bytes())
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) docxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docx <file>",
		Short: "Export a memo as a Word document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			doc, name, err := a.parse(cmd, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + ".docx"
			}
			var buf bytes.Buffer
			if err := word.Render(&buf, doc); err != nil {
				return err
			}
			if err := writeOutput(cmd, output, buf.Bytes()); err != nil {
				return err
			}
			a.log.Info("wrote docx", "file", output, "bytes", buf.Len())
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default <input>.docx)")
	return cmd
}

func (a *app) fmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Rewrite a memo in canonical Army Markdown",
		Long: `Print the memo with header keys in canonical order, repeatable keys
numbered, and body paragraphs re-indented. With -w the file is rewritten
in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			doc, _, err := a.parse(cmd, args[0])
			if err != nil {
				return err
			}
			out := amdtext.Format(doc)
			if write && args[0] != "-" {
				return writeOutput(cmd, args[0], []byte(out))
			}
			return writeOutput(cmd, "", []byte(out))
		},
	}
	cmd.Flags().BoolP("write", "w", false, "write result to the source file")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.md>",
		Short: "Convert a Markdown memo to Army Markdown",
		Long: `Read CommonMark with YAML front matter and print the equivalent
Army Markdown. With --out-dir the result is written to a file named after
the subject.

Example:
  amd import draft.md -o memo.amd
  amd import --out-dir memos/ draft.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			outDir, _ := cmd.Flags().GetString("out-dir")

			src, name, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := (&parser.MarkdownParser{}).Parse(bytes.NewReader(src), name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if outDir != "" {
				fallback := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + ".amd"
				output = filepath.Join(outDir, amdtext.FileName(doc, fallback))
			}
			if err := writeOutput(cmd, output, []byte(amdtext.Format(doc))); err != nil {
				return err
			}
			if output != "" {
				a.log.Info("imported", "from", name, "to", output)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().String("out-dir", "", "write into this directory, named after the subject")
	return cmd
}

func (a *app) outlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the paragraph outline and body statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			doc, _, err := a.parse(cmd, args[0])
			if err != nil {
				return err
			}
			entries := outline.Flatten(doc)
			stats := outline.Measure(doc)

			w := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					Ref   string `json:"ref"`
					Level int    `json:"level"`
					Line  int    `json:"line"`
					Text  string `json:"text"`
				}
				rows := make([]row, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, row{e.Ref(), e.Level, e.Paragraph.Line, e.Paragraph.PlainText()})
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"paragraphs": rows, "stats": stats})
			}

			for _, e := range entries {
				label := e.Label
				if label == "" {
					label = "-"
				}
				fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("    ", e.Level), label, excerpt(e.Paragraph.PlainText(), 60))
			}
			fmt.Fprintf(w, "\n%d paragraphs, depth %d, %d tables, %d words, ~%.1f pages\n",
				stats.Paragraphs, stats.MaxDepth, stats.Tables, stats.Words, stats.EstimatedPages)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (a *app) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the validation rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(validate.Rules())
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			for _, r := range validate.Rules() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Title, r.Reference)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func (a *app) checkPDFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpdf <memo> <pdf>",
		Short: "Check a compiled PDF against its source memo",
		Long: `Extract the text of a PDF produced from the memo's LaTeX and confirm
the letterhead, office symbol, subject and date made it onto the page.

Example:
  amd checkpdf memo.amd memo.pdf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			maxPages, _ := cmd.Flags().GetInt("max-pages")

			doc, _, err := a.parse(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(args[1]); err != nil {
				return err
			}
			issues, err := pdfcheck.CheckFile(args[1], doc, pdfcheck.Options{
				FallbackPdftotext: a.cfg.PDFFallbackPdftotext,
				MaxPages:          maxPages,
			})
			if err != nil {
				return err
			}
			if err := writeIssues(cmd.OutOrStdout(), format, issues); err != nil {
				return err
			}
			if (validate.Report{Issues: issues}).HasBlockingErrors() {
				return errBlocking
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, json or csv")
	cmd.Flags().Int("max-pages", 0, "page limit (default estimated from the memo)")
	return cmd
}
