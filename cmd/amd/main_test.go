package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschless/armymarkdown/internal/config"
)

const validMemo = `ORGANIZATION_NAME = 4th Engineer Battalion
ORGANIZATION_STREET_ADDRESS = 588 Wetzel Road
ORGANIZATION_CITY_STATE_ZIP = Colorado Springs, CO 80904
OFFICE_SYMBOL = ABC-DEF-GH
AUTHOR = Joseph C. Schlessinger
RANK = 1LT
BRANCH = EN
DATE = 15 January 2025
SUBJECT = Template for Army markdown
---
- This memo is a demonstration.
- Point of contact is the undersigned.
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("AMD_CONFIG", "")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "memo.amd", validMemo)

	out, _, err := run(t, "", "compile", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `\documentclass{armymemo-notikz}`))
	assert.Contains(t, out, `\subject{Template for Army markdown}`)

	tex := filepath.Join(dir, "memo.tex")
	_, _, err = run(t, "", "compile", in, "-o", tex, "--class", "armymemo")
	require.NoError(t, err)
	data, err := os.ReadFile(tex)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `\documentclass{armymemo}`))
}

func TestCompile_Stdin(t *testing.T) {
	out, _, err := run(t, validMemo, "compile", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `\subject{Template for Army markdown}`)
}

func TestCompile_Errors(t *testing.T) {
	_, _, err := run(t, "SUBJECT = x\n---\n- open **bold\n", "compile", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	_, stderr, err := run(t, strings.Replace(validMemo, "RANK = 1LT\n", "", 1), "compile", "-")
	require.Error(t, err)
	assert.Contains(t, stderr, "HDR_001")
}

func TestValidate_Formats(t *testing.T) {
	text := strings.Replace(validMemo, "- This memo is a demonstration.\n", "- This memo is a demonstration.\n    - Lone child.\n", 1)

	out, _, err := run(t, text, "validate", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "BODY_002")
	assert.Contains(t, out, "paragraph 1.a")

	out, _, err = run(t, text, "validate", "--format", "json", "-")
	require.NoError(t, err)
	var report struct {
		Issues []struct {
			Rule string `json:"rule"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "BODY_002", report.Issues[0].Rule)

	out, _, err = run(t, text, "validate", "-f", "csv", "-")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, issueColumns, records[0])
	assert.Equal(t, "WARNING", records[1][0])

	_, _, err = run(t, text, "validate", "--format", "xml", "-")
	assert.Error(t, err)
}

func TestValidate_BlockingExitsNonZero(t *testing.T) {
	out, _, err := run(t, strings.Replace(validMemo, "DATE = 15 January 2025", "DATE = Jan 15", 1), "validate", "-")
	assert.ErrorIs(t, err, errBlocking)
	assert.Contains(t, out, "DATE_001")
}

func TestValidate_MultipleFilesPrefixLocation(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.amd", validMemo)
	b := writeFile(t, dir, "b.amd", strings.Replace(validMemo, "RANK = 1LT", "RANK = GENERALISSIMO", 1))

	out, _, err := run(t, "", "validate", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, b+": RANK")
}

func TestValidate_RuleFilter(t *testing.T) {
	out, _, err := run(t, "SUBJECT = x\n---\n", "validate", "--rule", "SUBJ_002", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "SUBJ_002")
	assert.NotContains(t, out, "HDR_001")
}

func TestHTML(t *testing.T) {
	out, _, err := run(t, validMemo, "html", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="memo">`)
}

func TestDOCX(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "memo.amd", validMemo)
	out := filepath.Join(dir, "out.docx")
	_, _, err := run(t, "", "docx", in, "-o", out)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "memo.amd", "SUBJECT = x\nORGANIZATION_NAME = Unit\n---\n- one\n  continued\n")

	out, _, err := run(t, "", "fmt", in)
	require.NoError(t, err)
	assert.Equal(t, "ORGANIZATION_NAME = Unit\nSUBJECT = x\n---\n- one continued\n", out)

	_, _, err = run(t, "", "fmt", "-w", in)
	require.NoError(t, err)
	data, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "draft.md", "---\nsubject: Range Safety\n---\n- First.\n- Second.\n")

	out, _, err := run(t, "", "import", md)
	require.NoError(t, err)
	assert.Equal(t, "SUBJECT = Range Safety\n---\n- First.\n- Second.\n", out)

	outDir := filepath.Join(dir, "memos")
	require.NoError(t, os.Mkdir(outDir, 0o755))
	_, _, err = run(t, "", "import", "--out-dir", outDir, md)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "range-safety.amd"))
	assert.NoError(t, err)
}

func TestOutline(t *testing.T) {
	text := strings.Replace(validMemo, "- This memo is a demonstration.\n", "- This memo is a demonstration.\n    - Sub a.\n    - Sub b.\n", 1)
	out, _, err := run(t, text, "outline", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "1. This memo is a demonstration.")
	assert.Contains(t, out, "    b. Sub b.")
	assert.Contains(t, out, "4 paragraphs, depth 2")

	out, _, err = run(t, text, "outline", "--json", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"ref": "1.b"`)
}

func TestRules(t *testing.T) {
	out, _, err := run(t, "", "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "HDR_001")
	assert.Contains(t, out, "PDF_005")

	out, _, err = run(t, "", "rules", "--json")
	require.NoError(t, err)
	var rules []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	assert.NotEmpty(t, rules)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	var args []string
	for _, name := range []string{"a.amd", "b.amd", "c.amd"} {
		args = append(args, writeFile(t, dir, name, validMemo))
	}
	bad := writeFile(t, dir, "bad.amd", "SUBJECT = x\n---\n- open **bold\n")
	outDir := filepath.Join(dir, "build")

	out, _, err := run(t, "", append([]string{"batch", "--workers", "2", "--out-dir", outDir}, append(args, bad)...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 memos failed")
	assert.Contains(t, out, "FAIL")

	for _, name := range []string{"a.tex", "b.tex", "c.tex"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(outDir, "bad.tex"))
	assert.True(t, os.IsNotExist(err))
}

func TestCheckPDF_MissingFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "memo.amd", validMemo)
	_, _, err := run(t, "", "checkpdf", in, filepath.Join(dir, "memo.pdf"))
	assert.Error(t, err)
}

func TestTexPath(t *testing.T) {
	assert.Equal(t, filepath.Join("memos", "a.tex"), texPath(filepath.Join("memos", "a.amd"), ""))
	assert.Equal(t, filepath.Join("build", "a.tex"), texPath(filepath.Join("memos", "a.amd"), "build"))
}

func TestWatch_RecompilesOnChange(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "memo.amd", validMemo)
	out := filepath.Join(dir, "memo.tex")

	a := &app{cfg: config.Defaults(), log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, in, out, "") }()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "Template for Army markdown")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(in, []byte(strings.Replace(validMemo, "Template for Army markdown", "Revised subject", 1)), 0o644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "Revised subject")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
