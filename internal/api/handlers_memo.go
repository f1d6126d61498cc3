package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jschless/armymarkdown/internal/amdtext"
	"github.com/jschless/armymarkdown/internal/compiler"
	"github.com/jschless/armymarkdown/internal/latex"
	"github.com/jschless/armymarkdown/internal/memo"
	"github.com/jschless/armymarkdown/internal/outline"
	"github.com/jschless/armymarkdown/internal/parser"
	"github.com/jschless/armymarkdown/internal/render/htmlpreview"
	"github.com/jschless/armymarkdown/internal/render/word"
	"github.com/jschless/armymarkdown/internal/validate"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var classRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// memoRequest is the JSON body shared by the memo endpoints.
type memoRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
	Class    string `json:"class,omitempty"`
}

func (req memoRequest) Validate(maxBytes int64) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Text, validation.Required, validation.By(func(value any) error {
			if int64(len(value.(string))) > maxBytes {
				return validation.NewError("memo_too_large", fmt.Sprintf("exceeds %d bytes", maxBytes))
			}
			return nil
		})),
		validation.Field(&req.Filename, validation.By(func(value any) error {
			name := value.(string)
			if name != "" && !parser.IsSupportedExtension(name) {
				return validation.NewError("unsupported_extension", fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)))
			}
			return nil
		})),
		validation.Field(&req.Class, validation.Match(classRe)),
	)
}

// decodeMemoRequest reads and validates the body, writing a 4xx on failure.
func (s *Server) decodeMemoRequest(w http.ResponseWriter, r *http.Request) (memoRequest, bool) {
	var req memoRequest
	// Leave room for JSON escaping around the memo text.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*2+4096)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return req, false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if err := req.Validate(s.cfg.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid request",
			"fields": err,
		})
		return req, false
	}
	if req.Filename == "" {
		req.Filename = "memo.amd"
	}
	req.Filename = sanitizeFilename(req.Filename)
	return req, true
}

// parseMemo parses the request text with the parser chosen by filename.
func parseMemo(req memoRequest) (*memo.Document, error) {
	p, err := parser.ForFile(req.Filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(strings.NewReader(req.Text), req.Filename)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemoRequest(w, r)
	if !ok {
		return
	}
	start := time.Now()
	doc, err := parseMemo(req)
	if err != nil {
		s.orchestrator.Stats().Record(time.Since(start), err)
		writeCompileError(w, err)
		return
	}
	report := validate.Validate(doc)
	if err := report.Err(); err != nil {
		s.orchestrator.Stats().Record(time.Since(start), err)
		writeCompileError(w, err)
		return
	}
	class := req.Class
	if class == "" {
		class = s.cfg.LatexClass
	}
	markup := latex.Generator{Class: class}.Render(doc)
	s.orchestrator.Stats().Record(time.Since(start), nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"markup":   markup,
		"warnings": nonNil(report.Warnings()),
		"stats":    outline.Measure(doc),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemoRequest(w, r)
	if !ok {
		return
	}
	doc, err := parseMemo(req)
	if err != nil {
		writeCompileError(w, err)
		return
	}
	report := validate.Validate(doc)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    !report.HasBlockingErrors(),
		"errors":   len(report.Errors()),
		"warnings": len(report.Warnings()),
		"issues":   nonNil(report.Issues),
	})
}

func (s *Server) handleRenderHTML(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemoRequest(w, r)
	if !ok {
		return
	}
	doc, err := parseMemo(req)
	if err != nil {
		writeCompileError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := htmlpreview.Render(&buf, doc); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleRenderDOCX(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemoRequest(w, r)
	if !ok {
		return
	}
	doc, err := parseMemo(req)
	if err != nil {
		writeCompileError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := word.Render(&buf, doc); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	name := strings.TrimSuffix(req.Filename, filepath.Ext(req.Filename)) + ".docx"
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}

func (s *Server) handleImportMarkdown(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemoRequest(w, r)
	if !ok {
		return
	}
	doc, err := (&parser.MarkdownParser{}).Parse(strings.NewReader(req.Text), req.Filename)
	if err != nil {
		writeCompileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":      amdtext.Format(doc),
		"memo_type": doc.Type,
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rules": validate.Rules()})
}

// writeCompileError maps the compile error kinds onto status codes: parse
// errors are 400, blocking validation issues 422.
func writeCompileError(w http.ResponseWriter, err error) {
	switch compiler.KindOf(err) {
	case compiler.KindParse:
		var pe *parser.ParseError
		errors.As(err, &pe)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": err.Error(),
			"kind":  compiler.KindParse,
			"line":  pe.Line,
		})
	case compiler.KindValidation:
		var ve *validate.ValidationError
		errors.As(err, &ve)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"kind":   compiler.KindValidation,
			"issues": ve.Issues,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": err.Error(),
			"kind":  compiler.KindOther,
		})
	}
}

func nonNil(issues []validate.Issue) []validate.Issue {
	if issues == nil {
		return []validate.Issue{}
	}
	return issues
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
