// Package extractor pulls plain text out of uploaded reference documents.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/docx"
	"github.com/gabriel-vasile/mimetype"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	extDOCX = ".docx"
	extDOC  = ".doc"
	extPPTX = ".pptx"
	extPPT  = ".ppt"
	extXLSX = ".xlsx"
	extXLS  = ".xls"
	extTXT  = ".txt"
	extPDF  = ".pdf"
)

// SupportedExtensions lists the upload formats, lower case with a dot.
var SupportedExtensions = []string{extDOCX, extDOC, extPPTX, extPPT, extXLSX, extXLS, extTXT, extPDF}

func IsSupported(ext string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(ext))
}

// runFunc runs an external converter and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Extractor struct {
	run      runFunc
	lookPath func(string) (string, error)
}

func New() *Extractor {
	return &Extractor{
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		lookPath: exec.LookPath,
	}
}

// Extract returns the text of the file at path. Unknown extensions yield
// ErrUnsupportedFormat, unreadable or empty documents ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(ext) {
		return "", fmt.Errorf("%w: %q", entity.ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrExtractionFailed, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", entity.ErrExtractionFailed)
	}

	kind := detectKind(ext, data)
	if kind != ext {
		ctxzap.Info(ctx, "file content does not match its extension",
			zap.String("extension", ext), zap.String("detected", kind))
	}

	text, err := e.extract(ctx, kind, path, data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", entity.ErrExtractionFailed, kind, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text found", entity.ErrExtractionFailed)
	}

	ctxzap.Debug(ctx, "document text extracted",
		zap.String("kind", kind), zap.Int("runes", len([]rune(text))))

	return text, nil
}

func (e *Extractor) extract(ctx context.Context, kind, path string, data []byte) (string, error) {
	switch kind {
	case extDOCX:
		text, err := docx.ExtractText(data)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		ctxzap.Debug(ctx, "falling back to raw OpenXML text", zap.Error(err))
		return openXMLDocumentText(data)
	case extPPTX:
		return presentationText(data)
	case extXLSX:
		return spreadsheetText(data)
	case extPDF:
		return pdfText(data)
	case extTXT:
		return decodeText(data)
	case extDOC:
		return e.legacyWordText(ctx, path, data)
	case extPPT:
		return e.convertLegacy(ctx, path, data, extPPTX, presentationText)
	case extXLS:
		return e.convertLegacy(ctx, path, data, extXLSX, spreadsheetText)
	default:
		return "", errors.New("no extractor")
	}
}

// detectKind trusts the content signature over the extension for the
// formats it can recognise, so a renamed .docx or .pdf still extracts.
func detectKind(ext string, data []byte) string {
	switch detected := mimetype.Detect(data).Extension(); detected {
	case extDOCX, extPPTX, extXLSX, extPDF:
		return detected
	default:
		return ext
	}
}

// Summary collapses whitespace and cuts content to limit runes.
func Summary(content string, limit int) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if runes := []rune(collapsed); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return collapsed
}
