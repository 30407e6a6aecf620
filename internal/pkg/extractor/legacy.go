package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	antiwordBin = "antiword"
	sofficeBin  = "soffice"
)

var errNoConverter = errors.New("no converter installed")

// legacyWordText handles binary .doc files: antiword first, then a
// LibreOffice conversion to .docx, then plain text for files that are .doc
// in name only.
func (e *Extractor) legacyWordText(ctx context.Context, path string, data []byte) (string, error) {
	if _, err := e.lookPath(antiwordBin); err == nil {
		out, err := e.run(ctx, antiwordBin, path)
		if err == nil && strings.TrimSpace(string(out)) != "" {
			return string(out), nil
		}
		ctxzap.Warn(ctx, "antiword failed", zap.Error(err))
	}

	return e.convertLegacy(ctx, path, data, extDOCX, openXMLDocumentText)
}

// convertLegacy converts a binary Office file with LibreOffice and extracts
// the result with read. Without LibreOffice it only accepts files that are
// really plain text.
func (e *Extractor) convertLegacy(
	ctx context.Context,
	path string,
	data []byte,
	target string,
	read func([]byte) (string, error),
) (string, error) {
	converted, err := e.convert(ctx, path, target)
	if err == nil {
		return read(converted)
	}
	ctxzap.Warn(ctx, "legacy office conversion failed", zap.String("target", target), zap.Error(err))

	if looksLikeText(data) {
		return decodeText(data)
	}
	return "", fmt.Errorf("convert to %s: %w", target, err)
}

func (e *Extractor) convert(ctx context.Context, path, target string) ([]byte, error) {
	if _, err := e.lookPath(sofficeBin); err != nil {
		return nil, errNoConverter
	}

	outDir, err := os.MkdirTemp("", "lessonplan-convert-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	format := strings.TrimPrefix(target, ".")
	if _, err := e.run(ctx, sofficeBin, "--headless", "--convert-to", format, "--outdir", outDir, path); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return os.ReadFile(filepath.Join(outDir, base+target))
}
