package download

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/lessonplan-backend/internal/pkg/logger"
	"github.com/futig/lessonplan-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const msgFileNotFound = "文件不存在"

// Handler serves generated lesson plans from the output directory.
type Handler struct {
	outputDir string
}

func NewHandler(outputDir string) *Handler {
	return &Handler{outputDir: outputDir}
}

// Download handles GET /download/{filename} - Generated file as an attachment
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	ctx := logger.AddFields(r.Context(),
		zap.String("filename", name),
		zap.String("action", "Download"),
	)

	path, ok := h.resolve(name)
	if !ok {
		ctxzap.Warn(ctx, "rejected download path")
		response.Error(w, http.StatusNotFound, msgFileNotFound)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ctxzap.Error(ctx, "failed to open generated file", zap.Error(err))
		}
		response.Error(w, http.StatusNotFound, msgFileNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		response.Error(w, http.StatusNotFound, msgFileNotFound)
		return
	}

	w.Header().Set("Content-Disposition", contentDisposition(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// resolve maps a file name to a path inside the output directory. Names
// with separators never resolve, nor does a bare "." or "..".
func (h *Handler) resolve(name string) (string, bool) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}

	root, err := filepath.Abs(h.outputDir)
	if err != nil {
		return "", false
	}
	path := filepath.Join(root, name)
	if filepath.Dir(path) != root {
		return "", false
	}
	return path, true
}

func contentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' {
			return '_'
		}
		return r
	}, name)
	return `attachment; filename="` + fallback + `"; filename*=UTF-8''` + url.PathEscape(name)
}
