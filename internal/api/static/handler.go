package static

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/futig/lessonplan-backend/internal/pkg/response"
)

const indexFile = "index.html"

// Handler serves the web client from dir. Unknown paths outside /api get
// index.html so client-side routes survive a reload.
func Handler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			response.Error(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			response.Error(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
			return
		}

		name := path.Clean("/" + r.URL.Path)
		if name != "/" {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
			if err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		index := filepath.Join(dir, indexFile)
		if _, err := os.Stat(index); err != nil {
			response.Error(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
			return
		}
		http.ServeFile(w, r, index)
	}
}
