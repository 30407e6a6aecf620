package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/extractor"
)

// Validator validates requests before they reach the usecases
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUpload validates a single reference document upload
func (v *Validator) ValidateUpload(fh *multipart.FileHeader) error {
	if fh == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	name := strings.TrimSpace(fh.Filename)
	if name == "" || SanitizeFilename(name) == "" {
		return fmt.Errorf("%w: empty file name", entity.ErrInvalidFile)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !extractor.IsSupported(ext) {
		return fmt.Errorf("%w: %s (allowed: %s)", entity.ErrInvalidExtension, ext, strings.Join(extractor.SupportedExtensions, ", "))
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, name, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		return ""
	}
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
		"..", "",
	)
	return replacer.Replace(filename)
}
