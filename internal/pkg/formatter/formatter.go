package formatter

import (
	"fmt"

	"github.com/futig/lessonplan-backend/internal/entity"
)

// Document is a titled sequence of plain-text sections.
type Document struct {
	Title    string
	Sections []Section
}

type Section struct {
	Heading string
	Body    string
}

type Formatter interface {
	Format(doc Document) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct {
	pdfFontPath string
}

// NewFactory returns a factory. pdfFontPath points at a TTF font with CJK
// glyphs; when empty the PDF formatter looks in its default locations.
func NewFactory(pdfFontPath string) *Factory {
	return &Factory{pdfFontPath: pdfFontPath}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(f.pdfFontPath), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
