package formatter

import (
	"bytes"
	"errors"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "LessonPlanSans"

	// In Docker runtime fonts are copied to /app/ttf next to the binary.
	pdfFontRuntimePath = "ttf/NotoSansSC-Regular.ttf"

	// Source-relative path (useful when running from repo root with `go run`).
	pdfFontSourcePath = "internal/pkg/formatter/ttf/NotoSansSC-Regular.ttf"
)

// ErrFontUnavailable is returned when no font able to render Chinese text
// can be found. The core PDF fonts only cover Latin-1.
var ErrFontUnavailable = errors.New("pdf export needs a CJK TTF font")

type PDFFormatter struct {
	fontPath string
}

func NewPDFFormatter(fontPath string) *PDFFormatter {
	return &PDFFormatter{fontPath: fontPath}
}

// resolveFontPath tries the configured font, then the runtime layout
// (next to the binary), then the source layout.
func (mf *PDFFormatter) resolveFontPath() string {
	for _, path := range []string{mf.fontPath, pdfFontRuntimePath, pdfFontSourcePath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (mf *PDFFormatter) Format(doc Document) ([]byte, error) {
	fontPath := mf.resolveFontPath()
	if fontPath == "" {
		return nil, ErrFontUnavailable
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Register regular and bold styles under the same family name
	pdf.AddUTF8Font(pdfFontName, "", fontPath)
	pdf.AddUTF8Font(pdfFontName, "B", fontPath)
	pdf.AddPage()

	pdf.SetFont(pdfFontName, "B", 18)
	pdf.MultiCell(0, 10, doc.Title, "", "C", false)
	pdf.Ln(4)

	for _, s := range doc.Sections {
		pdf.SetFont(pdfFontName, "B", 13)
		pdf.MultiCell(0, 8, s.Heading, "", "", false)

		pdf.SetFont(pdfFontName, "", 11)
		_, lineHeight := pdf.GetFontSize()
		pdf.MultiCell(0, lineHeight*1.5, s.Body, "", "", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
