package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// noTools pretends neither antiword nor LibreOffice is installed.
func noTools() *Extractor {
	e := New()
	e.lookPath = func(name string) (string, error) { return "", errors.New("not found") }
	return e
}

func TestDecodeText(t *testing.T) {
	gbk, _ := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("焊接工艺要点"))
	utf16, _ := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("电烙铁"))

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf-8", []byte("课题：焊接"), "课题：焊接"},
		{"utf-8 bom", []byte("\xef\xbb\xbf课题"), "课题"},
		{"gbk", gbk, "焊接工艺要点"},
		{"utf-16 bom", utf16, "电烙铁"},
		{"latin-1", []byte("caf\xe9!"), "café!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.data)
			if err != nil {
				t.Fatalf("decodeText: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("第一行\n第二行"))

	got, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "第一行\n第二行" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractRejectsUnsupportedAndEmpty(t *testing.T) {
	_, err := New().Extract(context.Background(), writeFile(t, "tool.exe", []byte("MZ")))
	if !errors.Is(err, entity.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	_, err = New().Extract(context.Background(), writeFile(t, "empty.txt", nil))
	if !errors.Is(err, entity.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}

	_, err = New().Extract(context.Background(), writeFile(t, "blank.txt", []byte(" \n\t ")))
	if !errors.Is(err, entity.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed for blank text, got %v", err)
	}
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>焊接5步法</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">  </w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>步骤</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>要点</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>加热</w:t></w:r></w:p></w:tc><w:tc><w:p/></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>安全</w:t></w:r><w:r><w:br/><w:t>第一</w:t></w:r></w:p>
</w:body></w:document>`

func TestOpenXMLDocumentText(t *testing.T) {
	got, err := openXMLDocumentText(zipOf(t, map[string]string{"word/document.xml": documentXML}))
	if err != nil {
		t.Fatalf("openXMLDocumentText: %v", err)
	}

	want := "焊接5步法\n步骤 | 要点\n加热\n安全\n第一"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractDocxFallsBackToOpenXML(t *testing.T) {
	path := writeFile(t, "lesson.docx", zipOf(t, map[string]string{"word/document.xml": documentXML}))

	got, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "焊接5步法") {
		t.Fatalf("paragraph text missing: %q", got)
	}
}

func slideXML(texts ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>`)
	for _, text := range texts {
		b.WriteString(`<p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp>`)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func TestPresentationText(t *testing.T) {
	data := zipOf(t, map[string]string{
		"ppt/slides/slide10.xml":          slideXML("第十页"),
		"ppt/slides/slide2.xml":           slideXML("工具", "工具", "材料"),
		"ppt/slides/slide1.xml":           slideXML("封面"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	got, err := presentationText(data)
	if err != nil {
		t.Fatalf("presentationText: %v", err)
	}

	want := "\n--- 第1页 ---\n\n封面\n\n--- 第2页 ---\n\n工具\n材料\n\n--- 第3页 ---\n\n第十页"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSpreadsheetText(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "A1", "周次")
	f.SetCellValue("Sheet1", "B1", "课题")
	f.SetCellValue("Sheet1", "A2", 1)
	f.SetCellValue("Sheet1", "C2", "焊接")
	if _, err := f.NewSheet("空表"); err != nil {
		t.Fatal(err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	got, err := spreadsheetText(buf.Bytes())
	if err != nil {
		t.Fatalf("spreadsheetText: %v", err)
	}

	want := "\n--- 工作表: Sheet1 ---\n\n周次 | 课题\n1 | 焊接\n\n\n--- 工作表: 空表 ---\n\n(空工作表)\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractPDFByContentSignature(t *testing.T) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, "Soldering")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatal(err)
	}

	// A PDF uploaded under a .txt name is still read as a PDF.
	got, err := New().Extract(context.Background(), writeFile(t, "renamed.txt", buf.Bytes()))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "--- 第1页 ---") || !strings.Contains(got, "Soldering") {
		t.Fatalf("unexpected pdf text %q", got)
	}
}

func TestLegacyWordUsesAntiword(t *testing.T) {
	e := New()
	e.lookPath = func(name string) (string, error) {
		if name == antiwordBin {
			return "/usr/bin/antiword", nil
		}
		return "", errors.New("not found")
	}
	var gotArgs []string
	e.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("antiword text"), nil
	}

	path := writeFile(t, "old.doc", []byte("\xd0\xcf\x11\xe0\x00\x00binary"))
	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "antiword text" || len(gotArgs) != 2 || gotArgs[1] != path {
		t.Fatalf("got %q via %v", got, gotArgs)
	}
}

func TestLegacyWithoutConvertersAcceptsPlainText(t *testing.T) {
	got, err := noTools().Extract(context.Background(), writeFile(t, "slides.ppt", []byte("really just text")))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "really just text" {
		t.Fatalf("got %q", got)
	}

	_, err = noTools().Extract(context.Background(), writeFile(t, "sheet.xls", []byte("\xd0\xcf\x11\xe0\x00\x00\x01\x02")))
	if !errors.Is(err, entity.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed for binary without converter, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	if got := Summary("  a \n\n b\tc  ", 500); got != "a b c" {
		t.Fatalf("got %q", got)
	}

	long := strings.Repeat("焊", 501)
	if got := Summary(long, 500); got != strings.Repeat("焊", 500)+"..." {
		t.Fatalf("summary not cut at 500 runes: %d runes", len([]rune(got)))
	}
}
