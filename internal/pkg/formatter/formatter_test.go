package formatter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/futig/lessonplan-backend/internal/entity"
)

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(Document{
		Title: "焊接5步法",
		Sections: []Section{
			{Heading: "教学目标", Body: "1. 知识目标：掌握"},
			{Heading: "课外作业", Body: "预习"},
		},
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	want := "# 焊接5步法\n\n## 教学目标\n\n1. 知识目标：掌握\n\n## 课外作业\n\n预习\n"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestPDFFormatterWithoutFont(t *testing.T) {
	f := NewPDFFormatter(filepath.Join(t.TempDir(), "missing.ttf"))
	if path := f.resolveFontPath(); path != "" {
		t.Skipf("a default font is installed at %s", path)
	}

	if _, err := f.Format(Document{Title: "x"}); !errors.Is(err, ErrFontUnavailable) {
		t.Fatalf("expected ErrFontUnavailable, got %v", err)
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory("")

	for format, ext := range map[entity.ResultFormat]string{
		entity.FormatMarkdown: ".md",
		entity.FormatPDF:      ".pdf",
	} {
		f, err := factory.Create(format)
		if err != nil {
			t.Fatalf("Create(%s): %v", format, err)
		}
		if f.FileExtension() != ext {
			t.Fatalf("%s extension = %q", format, f.FileExtension())
		}
	}

	if _, err := factory.Create("docx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
