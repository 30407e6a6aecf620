package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// spreadsheetText prints every sheet under a header, one "a | b" line per
// row with values, or a placeholder for empty sheets.
func spreadsheetText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var out []string
	for _, sheet := range f.GetSheetList() {
		out = append(out, fmt.Sprintf("\n--- 工作表: %s ---\n", sheet))

		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheet, err)
		}

		empty := true
		for _, row := range rows {
			var values []string
			for _, v := range row {
				if v != "" {
					values = append(values, v)
				}
			}
			if len(values) > 0 {
				empty = false
				out = append(out, strings.Join(values, " | "))
			}
		}
		if empty {
			out = append(out, "(空工作表)")
		}
		out = append(out, "")
	}

	return strings.Join(out, "\n"), nil
}

// pdfText prints the plain text of every non-blank page under a header.
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var out []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, fmt.Sprintf("\n--- 第%d页 ---\n", i), text)
	}

	return strings.Join(out, "\n"), nil
}

// Decoders tried after UTF-8, in order. Latin-1 maps every byte and always
// succeeds.
var textDecoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gbk", simplifiedchinese.GBK},
	{"gb18030", simplifiedchinese.GB18030},
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)},
	{"latin-1", charmap.ISO8859_1},
}

// decodeText converts a text file in an unknown encoding to UTF-8.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}

	for _, d := range textDecoders {
		out, err := d.enc.NewDecoder().Bytes(data)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return strings.TrimPrefix(string(out), "\ufeff"), nil
	}

	return "", fmt.Errorf("unrecognised text encoding")
}

// looksLikeText reports whether data is free of NUL bytes and mostly
// printable, which binary office formats never are.
func looksLikeText(data []byte) bool {
	sample := data[:min(len(data), 4096)]
	if len(sample) == 0 || bytes.IndexByte(sample, 0) >= 0 {
		return false
	}

	good := 0
	for _, c := range sample {
		if c == '\n' || c == '\r' || c == '\t' || c >= 0x20 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}
