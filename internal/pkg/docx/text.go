package docx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
)

// ExtractText returns the body paragraphs of a .docx followed by its tables,
// one "cell | cell" line per non-empty row.
func ExtractText(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	var lines []string
	if body := doc.X().Body; body != nil {
		for _, ble := range body.EG_BlockLevelElts {
			for _, block := range ble.EG_ContentBlockContent {
				for _, p := range block.P {
					if text := paragraphText(p); strings.TrimSpace(text) != "" {
						lines = append(lines, text)
					}
				}
			}
		}
	}

	for i, t := range doc.Tables() {
		lines = append(lines, fmt.Sprintf("\n--- 表格 %d ---", i+1))
		for _, row := range t.Rows() {
			var cells []string
			for _, c := range row.Cells() {
				if text := strings.TrimSpace(wordCell{c: c}.Text()); text != "" {
					cells = append(cells, text)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
