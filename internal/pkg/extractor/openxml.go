package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// openXMLDocumentText reads word/document.xml directly, one line per
// paragraph. Used when the docx engine cannot load the file.
func openXMLDocumentText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	f := findZipFile(zr, "word/document.xml")
	if f == nil {
		return "", errors.New("word/document.xml not found")
	}

	part, err := readZipFile(f)
	if err != nil {
		return "", err
	}

	return strings.Join(xmlLines(part), "\n"), nil
}

// presentationText walks the slides in order and prints each slide's
// distinct text lines under a page header.
func presentationText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		name, ok := strings.CutPrefix(f.Name, "ppt/slides/slide")
		if !ok {
			continue
		}
		name, ok = strings.CutSuffix(name, ".xml")
		if !ok {
			continue
		}
		if num, err := strconv.Atoi(name); err == nil {
			slides = append(slides, slide{num: num, file: f})
		}
	}
	if len(slides) == 0 {
		return "", errors.New("no slides found")
	}
	slices.SortFunc(slides, func(a, b slide) int { return a.num - b.num })

	var out []string
	for i, s := range slides {
		part, err := readZipFile(s.file)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}

		out = append(out, fmt.Sprintf("\n--- 第%d页 ---\n", i+1))
		seen := make(map[string]bool)
		for _, line := range xmlLines(part) {
			if seen[line] {
				continue
			}
			seen[line] = true
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n"), nil
}

// xmlLines collects the text of WordprocessingML and DrawingML markup:
// every paragraph outside a table becomes a line, every table row becomes
// one "cell | cell" line.
func xmlLines(part []byte) []string {
	var (
		lines  []string
		para   strings.Builder
		cell   strings.Builder
		row    []string
		inCell bool
	)

	dec := xml.NewDecoder(bytes.NewReader(part))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				row = row[:0]
			case "tc":
				inCell = true
				cell.Reset()
			case "p":
				para.Reset()
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &t); err == nil {
					para.WriteString(v)
				}
			case "br":
				para.WriteByte('\n')
			case "tab":
				para.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				if inCell {
					if cell.Len() > 0 {
						cell.WriteByte('\n')
					}
					cell.WriteString(text)
				} else {
					lines = append(lines, text)
				}
			case "tc":
				inCell = false
				if text := strings.TrimSpace(cell.String()); text != "" {
					row = append(row, text)
				}
			case "tr":
				if len(row) > 0 {
					lines = append(lines, strings.Join(row, " | "))
				}
			}
		}
	}

	return lines
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
