package document

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
)

var ErrPreviewUnsupported = errors.New("preview is not supported for this format")

// Column names that hold the requirement text, in order of preference.
var requirementColumns = []string{
	"requirement", "requirement_text", "feature", "capability",
	"description", "text", "content", "name", "title",
}

// Preview returns up to n requirement lines the backend would extract from the file.
func Preview(f *File, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	switch f.Format.Kind {
	case "csv":
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return previewCSV(file, n)
	case "word":
		return previewDOCX(f.Path, n)
	default:
		return nil, fmt.Errorf("%w: %s", ErrPreviewUnsupported, f.Format.Description)
	}
}

func previewCSV(r io.Reader, n int) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	preferred := -1
	for _, name := range requirementColumns {
		for i, column := range header {
			if strings.EqualFold(strings.TrimSpace(column), name) {
				preferred = i
				break
			}
		}
		if preferred >= 0 {
			break
		}
	}

	lines := []string{}
	for len(lines) < n {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		if text := requirementCell(record, preferred); text != "" {
			lines = append(lines, text)
		}
	}

	return lines, nil
}

func requirementCell(record []string, preferred int) string {
	if preferred >= 0 && preferred < len(record) {
		if text := strings.TrimSpace(record[preferred]); text != "" {
			return text
		}
	}
	for _, cell := range record {
		if text := strings.TrimSpace(cell); text != "" {
			return text
		}
	}
	return ""
}

func previewDOCX(path string, n int) ([]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx: %w", err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != "word/document.xml" {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document.xml: %w", err)
		}
		defer rc.Close()

		return paragraphs(rc, n)
	}

	return nil, fmt.Errorf("word/document.xml is missing in %s", path)
}

func paragraphs(r io.Reader, n int) ([]string, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parsing document.xml: %w", err)
	}

	lines := []string{}
	for _, p := range doc.FindElements("//w:body/w:p") {
		var b strings.Builder
		for _, t := range p.FindElements(".//w:t") {
			b.WriteString(t.Text())
		}

		if text := strings.TrimSpace(b.String()); text != "" {
			lines = append(lines, text)
			if len(lines) == n {
				break
			}
		}
	}

	return lines, nil
}
