package document

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Single sign-on </w:t></w:r><w:r><w:t>via SAML</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Audit log export</w:t></w:r></w:p>
    <w:p><w:r><w:t>Role based access</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeDOCX(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	entries := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"word/document.xml", documentXML},
	}
	for _, entry := range entries {
		part, err := w.Create(entry.name)
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		part.Write([]byte(entry.body))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestPreflightAcceptsCSV(t *testing.T) {
	path := writeFile(t, "Requirements.CSV", "id,requirement\n1,SSO\n2,Audit\n")

	file, err := Preflight(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Ext != ".csv" || file.Name != "Requirements.CSV" {
		t.Fatalf("unexpected file %+v", file)
	}
	if file.ContentType() != "text/csv" {
		t.Fatalf("unexpected content type %q", file.ContentType())
	}
}

func TestPreflightAcceptsDOCX(t *testing.T) {
	file, err := Preflight(writeDOCX(t, "rfp.docx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Format.Kind != "word" {
		t.Fatalf("expected word format, got %q", file.Format.Kind)
	}
}

func TestPreflightRejects(t *testing.T) {
	dir := t.TempDir()
	large := filepath.Join(dir, "large.csv")
	if err := os.WriteFile(large, []byte("a"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Truncate(large, MaxFileSize+1); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "pdf", path: writeFile(t, "rfp.pdf", "%PDF-1.4"), want: ErrUnsupported},
		{name: "empty", path: writeFile(t, "empty.csv", ""), want: ErrEmpty},
		{name: "too large", path: large, want: ErrTooLarge},
		{name: "text as xlsx", path: writeFile(t, "fake.xlsx", "just some text"), want: ErrMismatch},
		{name: "text as xls", path: writeFile(t, "fake.xls", "just some text"), want: ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Preflight(tt.path); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Preflight(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPreviewCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  []string
	}{
		{
			name:  "requirement column",
			input: "id,Requirement,priority\n1,SSO,high\n2,,low\n3,Audit log,mid\n",
			n:     5,
			want:  []string{"SSO", "2", "Audit log"},
		},
		{
			name:  "first non empty cell",
			input: "a,b\n,Backups\n , \nRestore,x\n",
			n:     5,
			want:  []string{"Backups", "Restore"},
		},
		{
			name:  "limited",
			input: "requirement\none\ntwo\nthree\n",
			n:     2,
			want:  []string{"one", "two"},
		},
		{
			name:  "empty",
			input: "",
			n:     2,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := previewCSV(strings.NewReader(tt.input), tt.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPreviewDOCX(t *testing.T) {
	file, err := Preflight(writeDOCX(t, "rfp.docx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines, err := Preview(file, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Single sign-on via SAML", "Audit log export"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, lines)
	}
}

func TestPreviewExcelUnsupported(t *testing.T) {
	file := &File{Format: formats[".xlsx"]}
	if _, err := Preview(file, 3); !errors.Is(err, ErrPreviewUnsupported) {
		t.Fatalf("expected ErrPreviewUnsupported, got %v", err)
	}
}
