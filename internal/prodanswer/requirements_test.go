package prodanswer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestCreateRequirementValidation(t *testing.T) {
	client := New(nil, "http://127.0.0.1:0/api", nil)

	tests := []struct {
		name string
		in   *RequirementInput
		want string
	}{
		{name: "nil", in: nil, want: "requirement is required"},
		{name: "file type", in: &RequirementInput{RequirementType: RequirementTypeFile, RequirementText: "x"}, want: "use file upload endpoint"},
		{name: "unknown type", in: &RequirementInput{RequirementType: "voice", RequirementText: "x"}, want: "unknown requirement type"},
		{name: "empty text", in: &RequirementInput{RequirementText: "  "}, want: "cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateRequirement(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestCreateRequirementDefaultsToText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(data), `"requirement_type":"text"`) {
			t.Errorf("expected text type in body, got %s", data)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"r1","requirement_type":"text","status":"pending"}`)
	})

	in := &RequirementInput{RequirementText: "Support SSO"}
	requirement, err := client.CreateRequirement(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requirement.Done() {
		t.Fatalf("pending requirement must not be done")
	}
	if in.RequirementType != "" {
		t.Fatalf("input must not be modified, got %q", in.RequirementType)
	}
}

func TestUploadRequirement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/file-uploads/upload/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("created_by") != "alice" {
			t.Errorf("unexpected created_by %q", r.FormValue("created_by"))
		}
		if _, ok := r.MultipartForm.Value["title"]; ok {
			t.Errorf("expected empty title to be skipped")
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "req.csv" || string(data) != "a,b\n" {
			t.Errorf("unexpected file %q %q", header.Filename, data)
		}
		if header.Header.Get("Content-Type") != "text/csv" {
			t.Errorf("unexpected part content type %q", header.Header.Get("Content-Type"))
		}

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"status":"success","message":"ok","requirement":{"id":"r2","requirement_type":"file","status":"completed","items_count":2}}`)
	})

	upload := &Upload{Name: "req.csv", ContentType: "text/csv", Reader: strings.NewReader("a,b\n")}
	requirement, err := client.UploadRequirement(context.Background(), upload, "alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requirement.ID != "r2" || !requirement.Done() {
		t.Fatalf("unexpected requirement %#v", requirement)
	}

	if _, err := client.UploadRequirement(context.Background(), nil, "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without file, got %v", err)
	}
}

func TestUploadRequirementWithoutRequirement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success"}`)
	})

	upload := &Upload{Name: "req.docx", Reader: strings.NewReader("x")}
	if _, err := client.UploadRequirement(context.Background(), upload, "", ""); err == nil {
		t.Fatalf("expected error when backend returns no requirement")
	}
}

func TestSupportedFormats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"supported_formats":{"excel":{"extensions":[".xlsx",".xls"],"description":"Excel"}},"max_file_size":"10MB"}`)
	})

	formats, err := client.SupportedFormats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if formats.MaxFileSize != "10MB" || len(formats.Formats["excel"].Extensions) != 2 {
		t.Fatalf("unexpected formats %#v", formats)
	}
}
