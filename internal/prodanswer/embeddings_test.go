package prodanswer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestListConfigsAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare list", body: ` [{"id":"c1","model_name":"all-MiniLM","is_default":true},{"id":"c2","model_name":"ada"}]`},
		{name: "page", body: `{"count":2,"results":[{"id":"c1","model_name":"all-MiniLM","is_default":true},{"id":"c2","model_name":"ada"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})

			page, err := client.ListConfigs(context.Background(), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.Count != 2 || page.Len() != 2 {
				t.Fatalf("expected 2 configs, got count=%d len=%d", page.Count, page.Len())
			}
			if !page.Results[0].IsDefault {
				t.Fatalf("expected first config to be default")
			}
		})
	}
}

func TestCreateConfigValidation(t *testing.T) {
	client := New(nil, "http://127.0.0.1:0/api", nil)

	tests := []struct {
		name string
		in   *EmbeddingConfigInput
	}{
		{name: "nil", in: nil},
		{name: "no model", in: &EmbeddingConfigInput{ModelType: "openai"}},
		{name: "unknown type", in: &EmbeddingConfigInput{ModelName: "m", ModelType: "quantum"}},
		{name: "negative dimension", in: &EmbeddingConfigInput{ModelName: "m", Dimension: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.CreateConfig(context.Background(), tt.in); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestTestConnectionFailureKeepsReport(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ConnectionTest
	}{
		{
			name:   "bad request with error",
			status: http.StatusBadRequest,
			body:   `{"status":"failed","is_connected":false,"error":"invalid api key"}`,
			want:   ConnectionTest{Status: "failed", Error: "invalid api key"},
		},
		{
			name:   "bad request without error",
			status: http.StatusBadRequest,
			body:   `{"status":"failed","is_connected":false}`,
			want:   ConnectionTest{Status: "failed"},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"status":"error","is_connected":false,"error":"dial tcp: refused"}`,
			want:   ConnectionTest{Status: "error", Error: "dial tcp: refused"},
		},
		{
			name:   "not a report",
			status: http.StatusInternalServerError,
			body:   `{"detail":"provider crashed"}`,
			want:   ConnectionTest{Status: "failed", Error: "provider crashed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/configs/c1/test_connection/" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			report, err := client.TestConnection(context.Background(), "c1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Fatalf("expected api error with status %d, got %v", tt.status, err)
			}
			if report == nil || report.Status != tt.want.Status || report.IsConnected || report.Error != tt.want.Error {
				t.Fatalf("unexpected report %#v, want %#v", report, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(data), `"texts":["hello"]`) {
			t.Errorf("unexpected body %s", data)
		}
		io.WriteString(w, `{"status":"success","count":1,"dimension":3,"embeddings":[[0.1,0.2,0.3]]}`)
	})

	if _, err := client.Encode(context.Background(), &EncodeRequest{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without texts, got %v", err)
	}

	response, err := client.Encode(context.Background(), &EncodeRequest{Texts: []string{"hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Dimension != 3 || len(response.Embeddings[0]) != 3 {
		t.Fatalf("unexpected response %#v", response)
	}
}

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		wantErr    error
	}{
		{name: "no constraint", version: "", constraint: ""},
		{name: "satisfied", version: "1.2.0", constraint: ">=1.0.0, <2.0.0"},
		{name: "v prefix", version: "v1.0.3", constraint: "~1.0"},
		{name: "too new", version: "2.1.0", constraint: "<2.0.0", wantErr: ErrIncompatible},
		{name: "missing version", version: "", constraint: ">=1.0.0", wantErr: ErrIncompatible},
		{name: "garbage version", version: "latest", constraint: ">=1.0.0", wantErr: ErrIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(&ServiceInfo{Version: tt.version}, tt.constraint)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := CheckCompatibility(&ServiceInfo{Version: "1.0.0"}, "not a constraint"); err == nil || errors.Is(err, ErrIncompatible) {
		t.Fatalf("expected constraint parse error, got %v", err)
	}
}
