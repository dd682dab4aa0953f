package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/router"

	"github.com/spf13/cobra"
)

const matchResultBody = `{
  "requirement_id": "9",
  "results": {
    "matched": [{"id":"m1","requirement_item":"i1","requirement_item_text":"single sign-on","feature":"f1","feature_name":"SSO","product_name":"Gateway","similarity_score":0.91,"match_status":"matched","rank":1}],
    "partial_matched": [{"id":"p1","requirement_item":"i2","requirement_item_text":"directory sync","feature":"f2","feature_name":"LDAP bridge","product_name":"Directory","similarity_score":0.66,"match_status":"partial_matched","rank":1}],
    "unmatched": []
  },
  "statistics": {"total_items":2,"total_matches":2,"matched":1,"partial_matched":1,"unmatched":0,"avg_similarity":0.785,"max_similarity":0.91,"min_similarity":0.66}
}`

func TestPrinterTable(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out, format: outputTable}

	tbl := newTable("Products: 2", "ID", "NAME")
	tbl.add("1", "Gateway\n  Pro")
	tbl.add("22", "")

	if err := p.render(nil, tbl, newTable("Empty", "ID")); err != nil {
		t.Fatalf("render() failed: %v", err)
	}

	want := [][]string{
		{"Products:", "2"},
		{"ID", "NAME"},
		{"1", "Gateway", "Pro"},
		{"22", "-"},
		{"Empty"},
		{"ID"},
		{"(none)"},
	}

	var got [][]string
	for _, line := range strings.Split(out.String(), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			got = append(got, fields)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected table output:\n%s", out.String())
	}

	lines := strings.Split(out.String(), "\n")
	if strings.Index(lines[1], "NAME") != strings.Index(lines[2], "Gateway") {
		t.Fatalf("expected aligned columns:\n%s", out.String())
	}
}

func TestPrinterJSON(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out, format: outputJSON}

	if err := p.render(map[string]int{"count": 2}, newTable("ignored", "ID")); err != nil {
		t.Fatalf("render() failed: %v", err)
	}
	if out.String() != "{\n  \"count\": 2\n}\n" {
		t.Fatalf("unexpected json output %q", out.String())
	}
}

func TestCellText(t *testing.T) {
	long := strings.Repeat("x", maxCellLength+10)
	if got := cellText(long); got != strings.Repeat("x", maxCellLength)+"..." {
		t.Fatalf("expected truncated cell, got %q", got)
	}
	if got := cellText("  a \t b  "); got != "a b" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

func TestOpenRedirectsToDashboard(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/":
			writeJSON(w, http.StatusOK, `{"count":12,"results":[{"id":"1","name":"Gateway"}]}`)
		case "/api/v1/requirements/":
			writeJSON(w, http.StatusOK, `{"count":1,"results":[{"id":"9","title":"Bank RFP","status":"completed"}]}`)
		case "/api/v1/service/default_provider/":
			writeJSON(w, http.StatusNotFound, `{"error":"no default provider"}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	if err := open(context.Background(), &cobra.Command{}, a, "/"); err != nil {
		t.Fatalf("open() failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Dashboard - ProdAnswer", "Products", "12", "Bank RFP", "Recent analyses"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestOpenProductDetail(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/7/":
			writeJSON(w, http.StatusOK, `{"id":"7","name":"Gateway","vendor":"Acme","is_active":true}`)
		case "/api/v1/products/7/features/":
			writeJSON(w, http.StatusOK, `{"product_id":"7","features_count":1,"features":[{"id":"f1","feature_name":"SSO","feature_code":"GW-1"}]}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	if err := open(context.Background(), &cobra.Command{}, a, "/products/7"); err != nil {
		t.Fatalf("open() failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Product Detail - ProdAnswer", "Acme", "Features: 1", "GW-1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if current := a.products.Current(); current == nil || current.ID != "7" {
		t.Fatalf("expected product 7 to be current, got %+v", current)
	}
}

func TestOpenUnknownRoute(t *testing.T) {
	a, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	err := open(context.Background(), &cobra.Command{}, a, "/nowhere")
	if !errors.Is(err, router.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEveryRouteHasView(t *testing.T) {
	v := views()
	for _, route := range router.DefaultRoutes() {
		if route.Redirect != "" {
			continue
		}
		if _, ok := v[route.Name]; !ok {
			t.Fatalf("route %s has no view", route.Name)
		}
	}
}

func TestShowResultsFiltersRecords(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/matching/results/9/" {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, matchResultBody)
	})

	cmd := &cobra.Command{}
	cmd.Flags().StringSlice("status", nil, "")
	cmd.Flags().Bool("filters", false, "")
	cmd.Flags().Set("status", "matched")
	cmd.Flags().Set("filters", "true")

	if err := showResults(context.Background(), cmd, a, "9"); err != nil {
		t.Fatalf("showResults() failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "SSO") {
		t.Fatalf("expected matched record in output:\n%s", got)
	}
	if strings.Contains(got, "LDAP bridge") {
		t.Fatalf("expected partial match to be filtered out:\n%s", got)
	}
	if !strings.Contains(got, "ai is disabled") {
		t.Fatalf("expected filters table with disabled ai review:\n%s", got)
	}

	// The store keeps the unfiltered result.
	if n := a.matching.MatchResults().Len(); n != 2 {
		t.Fatalf("expected 2 records in store, got %d", n)
	}
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	var body map[string]any
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/matching/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		writeJSON(w, http.StatusOK, `{"status":"success","summary":{"requirement_id":"9","total_items":2,"matched":1,"partial_matched":1,"unmatched":0,"processing_time":1.5}}`)
	})
	a.out.format = outputJSON

	ctx := context.Background()
	if err := analyze(ctx, &cobra.Command{}, a, "9"); err != nil {
		t.Fatalf("analyze() failed: %v", err)
	}

	if body["threshold"] != 0.75 || body["limit"] != float64(5) {
		t.Fatalf("expected configured defaults in request, got %v", body)
	}

	var response prodanswer.AnalyzeResponse
	if err := json.Unmarshal(out.Bytes(), &response); err != nil {
		t.Fatalf("expected json output: %v", err)
	}
	if response.RequirementID != "9" || response.ProcessingTime != 1.5 {
		t.Fatalf("unexpected response %+v", response)
	}

	history, err := a.local.History(ctx, "9", 0)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(history) != 1 || history[0].Matched != 1 || history[0].Threshold == nil || *history[0].Threshold != 0.75 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestExportWritesReport(t *testing.T) {
	a, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/matching/export/9/" {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="../report.xlsx"`)
		w.Write([]byte("PK-data"))
	})

	name := filepath.Join(t.TempDir(), "out.xlsx")
	cmd := &cobra.Command{}
	cmd.Flags().String("format", prodanswer.ExportExcel, "")
	cmd.Flags().Bool("include-unmatched", true, "")
	cmd.Flags().String("file", "", "")
	cmd.Flags().Set("file", name)

	if err := export(context.Background(), cmd, a, "9"); err != nil {
		t.Fatalf("export() failed: %v", err)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if string(data) != "PK-data" {
		t.Fatalf("unexpected report content %q", data)
	}
}

func TestExportName(t *testing.T) {
	if got := exportName(&prodanswer.Export{Filename: "../../etc/report.xlsx"}, "9", prodanswer.ExportExcel); got != "report.xlsx" {
		t.Fatalf("expected base name of suggested file, got %q", got)
	}

	for _, suggested := range []string{"", "..", "/", "../.."} {
		got := exportName(&prodanswer.Export{Filename: suggested}, "9", prodanswer.ExportPDF)
		if !strings.HasPrefix(got, "match_results_9_") || !strings.HasSuffix(got, ".pdf") {
			t.Fatalf("unexpected name %q for suggested %q", got, suggested)
		}
	}
}

func TestAnalyzeResolvesProductNames(t *testing.T) {
	var body map[string]any
	a, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/":
			writeJSON(w, http.StatusOK, `{"count":2,"next":null,"results":[{"id":"7","name":"Gateway"},{"id":"8","name":"Directory"}]}`)
		case "/api/v1/matching/":
			data, _ := io.ReadAll(r.Body)
			json.Unmarshal(data, &body)
			writeJSON(w, http.StatusOK, `{"status":"success","summary":{"requirement_id":"9","total_items":1,"matched":1}}`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	cmd := &cobra.Command{}
	cmd.Flags().StringSlice("product", nil, "")
	cmd.Flags().Set("product", "gateway,42")

	if err := analyze(context.Background(), cmd, a, "9"); err != nil {
		t.Fatalf("analyze() failed: %v", err)
	}

	ids, _ := body["product_ids"].([]any)
	if len(ids) != 2 || ids[0] != "7" || ids[1] != "42" {
		t.Fatalf("expected names resolved to ids, got %v", body["product_ids"])
	}
}
