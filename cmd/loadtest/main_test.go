package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
	"github.com/vladislavdragonenkov/lessonshop/internal/service/httpapi"
	"github.com/vladislavdragonenkov/lessonshop/internal/service/shop"
	"github.com/vladislavdragonenkov/lessonshop/internal/storage/memory"
)

func newShopServer(t *testing.T) (*httptest.Server, *memory.Storage) {
	t.Helper()

	logger := log.New()
	logger.SetOutput(io.Discard)
	entry := logger.WithField("component", "loadtest-test")

	storage := memory.NewStorage()
	if _, err := storage.Lessons().SeedIfEmpty(context.Background(), domain.SampleLessons()); err != nil {
		t.Fatalf("seed lessons: %v", err)
	}

	svc := shop.NewService(storage, entry)
	api := httpapi.NewHandler(svc, t.TempDir(), entry)
	srv := httptest.NewServer(api.Routes(nil))
	t.Cleanup(srv.Close)
	return srv, storage
}

func testConfig(baseURL string, mode loadMode) config {
	return config{
		baseURL:     baseURL,
		total:       1,
		concurrency: 1,
		timeout:     2 * time.Second,
		mode:        mode,
		query:       "class",
		customerTag: "test",
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    loadMode
		wantErr string
	}{
		{name: "browse", input: "browse", want: modeBrowse},
		{name: "order", input: "order", want: modeOrder},
		{name: "browse order with spaces", input: " browse-order ", want: modeBrowseOrder},
		{name: "unsupported", input: "pay", wantErr: "unsupported mode"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseMode(tc.input)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected mode: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseConfig(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.baseURL != "http://localhost:3000" {
			t.Fatalf("unexpected base url: %s", cfg.baseURL)
		}
		if cfg.mode != modeBrowseOrder || cfg.total != 400 || cfg.concurrency != 20 {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.totalSet {
			t.Fatalf("expected totalSet=false without -total")
		}
	})

	t.Run("count mode", func(t *testing.T) {
		cfg, err := parseConfig([]string{
			"-url", "http://127.0.0.1:8080/",
			"-total", "7",
			"-concurrency", "3",
			"-timeout", "1500ms",
			"-mode", "order",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.totalSet {
			t.Fatalf("expected totalSet=true")
		}
		if cfg.baseURL != "http://127.0.0.1:8080" {
			t.Fatalf("trailing slash must be trimmed, got %s", cfg.baseURL)
		}
		if cfg.mode != modeOrder || cfg.total != 7 || cfg.concurrency != 3 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.timeout != 1500*time.Millisecond {
			t.Fatalf("unexpected timeout: %s", cfg.timeout)
		}
	})

	t.Run("duration mode", func(t *testing.T) {
		cfg, err := parseConfig([]string{"-duration", "2s"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.duration != 2*time.Second {
			t.Fatalf("unexpected duration: %s", cfg.duration)
		}
		if cfg.totalSet {
			t.Fatalf("expected totalSet=false when -total was not provided")
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name    string
			args    []string
			wantErr string
		}{
			{name: "bad mode", args: []string{"-mode", "refund"}, wantErr: "unsupported mode"},
			{name: "bad url", args: []string{"-url", "not a url"}, wantErr: "invalid url"},
			{name: "negative duration", args: []string{"-duration", "-1s"}, wantErr: "duration must be >= 0"},
			{name: "zero total", args: []string{"-total", "0"}, wantErr: "total must be > 0"},
			{name: "zero total with duration", args: []string{"-duration", "1s", "-total", "0"}, wantErr: "explicitly set"},
			{name: "zero concurrency", args: []string{"-concurrency", "0"}, wantErr: "concurrency must be > 0"},
			{name: "zero timeout", args: []string{"-timeout", "0s"}, wantErr: "timeout must be > 0"},
			{name: "blank customer tag", args: []string{"-customer-tag", " "}, wantErr: "customer-tag is required"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := parseConfig(tc.args)
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
			})
		}
	})
}

func TestDispatchJobs(t *testing.T) {
	t.Run("count mode", func(t *testing.T) {
		jobs := make(chan int, 10)
		dispatchJobs(jobs, config{total: 4})

		var got []int
		for id := range jobs {
			got = append(got, id)
		}
		if !slices.Equal(got, []int{0, 1, 2, 3}) {
			t.Fatalf("unexpected jobs sequence: %v", got)
		}
	})

	t.Run("duration mode", func(t *testing.T) {
		jobs := make(chan int)
		done := make(chan int)
		go func() {
			count := 0
			for range jobs {
				count++
			}
			done <- count
		}()

		dispatchJobs(jobs, config{duration: 30 * time.Millisecond})
		if count := <-done; count == 0 {
			t.Fatalf("expected non-zero jobs for duration mode")
		}
	})

	t.Run("duration with explicit max total", func(t *testing.T) {
		jobs := make(chan int, 10)
		dispatchJobs(jobs, config{duration: time.Minute, total: 3, totalSet: true})

		count := 0
		for range jobs {
			count++
		}
		if count != 3 {
			t.Fatalf("expected 3 jobs, got %d", count)
		}
	})
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioName, 10*time.Millisecond, 0, true)
	col.record(scenarioName, 30*time.Millisecond, 0, false)
	col.record("POST /orders", 5*time.Millisecond, http.StatusCreated, true)
	col.record("POST /orders", 7*time.Millisecond, http.StatusBadRequest, false)
	col.record("POST /orders", 9*time.Millisecond, 0, false)

	r := col.buildReport(time.Now(), time.Second)
	if r.TotalScenarios != 2 || r.SuccessScenarios != 1 || r.FailedScenarios != 1 {
		t.Fatalf("unexpected report totals: %+v", r)
	}
	if r.ErrorRate != 0.5 {
		t.Fatalf("unexpected error rate: %f", r.ErrorRate)
	}
	if r.RPS != 2 {
		t.Fatalf("unexpected rps: %f", r.RPS)
	}

	orders, ok := r.Routes["POST /orders"]
	if !ok {
		t.Fatalf("POST /orders stats missing from report")
	}
	if orders.Calls != 3 || orders.Failed != 2 {
		t.Fatalf("unexpected route stats: %+v", orders)
	}
	want := map[string]int64{"201": 1, "400": 1, "transport_error": 1}
	for code, count := range want {
		if orders.Statuses[code] != count {
			t.Fatalf("unexpected statuses: %+v", orders.Statuses)
		}
	}
}

func TestUtilityFunctions(t *testing.T) {
	if got := ratio(1, 4); got != 0.25 {
		t.Fatalf("ratio mismatch: %f", got)
	}
	if got := ratio(1, 0); got != 0 {
		t.Fatalf("ratio with zero total must be 0, got %f", got)
	}

	summary := buildLatencySummary([]float64{4, 1, 3, 2})
	if summary.Min != 1 || summary.Max != 4 || summary.Avg != 2.5 {
		t.Fatalf("unexpected latency summary: %+v", summary)
	}
	if p := percentile([]float64{1, 2, 3, 4, 5}, 50); p != 3 {
		t.Fatalf("unexpected percentile: %f", p)
	}
	if empty := buildLatencySummary(nil); empty != (latencySummary{}) {
		t.Fatalf("expected zero summary for no samples, got %+v", empty)
	}

	if got := routeOf("/search?q=class"); got != "/search" {
		t.Fatalf("query must be stripped from route, got %s", got)
	}

	if got := runTarget(config{total: 5}); got != "count:5" {
		t.Fatalf("unexpected run target: %s", got)
	}
	if got := runTarget(config{duration: time.Minute}); got != "duration:1m0s" {
		t.Fatalf("unexpected duration run target: %s", got)
	}
	if got := runTarget(config{duration: time.Minute, total: 9, totalSet: true}); got != "duration:1m0s,max-total:9" {
		t.Fatalf("unexpected capped duration run target: %s", got)
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	input := report{TotalScenarios: 3, SuccessScenarios: 3, Routes: map[string]routeReport{}}
	if err := writeJSONReport("report.json", input); err != nil {
		t.Fatalf("writeJSONReport error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 3 || decoded.SuccessScenarios != 3 {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}

	if err := writeJSONReport("../escape.json", input); err == nil {
		t.Fatalf("expected error for path outside current directory")
	}
	if err := writeJSONReport(".", input); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

func TestRunScenarioAgainstShopAPI(t *testing.T) {
	srv, storage := newShopServer(t)
	client := srv.Client()

	t.Run("browse does not create orders", func(t *testing.T) {
		col := newCollector()
		if err := runScenario(client, testConfig(srv.URL, modeBrowse), 0, "run", col); err != nil {
			t.Fatalf("runScenario failed: %v", err)
		}
		r := col.buildReport(time.Now(), time.Second)
		if _, ok := r.Routes["GET /search"]; !ok {
			t.Fatalf("GET /search stats missing: %+v", r.Routes)
		}
		if _, ok := r.Routes["POST /orders"]; ok {
			t.Fatalf("browse mode must not place orders")
		}
		count, err := storage.Orders().Count(context.Background())
		if err != nil {
			t.Fatalf("count orders: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected no orders, got %d", count)
		}
	})

	t.Run("order skips search", func(t *testing.T) {
		col := newCollector()
		if err := runScenario(client, testConfig(srv.URL, modeOrder), 1, "run", col); err != nil {
			t.Fatalf("runScenario failed: %v", err)
		}
		r := col.buildReport(time.Now(), time.Second)
		if _, ok := r.Routes["GET /search"]; ok {
			t.Fatalf("order mode must not search")
		}
		if r.Routes["POST /orders"].Statuses["201"] != 1 {
			t.Fatalf("expected one created order: %+v", r.Routes["POST /orders"])
		}
	})
}

func TestRunLoadCountsEveryScenario(t *testing.T) {
	srv, storage := newShopServer(t)

	cfg := testConfig(srv.URL, modeBrowseOrder)
	cfg.total = 12
	cfg.concurrency = 4

	result := runLoad(srv.Client(), cfg)
	if result.TotalScenarios != 12 || result.FailedScenarios != 0 {
		t.Fatalf("unexpected totals: %+v", result)
	}
	if result.Routes["GET /lessons"].Calls != 12 {
		t.Fatalf("unexpected GET /lessons calls: %+v", result.Routes["GET /lessons"])
	}

	count, err := storage.Orders().Count(context.Background())
	if err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 12 {
		t.Fatalf("expected 12 stored orders, got %d", count)
	}
}

func TestRunScenarioReportsUnexpectedStatus(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	col := newCollector()
	err := runScenario(srv.Client(), testConfig(srv.URL, modeBrowseOrder), 0, "run", col)
	if err == nil || !strings.Contains(err.Error(), "unexpected status 500") {
		t.Fatalf("expected unexpected status error, got %v", err)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatalf("scenario must stop after the first failure, hits=%d", hits)
	}

	r := col.buildReport(time.Now(), time.Second)
	if r.FailedScenarios != 1 {
		t.Fatalf("expected failed scenario, got %+v", r)
	}
	if r.Routes["GET /lessons"].Statuses["500"] != 1 {
		t.Fatalf("unexpected statuses: %+v", r.Routes["GET /lessons"].Statuses)
	}
}
