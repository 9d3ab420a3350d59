package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lox/roomaudit/internal/api"
	"github.com/lox/roomaudit/internal/engine"
	"github.com/lox/roomaudit/internal/ingest"
	"github.com/lox/roomaudit/internal/models"
	"github.com/lox/roomaudit/internal/report"
)

type fakeSource struct {
	loads atomic.Int32
	err   error
}

func (f *fakeSource) Load(context.Context) (*ingest.Dataset, error) {
	f.loads.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	ds := &ingest.Dataset{
		Rooms: []models.Room{{RoomID: "101", RoomType: "Bedroom", Width: 4, Length: 5, Height: 2.5}},
	}
	for d := 0; d < 3; d++ {
		start := time.Date(2025, 4, 26+d, 0, 0, 0, 0, time.UTC)
		for _, room := range []string{"101", "999"} {
			for i := 0; i < 8; i++ {
				ds.Readings = append(ds.Readings, models.Reading{
					RoomID:    room,
					RoomType:  "Bedroom",
					Timestamp: start.Add(time.Duration(i) * engine.SamplingInterval),
					Temp:      sql.NullFloat64{Float64: 24, Valid: true},
					Energy:    sql.NullFloat64{Float64: 10 + 0.5*float64(i), Valid: true},
					Light:     sql.NullFloat64{Float64: 250, Valid: true},
					Occupied:  sql.NullBool{Bool: i < 4, Valid: true},
				})
			}
		}
	}
	return ds, nil
}

func newServer(t *testing.T) (*api.Server, *fakeSource) {
	t.Helper()
	src := &fakeSource{}
	jobs := ingest.NewDailyJobs(src, engine.New(engine.Options{}))
	return api.NewServer(jobs, "8080", report.DefaultCurrency), src
}

func serve(srv *api.Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	srv, src := newServer(t)

	w := serve(srv, "GET", "/health")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if src.loads.Load() != 0 {
		t.Error("health should not load the source")
	}
}

func TestRoomSummaries(t *testing.T) {
	t.Parallel()
	srv, src := newServer(t)

	w := serve(srv, "GET", "/api/daily_summary/101")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var records []report.SummaryRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(records))
	}
	if records[0].Date != "2025-04-28" || records[2].Date != "2025-04-26" {
		t.Errorf("expected newest first, got %s..%s", records[0].Date, records[2].Date)
	}
	if records[0].DailyEnergyKWh != 3.5 {
		t.Errorf("expected 3.5 kWh, got %v", records[0].DailyEnergyKWh)
	}

	w = serve(srv, "GET", "/api/daily_summary/101?limit=2")
	records = nil
	json.Unmarshal(w.Body.Bytes(), &records)
	if len(records) != 2 {
		t.Errorf("expected limit of 2, got %d", len(records))
	}

	if src.loads.Load() != 1 {
		t.Errorf("expected cached analysis, source loaded %d times", src.loads.Load())
	}
}

func TestRoomSummariesBadLimit(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	if w := serve(srv, "GET", "/api/daily_summary/101?limit=zero"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRoomDaySummary(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	tests := []struct {
		target string
		code   int
	}{
		{"/api/daily_summary/101/2025-04-27", 200},
		{"/api/daily_summary/101/2025-05-01", 404},
		{"/api/daily_summary/999/2025-04-27", 404},
		{"/api/daily_summary/101/yesterday", 400},
	}
	for _, tt := range tests {
		if w := serve(srv, "GET", tt.target); w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.code, w.Code)
		}
	}
}

func TestRoomDates(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	w := serve(srv, "GET", "/api/daily_summary/dates/101")
	var dates []string
	if err := json.Unmarshal(w.Body.Bytes(), &dates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(dates, ",") != "2025-04-28,2025-04-27,2025-04-26" {
		t.Errorf("unexpected dates %v", dates)
	}

	w = serve(srv, "GET", "/api/daily_summary/dates/404")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}
}

func TestRunAnalysis(t *testing.T) {
	t.Parallel()
	srv, src := newServer(t)

	serve(srv, "GET", "/api/rooms")
	w := serve(srv, "POST", "/api/run_analysis")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result api.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Readings != 48 || result.Summaries != 3 || len(result.Diagnostics) != 3 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Diagnostics[0].Room != "999" {
		t.Errorf("expected diagnostics for room 999, got %+v", result.Diagnostics[0])
	}
	if src.loads.Load() != 2 {
		t.Errorf("run_analysis should reload, source loaded %d times", src.loads.Load())
	}

	if w := serve(srv, "GET", "/api/run_analysis"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func TestRunAnalysisSourceError(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("backend down")}
	srv := api.NewServer(ingest.NewDailyJobs(src, engine.New(engine.Options{})), "8080", "SAR")

	w := serve(srv, "POST", "/api/run_analysis")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "backend down") {
		t.Errorf("expected error in body, got %s", w.Body.String())
	}
}

func TestGenerateReport(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	w := serve(srv, "GET", "/api/generate_report/101/2025-04-28")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Error("expected a PDF document")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "audit_101_2025-04-28.pdf") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	if w := serve(srv, "GET", "/api/generate_report/101/2024-01-01"); w.Code != 404 {
		t.Errorf("expected 404 for a day without readings, got %d", w.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	w := serve(srv, "GET", "/api/export/summaries.xlsx")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Error("expected a zip container")
	}
}

func TestRooms(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	w := serve(srv, "GET", "/api/rooms")
	var rooms []api.RoomRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rooms) != 1 || rooms[0].VolumeM3 != 50 {
		t.Errorf("unexpected rooms %+v", rooms)
	}
}

type blockingSource struct {
	fakeSource
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSource) Load(ctx context.Context) (*ingest.Dataset, error) {
	close(b.entered)
	<-b.release
	return b.fakeSource.Load(ctx)
}

func TestHealthDuringAnalysis(t *testing.T) {
	t.Parallel()
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	srv := api.NewServer(ingest.NewDailyJobs(src, engine.New(engine.Options{})), "8080", "SAR")

	analysis := make(chan int, 1)
	go func() { analysis <- serve(srv, "POST", "/api/run_analysis").Code }()
	<-src.entered

	health := make(chan int, 1)
	go func() { health <- serve(srv, "GET", "/health").Code }()
	select {
	case code := <-health:
		if code != 200 {
			t.Errorf("expected 200 from health, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Error("health blocked while an analysis was running")
	}

	close(src.release)
	if code := <-analysis; code != 200 {
		t.Errorf("expected 200 from run_analysis, got %d", code)
	}
}
