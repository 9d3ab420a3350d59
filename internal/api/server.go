package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/roomaudit/internal/ingest"
)

type Server struct {
	jobs     *ingest.DailyJobs
	port     string
	currency string

	// runMu serializes analyses; mu guards the cached result.
	runMu   sync.Mutex
	mu      sync.Mutex
	last    *ingest.Run
	lastRun time.Time
}

func NewServer(jobs *ingest.DailyJobs, port, currency string) *Server {
	return &Server{
		jobs:     jobs,
		port:     port,
		currency: currency,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/daily_summary/{room}", s.handleRoomSummaries)
	mux.HandleFunc("GET /api/daily_summary/{room}/{date}", s.handleRoomDaySummary)
	mux.HandleFunc("GET /api/daily_summary/dates/{room}", s.handleRoomDates)
	mux.HandleFunc("POST /api/run_analysis", s.handleRunAnalysis)
	mux.HandleFunc("GET /api/generate_report/{room}/{date}", s.handleGenerateReport)
	mux.HandleFunc("GET /api/export/summaries.xlsx", s.handleExportXLSX)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// run returns the cached analysis, computing it on first use or when refresh
// is set. Analyses run one at a time; readers of the cache never wait on them.
func (s *Server) run(ctx context.Context, refresh bool) (*ingest.Run, error) {
	if run, _ := s.cached(); run != nil && !refresh {
		return run, nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	if run, _ := s.cached(); run != nil && !refresh {
		return run, nil
	}

	run, err := s.jobs.ComputeDailySummaries(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.last = run
	s.lastRun = time.Now()
	s.mu.Unlock()
	return run, nil
}

func (s *Server) cached() (*ingest.Run, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastRun
}
