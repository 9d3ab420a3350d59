package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/lox/roomaudit/internal/audit"
	"github.com/lox/roomaudit/internal/ingest"
	"github.com/lox/roomaudit/internal/models"
	"github.com/lox/roomaudit/internal/report"
)

const defaultSummaryLimit = 7

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type HealthStatus struct {
	Status    string     `json:"status"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	Summaries int        `json:"summaries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok"}
	if run, at := s.cached(); run != nil {
		health.LastRun = &at
		health.Summaries = len(run.Result.Summaries)
	}
	writeJSON(w, http.StatusOK, health)
}

type RoomRecord struct {
	Room     string  `json:"room"`
	RoomType string  `json:"room_type"`
	Width    float64 `json:"width"`
	Length   float64 `json:"length"`
	Height   float64 `json:"height"`
	VolumeM3 float64 `json:"volume_m3"`
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	run, err := s.run(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rooms := make([]RoomRecord, 0, len(run.Dataset.Rooms))
	for _, room := range run.Dataset.Rooms {
		rooms = append(rooms, RoomRecord{
			Room:     room.RoomID,
			RoomType: room.RoomType,
			Width:    room.Width,
			Length:   room.Length,
			Height:   room.Height,
			VolumeM3: room.Volume(),
		})
	}
	writeJSON(w, http.StatusOK, rooms)
}

// summariesFor returns room's summaries, newest first.
func summariesFor(run *ingest.Run, room string) []models.DailySummary {
	var out []models.DailySummary
	for _, s := range run.Result.Summaries {
		if s.RoomID == room {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (s *Server) handleRoomSummaries(w http.ResponseWriter, r *http.Request) {
	limit := defaultSummaryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	run, err := s.run(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaries := summariesFor(run, r.PathValue("room"))
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	writeJSON(w, http.StatusOK, report.Records(summaries))
}

func (s *Server) handleRoomDaySummary(w http.ResponseWriter, r *http.Request) {
	room, date := r.PathValue("room"), r.PathValue("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	run, err := s.run(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, summary := range summariesFor(run, room) {
		if summary.Date == date {
			writeJSON(w, http.StatusOK, report.Record(summary))
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("no summary for room %s on %s", room, date))
}

func (s *Server) handleRoomDates(w http.ResponseWriter, r *http.Request) {
	run, err := s.run(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dates := []string{}
	for _, summary := range summariesFor(run, r.PathValue("room")) {
		dates = append(dates, summary.Date)
	}
	writeJSON(w, http.StatusOK, dates)
}

type DiagnosticRecord struct {
	Room  string `json:"room"`
	Date  string `json:"date"`
	Error string `json:"error"`
}

type AnalysisResult struct {
	Readings     int                `json:"readings"`
	Rooms        int                `json:"rooms"`
	Rejected     int                `json:"rejected"`
	Summaries    int                `json:"summaries"`
	Unrecognized int                `json:"unrecognized_room_types"`
	Diagnostics  []DiagnosticRecord `json:"diagnostics"`
}

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	run, err := s.run(r.Context(), true)
	if err != nil {
		log.Printf("api: analysis failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := AnalysisResult{
		Readings:     len(run.Dataset.Readings),
		Rooms:        len(run.Dataset.Rooms),
		Rejected:     len(run.Dataset.Diagnostics),
		Summaries:    len(run.Result.Summaries),
		Unrecognized: run.Result.Unrecognized,
		Diagnostics:  []DiagnosticRecord{},
	}
	for _, d := range run.Result.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, DiagnosticRecord{Room: d.RoomID, Date: d.Date, Error: d.Err.Error()})
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	room, date := r.PathValue("room"), r.PathValue("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	run, err := s.run(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	audits := audit.Filter(audit.New(s.jobs.Engine()).Run(run.Dataset.Readings, run.Dataset.Rooms), room, date)
	if len(audits) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no readings for room %s on %s", room, date))
		return
	}

	pdf, err := report.BuildAuditPDF(audits, s.currency)
	if err != nil {
		log.Printf("api: build report for %s %s: %v", room, date, err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"audit_%s_%s.pdf\"", room, date))
	w.Write(pdf)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	run, err := s.run(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := report.BuildSummaryXLSX(run.Result.Summaries, s.jobs.Engine().Catalog())
	if err != nil {
		log.Printf("api: build workbook: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="daily_summaries.xlsx"`)
	w.Write(data)
}
