package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/roomaudit/internal/api"
	"github.com/lox/roomaudit/internal/catalog"
	"github.com/lox/roomaudit/internal/engine"
	"github.com/lox/roomaudit/internal/ingest"
	"github.com/lox/roomaudit/internal/metrics"
	"github.com/lox/roomaudit/internal/report"
	"github.com/lox/roomaudit/internal/store"
)

// SourceFlags select where readings and rooms come from. Exactly one source
// must be given.
type SourceFlags struct {
	CSVDir       string `name:"csv-dir" help:"directory containing readings.csv and rooms.csv" env:"ROOMAUDIT_CSV_DIR" type:"existingdir"`
	ReadingsJSON string `name:"readings-json" help:"JSON array of readings" env:"ROOMAUDIT_READINGS_JSON" type:"existingfile"`
	RoomsJSON    string `name:"rooms-json" help:"JSON array of rooms" env:"ROOMAUDIT_ROOMS_JSON" type:"existingfile"`
	BackendURL   string `name:"backend-url" help:"base URL of a readings backend" env:"ROOMAUDIT_BACKEND_URL"`
	PageSize     int    `name:"page-size" help:"readings per backend request" default:"500" env:"ROOMAUDIT_PAGE_SIZE"`
	DB           string `name:"db" help:"path to a SQLite database with rooms and readings tables" env:"ROOMAUDIT_DB"`
	Room         string `name:"db-room" help:"only load readings for this room from the database"`
}

// EngineFlags configure aggregation.
type EngineFlags struct {
	Goal       *float64 `name:"goal" help:"fixed daily goal in kWh for every room (default: volume x room type baseline)" env:"ROOMAUDIT_GOAL"`
	Catalog    string   `name:"catalog" help:"YAML file overriding the room type catalog" env:"ROOMAUDIT_CATALOG" type:"existingfile"`
	Rate       float64  `name:"rate" help:"cost per kWh for daily summaries" default:"0.30" env:"ROOMAUDIT_RATE"`
	RateByType bool     `name:"rate-by-type" help:"price daily summaries with per room type rates instead of --rate"`
	Workers    int      `name:"workers" help:"concurrent room-day workers (default: GOMAXPROCS)" env:"ROOMAUDIT_WORKERS"`
	TZ         string   `name:"tz" help:"time zone deciding calendar days and zoneless timestamps" default:"UTC" env:"ROOMAUDIT_TZ"`
}

func (f EngineFlags) location() (*time.Location, error) {
	loc, err := time.LoadLocation(f.TZ)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", f.TZ, err)
	}
	return loc, nil
}

func (f EngineFlags) engine(loc *time.Location) (*engine.Engine, error) {
	cat := catalog.Default()
	if f.Catalog != "" {
		loaded, err := catalog.Load(f.Catalog)
		if err != nil {
			return nil, err
		}
		cat = loaded
		log.Printf("loaded room type catalog from %s", f.Catalog)
	}

	var pricer catalog.Pricer = catalog.FixedRate(f.Rate)
	if f.RateByType {
		pricer = catalog.RoomTypeRates{Catalog: cat}
	}

	return engine.New(engine.Options{
		Catalog:      cat,
		Pricer:       pricer,
		GoalOverride: f.Goal,
		Location:     loc,
		Workers:      f.Workers,
	}), nil
}

// open returns the configured source and a function releasing it.
func (f SourceFlags) open(ctx context.Context, loc *time.Location) (ingest.Source, func(), error) {
	noop := func() {}
	set := 0
	for _, given := range []bool{f.CSVDir != "", f.ReadingsJSON != "" || f.RoomsJSON != "", f.BackendURL != "", f.DB != ""} {
		if given {
			set++
		}
	}
	if set != 1 {
		return nil, noop, errors.New("exactly one of --csv-dir, --readings-json/--rooms-json, --backend-url or --db is required")
	}

	switch {
	case f.CSVDir != "":
		return ingest.CSVDir{Dir: f.CSVDir, Location: loc}, noop, nil
	case f.ReadingsJSON != "" || f.RoomsJSON != "":
		if f.ReadingsJSON == "" || f.RoomsJSON == "" {
			return nil, noop, errors.New("--readings-json and --rooms-json must be given together")
		}
		return ingest.JSONFiles{ReadingsPath: f.ReadingsJSON, RoomsPath: f.RoomsJSON, Location: loc}, noop, nil
	case f.BackendURL != "":
		return ingest.NewBackend(f.BackendURL, f.PageSize, loc), noop, nil
	default:
		db, err := store.Open(ctx, f.DB)
		if err != nil {
			return nil, noop, err
		}
		return ingest.SQLite{Store: store.New(db, loc), Room: f.Room}, func() { db.Close() }, nil
	}
}

type JobsFlags struct {
	SourceFlags `embed:""`
	EngineFlags `embed:""`
}

func (f JobsFlags) jobs(ctx context.Context) (*ingest.DailyJobs, func(), error) {
	loc, err := f.location()
	if err != nil {
		return nil, nil, err
	}
	e, err := f.engine(loc)
	if err != nil {
		return nil, nil, err
	}
	src, closeFn, err := f.open(ctx, loc)
	if err != nil {
		return nil, nil, err
	}
	return ingest.NewDailyJobs(src, e), closeFn, nil
}

type SummarizeCmd struct {
	JobsFlags `embed:""`

	OutJSON     string `name:"out-json" help:"write summaries as JSON to this file (- for stdout)" default:"-"`
	OutXLSX     string `name:"out-xlsx" help:"also write summaries and flag details to this workbook"`
	MetricsFile string `name:"metrics-file" help:"write Prometheus metrics to this textfile after the run" env:"ROOMAUDIT_METRICS_FILE"`
}

func (c *SummarizeCmd) Run(ctx context.Context) error {
	jobs, closeFn, err := c.jobs(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	run, err := jobs.ComputeDailySummaries(ctx)
	if err != nil {
		return err
	}

	if err := writeOutput(c.OutJSON, func(w io.Writer) error {
		return report.WriteJSON(w, run.Result.Summaries)
	}); err != nil {
		return err
	}

	if c.OutXLSX != "" {
		data, err := report.BuildSummaryXLSX(run.Result.Summaries, jobs.Engine().Catalog())
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.OutXLSX, data, 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		log.Printf("wrote %s", c.OutXLSX)
	}

	if c.MetricsFile != "" {
		if err := metrics.WriteTextfile(c.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

// writeOutput writes to path, or stdout when path is "-".
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	log.Printf("wrote %s", path)
	return f.Close()
}

type AuditCmd struct {
	JobsFlags `embed:""`

	OutPDF   string `name:"out-pdf" help:"write the audit report to this PDF" default:"audit_report.pdf"`
	Room     string `name:"room" help:"only report this room"`
	Date     string `name:"date" help:"only report this date (YYYY-MM-DD)"`
	Currency string `name:"currency" help:"currency shown next to costs" default:"SAR" env:"ROOMAUDIT_CURRENCY"`
}

func (c *AuditCmd) Run(ctx context.Context) error {
	if c.Date != "" {
		if _, err := time.Parse(time.DateOnly, c.Date); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	jobs, closeFn, err := c.jobs(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	audits, err := jobs.Audit(ctx, c.Room, c.Date)
	if err != nil {
		return err
	}
	data, err := report.BuildAuditPDF(audits, c.Currency)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.OutPDF, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Printf("wrote %s with %d room-days", c.OutPDF, len(audits))
	return nil
}

type ServeCmd struct {
	JobsFlags `embed:""`

	Port     string `name:"port" help:"HTTP server port" default:"8080" env:"PORT"`
	Currency string `name:"currency" help:"currency shown next to costs in reports" default:"SAR" env:"ROOMAUDIT_CURRENCY"`
}

func (c *ServeCmd) Run(ctx context.Context) error {
	jobs, closeFn, err := c.jobs(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	server := api.NewServer(jobs, c.Port, c.Currency)
	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `name:"env-file" help:"dotenv file to load before resolving environment variables" optional:""`

	Summarize SummarizeCmd `cmd:"" help:"compute daily summaries with compliance and anomaly flags"`
	Audit     AuditCmd     `cmd:"" help:"render the room-by-room audit report as PDF"`
	Serve     ServeCmd     `cmd:"" help:"serve summaries and reports over HTTP"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("roomaudit"),
		kong.Description("Daily energy and comfort audits for room sensor telemetry."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := kctx.Run(); err != nil {
		log.Fatalf("%s: %v", kctx.Command(), err)
	}
}
