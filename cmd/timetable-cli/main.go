package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/repository"
	"github.com/noah-isme/eduscheduler-api/internal/scheduler"
	"github.com/noah-isme/eduscheduler-api/internal/service"
	"github.com/noah-isme/eduscheduler-api/pkg/config"
	"github.com/noah-isme/eduscheduler-api/pkg/logger"
)

type options struct {
	snapshot string
	out      string
	format   string
	title    string
	days     string
	periods  int
	start    string
	end      string
	slot     int
	seed     int64
	seedSet  bool
	strict   bool
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.snapshot, "snapshot", "", "path to a YAML or JSON entity snapshot (required)")
	flag.StringVar(&opts.out, "out", "", "output file; stdout when empty")
	flag.StringVar(&opts.format, "format", "csv", "output format: csv, pdf or json")
	flag.StringVar(&opts.title, "title", "", "timetable title")
	flag.StringVar(&opts.days, "days", "", "comma separated working days, e.g. mon,tue,wed")
	flag.IntVar(&opts.periods, "periods", 0, "periods per day")
	flag.StringVar(&opts.start, "start", "", "day start time (HH:MM)")
	flag.StringVar(&opts.end, "end", "", "day end time (HH:MM)")
	flag.IntVar(&opts.slot, "slot", 0, "slot length in minutes")
	flag.Int64Var(&opts.seed, "seed", 0, "shuffle seed; omitted draws one from the clock")
	flag.BoolVar(&opts.strict, "strict", false, "enforce time-band availability")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seedSet = true
		}
	})

	if opts.snapshot == "" {
		fmt.Fprintln(os.Stderr, "timetable-cli: -snapshot is required")
		flag.Usage()
		os.Exit(2)
	}

	logr, err := logger.New(&config.Config{
		Env: config.EnvDevelopment,
		Log: config.LogConfig{Level: opts.logLevel, Format: "console"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "timetable-cli: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	out := io.Writer(os.Stdout)
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			logr.Fatal("failed to create output file", zap.String("path", opts.out), zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	if err := run(context.Background(), opts, out, logr); err != nil {
		logr.Error("generation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer, logr *zap.Logger) error {
	snapshot, err := loadSnapshot(opts.snapshot)
	if err != nil {
		return err
	}

	stores := repository.NewMemoryRegistry(nil)
	if err := seedStore(ctx, stores, snapshot); err != nil {
		return err
	}

	sources := service.EntitySources{
		Faculty:    stores.Faculty,
		Subjects:   stores.Subjects,
		Classrooms: stores.Classrooms,
		Batches:    stores.Batches,
		Rules:      stores.Rules,
	}
	engine := scheduler.NewEngine(scheduler.EngineConfig{Logger: logger.Component(logr, "scheduler")})
	timetables := service.NewTimetableService(sources, stores.Timetables, engine, nil, nil, service.TimetableOptions{}, nil, logger.Component(logr, "timetables"))

	req := dto.GenerateTimetableRequest{
		Title:         opts.title,
		Days:          splitList(opts.days),
		PeriodsPerDay: opts.periods,
		StartTime:     opts.start,
		EndTime:       opts.end,
		SlotMinutes:   opts.slot,
	}
	if opts.seedSet {
		req.Seed = &opts.seed
	}
	if opts.strict {
		req.StrictAvailability = &opts.strict
	}

	timetable, err := timetables.Generate(ctx, req)
	if err != nil {
		return err
	}
	logr.Info("timetable generated",
		zap.String("id", timetable.ID),
		zap.Int("placed", timetable.PlacedCount()),
		zap.Int("unplaced", timetable.UnplacedCount),
		zap.Int("warnings", len(timetable.Warnings)),
	)

	if strings.EqualFold(opts.format, "json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(timetable)
	}

	exports := service.NewExportService(timetables, sources, repository.NewExportJobRepository(), nil, nil, nil, service.ExportConfig{}, logger.Component(logr, "exports"))
	file, err := exports.Render(ctx, timetable.ID, opts.format)
	if err != nil {
		return err
	}
	_, err = out.Write(file.Payload)
	return err
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
