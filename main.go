package main

import (
	"context"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/curbd/curbd/cities"
	"github.com/curbd/curbd/database"
	"github.com/curbd/curbd/export"
	"github.com/curbd/curbd/pipeline"
	"github.com/curbd/curbd/settings"
)

func main() {
	if err := settings.InitializeConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config := settings.GetConfig()

	if len(os.Args) < 2 {
		log.Fatalf("Usage: curbd <update|process|export|update-areas> [flags]")
	}
	command := os.Args[1]

	flags := pflag.NewFlagSet("curbd", pflag.ExitOnError)
	cityList := flags.StringSlice("city", cities.All(), "cities to work on")
	debug := flags.Bool("debug", false, "debug logging plus candidate slots kept for inspection")
	out := flags.String("out", "", "output file, stdout when empty")
	if err := flags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	pool, err := database.GetDBPool("curbd", config.Database)
	if err != nil {
		log.Fatalf("Failed to get database pool: %v", err)
	}
	defer database.CloseDBPools()

	ctx := context.Background()

	if command == "update" {
		update(ctx, pool)
	} else if command == "process" {
		process(ctx, pool, config, *cityList, *debug)
	} else if command == "export" {
		exportSlots(ctx, pool, *cityList, *out)
	} else if command == "update-areas" {
		updateAreas(ctx, pool, *out)
	} else {
		log.Fatalf("Unknown command")
	}
}

func update(ctx context.Context, pool *pgxpool.Pool) {
	if err := database.Setup(ctx, pool); err != nil {
		log.Fatalf("Failed to set up schema: %v", err)
	}
	log.Infof("Schema ready")
}

func process(ctx context.Context, pool *pgxpool.Pool, config settings.Config, cityList []string, debug bool) {
	p := pipeline.New(
		&pipeline.PGSource{Pool: pool, DataDir: config.DataDir},
		&pipeline.PGStore{Pool: pool},
	)
	summaries, err := p.Run(ctx, pipeline.Options{
		Cities: cityList,
		Offset: config.LineOffset,
		Debug:  debug,
	})
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
	total := 0
	for _, s := range summaries {
		total += s.Slots
	}
	log.Infof("Done: %d slots across %d cities", total, len(summaries))
}

func exportSlots(ctx context.Context, pool *pgxpool.Pool, cityList []string, out string) {
	w, closeFn := outputWriter(out)
	defer closeFn()
	for _, city := range cityList {
		if err := export.WriteCityGeoJSON(ctx, pool, city, w); err != nil {
			log.Fatalf("Failed to export %s: %v", city, err)
		}
	}
}

func updateAreas(ctx context.Context, pool *pgxpool.Pool, out string) {
	w, closeFn := outputWriter(out)
	defer closeFn()
	if err := export.WriteAreas(ctx, pool, w); err != nil {
		log.Fatalf("Failed to write service areas: %v", err)
	}
}

func outputWriter(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to open output file: %v", err)
	}
	return f, func() { f.Close() }
}
