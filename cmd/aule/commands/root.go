package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"classeviva-tools/internal/components/chrono"
	"classeviva-tools/internal/components/telemetry"
	"classeviva-tools/internal/timetable"
	"classeviva-tools/lib/configutil"

	"github.com/spf13/cobra"
)

type Config struct {
	// Timetable is the json grid, imported from Source when missing.
	Timetable string `json:"timetable"`
	Source    string `json:"source"`
	DPI       int    `json:"dpi"`
	Pdftoppm  string `json:"pdftoppm"`
	Tesseract string `json:"tesseract"`
	Language  string `json:"language"`

	Telemetry telemetry.Config `json:"telemetry"`
}

var (
	verbose       *bool
	configName    *string
	timetablePath *string
	sourcePath    *string

	cfg   Config
	tel   telemetry.API
	clock chrono.API
	otelT telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "aule",
	Short: "aule finds free rooms and where a class or teacher is, from the school's room timetable.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otelT.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug reports.")
	configName = rootCmd.PersistentFlags().String("config", "aule.json5", "The config file, searched from the working directory upwards.")
	timetablePath = rootCmd.PersistentFlags().String("timetable", "", "The timetable grid (default \"timetable.json\").")
	sourcePath = rootCmd.PersistentFlags().String("source", "", "The pdf to import when the timetable grid is missing.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig(name string) (Config, error) {
	out, err := configutil.ReadRecursively[Config](name)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	if out.Timetable == "" {
		out.Timetable = "timetable.json"
	}
	if out.DPI <= 0 {
		out.DPI = timetable.DefaultGeometry().DPI
	}
	return out, nil
}

func setup(ctx context.Context) error {
	telemetry.InitSlog(*verbose)

	var err error
	cfg, err = readConfig(*configName)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if *timetablePath != "" {
		cfg.Timetable = *timetablePath
	}
	if *sourcePath != "" {
		cfg.Source = *sourcePath
	}

	otelT, err = telemetry.Setup(ctx, "aule", cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	tel, err = telemetry.NewMeteredAPI(telemetry.SlogAPI{})
	if err != nil {
		return err
	}
	clock, err = chrono.NewStandardImpl()
	return err
}

func newImporter() timetable.Importer {
	importer := timetable.NewImporter(
		timetable.PdftoppmRasterizer{Binary: cfg.Pdftoppm},
		timetable.TesseractOCR{Binary: cfg.Tesseract, Language: cfg.Language},
		tel,
	)
	importer.Geometry.DPI = cfg.DPI
	return importer
}

// loadGrid reads the timetable grid, importing it from the configured
// source the first time.
func loadGrid(ctx context.Context) (timetable.Grid, error) {
	grid, imported, err := timetable.LoadOrImport(ctx, cfg.Timetable, func(ctx context.Context) (timetable.Grid, error) {
		if cfg.Source == "" {
			return nil, fmt.Errorf("no timetable at %s, import one with `aule import <pdf>` or pass --source", cfg.Timetable)
		}
		return newImporter().Import(ctx, cfg.Source)
	})
	if err != nil {
		return nil, err
	}
	if imported {
		slog.Info("imported timetable", "source", cfg.Source, "rooms", len(grid), "saved", cfg.Timetable)
	}
	return grid, nil
}
