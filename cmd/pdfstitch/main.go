// pdfstitch - merge PDF files, optionally preceded by a source label page
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/novvoo/pdfstitch/internal/config"
	"github.com/novvoo/pdfstitch/internal/logging"
	"github.com/novvoo/pdfstitch/internal/stitch"
)

const version = "0.1.0"

func init() {
	// -v is --verbose here.
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	app := newApp(run)
	if err := app.Run(os.Args); err != nil {
		if !logged(err) {
			fmt.Fprintf(os.Stderr, "pdfstitch: %v\n", err)
		}
		os.Exit(1)
	}
}

// logged reports whether stitch.Run already printed err through the logger.
func logged(err error) bool {
	var cfgErr *stitch.ConfigError
	var writeErr *stitch.WriteError
	return errors.As(err, &cfgErr) || errors.As(err, &writeErr)
}

func newApp(action func(cfg *config.Config) error) *cli.App {
	return &cli.App{
		Name:      "pdfstitch",
		Usage:     "stitch PDF files into one document",
		UsageText: "pdfstitch [-i dir | -f a.pdf -f b.pdf] [-o output.pdf] [options]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input-dir", Aliases: []string{"i"}, Usage: "directory to scan for PDF files"},
			&cli.StringSliceFlag{Name: "files", Aliases: []string{"f"}, Usage: "explicit PDF files in merge order (overrides --input-dir)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: config.DefaultOutput, Usage: "output PDF path"},
			&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Value: config.DefaultPattern, Usage: "glob pattern used with --input-dir"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "list files and print debug output"},
			&cli.BoolFlag{Name: "no-source", Aliases: []string{"no_source"}, Usage: "do not insert a source label page before each file"},
			&cli.BoolFlag{Name: "validate", Usage: "validate the written PDF"},
			&cli.StringFlag{Name: "report", Usage: "write a YAML run report to this path"},
			&cli.StringFlag{Name: "log", Usage: "append log output to this file"},
			&cli.StringFlag{Name: "color", Value: string(config.ColorAuto), Usage: "color output: auto, always or never"},
		},
		HideHelpCommand: true,

		// File names may contain commas.
		DisableSliceFlagSeparator: true,

		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return fmt.Errorf("unexpected arguments: %v (use --files)", c.Args().Slice())
			}
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			return action(cfg)
		},
	}
}

func configFromFlags(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	cfg.InputDir = c.String("input-dir")
	if files := c.StringSlice("files"); len(files) > 0 {
		cfg.Files = files
	}
	cfg.Output = c.String("output")
	cfg.Pattern = c.String("pattern")
	cfg.Verbose = c.Bool("verbose")
	cfg.Label = !c.Bool("no-source")
	cfg.ValidateOutput = c.Bool("validate")
	cfg.ReportFile = c.String("report")
	cfg.LogFile = c.String("log")
	cfg.ColorMode = config.ColorMode(c.String("color"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func run(cfg *config.Config) error {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Plain("PDF Stitcher")
	log.Plain("============")
	if cfg.Label {
		log.Plain("Mode: source label pages enabled")
	} else {
		log.Plain("Mode: source label pages disabled")
	}
	log.Plain("")

	_, err = stitch.Run(cfg, log)
	var cfgErr *stitch.ConfigError
	if errors.As(err, &cfgErr) {
		log.Plain("")
		log.Plain("Use --input-dir or --files to choose PDF files.")
	}
	return err
}
