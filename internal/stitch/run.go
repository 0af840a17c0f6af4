package stitch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bradhe/stopwatch"

	"github.com/novvoo/pdfstitch/internal/config"
	"github.com/novvoo/pdfstitch/internal/logging"
	"github.com/novvoo/pdfstitch/internal/report"
	"github.com/novvoo/pdfstitch/internal/validate"
)

// Run executes one stitching run: resolve inputs, add each file in order,
// write the output and summarize. The returned error is a *ConfigError
// (nothing was processed, the report is nil) or a *WriteError (the report
// still carries the statistics). Per-file failures are not errors.
func Run(cfg *config.Config, log *logging.Logger) (*report.Report, error) {
	watch := stopwatch.Start()

	paths, err := Resolve(Input{Files: cfg.Files, Dir: cfg.InputDir, Pattern: cfg.Pattern})
	if err != nil {
		log.Error("%v", err)
		return nil, err
	}
	switch {
	case len(cfg.Files) > 0:
		log.Info("Processing %d specified files...", len(paths))
	case cfg.InputDir != "":
		log.Info("Found %d PDF files in '%s'", len(paths), cfg.InputDir)
	default:
		log.Info("Found %d PDF files in current directory", len(paths))
	}

	if cfg.Verbose {
		log.Plain("")
		log.Plain("Files to process:")
		for i, p := range paths {
			log.Plain("  %d. %s", i+1, p)
		}
		log.Plain("")
	}

	asm := NewAssembler(Options{Label: cfg.Label})
	rep := &report.Report{Output: cfg.Output, Labels: cfg.Label}

	log.Info("Processing PDF files...")
	for i, p := range paths {
		res := asm.Add(p)
		progress := fmt.Sprintf("[%d/%d]", i+1, len(paths))
		if res.Status == Processed {
			suffix := ""
			if res.Labeled {
				suffix = " with source page"
			}
			log.Success("%s Added: %s (%d pages%s)", progress, filepath.Base(p), res.Pages, suffix)
			continue
		}

		reason := res.Err.Error()
		var docErr *DocumentError
		if errors.As(res.Err, &docErr) {
			reason = docErr.Reason()
			if docErr.Encrypted {
				log.Warn("%s '%s' is encrypted and will be skipped", progress, p)
			} else {
				log.Warn("%s Error processing '%s': %v", progress, p, docErr.Err)
			}
		}
		rep.FailedFiles = append(rep.FailedFiles, report.FailedFile{Path: p, Reason: reason})
	}

	log.Info("Saving stitched PDF as '%s'...", cfg.Output)
	n, werr := asm.Write(cfg.Output)

	stats := asm.Stats()
	rep.Processed = stats.Processed
	rep.Failed = stats.Failed
	rep.TotalPages = stats.TotalPages
	rep.ProcessedFiles = asm.Processed()

	if werr != nil {
		log.Error("Failed to save stitched PDF: %v", werr)
		rep.WriteError = werr.Error()
	} else {
		rep.Written = true
		rep.SetBytes(n)
		log.Success("Successfully created '%s'!", cfg.Output)

		if cfg.ValidateOutput {
			if err := validate.File(cfg.Output); err != nil {
				log.Warn("Validation failed: %v", err)
				rep.Validation = err.Error()
			} else {
				log.Success("Output passed validation")
				rep.Validation = "ok"
			}
		}
	}

	watch.Stop()
	rep.Elapsed = fmt.Sprintf("%v", watch.Milliseconds())

	for _, line := range rep.Lines() {
		log.Plain("%s", line)
	}
	log.Debug("Finished in %s ms", rep.Elapsed)

	if cfg.ReportFile != "" {
		if err := rep.Save(cfg.ReportFile); err != nil {
			log.Warn("Could not write report: %v", err)
		} else {
			log.Info("Report written to '%s'", cfg.ReportFile)
		}
	}

	return rep, werr
}
