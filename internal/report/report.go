// Package report holds the summary of a stitching run and writes it as YAML.
package report

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// FailedFile is an input that was skipped, with the reason shown to the user.
type FailedFile struct {
	Path   string `yaml:"path"`
	Reason string `yaml:"reason"`
}

// Report is the outcome of one run.
type Report struct {
	Output         string       `yaml:"output"`
	Written        bool         `yaml:"written"`
	Bytes          int64        `yaml:"bytes"`
	Size           string       `yaml:"size,omitempty"`
	Labels         bool         `yaml:"labels"`
	Processed      int          `yaml:"processed"`
	Failed         int          `yaml:"failed"`
	TotalPages     int          `yaml:"total_pages"`
	ProcessedFiles []string     `yaml:"processed_files"`
	FailedFiles    []FailedFile `yaml:"failed_files,omitempty"`
	Validation     string       `yaml:"validation,omitempty"`
	Elapsed        string       `yaml:"elapsed_ms"`
	WriteError     string       `yaml:"write_error,omitempty"`
}

// SetBytes records the output size and its human readable form.
func (r *Report) SetBytes(n int64) {
	r.Bytes = n
	if n > 0 {
		r.Size = humanize.Bytes(uint64(n))
	}
}

// Lines renders the end-of-run statistics block.
func (r *Report) Lines() []string {
	lines := []string{
		"Statistics:",
		fmt.Sprintf("   • Files processed: %d", r.Processed),
		fmt.Sprintf("   • Files failed: %d", r.Failed),
		fmt.Sprintf("   • Total pages: %d", r.TotalPages),
	}
	if r.Written && r.Size != "" {
		lines = append(lines, fmt.Sprintf("   • Output size: %s", r.Size))
	}
	if len(r.FailedFiles) > 0 {
		lines = append(lines, "", fmt.Sprintf("%d files failed to process:", len(r.FailedFiles)))
		for _, f := range r.FailedFiles {
			lines = append(lines, fmt.Sprintf("   • %s (%s)", f.Path, f.Reason))
		}
	}
	return lines
}

// Save writes the report to path as YAML.
func (r *Report) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
