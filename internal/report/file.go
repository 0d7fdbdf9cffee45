package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/resilience"
)

// FileSink writes the report to Path. When Path is an existing directory or
// ends in a separator, the file is named after the suite id. The write goes
// through a temporary file and a rename so readers never see a partial
// report.
type FileSink struct {
	Path   string
	Format benchmark.Format
}

func NewFileSink(path string, format benchmark.Format) *FileSink {
	return &FileSink{Path: path, Format: format}
}

func (s *FileSink) Name() string { return "file" }

// Target resolves the file the report for suite id would be written to.
func (s *FileSink) Target(id string) string {
	ext := string(s.Format)
	if ext == "" {
		ext = string(benchmark.FormatJSON)
	}
	name := fmt.Sprintf("benchmark-%s.%s", id, ext)
	if s.Path == "" {
		return name
	}
	if strings.HasSuffix(s.Path, string(os.PathSeparator)) {
		return filepath.Join(s.Path, name)
	}
	if fi, err := os.Stat(s.Path); err == nil && fi.IsDir() {
		return filepath.Join(s.Path, name)
	}
	return s.Path
}

func (s *FileSink) Publish(ctx context.Context, r benchmark.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := benchmark.Encode(r, s.Format)
	if err != nil {
		return resilience.Permanent(err)
	}
	target := s.Target(r.Suite.ID)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return resilience.Permanent(fmt.Errorf("creating report directory: %w", err))
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("creating temp report file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("moving report into place: %w", err)
	}
	return nil
}
