package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, "unsupported report format %q", s)
}

// Environment describes the host a suite ran on.
type Environment struct {
	Platform  string `json:"platform" yaml:"platform"`
	Arch      string `json:"arch" yaml:"arch"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	CPUs      int    `json:"cpus" yaml:"cpus"`
	Locale    string `json:"locale" yaml:"locale"`
	Hostname  string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
}

// Report is the exported form of a suite.
type Report struct {
	Timestamp   time.Time   `json:"timestamp" yaml:"timestamp"`
	Environment Environment `json:"environment" yaml:"environment"`
	Suite       Suite       `json:"suite" yaml:"suite"`
}

func CurrentEnvironment() Environment {
	env := Environment{
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
		CPUs:      runtime.NumCPU(),
		Locale:    "unknown",
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			env.Locale = v
			break
		}
	}
	if host, err := os.Hostname(); err == nil {
		env.Hostname = host
	}
	return env
}

// NewReport stamps suite with the current time and host.
func NewReport(suite Suite) Report {
	return Report{
		Timestamp:   time.Now().UTC(),
		Environment: CurrentEnvironment(),
		Suite:       suite,
	}
}

// Export serialises suite as a report in format.
func Export(suite Suite, format Format) ([]byte, error) {
	return Encode(NewReport(suite), format)
}

// Encode serialises an existing report.
func Encode(report Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding report as json: %w", err)
		}
		return data, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return nil, fmt.Errorf("encoding report as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding report as yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, "unsupported report format %q", format)
}

// ParseReport decodes data produced by Export in the same format.
func ParseReport(data []byte, format Format) (Report, error) {
	var report Report
	switch format {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &report); err != nil {
			return Report{}, fmt.Errorf("decoding json report: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &report); err != nil {
			return Report{}, fmt.Errorf("decoding yaml report: %w", err)
		}
	default:
		return Report{}, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.CodeUsage, "unsupported report format %q", format)
	}
	return report, nil
}
