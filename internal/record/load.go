package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

// LoadFile reads records from path. The extension picks the format: .json
// holds an array of objects, .jsonl and .ndjson one object per line, and
// .yaml or .yml a sequence of mappings. Every error wraps ErrInvalidInput.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening records file: %v", apperrors.ErrInvalidInput, err)
	}
	defer f.Close()

	var recs []Record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		recs, err = DecodeJSON(f)
	case ".jsonl", ".ndjson":
		recs, err = DecodeJSONLines(f)
	case ".yaml", ".yml":
		recs, err = DecodeYAML(f)
	default:
		return nil, fmt.Errorf("%w: records file %s: unsupported extension %q", apperrors.ErrInvalidInput, path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: records file %s: %v", apperrors.ErrInvalidInput, path, err)
	}
	return recs, nil
}

func DecodeJSON(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decoding json records: %w", err)
	}
	return recs, nil
}

// DecodeJSONLines skips blank lines.
func DecodeJSONLines(r io.Reader) ([]Record, error) {
	var recs []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading json lines: %w", err)
	}
	return recs, nil
}

func DecodeYAML(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := yaml.NewDecoder(r).Decode(&recs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding yaml records: %w", err)
	}
	return recs, nil
}
