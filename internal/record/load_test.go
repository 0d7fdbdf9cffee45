package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFileFormats(t *testing.T) {
	cases := map[string]string{
		"recs.json":   `[{"symbol":"AAPL","price":187.5},{"symbol":"MSFT","price":410}]`,
		"recs.jsonl":  "{\"symbol\":\"AAPL\",\"price\":187.5}\n\n{\"symbol\":\"MSFT\",\"price\":410}\n",
		"recs.ndjson": "{\"symbol\":\"AAPL\",\"price\":187.5}\n{\"symbol\":\"MSFT\",\"price\":410}",
		"recs.yaml":   "- symbol: AAPL\n  price: 187.5\n- symbol: MSFT\n  price: 410\n",
	}
	for name, body := range cases {
		recs, err := LoadFile(writeFile(t, name, body))
		require.NoError(t, err, name)
		require.Len(t, recs, 2, name)
		assert.Equal(t, "AAPL", recs[0]["symbol"], name)
		n, ok := ToNumber(recs[1]["price"])
		assert.True(t, ok, name)
		assert.Equal(t, 410.0, n, name)
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(writeFile(t, "recs.csv", "a,b"))
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = DecodeJSONLines(strings.NewReader("{\"a\":1}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestDecodeYAMLEmpty(t *testing.T) {
	recs, err := DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}
