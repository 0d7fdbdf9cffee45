package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
)

func TestNewUnreachable(t *testing.T) {
	cfg := config.Default().Postgres
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ConnMaxLifetime = time.Second

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
