package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/resilience"
)

var errMissing = errors.New("missing")

func testReport(id string) benchmark.Report {
	return benchmark.Report{
		Timestamp:   time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
		Environment: benchmark.Environment{Platform: "linux", Arch: "amd64", CPUs: 8, Locale: "C"},
		Suite: benchmark.Suite{
			ID:   id,
			Name: "suite " + id,
			Results: []benchmark.Result{
				{TestName: "Simple Queries - 100 records", DataSize: 100, Complexity: benchmark.Simple, MeanMs: 0.25, Throughput: 4000},
			},
		},
	}
}

type fakeKV struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	lists  map[string][]string
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string][]byte{}, ttls: map[string]time.Duration{}, lists: map[string][]string{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) PushCapped(_ context.Context, key, value string, limit int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := append([]string{value}, f.lists[key]...)
	if limit > 0 && int64(len(l)) > limit {
		l = l[:limit]
	}
	f.lists[key] = l
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return nil, errMissing
	}
	return v, nil
}

func (f *fakeKV) Recent(_ context.Context, key string, n int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.lists[key]
	if int64(len(l)) > n {
		l = l[:n]
	}
	return append([]string(nil), l...), nil
}

func TestFileSinkWritesIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir, benchmark.FormatJSON)
	require.NoError(t, sink.Publish(context.Background(), testReport("abc")))

	path := filepath.Join(dir, "benchmark-abc.json")
	assert.Equal(t, path, sink.Target("abc"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := benchmark.ParseReport(data, benchmark.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Suite.ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileSinkExplicitYAMLPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.yaml")
	sink := NewFileSink(path, benchmark.FormatYAML)
	require.NoError(t, sink.Publish(context.Background(), testReport("y1")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := benchmark.ParseReport(data, benchmark.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "suite y1", got.Suite.Name)
	assert.Equal(t, 4000.0, got.Suite.Results[0].Throughput)

	assert.Equal(t, "benchmark-x.json", NewFileSink("", "").Target("x"))
}

func TestFileSinkBadFormatIsPermanent(t *testing.T) {
	sink := NewFileSink(t.TempDir(), "csv")
	err := sink.Publish(context.Background(), testReport("z"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRedisSinkAndHistory(t *testing.T) {
	kv := newFakeKV()
	cfg := config.Default().Redis
	cfg.KeyPrefix = "bench"
	cfg.HistorySize = 2
	sink := NewRedisSink(kv, cfg)

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, sink.Publish(context.Background(), testReport(id)))
	}
	assert.Equal(t, cfg.ReportTTL, kv.ttls["bench:r1"])
	assert.Equal(t, []string{"r3", "r2"}, kv.lists["bench:history"])

	var stored benchmark.Report
	require.NoError(t, json.Unmarshal(kv.values["bench:r2"], &stored))
	assert.Equal(t, "r2", stored.Suite.ID)

	delete(kv.values, "bench:r3")
	history, err := LoadHistory(context.Background(), kv, "bench", 10, func(err error) bool { return errors.Is(err, errMissing) })
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "r2", history[0].Suite.ID)

	_, err = LoadHistory(context.Background(), kv, "bench", 10, nil)
	assert.ErrorIs(t, err, errMissing)
}

type fakeProducer struct {
	events []kafka.Event
	err    error
}

func (f *fakeProducer) Publish(_ context.Context, e kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func TestKafkaSinkKeysBySuite(t *testing.T) {
	p := &fakeProducer{}
	sink := NewKafkaSink(p)
	require.NoError(t, sink.Publish(context.Background(), testReport("k1")))
	require.Len(t, p.events, 1)
	assert.Equal(t, "k1", p.events[0].Key)
	assert.Equal(t, EventType, p.events[0].Type)

	raw, err := json.Marshal(p.events[0].Value)
	require.NoError(t, err)
	got, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "k1", got.Suite.ID)
}

type fakeExecer struct {
	query string
	args  []any
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.query, f.args = query, args
	return nil, f.err
}

func TestPostgresSinkUpserts(t *testing.T) {
	db := &fakeExecer{}
	r := testReport("p1")
	require.NoError(t, NewPostgresSink(db).Publish(context.Background(), r))
	assert.Contains(t, db.query, "INSERT INTO benchmark_reports")
	assert.Contains(t, db.query, "ON CONFLICT (id)")
	require.Len(t, db.args, 3)
	assert.Equal(t, "p1", db.args[0])
	assert.True(t, json.Valid([]byte(db.args[1].(string))))
	assert.Equal(t, r.Timestamp, db.args[2])

	db.err = errors.New("relation does not exist")
	err := NewPostgresSink(db).Publish(context.Background(), r)
	assert.ErrorContains(t, err, "inserting report p1")
}

type funcSink struct {
	name  string
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) error
}

func (s *funcSink) Name() string { return s.name }

func (s *funcSink) Publish(ctx context.Context, _ benchmark.Report) error {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(ctx, call)
}

func fastConfig() config.ReportConfig {
	return config.ReportConfig{
		SinkTimeout:      time.Second,
		RetryAttempts:    3,
		RetryDelay:       time.Millisecond,
		BreakerThreshold: 1,
		BreakerReset:     time.Hour,
	}
}

func TestPublisherIsolatesFailures(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	good := &funcSink{name: "good", fn: func(context.Context, int) error { return nil }}
	bad := &funcSink{name: "bad", fn: func(context.Context, int) error { return errors.New("connection refused") }}
	p := NewPublisher(fastConfig(), m, bad, good)

	err := p.Publish(context.Background(), testReport("s1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSinkUnavailable)
	assert.Equal(t, apperrors.CodeSink, apperrors.ExitCode(err))
	assert.ErrorContains(t, err, "sink bad")
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, 3, bad.calls, "retried up to the attempt limit")

	err = p.Publish(context.Background(), testReport("s2"))
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
	assert.Equal(t, 3, bad.calls, "open breaker skips the sink")
	assert.Equal(t, 2, good.calls)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReportPublishTotal.WithLabelValues("good", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportPublishTotal.WithLabelValues("bad", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportPublishTotal.WithLabelValues("bad", "skipped")))
}

func TestPublisherRetriesTransientFailure(t *testing.T) {
	flaky := &funcSink{name: "flaky", fn: func(_ context.Context, call int) error {
		if call == 1 {
			return errors.New("timeout")
		}
		return nil
	}}
	require.NoError(t, NewPublisher(fastConfig(), nil, flaky).Publish(context.Background(), testReport("s")))
	assert.Equal(t, 2, flaky.calls)
}

func TestPublisherDoesNotRetryPermanent(t *testing.T) {
	sink := NewFileSink(t.TempDir(), "csv")
	p := NewPublisher(fastConfig(), nil, sink)
	err := p.Publish(context.Background(), testReport("s"))
	assert.ErrorIs(t, err, apperrors.ErrSinkUnavailable)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPublisherTimesOutSlowSink(t *testing.T) {
	cfg := fastConfig()
	cfg.SinkTimeout = 10 * time.Millisecond
	cfg.RetryAttempts = 1
	slow := &funcSink{name: "slow", fn: func(ctx context.Context, _ int) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	err := NewPublisher(cfg, nil, slow).Publish(context.Background(), testReport("s"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublisherNoSinks(t *testing.T) {
	assert.NoError(t, NewPublisher(fastConfig(), nil).Publish(context.Background(), testReport("s")))
}
