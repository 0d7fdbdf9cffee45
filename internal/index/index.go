// Package index builds the per-field token index the query engine uses to
// find candidate records. Each field maps normalised tokens (full value,
// prefixes and words) to a roaring bitmap of record positions.
package index

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/record"
)

// epochs is shared by every Index so an epoch from one index never
// validates against another.
var epochs atomic.Uint64

// Stats summarises the current index contents.
type Stats struct {
	Epoch     uint64        `json:"epoch"`
	Records   int           `json:"records"`
	Fields    int           `json:"fields"`
	Tokens    int           `json:"tokens"`
	Postings  uint64        `json:"postings"`
	BuildTime time.Duration `json:"build_time"`
	BuiltAt   time.Time     `json:"built_at"`
}

type Index struct {
	mu        sync.RWMutex
	fields    []string
	postings  map[string]map[string]*roaring.Bitmap
	sorted    map[string][]string
	values    map[string][]string
	records   int
	epoch     uint64
	builtAt   time.Time
	buildTime time.Duration
}

func New() *Index {
	return &Index{
		postings: make(map[string]map[string]*roaring.Bitmap),
		sorted:   make(map[string][]string),
		values:   make(map[string][]string),
	}
}

// Build replaces the index with one covering records and fields and returns
// the new epoch. Positions are only meaningful against this exact slice;
// reordering or resizing it requires another Build.
func (x *Index) Build(records []record.Record, fields []string) uint64 {
	start := time.Now()
	postings := make(map[string]map[string]*roaring.Bitmap, len(fields))
	fullValues := make(map[string]map[string]struct{}, len(fields))
	for _, field := range fields {
		postings[field] = make(map[string]*roaring.Bitmap)
		fullValues[field] = make(map[string]struct{})
	}

	for pos, rec := range records {
		for _, field := range fields {
			value := record.Normalize(rec[field])
			if value == "" {
				continue
			}
			fullValues[field][value] = struct{}{}
			terms := postings[field]
			for _, token := range Tokens(value) {
				bm, ok := terms[token]
				if !ok {
					bm = roaring.New()
					terms[token] = bm
				}
				bm.Add(uint32(pos))
			}
		}
	}

	sorted := make(map[string][]string, len(postings))
	values := make(map[string][]string, len(fullValues))
	for field, terms := range postings {
		keys := make([]string, 0, len(terms))
		for token, bm := range terms {
			bm.RunOptimize()
			keys = append(keys, token)
		}
		sort.Strings(keys)
		sorted[field] = keys

		vals := make([]string, 0, len(fullValues[field]))
		for v := range fullValues[field] {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		values[field] = vals
	}

	epoch := epochs.Add(1)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.fields = append([]string(nil), fields...)
	x.postings = postings
	x.sorted = sorted
	x.values = values
	x.records = len(records)
	x.epoch = epoch
	x.builtAt = time.Now()
	x.buildTime = time.Since(start)
	return epoch
}

// Exact returns the positions indexed under token for field, or nil. The
// bitmap is shared with the index and must not be modified.
func (x *Index) Exact(field, token string) *roaring.Bitmap {
	x.mu.RLock()
	defer x.mu.RUnlock()
	terms, ok := x.postings[field]
	if !ok {
		return nil
	}
	return terms[token]
}

// Prefix returns the union of positions of every token of field that starts
// with prefix. The result is a fresh bitmap owned by the caller.
func (x *Index) Prefix(field, prefix string) *roaring.Bitmap {
	x.mu.RLock()
	defer x.mu.RUnlock()
	keys := x.sorted[field]
	terms := x.postings[field]
	i := sort.SearchStrings(keys, prefix)
	var matched []*roaring.Bitmap
	for ; i < len(keys) && strings.HasPrefix(keys[i], prefix); i++ {
		matched = append(matched, terms[keys[i]])
	}
	if len(matched) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(matched...)
}

// FullValues returns the sorted distinct normalised values of field.
func (x *Index) FullValues(field string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.values[field]
}

// Built reports whether Build has run at least once.
func (x *Index) Built() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.epoch != 0
}

func (x *Index) Epoch() uint64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.epoch
}

// Records is the length of the record slice the index was built from.
func (x *Index) Records() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.records
}

func (x *Index) Fields() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]string(nil), x.fields...)
}

// BuildTime is how long the last Build took.
func (x *Index) BuildTime() time.Duration {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.buildTime
}

func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	s := Stats{
		Epoch:     x.epoch,
		Records:   x.records,
		Fields:    len(x.fields),
		BuildTime: x.buildTime,
		BuiltAt:   x.builtAt,
	}
	for _, terms := range x.postings {
		s.Tokens += len(terms)
		for _, bm := range terms {
			s.Postings += bm.GetCardinality()
		}
	}
	return s
}
