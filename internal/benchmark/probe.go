package benchmark

import "runtime"

// MemoryProbe reports the current heap size in bytes. ok is false when the
// probe cannot measure, in which case the runner substitutes an estimate.
type MemoryProbe interface {
	HeapBytes() (bytes int64, ok bool)
}

// RuntimeProbe reads the Go runtime's live heap.
type RuntimeProbe struct{}

func (RuntimeProbe) HeapBytes() (int64, bool) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.HeapAlloc), true
}

// UnavailableProbe never measures. It forces the estimate path.
type UnavailableProbe struct{}

func (UnavailableProbe) HeapBytes() (int64, bool) { return 0, false }

// bytesPerIndexedValue is the rough per (record, field) cost used when no
// probe is available.
const bytesPerIndexedValue = 50

func estimateBytes(records, fields int) int64 {
	return int64(records) * int64(fields) * bytesPerIndexedValue
}
