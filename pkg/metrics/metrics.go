package metrics

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// Metrics collects counters for container parsing, serialization and
// storage round trips
type Metrics struct {
	mu sync.RWMutex

	// Parse metrics
	ParseTotal        int64
	ParseErrorsTotal  int64
	ParseBytesTotal   int64
	ParseDurationNs   int64
	ChunksParsedTotal int64

	// Serialize metrics
	SerializeTotal      int64
	SerializeBytesTotal int64

	// Storage metrics
	StorageLoadsTotal    map[string]int64 // by backend
	StoragePersistsTotal map[string]int64 // by backend
	StorageDurationNs    map[string]int64 // by backend

	// Chunk type metrics
	ChunkTypeCount map[string]int64 // chunk type -> occurrences seen
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		StorageLoadsTotal:    make(map[string]int64),
		StoragePersistsTotal: make(map[string]int64),
		StorageDurationNs:    make(map[string]int64),
		ChunkTypeCount:       make(map[string]int64),
	}
}

// RecordParse records one container parse. chunkTypes is empty when the
// parse failed.
func (m *Metrics) RecordParse(bytes int64, chunkTypes []string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ParseTotal++
	m.ParseBytesTotal += bytes
	m.ParseDurationNs += duration.Nanoseconds()
	if err != nil {
		m.ParseErrorsTotal++
	}

	m.ChunksParsedTotal += int64(len(chunkTypes))
	for _, t := range chunkTypes {
		m.ChunkTypeCount[t]++
	}

	log.Debug().
		Str("size", humanize.Bytes(uint64(bytes))).
		Int("chunks", len(chunkTypes)).
		Dur("duration", duration).
		Bool("failed", err != nil).
		Msg("parse completed")
}

// RecordSerialize records one container serialization
func (m *Metrics) RecordSerialize(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SerializeTotal++
	m.SerializeBytesTotal += bytes

	log.Debug().
		Str("size", humanize.Bytes(uint64(bytes))).
		Msg("serialize completed")
}

// RecordStorage records a load (persist == false) or persist against a backend
func (m *Metrics) RecordStorage(backend string, persist bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if persist {
		m.StoragePersistsTotal[backend]++
	} else {
		m.StorageLoadsTotal[backend]++
	}
	m.StorageDurationNs[backend] += duration.Nanoseconds()

	log.Debug().
		Str("backend", backend).
		Bool("persist", persist).
		Dur("duration", duration).
		Msg("storage operation completed")
}

// Snapshot returns the current counters keyed by metric name
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := make(map[string]interface{})

	metrics["pngme_parse_total"] = m.ParseTotal
	metrics["pngme_parse_errors_total"] = m.ParseErrorsTotal
	metrics["pngme_parse_bytes_total"] = m.ParseBytesTotal
	metrics["pngme_parse_seconds_total"] = float64(m.ParseDurationNs) / 1e9
	metrics["pngme_chunks_parsed_total"] = m.ChunksParsedTotal
	metrics["pngme_serialize_total"] = m.SerializeTotal
	metrics["pngme_serialize_bytes_total"] = m.SerializeBytesTotal

	for backend, count := range m.StorageLoadsTotal {
		metrics["pngme_storage_loads_total{backend=\""+backend+"\"}"] = count
	}
	for backend, count := range m.StoragePersistsTotal {
		metrics["pngme_storage_persists_total{backend=\""+backend+"\"}"] = count
	}
	for chunkType, count := range m.ChunkTypeCount {
		metrics["pngme_chunk_type_total{type=\""+chunkType+"\"}"] = count
	}

	return metrics
}

// LogSummary logs a summary of current metrics
func (m *Metrics) LogSummary() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var loads, persists int64
	for _, count := range m.StorageLoadsTotal {
		loads += count
	}
	for _, count := range m.StoragePersistsTotal {
		persists += count
	}

	log.Info().
		Int64("parses", m.ParseTotal).
		Int64("parse_errors", m.ParseErrorsTotal).
		Str("parsed", humanize.Bytes(uint64(m.ParseBytesTotal))).
		Int64("chunks", m.ChunksParsedTotal).
		Int64("serializes", m.SerializeTotal).
		Str("serialized", humanize.Bytes(uint64(m.SerializeBytesTotal))).
		Int64("storage_loads", loads).
		Int64("storage_persists", persists).
		Msg("metrics summary")
}

// Global metrics instance
var GlobalMetrics = NewMetrics()

// Convenience functions for global metrics
func RecordParse(bytes int64, chunkTypes []string, duration time.Duration, err error) {
	GlobalMetrics.RecordParse(bytes, chunkTypes, duration, err)
}

func RecordSerialize(bytes int64) {
	GlobalMetrics.RecordSerialize(bytes)
}

func RecordStorage(backend string, persist bool, duration time.Duration) {
	GlobalMetrics.RecordStorage(backend, persist, duration)
}

func LogMetricsSummary() {
	GlobalMetrics.LogSummary()
}
