// Package metrics provides observability primitives for the Zault vault
// engine.
//
// The package includes:
//   - A Collector of atomic operation counters and a Histogram type
//   - Prometheus-compatible metrics export
//   - OpenTelemetry tracing support
//   - Health check functionality
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from a vault's block store and protocol
// operations.
type Collector struct {
	// Block store metrics
	blocksWritten atomic.Uint64
	blocksRead    atomic.Uint64

	// File protocol metrics
	filesAdded    atomic.Uint64
	filesFetched  atomic.Uint64
	bytesWrapped  atomic.Uint64
	bytesUnwapped atomic.Uint64

	// Share protocol metrics
	sharesCreated    atomic.Uint64
	sharesRedeemed   atomic.Uint64
	sharesExpired    atomic.Uint64
	sharesRejected   atomic.Uint64

	// Export/import metrics
	blocksExported atomic.Uint64
	blocksImported atomic.Uint64

	// Security metrics
	authFailures atomic.Uint64

	// Performance histograms
	addFileLatency    *Histogram
	getFileLatency    *Histogram
	createShareLatency *Histogram

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		addFileLatency:     NewHistogram(OperationLatencyBuckets),
		getFileLatency:     NewHistogram(OperationLatencyBuckets),
		createShareLatency: NewHistogram(OperationLatencyBuckets),
		createdAt:          time.Now(),
		labels:             labels,
	}
}

// OperationLatencyBuckets bounds vault operation latency histograms, in
// milliseconds. Chunking and post-quantum signing dominate cost, so the
// buckets skew wider than a typical RPC histogram.
var OperationLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// --- Block store metrics ---

// BlockWritten records a block persisted to the store.
func (c *Collector) BlockWritten() {
	c.blocksWritten.Add(1)
}

// BlockRead records a block read back from the store.
func (c *Collector) BlockRead() {
	c.blocksRead.Add(1)
}

// --- File protocol metrics ---

// FileAdded records a completed add_file call and its plaintext size.
func (c *Collector) FileAdded(plaintextSize uint64, d time.Duration) {
	c.filesAdded.Add(1)
	c.bytesWrapped.Add(plaintextSize)
	c.addFileLatency.Observe(float64(d.Milliseconds()))
}

// FileFetched records a completed get_file call and its plaintext size.
func (c *Collector) FileFetched(plaintextSize uint64, d time.Duration) {
	c.filesFetched.Add(1)
	c.bytesUnwapped.Add(plaintextSize)
	c.getFileLatency.Observe(float64(d.Milliseconds()))
}

// --- Share protocol metrics ---

// ShareCreated records a create_share call.
func (c *Collector) ShareCreated(d time.Duration) {
	c.sharesCreated.Add(1)
	c.createShareLatency.Observe(float64(d.Milliseconds()))
}

// ShareRedeemed records a successful redeem_share call.
func (c *Collector) ShareRedeemed() {
	c.sharesRedeemed.Add(1)
}

// ShareExpired records a redeem_share call rejected for a past expiry.
func (c *Collector) ShareExpired() {
	c.sharesExpired.Add(1)
}

// ShareRejected records a redeem_share call rejected for any other
// reason (bad signature, wrong recipient, truncated token).
func (c *Collector) ShareRejected() {
	c.sharesRejected.Add(1)
}

// --- Export/import metrics ---

// BlocksExported records how many blocks a single export call wrote.
func (c *Collector) BlocksExported(n int) {
	c.blocksExported.Add(uint64(n))
}

// BlocksImported records how many blocks a single import call accepted.
func (c *Collector) BlocksImported(n int) {
	c.blocksImported.Add(uint64(n))
}

// --- Security metrics ---

// RecordAuthFailure increments the authentication failure counter:
// signature mismatches, AEAD tag failures, and identity-file decryption
// failures all count.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// --- Snapshot ---

// Snapshot returns a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	BlocksWritten uint64
	BlocksRead    uint64

	FilesAdded    uint64
	FilesFetched  uint64
	BytesWrapped  uint64
	BytesUnwapped uint64

	SharesCreated  uint64
	SharesRedeemed uint64
	SharesExpired  uint64
	SharesRejected uint64

	BlocksExported uint64
	BlocksImported uint64

	AuthFailures uint64

	AddFileLatency     HistogramSummary
	GetFileLatency     HistogramSummary
	CreateShareLatency HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:          time.Now(),
		Uptime:             time.Since(c.createdAt),
		BlocksWritten:      c.blocksWritten.Load(),
		BlocksRead:         c.blocksRead.Load(),
		FilesAdded:         c.filesAdded.Load(),
		FilesFetched:       c.filesFetched.Load(),
		BytesWrapped:       c.bytesWrapped.Load(),
		BytesUnwapped:      c.bytesUnwapped.Load(),
		SharesCreated:      c.sharesCreated.Load(),
		SharesRedeemed:     c.sharesRedeemed.Load(),
		SharesExpired:      c.sharesExpired.Load(),
		SharesRejected:     c.sharesRejected.Load(),
		BlocksExported:     c.blocksExported.Load(),
		BlocksImported:     c.blocksImported.Load(),
		AuthFailures:       c.authFailures.Load(),
		AddFileLatency:     c.addFileLatency.Summary(),
		GetFileLatency:     c.getFileLatency.Summary(),
		CreateShareLatency: c.createShareLatency.Summary(),
		Labels:             c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.blocksWritten.Store(0)
	c.blocksRead.Store(0)
	c.filesAdded.Store(0)
	c.filesFetched.Store(0)
	c.bytesWrapped.Store(0)
	c.bytesUnwapped.Store(0)
	c.sharesCreated.Store(0)
	c.sharesRedeemed.Store(0)
	c.sharesExpired.Store(0)
	c.sharesRejected.Store(0)
	c.blocksExported.Store(0)
	c.blocksImported.Store(0)
	c.authFailures.Store(0)
	c.addFileLatency.Reset()
	c.getFileLatency.Reset()
	c.createShareLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollectorOnce.Do(func() {})
	globalCollector = c
}
