package metrics

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "zault").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
// Zault has no network surface of its own, so this is the exporter's only
// entry point — callers that want to serve it over HTTP wire WriteMetrics
// into their own handler.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Block store metrics ---
	e.writeHelp(w, "blocks_written_total", "Total blocks written to the store")
	e.writeType(w, "blocks_written_total", "counter")
	e.writeMetric(w, "blocks_written_total", labels, float64(snap.BlocksWritten))

	e.writeHelp(w, "blocks_read_total", "Total blocks read from the store")
	e.writeType(w, "blocks_read_total", "counter")
	e.writeMetric(w, "blocks_read_total", labels, float64(snap.BlocksRead))

	// --- File protocol metrics ---
	e.writeHelp(w, "files_added_total", "Total files added to the vault")
	e.writeType(w, "files_added_total", "counter")
	e.writeMetric(w, "files_added_total", labels, float64(snap.FilesAdded))

	e.writeHelp(w, "files_fetched_total", "Total files retrieved from the vault")
	e.writeType(w, "files_fetched_total", "counter")
	e.writeMetric(w, "files_fetched_total", labels, float64(snap.FilesFetched))

	e.writeHelp(w, "bytes_wrapped_total", "Total plaintext bytes encrypted via add_file")
	e.writeType(w, "bytes_wrapped_total", "counter")
	e.writeMetric(w, "bytes_wrapped_total", labels, float64(snap.BytesWrapped))

	e.writeHelp(w, "bytes_unwrapped_total", "Total plaintext bytes decrypted via get_file")
	e.writeType(w, "bytes_unwrapped_total", "counter")
	e.writeMetric(w, "bytes_unwrapped_total", labels, float64(snap.BytesUnwapped))

	// --- Share protocol metrics ---
	e.writeHelp(w, "shares_created_total", "Total share tokens created")
	e.writeType(w, "shares_created_total", "counter")
	e.writeMetric(w, "shares_created_total", labels, float64(snap.SharesCreated))

	e.writeHelp(w, "shares_redeemed_total", "Total share tokens redeemed successfully")
	e.writeType(w, "shares_redeemed_total", "counter")
	e.writeMetric(w, "shares_redeemed_total", labels, float64(snap.SharesRedeemed))

	e.writeHelp(w, "shares_expired_total", "Total share redemptions rejected for expiry")
	e.writeType(w, "shares_expired_total", "counter")
	e.writeMetric(w, "shares_expired_total", labels, float64(snap.SharesExpired))

	e.writeHelp(w, "shares_rejected_total", "Total share redemptions rejected for other reasons")
	e.writeType(w, "shares_rejected_total", "counter")
	e.writeMetric(w, "shares_rejected_total", labels, float64(snap.SharesRejected))

	// --- Export/import metrics ---
	e.writeHelp(w, "blocks_exported_total", "Total blocks written to export containers")
	e.writeType(w, "blocks_exported_total", "counter")
	e.writeMetric(w, "blocks_exported_total", labels, float64(snap.BlocksExported))

	e.writeHelp(w, "blocks_imported_total", "Total blocks accepted from import containers")
	e.writeType(w, "blocks_imported_total", "counter")
	e.writeMetric(w, "blocks_imported_total", labels, float64(snap.BlocksImported))

	// --- Security metrics ---
	e.writeHelp(w, "auth_failures_total", "Total authentication failures (signature, AEAD, identity load)")
	e.writeType(w, "auth_failures_total", "counter")
	e.writeMetric(w, "auth_failures_total", labels, float64(snap.AuthFailures))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "add_file_duration_milliseconds", "add_file duration in milliseconds", labels, snap.AddFileLatency)
	e.writeHistogram(w, "get_file_duration_milliseconds", "get_file duration in milliseconds", labels, snap.GetFileLatency)
	e.writeHistogram(w, "create_share_duration_milliseconds", "create_share duration in milliseconds", labels, snap.CreateShareLatency)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
