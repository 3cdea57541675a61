package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	parseStartedTotal   atomic.Uint64
	parseCompletedTotal atomic.Uint64
	uploadsTotal        atomic.Uint64
	jobsEnqueuedTotal   atomic.Uint64

	jobsReceivedTotal      atomic.Uint64
	jobsCompletedTotal     atomic.Uint64
	jobsFailedTotal        atomic.Uint64
	jobsUnrecoverableTotal atomic.Uint64

	failedMu          sync.Mutex
	parseFailedTotals = map[string]uint64{}

	parseDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncParseStarted increments the started counter.
func IncParseStarted() {
	parseStartedTotal.Add(1)
}

// IncParseCompleted increments the completed counter.
func IncParseCompleted() {
	parseCompletedTotal.Add(1)
}

// IncParseFailed increments the failed counter for a pipeline stage.
func IncParseFailed(stage string) {
	if stage == "" {
		stage = "internal"
	}
	failedMu.Lock()
	parseFailedTotals[stage]++
	failedMu.Unlock()
}

// IncUploads increments the accepted uploads counter.
func IncUploads() {
	uploadsTotal.Add(1)
}

// IncJobsEnqueued increments the queued parse jobs counter.
func IncJobsEnqueued() {
	jobsEnqueuedTotal.Add(1)
}

// IncJobsReceived counts queue messages picked up by a worker.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsCompleted counts queue messages processed and deleted.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed counts queue messages left for redelivery.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDeletedUnrecoverable counts messages dropped without a retry.
func IncJobsDeletedUnrecoverable() {
	jobsUnrecoverableTotal.Add(1)
}

// ObserveParseDurationMs records a pipeline duration in milliseconds.
func ObserveParseDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	parseDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resume_upload_total", "Total resume uploads accepted", uploadsTotal.Load())
	writeCounter(&buf, "resume_parse_enqueued_total", "Total parse jobs enqueued", jobsEnqueuedTotal.Load())
	writeCounter(&buf, "resume_worker_jobs_received_total", "Total parse jobs received by workers", jobsReceivedTotal.Load())
	writeCounter(&buf, "resume_worker_jobs_completed_total", "Total parse jobs completed by workers", jobsCompletedTotal.Load())
	writeCounter(&buf, "resume_worker_jobs_failed_total", "Total parse jobs left for redelivery", jobsFailedTotal.Load())
	writeCounter(&buf, "resume_worker_jobs_deleted_unrecoverable_total", "Total parse jobs dropped as unrecoverable", jobsUnrecoverableTotal.Load())
	writeCounter(&buf, "resume_parse_started_total", "Total resume parses started", parseStartedTotal.Load())
	writeCounter(&buf, "resume_parse_completed_total", "Total resume parses completed", parseCompletedTotal.Load())
	writeLabeledCounter(&buf, "resume_parse_failed_total", "Total resume parses failed by stage", "stage", snapshotFailed())
	writeHistogram(&buf, "resume_parse_duration_ms", "Resume parse duration in milliseconds", parseDuration.Snapshot())
	return buf.String()
}

func snapshotFailed() map[string]uint64 {
	failedMu.Lock()
	defer failedMu.Unlock()
	out := make(map[string]uint64, len(parseFailedTotals))
	for k, v := range parseFailedTotals {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=\"%s\"} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

